package services

import (
	"context"
	"testing"

	"fizzcaps-server/models"
	"fizzcaps-server/storage"
)

func TestDrainRads(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewPlayerService(store)
	ctx := context.Background()

	cases := []struct {
		wallet    string
		rads      int
		radResist int
		hp        int
		wantHP    int
	}{
		// 500 effective rads drain floor(500/250) = 2 HP.
		{"hot", 500, 0, 100, 98},
		// Resistance soaks the dose under the threshold: no drain.
		{"shielded", 500, 400, 100, 100},
		// At the threshold exactly: no drain.
		{"threshold", 150, 0, 100, 100},
		// Just over the threshold but the integer division floors to zero.
		{"simmering", 200, 0, 100, 100},
		// Already down: left alone.
		{"down", 900, 0, 0, 0},
		// Drain never goes below zero.
		{"dying", 990, 0, 1, 0},
	}

	for _, tc := range cases {
		state := models.NewPlayerState()
		state.Rads = tc.rads
		state.HP = tc.hp
		if tc.radResist > 0 {
			// Resistance is derived from equipped gear.
			item := models.GearItem{ID: "g", Name: "Lead Suit", Rarity: models.RarityEpic,
				Effects: []models.GearEffect{{Type: models.EffectRadResist, Val: tc.radResist}}}
			state.Gear = []models.GearItem{item}
			state.Equipped = map[string]models.GearItem{"g": item}
		}
		if _, err := store.PutPlayer(ctx, tc.wallet, state, 0); err != nil {
			t.Fatalf("seed %s: %v", tc.wallet, err)
		}
	}

	svc.DrainRads(ctx)

	for _, tc := range cases {
		state, _, err := store.GetPlayer(ctx, tc.wallet)
		if err != nil {
			t.Fatalf("reload %s: %v", tc.wallet, err)
		}
		if state.HP != tc.wantHP {
			t.Errorf("%s: hp = %d, want %d", tc.wallet, state.HP, tc.wantHP)
		}
	}
}
