package models

import "testing"

func TestNormalizeRarity(t *testing.T) {
	cases := map[string]Rarity{
		"common":    RarityCommon,
		"rare":      RarityRare,
		"epic":      RarityEpic,
		"legendary": RarityLegendary,
		"":          RarityCommon,
		"mythic":    RarityCommon,
		"Legendary": RarityCommon, // tiers are lowercase on the wire
	}
	for in, want := range cases {
		if got := NormalizeRarity(in); got != want {
			t.Errorf("NormalizeRarity(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRewardTablesCoverEveryTier(t *testing.T) {
	for _, r := range []Rarity{RarityCommon, RarityRare, RarityEpic, RarityLegendary} {
		if _, ok := DropChance[r]; !ok {
			t.Errorf("DropChance missing %s", r)
		}
		if _, ok := BaseRads[r]; !ok {
			t.Errorf("BaseRads missing %s", r)
		}
		if _, ok := XPReward[r]; !ok {
			t.Errorf("XPReward missing %s", r)
		}
		if _, ok := CapsReward[r]; !ok {
			t.Errorf("CapsReward missing %s", r)
		}
		if _, ok := SalvageCaps[r]; !ok {
			t.Errorf("SalvageCaps missing %s", r)
		}
		if len(GearNames[r]) == 0 {
			t.Errorf("GearNames empty for %s", r)
		}
		if len(EffectPool[r]) == 0 {
			t.Errorf("EffectPool empty for %s", r)
		}
		if EffectCount(r) < 1 {
			t.Errorf("EffectCount(%s) = %d", r, EffectCount(r))
		}
	}
}

func TestEffectCountPerTier(t *testing.T) {
	if EffectCount(RarityCommon) != 1 || EffectCount(RarityRare) != 2 ||
		EffectCount(RarityEpic) != 2 || EffectCount(RarityLegendary) != 3 {
		t.Fatal("effect counts off the 1/2/2/3 schedule")
	}
}
