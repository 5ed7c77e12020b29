package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"fizzcaps-server/models"
	"fizzcaps-server/storage"
)

const (
	// casMaxAttempts bounds the optimistic retry loop. Exhaustion surfaces
	// as a transient conflict, never as partial state.
	casMaxAttempts = 5

	// MessageMaxAge is how old a signed action message may be. Signed
	// messages embed a client timestamp; anything older is a replay.
	MessageMaxAge = 10 * time.Minute

	// messageMaxSkew tolerates client clocks running slightly ahead.
	messageMaxSkew = 2 * time.Minute
)

// ShopItem is a consumable purchasable with caps.
type ShopItem struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
	// RadsDelta / HPDelta apply on purchase (clamped to [0,MaxRads] / maxHp).
	RadsDelta int `json:"radsDelta"`
	HPDelta   int `json:"hpDelta"`
}

// ShopItems is the fixed consumable catalog.
var ShopItems = map[string]ShopItem{
	"radaway": {ID: "radaway", Name: "RadAway", Price: 150, RadsDelta: -300},
	"stimpak": {ID: "stimpak", Name: "Stimpak", Price: 100, HPDelta: 50},
}

// terminalRewardCap bounds a single mini-game payout.
const terminalRewardCap = 500

// PlayerService owns every non-claim mutation of player state: shop
// purchases, gear burns, equip toggles, mini-game payouts, and the radiation
// drain. All writes go through the same per-identity CAS loop the claim
// pipeline uses.
type PlayerService struct {
	Store storage.Store
}

func NewPlayerService(store storage.Store) *PlayerService {
	return &PlayerService{Store: store}
}

// LoadOrDefault returns the stored state or fresh defaults. The read path
// never persists — the document is created lazily by the first write.
func (s *PlayerService) LoadOrDefault(ctx context.Context, wallet string) (*models.PlayerState, uint64, error) {
	state, version, err := s.Store.GetPlayer(ctx, wallet)
	if errors.Is(err, storage.ErrNotFound) {
		return models.NewPlayerState(), 0, nil
	}
	if err != nil {
		return nil, 0, errStoreUnavailable(err)
	}
	return state, version, nil
}

// Mutate runs fn against a freshly loaded state and commits with a CAS,
// retrying on version conflicts. fn must be pure in everything but its
// argument: it reruns from scratch on every attempt.
func (s *PlayerService) Mutate(ctx context.Context, wallet string, fn func(*models.PlayerState) error) (*models.PlayerState, error) {
	for attempt := 0; attempt < casMaxAttempts; attempt++ {
		state, version, err := s.LoadOrDefault(ctx, wallet)
		if err != nil {
			return nil, err
		}
		if err := fn(state); err != nil {
			return nil, err
		}
		if _, err := s.Store.PutPlayer(ctx, wallet, state, version); err != nil {
			if errors.Is(err, storage.ErrVersionConflict) {
				continue
			}
			return nil, errStoreUnavailable(err)
		}
		return state, nil
	}
	return nil, errConflict()
}

// VerifySignedAction authenticates a gameplay request: the wallet must be a
// real pubkey, the message must be "<verb>:<subject>:<ms>" with the expected
// verb and subject, fresh, and signed by the wallet.
func (s *PlayerService) VerifySignedAction(wallet, verb, subject, message, signature string, now time.Time) error {
	if !ValidWallet(wallet) {
		return errInvalidIdentity()
	}
	gotVerb, gotSubject, ts, ok := ParseActionMessage(message)
	if !ok || gotVerb != verb || gotSubject != subject {
		return errBadSignature()
	}
	age := now.Sub(time.UnixMilli(ts))
	if age > MessageMaxAge || age < -messageMaxSkew {
		return errStaleMessage()
	}
	if !VerifySignature([]byte(message), signature, wallet) {
		return errBadSignature()
	}
	return nil
}

// ShopBuy purchases a consumable. Message form: "Buy:<item>:<ms>".
func (s *PlayerService) ShopBuy(ctx context.Context, wallet, itemID, message, signature string) (*models.PlayerState, *ShopItem, error) {
	item, ok := ShopItems[itemID]
	if !ok {
		return nil, nil, errUnknownItem(itemID)
	}
	if err := s.VerifySignedAction(wallet, "Buy", itemID, message, signature, time.Now()); err != nil {
		return nil, nil, err
	}

	state, err := s.Mutate(ctx, wallet, func(st *models.PlayerState) error {
		if st.Caps < item.Price {
			return errInsufficientCaps(item.Price, st.Caps)
		}
		st.Caps -= item.Price
		st.Rads += item.RadsDelta
		if st.Rads < 0 {
			st.Rads = 0
		}
		if st.Rads > models.MaxRads {
			st.Rads = models.MaxRads
		}
		st.HP += item.HPDelta
		if st.HP > st.MaxHP {
			st.HP = st.MaxHP
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	log.Printf("🧪 [SHOP] %s bought %s for %d caps", wallet, item.Name, item.Price)
	return state, &item, nil
}

// NukeGear burns an owned item for salvage caps. The signed message names
// the item by display name, the request by id: "Burn:<itemName>:<ms>".
func (s *PlayerService) NukeGear(ctx context.Context, wallet, gearID, message, signature string) (*models.PlayerState, int64, error) {
	var salvage int64
	state, err := s.Mutate(ctx, wallet, func(st *models.PlayerState) error {
		item, ok := st.FindGear(gearID)
		if !ok {
			return errUnknownGear(gearID)
		}
		if err := s.VerifySignedAction(wallet, "Burn", item.Name, message, signature, time.Now()); err != nil {
			return err
		}
		st.RemoveGear(gearID)
		salvage = models.SalvageCaps[item.Rarity]
		st.Caps += salvage
		st.RecomputeBonuses()
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	log.Printf("☢️ [NUKE] %s burned gear %s for %d caps", wallet, gearID, salvage)
	return state, salvage, nil
}

// SetEquipped equips or unequips an owned item and recomputes the derived
// stats. Message form: "Equip:<gearId>:<ms>" / "Unequip:<gearId>:<ms>".
func (s *PlayerService) SetEquipped(ctx context.Context, wallet, gearID, message, signature string, equip bool) (*models.PlayerState, error) {
	verb := "Equip"
	if !equip {
		verb = "Unequip"
	}
	if err := s.VerifySignedAction(wallet, verb, gearID, message, signature, time.Now()); err != nil {
		return nil, err
	}
	return s.Mutate(ctx, wallet, func(st *models.PlayerState) error {
		if equip {
			item, ok := st.FindGear(gearID)
			if !ok {
				return errUnknownGear(gearID)
			}
			st.Equipped[gearID] = item
		} else {
			delete(st.Equipped, gearID)
		}
		st.RecomputeBonuses()
		return nil
	})
}

// TerminalReward pays out a capped amount of caps for an offline mini-game.
// Message form: "Terminal:<amount>:<ms>" — the amount is inside the signed
// message, so the payout the wallet approved is the payout applied.
func (s *PlayerService) TerminalReward(ctx context.Context, wallet string, amount int64, message, signature string) (*models.PlayerState, error) {
	if amount < 1 || amount > terminalRewardCap {
		return nil, errBadRequest(fmt.Sprintf("amount must be 1..%d", terminalRewardCap))
	}
	if err := s.VerifySignedAction(wallet, "Terminal", fmt.Sprintf("%d", amount), message, signature, time.Now()); err != nil {
		return nil, err
	}
	state, err := s.Mutate(ctx, wallet, func(st *models.PlayerState) error {
		st.Caps += amount
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("💾 [TERMINAL] %s rewarded %d caps", wallet, amount)
	return state, nil
}
