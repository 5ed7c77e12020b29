package services

import (
	"context"
	"log"
	"time"

	"fizzcaps-server/models"
	"fizzcaps-server/storage"
)

// DefaultCooldown matches the original COOLDOWN_SECONDS default.
const DefaultCooldown = 60 * time.Second

// CooldownLedger enforces the per-identity claim window. The authoritative
// timestamp is PlayerState.LastClaimAt so check and record commit under the
// same CAS as the progression write — two racing requests cannot both pass.
// A plain claim_cooldown:<identity> mirror key is kept beside it for flows
// that never load the document (voucher re-issue) and for ops inspection.
type CooldownLedger struct {
	Store  storage.Store
	Window time.Duration
}

func NewCooldownLedger(store storage.Store, window time.Duration) *CooldownLedger {
	if window <= 0 {
		window = DefaultCooldown
	}
	return &CooldownLedger{Store: store, Window: window}
}

// Remaining returns how much of the window is left; zero means clear.
func (l *CooldownLedger) Remaining(state *models.PlayerState, now time.Time) time.Duration {
	if state.LastClaimAt == 0 {
		return 0
	}
	elapsed := now.Sub(time.UnixMilli(state.LastClaimAt))
	if elapsed >= l.Window {
		return 0
	}
	return l.Window - elapsed
}

// Stamp records the claim inside the document; committed by the caller's CAS.
func (l *CooldownLedger) Stamp(state *models.PlayerState, now time.Time) {
	state.LastClaimAt = now.UnixMilli()
}

// MirrorRemaining checks the standalone cooldown key. Used where no document
// write happens and a benign race is acceptable.
func (l *CooldownLedger) MirrorRemaining(ctx context.Context, identity string, now time.Time) (time.Duration, error) {
	at, err := l.Store.GetCooldownMirror(ctx, identity)
	if err != nil {
		return 0, errStoreUnavailable(err)
	}
	if at == 0 {
		return 0, nil
	}
	elapsed := now.Sub(time.UnixMilli(at))
	if elapsed >= l.Window {
		return 0, nil
	}
	return l.Window - elapsed, nil
}

// Mirror updates the standalone key after a successful commit. Best effort:
// the authoritative stamp is already durable.
func (l *CooldownLedger) Mirror(ctx context.Context, identity string, now time.Time) {
	if err := l.Store.SetCooldownMirror(ctx, identity, now.UnixMilli()); err != nil {
		log.Printf("⚠️ [COOLDOWN] mirror write failed for %s: %v", identity, err)
	}
}
