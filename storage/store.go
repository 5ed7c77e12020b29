package storage

import (
	"context"
	"errors"

	"fizzcaps-server/models"
)

var (
	// ErrNotFound means no document exists for the identity.
	ErrNotFound = errors.New("player document not found")

	// ErrVersionConflict means the compare-and-swap lost a race; the caller
	// reloads and retries.
	ErrVersionConflict = errors.New("player document version conflict")

	// ErrUnavailable wraps backend connectivity failures. Fatal for the
	// request, never for the process.
	ErrUnavailable = errors.New("store unavailable")
)

// Store is the shared key-value persistence boundary: one versioned JSON
// document per identity plus the cooldown mirror and the loot id counter.
// PutPlayer succeeds only when expectedVersion matches the stored version
// (0 = document must not exist yet), which serializes writers per identity.
type Store interface {
	GetPlayer(ctx context.Context, identity string) (*models.PlayerState, uint64, error)
	PutPlayer(ctx context.Context, identity string, state *models.PlayerState, expectedVersion uint64) (uint64, error)
	ListIdentities(ctx context.Context) ([]string, error)

	// NextLootID hands out process-independent monotonic voucher ids.
	NextLootID(ctx context.Context) (uint64, error)

	// Cooldown mirror: a plain timestamp per identity, kept for external
	// inspection and for flows that never load the player document. The
	// authoritative stamp lives inside the document itself.
	SetCooldownMirror(ctx context.Context, identity string, atMillis int64) error
	GetCooldownMirror(ctx context.Context, identity string) (int64, error)

	Ping(ctx context.Context) error
	Close() error
}
