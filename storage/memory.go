package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"fizzcaps-server/models"
)

// MemoryStore is the in-process Store used by tests and local development.
// Documents are stored as marshalled JSON so callers get real copies with the
// same normalization path as the network stores.
type MemoryStore struct {
	mu        sync.Mutex
	docs      map[string][]byte
	versions  map[string]uint64
	cooldowns map[string]int64
	lootID    uint64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:      map[string][]byte{},
		versions:  map[string]uint64{},
		cooldowns: map[string]int64{},
	}
}

func (s *MemoryStore) GetPlayer(_ context.Context, identity string) (*models.PlayerState, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[identity]
	if !ok {
		return nil, 0, ErrNotFound
	}
	var state models.PlayerState
	if err := json.Unmarshal(doc, &state); err != nil {
		return nil, 0, fmt.Errorf("corrupt player document for %s: %w", identity, err)
	}
	state.Normalize()
	return &state, s.versions[identity], nil
}

func (s *MemoryStore) PutPlayer(_ context.Context, identity string, state *models.PlayerState, expectedVersion uint64) (uint64, error) {
	doc, err := json.Marshal(state)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.versions[identity] != expectedVersion {
		return 0, ErrVersionConflict
	}
	newVersion := expectedVersion + 1
	s.docs[identity] = doc
	s.versions[identity] = newVersion
	return newVersion, nil
}

func (s *MemoryStore) ListIdentities(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	identities := make([]string, 0, len(s.docs))
	for id := range s.docs {
		identities = append(identities, id)
	}
	return identities, nil
}

func (s *MemoryStore) NextLootID(_ context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lootID++
	return s.lootID, nil
}

func (s *MemoryStore) SetCooldownMirror(_ context.Context, identity string, atMillis int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cooldowns[identity] = atMillis
	return nil
}

func (s *MemoryStore) GetCooldownMirror(_ context.Context, identity string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cooldowns[identity], nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }
func (s *MemoryStore) Close() error               { return nil }
