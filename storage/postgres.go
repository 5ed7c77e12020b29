package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fizzcaps-server/models"
)

// PlayerDocument stores one versioned JSON blob per identity. The table acts
// as a key-value store with optimistic locking; nothing else reads the blob.
type PlayerDocument struct {
	Identity  string    `gorm:"primaryKey;type:varchar(64)"`
	Doc       string    `gorm:"type:jsonb;not null"`
	Version   uint64    `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

type CooldownEntry struct {
	Identity    string `gorm:"primaryKey;type:varchar(64)"`
	LastClaimMs int64  `gorm:"not null"`
}

type LootCounter struct {
	ID    int    `gorm:"primaryKey"`
	Value uint64 `gorm:"not null;default:0"`
}

type PostgresStore struct {
	db *gorm.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&PlayerDocument{}, &CooldownEntry{}, &LootCounter{}); err != nil {
		return nil, fmt.Errorf("failed to migrate store tables: %w", err)
	}
	// Seed the single counter row so NextLootID can do a bare UPDATE.
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&LootCounter{ID: 1, Value: 0}).Error; err != nil {
		return nil, fmt.Errorf("failed to seed loot counter: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) GetPlayer(ctx context.Context, identity string) (*models.PlayerState, uint64, error) {
	var row PlayerDocument
	err := s.db.WithContext(ctx).First(&row, "identity = ?", identity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var state models.PlayerState
	if err := json.Unmarshal([]byte(row.Doc), &state); err != nil {
		return nil, 0, fmt.Errorf("corrupt player document for %s: %w", identity, err)
	}
	state.Normalize()
	return &state, row.Version, nil
}

func (s *PostgresStore) PutPlayer(ctx context.Context, identity string, state *models.PlayerState, expectedVersion uint64) (uint64, error) {
	doc, err := json.Marshal(state)
	if err != nil {
		return 0, err
	}
	newVersion := expectedVersion + 1

	if expectedVersion == 0 {
		res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
			Create(&PlayerDocument{Identity: identity, Doc: string(doc), Version: newVersion})
		if res.Error != nil {
			return 0, fmt.Errorf("%w: %v", ErrUnavailable, res.Error)
		}
		if res.RowsAffected == 0 {
			return 0, ErrVersionConflict
		}
		return newVersion, nil
	}

	res := s.db.WithContext(ctx).Model(&PlayerDocument{}).
		Where("identity = ? AND version = ?", identity, expectedVersion).
		Updates(map[string]any{"doc": string(doc), "version": newVersion})
	if res.Error != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, ErrVersionConflict
	}
	return newVersion, nil
}

func (s *PostgresStore) ListIdentities(ctx context.Context) ([]string, error) {
	var identities []string
	err := s.db.WithContext(ctx).Model(&PlayerDocument{}).Pluck("identity", &identities).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return identities, nil
}

func (s *PostgresStore) NextLootID(ctx context.Context) (uint64, error) {
	var value uint64
	err := s.db.WithContext(ctx).
		Raw("UPDATE loot_counters SET value = value + 1 WHERE id = 1 RETURNING value").
		Scan(&value).Error
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return value, nil
}

func (s *PostgresStore) SetCooldownMirror(ctx context.Context, identity string, atMillis int64) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "identity"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_claim_ms"}),
	}).Create(&CooldownEntry{Identity: identity, LastClaimMs: atMillis}).Error
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) GetCooldownMirror(ctx context.Context, identity string) (int64, error) {
	var row CooldownEntry
	err := s.db.WithContext(ctx).First(&row, "identity = ?", identity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return row.LastClaimMs, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	db, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
