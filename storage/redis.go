package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"fizzcaps-server/models"
)

// Key layout matches what the original deployment already has in Redis:
// player:<addr> holds the raw JSON blob, claim_cooldown:<addr> the last
// claim timestamp. The :ver sibling is new and backs the CAS.
const (
	playerKeyPrefix   = "player:"
	versionKeySuffix  = ":ver"
	cooldownKeyPrefix = "claim_cooldown:"
	lootCounterKey    = "loot_id_seq"
)

type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(redisURL string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	return &RedisStore{rdb: redis.NewClient(opt)}, nil
}

func playerKey(identity string) string  { return playerKeyPrefix + identity }
func versionKey(identity string) string { return playerKeyPrefix + identity + versionKeySuffix }

func (s *RedisStore) GetPlayer(ctx context.Context, identity string) (*models.PlayerState, uint64, error) {
	vals, err := s.rdb.MGet(ctx, playerKey(identity), versionKey(identity)).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	raw, ok := vals[0].(string)
	if !ok {
		return nil, 0, ErrNotFound
	}

	var state models.PlayerState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, 0, fmt.Errorf("corrupt player document for %s: %w", identity, err)
	}
	state.Normalize()

	// Documents written before the CAS existed have no version key; they
	// behave as version 0 and the first write creates it.
	var version uint64
	if vstr, ok := vals[1].(string); ok {
		version, _ = strconv.ParseUint(vstr, 10, 64)
	}
	return &state, version, nil
}

func (s *RedisStore) PutPlayer(ctx context.Context, identity string, state *models.PlayerState, expectedVersion uint64) (uint64, error) {
	doc, err := json.Marshal(state)
	if err != nil {
		return 0, err
	}
	newVersion := expectedVersion + 1

	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey(identity)).Uint64()
		if errors.Is(err, redis.Nil) {
			current = 0
		} else if err != nil {
			return err
		}
		if current != expectedVersion {
			return ErrVersionConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, playerKey(identity), doc, 0)
			pipe.Set(ctx, versionKey(identity), strconv.FormatUint(newVersion, 10), 0)
			return nil
		})
		return err
	}

	err = s.rdb.Watch(ctx, txf, versionKey(identity))
	switch {
	case errors.Is(err, ErrVersionConflict), errors.Is(err, redis.TxFailedErr):
		return 0, ErrVersionConflict
	case err != nil:
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return newVersion, nil
}

func (s *RedisStore) ListIdentities(ctx context.Context) ([]string, error) {
	var identities []string
	iter := s.rdb.Scan(ctx, 0, playerKeyPrefix+"*", 200).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if strings.HasSuffix(key, versionKeySuffix) {
			continue
		}
		identities = append(identities, strings.TrimPrefix(key, playerKeyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return identities, nil
}

func (s *RedisStore) NextLootID(ctx context.Context) (uint64, error) {
	id, err := s.rdb.Incr(ctx, lootCounterKey).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return uint64(id), nil
}

func (s *RedisStore) SetCooldownMirror(ctx context.Context, identity string, atMillis int64) error {
	if err := s.rdb.Set(ctx, cooldownKeyPrefix+identity, atMillis, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) GetCooldownMirror(ctx context.Context, identity string) (int64, error) {
	at, err := s.rdb.Get(ctx, cooldownKeyPrefix+identity).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return at, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Close() error { return s.rdb.Close() }
