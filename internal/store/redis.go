package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ktwom22/nhl-bot/internal/models"
)

// GamesMirrorTTL bounds how long a published day of games stays readable.
const GamesMirrorTTL = 24 * time.Hour

// ErrLockHeld is returned when another holder owns a lock.
var ErrLockHeld = errors.New("lock held by another process")

// KVStore abstracts the Redis operations used for locks and mirrors.
type KVStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	DelIfEqual(ctx context.Context, key, value string) error
	Ping(ctx context.Context) error
}

// RedisKV implements KVStore using Redis.
type RedisKV struct {
	client *redis.Client
}

func NewRedisKV(client *redis.Client) *RedisKV {
	return &RedisKV{client: client}
}

var delIfEqual = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (s *RedisKV) Get(ctx context.Context, key string) (string, error) {
	return s.client.Get(ctx, key).Result()
}

func (s *RedisKV) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return s.client.Set(ctx, key, value, expiration).Err()
}

func (s *RedisKV) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return s.client.SetNX(ctx, key, value, expiration).Result()
}

func (s *RedisKV) DelIfEqual(ctx context.Context, key, value string) error {
	return delIfEqual.Run(ctx, s.client, []string{key}, value).Err()
}

func (s *RedisKV) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Lock is a TTL-bounded lock on a single key.
type Lock struct {
	kv    KVStore
	key   string
	token string
}

// AcquireLock takes key for ttl or returns ErrLockHeld.
func AcquireLock(ctx context.Context, kv KVStore, key string, ttl time.Duration) (*Lock, error) {
	token := uuid.NewString()
	ok, err := kv.SetNX(ctx, key, token, ttl)
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", key, err)
	}
	if !ok {
		return nil, ErrLockHeld
	}
	return &Lock{kv: kv, key: key, token: token}, nil
}

// Release drops the lock only if this holder still owns it.
func (l *Lock) Release(ctx context.Context) error {
	return l.kv.DelIfEqual(ctx, l.key, l.token)
}

func IngestLockKey(date string) string {
	return "ingest:lock:" + date
}

func GamesMirrorKey(date string) string {
	return "games:" + date
}

// PublishGames mirrors a day's records as JSON under games:<date>.
func PublishGames(ctx context.Context, kv KVStore, date string, records []models.GameRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshaling games: %w", err)
	}
	return kv.Set(ctx, GamesMirrorKey(date), data, GamesMirrorTTL)
}

// FetchGames reads a mirrored day. A missing key returns nil, nil.
func FetchGames(ctx context.Context, kv KVStore, date string) ([]models.GameRecord, error) {
	raw, err := kv.Get(ctx, GamesMirrorKey(date))
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var records []models.GameRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("decode games mirror: %w", err)
	}
	return records, nil
}
