package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"fieldservice-workers/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrQuoteNotFound = errors.New("QUOTE_NOT_FOUND")
	ErrSlotLocked    = errors.New("SLOT_LOCKED")
)

const (
	quoteKeyPrefix = "quote:"
	lockKeyPrefix  = "slotlock:"
)

// QuoteStore keeps quoting responses in Redis until they expire.
type QuoteStore struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewQuoteStore(rdb *redis.Client, ttl time.Duration) *QuoteStore {
	return &QuoteStore{redis: rdb, ttl: ttl}
}

func (s *QuoteStore) TTL() time.Duration {
	return s.ttl
}

func (s *QuoteStore) Save(ctx context.Context, q *models.Quote) error {
	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("encode quote: %w", err)
	}
	if err := s.redis.Set(ctx, quoteKeyPrefix+q.ID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save quote %s: %w", q.ID, err)
	}
	return nil
}

func (s *QuoteStore) Get(ctx context.Context, id string) (*models.Quote, error) {
	val, err := s.redis.Get(ctx, quoteKeyPrefix+id).Result()
	if err == redis.Nil {
		return nil, ErrQuoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load quote %s: %w", id, err)
	}

	var q models.Quote
	if err := json.Unmarshal([]byte(val), &q); err != nil {
		return nil, fmt.Errorf("decode quote %s: %w", id, err)
	}
	return &q, nil
}

// Delete drops a quote once it has been booked.
func (s *QuoteStore) Delete(ctx context.Context, id string) error {
	return s.redis.Del(ctx, quoteKeyPrefix+id).Err()
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SlotLocker serializes confirmations for the same calendar hours.
type SlotLocker struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewSlotLocker(rdb *redis.Client, ttl time.Duration) *SlotLocker {
	return &SlotLocker{redis: rdb, ttl: ttl}
}

// Lock holds the hour buckets covered by a confirmed slot.
type Lock struct {
	redis *redis.Client
	token string
	keys  []string
}

// Acquire takes every hour bucket in [start, start+hours). When any bucket is
// already held the partial set is released and ErrSlotLocked is returned.
func (l *SlotLocker) Acquire(ctx context.Context, start time.Time, hours int) (*Lock, error) {
	lock := &Lock{redis: l.redis, token: uuid.NewString()}

	for h := 0; h < hours; h++ {
		key := lockKey(start.Add(time.Duration(h) * time.Hour))
		ok, err := l.redis.SetNX(ctx, key, lock.token, l.ttl).Result()
		if err != nil {
			lock.Release(ctx)
			return nil, fmt.Errorf("lock %s: %w", key, err)
		}
		if !ok {
			lock.Release(ctx)
			return nil, fmt.Errorf("%w: %s", ErrSlotLocked, key)
		}
		lock.keys = append(lock.keys, key)
	}
	return lock, nil
}

// Release frees only the buckets still owned by this lock.
func (l *Lock) Release(ctx context.Context) {
	for _, key := range l.keys {
		_ = releaseScript.Run(ctx, l.redis, []string{key}, l.token).Err()
	}
	l.keys = nil
}

func lockKey(at time.Time) string {
	return lockKeyPrefix + at.Format("2006-01-02") + ":" + strconv.Itoa(at.Hour())
}
