package memory

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"ladder-quiz-bot/internal/app"
	"ladder-quiz-bot/internal/domain"
)

// BankCache caches bank reads with TTL to avoid repeated DB hits.
// Levels are passed through; questions and links are cached per key.
// A zero TTL keeps entries forever.
type BankCache struct {
	app.Bank
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group
	rnd   *rand.Rand
	rndMu sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedEntry
}

type cachedEntry struct {
	value interface{}
	// expiresAt is zero for entries that never expire.
	expiresAt time.Time
}

func (e cachedEntry) fresh(now time.Time) bool {
	return e.expiresAt.IsZero() || e.expiresAt.After(now)
}

func NewBankCache(bank app.Bank, ttl time.Duration) *BankCache {
	return &BankCache{
		Bank:  bank,
		ttl:   ttl,
		clock: time.Now,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		cache: make(map[string]cachedEntry),
	}
}

func (c *BankCache) QuestionsAt(ctx context.Context, level int) ([]domain.Question, error) {
	v, err := c.get(ctx, fmt.Sprintf("level:%d", level), func(ctx context.Context) (interface{}, error) {
		return c.Bank.QuestionsAt(ctx, level)
	})
	if err != nil {
		return nil, err
	}
	return append([]domain.Question(nil), v.([]domain.Question)...), nil
}

func (c *BankCache) Question(ctx context.Context, id int64) (domain.Question, error) {
	v, err := c.get(ctx, fmt.Sprintf("question:%d", id), func(ctx context.Context) (interface{}, error) {
		return c.Bank.Question(ctx, id)
	})
	if err != nil {
		return domain.Question{}, err
	}
	return v.(domain.Question), nil
}

func (c *BankCache) Links(ctx context.Context, questionID int64) ([]domain.Link, error) {
	v, err := c.get(ctx, fmt.Sprintf("links:%d", questionID), func(ctx context.Context) (interface{}, error) {
		return c.Bank.Links(ctx, questionID)
	})
	if err != nil {
		return nil, err
	}
	return append([]domain.Link(nil), v.([]domain.Link)...), nil
}

func (c *BankCache) get(ctx context.Context, key string, load func(context.Context) (interface{}, error)) (interface{}, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[key]; ok && entry.fresh(now) {
		c.mu.RUnlock()
		return entry.value, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[key]; ok && entry.fresh(now) {
			c.mu.RUnlock()
			return entry.value, nil
		}
		c.mu.RUnlock()

		value, err := load(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		entry := cachedEntry{value: value}
		if ttl := c.ttlWithJitter(); ttl > 0 {
			entry.expiresAt = now.Add(ttl)
		}
		c.cache[key] = entry
		c.mu.Unlock()
		return value, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *BankCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
