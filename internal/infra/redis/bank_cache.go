package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"ladder-quiz-bot/internal/app"
	"ladder-quiz-bot/internal/domain"
)

// BankCache caches bank reads in Redis and falls back to the wrapped bank on a miss.
// Values are stored as JSON:
//
//	quiz:bank:level:{level}      questions of a level
//	quiz:bank:question:{id}      one question
//	quiz:bank:links:{questionID} answers of a question with correctness
//
// Level costs are read straight from the wrapped bank. A zero TTL keeps entries forever.
type BankCache struct {
	app.Bank
	client *redis.Client
	ttl    time.Duration
	sf     singleflight.Group
	rndMu  sync.Mutex
	rnd    *rand.Rand
}

func NewBankCache(client *redis.Client, bank app.Bank, ttl time.Duration) *BankCache {
	return &BankCache{
		Bank:   bank,
		client: client,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *BankCache) QuestionsAt(ctx context.Context, level int) ([]domain.Question, error) {
	var questions []domain.Question
	err := c.cached(ctx, fmt.Sprintf("quiz:bank:level:%d", level), &questions, func(ctx context.Context) (interface{}, error) {
		return c.Bank.QuestionsAt(ctx, level)
	})
	return questions, err
}

func (c *BankCache) Question(ctx context.Context, id int64) (domain.Question, error) {
	var question domain.Question
	err := c.cached(ctx, fmt.Sprintf("quiz:bank:question:%d", id), &question, func(ctx context.Context) (interface{}, error) {
		return c.Bank.Question(ctx, id)
	})
	return question, err
}

func (c *BankCache) Links(ctx context.Context, questionID int64) ([]domain.Link, error) {
	var links []domain.Link
	err := c.cached(ctx, fmt.Sprintf("quiz:bank:links:%d", questionID), &links, func(ctx context.Context) (interface{}, error) {
		return c.Bank.Links(ctx, questionID)
	})
	return links, err
}

// cached decodes key into dst, loading and storing it on a miss. Redis errors degrade to the
// wrapped bank.
func (c *BankCache) cached(ctx context.Context, key string, dst interface{}, load func(context.Context) (interface{}, error)) error {
	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		if err := json.Unmarshal(raw, dst); err == nil {
			return nil
		}
	}

	raw, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
			return raw, nil
		}
		value, err := load(ctx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}
		_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
		return raw, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(raw.([]byte), dst)
}

func (c *BankCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
