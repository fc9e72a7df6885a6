package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"compquiz-service/internal/app"
	"compquiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuestionCache caches authored question groups in Redis in front of a
// slower source (normally the Postgres loader) and falls back to the source
// on cache miss.
// Keys:
//
//	qbank:subjects          JSON list of subjects
//	qbank:subject:{subject} JSON list of question groups
type QuestionCache struct {
	client *redis.Client
	source app.QuestionSource
	ttl    time.Duration
	sf     singleflight.Group
}

func NewQuestionCache(client *redis.Client, source app.QuestionSource, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		source: source,
		ttl:    ttl,
	}
}

func (c *QuestionCache) QuestionGroups(ctx context.Context, subject string) ([]domain.QuestionGroup, error) {
	key := c.subjectKey(subject)

	if groups, ok := c.readGroups(ctx, key); ok {
		return groups, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if groups, ok := c.readGroups(ctx, key); ok {
			return groups, nil
		}

		groups, err := c.source.QuestionGroups(ctx, subject)
		if err != nil {
			return nil, err
		}
		c.write(ctx, key, groups)
		return groups, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.QuestionGroup), nil
}

func (c *QuestionCache) Subjects(ctx context.Context) ([]string, error) {
	key := "qbank:subjects"

	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var subjects []string
		if err := json.Unmarshal(raw, &subjects); err == nil {
			return subjects, nil
		}
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		subjects, err := c.source.Subjects(ctx)
		if err != nil {
			return nil, err
		}
		c.write(ctx, key, subjects)
		return subjects, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}

func (c *QuestionCache) readGroups(ctx context.Context, key string) ([]domain.QuestionGroup, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var groups []domain.QuestionGroup
	if err := json.Unmarshal(raw, &groups); err != nil {
		return nil, false
	}
	return groups, true
}

// write is best-effort: a cache outage degrades to source reads.
func (c *QuestionCache) write(ctx context.Context, key string, value interface{}) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
}

func (c *QuestionCache) subjectKey(subject string) string {
	return fmt.Sprintf("qbank:subject:%s", subject)
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations; the package-level
	// source is safe across concurrent refills
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(rand.Int63n(jitterMax+1))
}
