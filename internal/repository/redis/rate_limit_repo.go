package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/DRSN-tech/order-backend/internal/usecase"
	"github.com/DRSN-tech/order-backend/pkg/clients"
	"github.com/DRSN-tech/order-backend/pkg/e"
	"github.com/jimlawless/whereami"
)

// RateLimitRepo: счётчик запросов с фиксированным окном: INCR + EXPIRE на ключ rate_limit:<subject>:<window>.
type RateLimitRepo struct {
	client *clients.RedisClient
	now    func() time.Time
}

func NewRateLimitRepo(client *clients.RedisClient) *RateLimitRepo {
	return &RateLimitRepo{
		client: client,
		now:    time.Now,
	}
}

func (r *RateLimitRepo) Hit(ctx context.Context, subject string, limit int, window time.Duration) (*usecase.RateLimitResult, error) {
	now := r.now()
	windowStart := now.Truncate(window)
	resetAt := windowStart.Add(window)

	key := fmt.Sprintf("rate_limit:%s:%d", subject, windowStart.Unix())

	pipe := r.client.Client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	// запас в секунду, чтобы ключ не пропал раньше конца окна из-за округления
	pipe.Expire(ctx, key, window+time.Second)

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	count := int(incr.Val())
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	return &usecase.RateLimitResult{
		Allowed:   count <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}
