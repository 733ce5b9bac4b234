package limiter

import (
	"context"

	"github.com/go-redis/redis_rate/v10"
	"github.com/hiendaovinh/toolkit/pkg/limiter"
	"github.com/redis/go-redis/v9"
)

type rater interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error)
}

type Limiter struct {
	limiter rater
}

func NewLimiter(client redis.UniversalClient) (*Limiter, error) {
	return &Limiter{redis_rate.NewLimiter(client)}, nil
}

// Allow spends one token of key's budget and fails with limiter.ErrRateLimited
// once the budget is gone.
func (l *Limiter) Allow(ctx context.Context, key string, limit redis_rate.Limit) error {
	res, err := l.limiter.Allow(ctx, key, limit)
	if err != nil {
		return err
	}
	if res.Allowed == 0 {
		return limiter.ErrRateLimited
	}
	return nil
}
