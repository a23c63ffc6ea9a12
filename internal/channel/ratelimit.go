package channel

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/time/rate"
)

type rateLimited struct {
	Adapter
	limiter *rate.Limiter
}

// RateLimited caps a to perSec sends per second. Waiting for a token
// honours ctx, so a send that cannot start before its deadline fails.
// perSec <= 0 returns a unchanged.
func RateLimited(a Adapter, perSec float64) Adapter {
	if perSec <= 0 {
		return a
	}
	burst := int(math.Ceil(perSec))
	return &rateLimited{Adapter: a, limiter: rate.NewLimiter(rate.Limit(perSec), burst)}
}

func (r *rateLimited) Send(ctx context.Context, msg Message) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s rate limit: %w", r.Channel(), err)
	}
	return r.Adapter.Send(ctx, msg)
}
