package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/cogsdesk-backend/api/responses"
	pkgerrors "github.com/angelmondragon/cogsdesk-backend/pkg/errors"
	"github.com/angelmondragon/cogsdesk-backend/pkg/logger"
)

// WindowStore counts hits in a fixed window; the redis client satisfies it.
type WindowStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimitPolicy defines a per-tenant fixed window for one traffic surface.
type RateLimitPolicy struct {
	name   string
	window time.Duration
	limit  int
}

// NewRateLimitPolicy builds a policy with the supplied window and limit.
func NewRateLimitPolicy(name string, window time.Duration, limit int) RateLimitPolicy {
	return RateLimitPolicy{
		name:   strings.ToLower(strings.TrimSpace(name)),
		window: window,
		limit:  limit,
	}
}

func (p RateLimitPolicy) enabled() bool {
	return p.window > 0 && p.limit > 0
}

func (p RateLimitPolicy) normalizedName() string {
	if p.name == "" {
		return "api"
	}
	return p.name
}

// TenantRateLimit throttles requests per tenant. Requests without a tenant in
// context pass through; TenantContext rejects them further down the chain.
// When the window store is unreachable the request is let through: a redis
// outage should slow nobody's quotes down to zero.
func TenantRateLimit(policy RateLimitPolicy, store WindowStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}
		name := policy.normalizedName()
		retryAfter := strconv.Itoa(int(math.Ceil(policy.window.Seconds())))

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			tenantID := TenantIDFromContext(ctx)
			if tenantID == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowed, count, err := store.FixedWindowAllow(ctx, name+":"+tenantID, int64(policy.limit), policy.window)
			if err != nil {
				logg.Error(logg.WithField(ctx, "policy", name), "rate_limit.store_unavailable", err)
				next.ServeHTTP(w, r)
				return
			}

			remaining := int64(policy.limit) - count
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(policy.limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if !allowed {
				logg.Warn(logg.WithFields(ctx, map[string]any{
					"policy":         name,
					"attempts":       count,
					"limit":          policy.limit,
					"window_seconds": int(policy.window.Seconds()),
				}), "rate_limit.blocked")
				w.Header().Set("Retry-After", retryAfter)
				responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded").
					WithDetails(map[string]any{"policy": name, "retry_after_seconds": retryAfter}))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
