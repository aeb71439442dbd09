package redis

import (
	"context"
	"strconv"
	"time"
)

// FixedWindowAllow counts a hit against scope in the current clock-aligned
// window. Each window gets its own key, so a counter whose expiry was lost
// still stops mattering once the window has passed.
func (c *Client) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	if c.store == nil {
		return false, 0, ErrNotInitialized
	}
	if window <= 0 {
		window = time.Minute
	}

	bucket := c.clock().UnixNano() / int64(window)
	key := c.RateLimitKey(scope) + ":" + strconv.FormatInt(bucket, 10)

	count, err := c.Incr(ctx, key)
	if err != nil {
		return false, 0, err
	}
	if count == 1 {
		if err := c.store.Expire(ctx, key, window).Err(); err != nil {
			return true, count, err
		}
	}
	return count <= limit, count, nil
}
