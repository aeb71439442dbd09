package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// SnapshotVersion returns the tenant's pricing data version. A tenant that
// was never invalidated is at version 0.
func (c *Client) SnapshotVersion(ctx context.Context, tenantID string) (int64, error) {
	raw, err := c.Get(ctx, c.SnapshotVersionKey(tenantID))
	switch {
	case errors.Is(err, redis.Nil):
		return 0, nil
	case err != nil:
		return 0, err
	}
	version, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse snapshot version %q: %w", raw, err)
	}
	return version, nil
}

// BumpSnapshotVersion moves the tenant to a new version. Snapshots cached
// under older versions are never read again and age out on their TTL.
func (c *Client) BumpSnapshotVersion(ctx context.Context, tenantID string) (int64, error) {
	return c.Incr(ctx, c.SnapshotVersionKey(tenantID))
}
