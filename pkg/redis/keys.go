package redis

import (
	"strconv"
	"strings"
)

const (
	defaultNamespace  = "cogs"
	idempotencyPrefix = "idempotency"
	rateLimitPrefix   = "rate_limit"
	lockPrefix        = "lock"
	snapshotPrefix    = "snapshot"
)

func (c *Client) IdempotencyKey(scope, id string) string {
	return c.key(idempotencyPrefix, scope, id)
}

func (c *Client) RateLimitKey(scope string) string {
	return c.key(rateLimitPrefix, scope)
}

// LockKey addresses a distributed job lock such as the cron-worker cycle lock.
func (c *Client) LockKey(name string) string {
	return c.key(lockPrefix, name)
}

// SnapshotVersionKey holds the tenant's pricing data version counter.
func (c *Client) SnapshotVersionKey(tenantID string) string {
	return c.key(snapshotPrefix, tenantID, "version")
}

// SnapshotKey addresses one cached pricing snapshot for a tenant at a version.
func (c *Client) SnapshotKey(tenantID string, version int64) string {
	return c.key(snapshotPrefix, tenantID, "v"+strconv.FormatInt(version, 10))
}

// key joins non-empty parts under the client namespace.
func (c *Client) key(parts ...string) string {
	ns := strings.TrimSpace(c.namespace)
	if ns == "" {
		ns = defaultNamespace
	}
	var b strings.Builder
	b.WriteString(ns)
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		b.WriteByte(':')
		b.WriteString(part)
	}
	return b.String()
}
