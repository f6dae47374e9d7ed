// Package cache stores computed results that are expensive to rebuild, such
// as full EMI schedules.
package cache

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Cache is a byte-oriented key/value store with per-entry TTL. Get reports a
// miss for absent, expired or unreadable entries.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Close() error
}

// Key joins parts with a separator, hashes them and prefixes the hex digest:
// Key("emi:schedule", "500000", "10", "60") -> "emi:schedule:<hash>".
func Key(prefix string, parts ...string) string {
	d := xxhash.New()
	_, _ = d.WriteString(strings.Join(parts, "\x1f"))
	return prefix + ":" + strconv.FormatUint(d.Sum64(), 16)
}
