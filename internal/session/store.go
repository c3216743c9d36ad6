// Package session keys accumulated dialog context by thread id.
// Values are opaque bytes; the caller owns the encoding. Entries older
// than their TTL are unavailable to future reads.
package session

import (
	"context"
	"time"
)

// Store — last-writer-wins per key, safe for concurrent use.
type Store interface {
	// Get returns nil with no error when the key is absent or expired.
	Get(ctx context.Context, threadID string) ([]byte, error)
	// Put overwrites the value and resets the expiry.
	Put(ctx context.Context, threadID string, val []byte, ttl time.Duration) error
}
