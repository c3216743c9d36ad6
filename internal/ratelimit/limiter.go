// Package ratelimit bounds requests per reporter identity with a fixed
// window counter. The window resets implicitly via key expiry.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// LimitError signals an exhausted window. It is distinct from generic
// errors so the caller can present cooling-period messaging.
type LimitError struct {
	Key    string
	Limit  int
	Window time.Duration
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s: %d requests per %s allowed", e.Key, e.Limit, e.Window)
}

// Limiter admits or rejects one request for a key. Allow returns a
// *LimitError once the key's count in the current window reaches the
// limit; any other error is an infrastructure failure.
type Limiter interface {
	Allow(ctx context.Context, key string) error
}
