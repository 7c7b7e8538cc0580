// Package limiter defines interfaces and implementations for invite redemption rate limiting.
package limiter

import (
	"context"
	"time"
)

// Limiter controls invite-code redemption attempts and temporary lockouts.
// Short numeric codes are guessable, so repeated failed redemptions from one
// address place a temporary block.
type Limiter interface {
	// Allow reports whether redemption is currently allowed and optional retry-after.
	Allow(ctx context.Context, ipHash []byte) (bool, time.Duration, error)
	// Success resets counters after a successful redemption.
	Success(ctx context.Context, ipHash []byte) error
	// Failure records a failed attempt; may place a temporary block.
	Failure(ctx context.Context, ipHash []byte) (bool, time.Duration, error)
}
