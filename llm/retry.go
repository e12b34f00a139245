package llm

import "time"

// RetryConfig governs how a transient model failure is retried before the
// client moves on to the capability's fallback endpoints.
type RetryConfig struct {
	// MaxAttempts is the attempt budget per endpoint.
	MaxAttempts int

	// BackoffBase is the delay before the first retry.
	BackoffBase time.Duration

	// BackoffMultiplier scales the delay after each failed attempt.
	BackoffMultiplier float64

	// MaxBackoff caps the delay between attempts.
	MaxBackoff time.Duration
}

// DefaultRetryConfig returns the retry policy used when no override is given.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		BackoffBase:       2 * time.Second,
		BackoffMultiplier: 2.0,
		MaxBackoff:        30 * time.Second,
	}
}
