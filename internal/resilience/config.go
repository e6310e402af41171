package resilience

import (
	"time"
)

// FromSourceConfig builds the archive retry policy from the source settings.
// maxRetries counts retries after the first attempt; values below zero are
// treated as zero.
func FromSourceConfig(maxRetries int, initialBackoff time.Duration) RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.MaxAttempts = max(maxRetries, 0) + 1
	if initialBackoff > 0 {
		cfg.InitialBackoff = initialBackoff
	}
	return cfg
}
