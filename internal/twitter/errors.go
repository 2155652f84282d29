package twitter

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound = errors.New("tweet not found or private")
	ErrAuth     = errors.New("twitter authentication failed")
)

// RateLimitError is retryable once the upstream window resets.
type RateLimitError struct {
	Reset time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("twitter rate limited until %s", e.Reset.Format(time.RFC3339))
}

func (e *RateLimitError) RetryAfter() time.Duration {
	d := time.Until(e.Reset)
	if d < 0 {
		return 0
	}
	return d
}

// NetworkError wraps transport failures and timeouts, retryable with
// backoff up to the client's attempt ceiling.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("twitter network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func IsRetryable(err error) bool {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return true
	}
	var ne *NetworkError
	return errors.As(err, &ne)
}
