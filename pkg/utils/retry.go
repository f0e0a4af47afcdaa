package utils

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/brown-library/bdr-scripts/pkg/logger"
)

const (
	DefaultRetryAttempts = 3
	DefaultInitialDelay  = 1 * time.Second
)

// IsTransientError checks if an error is transient (e.g., network issues).
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case 429, 500, 502, 503, 504:
			return true
		}
		return false
	}

	// Check for network-related errors
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := err.Error()
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "temporarily unavailable") {
		return true
	}
	if strings.Contains(msg, "connection reset") || strings.Contains(msg, "connection refused") {
		return true
	}
	// Check for DNS resolution errors
	if strings.Contains(msg, "no such host") || strings.Contains(msg, "server misbehaving") {
		return true
	}

	return false
}

// WithRetry retries operation on transient errors with the default budget.
func WithRetry(ctx context.Context, operation func() error) error {
	return Retry(ctx, DefaultRetryAttempts, DefaultInitialDelay, operation, IsTransientError)
}

// Retry retries a function on transient errors with exponential backoff.
// attempts counts retries after the first call.
func Retry(ctx context.Context, attempts int, delay time.Duration, operation func() error, isTransient func(error) bool) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = delay
	bo.MaxElapsedTime = 0

	var tries int
	err := backoff.RetryNotify(func() error {
		tries++
		err := operation()
		if err == nil {
			return nil
		}
		if !isTransient(err) {
			logger.Debug("Non-transient error occurred: %v", err)
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(max(attempts, 0))), ctx),
		func(err error, wait time.Duration) {
			logger.Warn("Transient error occurred: %v. Retrying (%d/%d) in %s...", err, tries, attempts, wait)
		})
	if err != nil && tries > 1 {
		logger.Error("Failed after %d attempts: %v", tries, err)
	}
	return err
}
