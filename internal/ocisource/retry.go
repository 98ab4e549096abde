package ocisource

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/oracle/oci-go-sdk/v65/common"
	"github.com/rs/zerolog"
)

const (
	DefaultMaxRetries = 3
	maxBackoff        = 30 * time.Second
)

// baseBackoff is the first retry delay; it doubles per attempt.
var baseBackoff = time.Second

// isNotFoundError reports errors that mean the resource is gone or hidden from the caller.
// They are never retried.
func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	if svc, ok := serviceError(err); ok {
		switch svc.GetHTTPStatusCode() {
		case http.StatusNotFound, http.StatusUnauthorized, http.StatusForbidden:
			return true
		}
	}

	errStr := err.Error()
	return strings.Contains(errStr, "NotFound") ||
		strings.Contains(errStr, "NotAuthorized") ||
		strings.Contains(errStr, "Forbidden") ||
		strings.Contains(errStr, "does not exist")
}

// isTransientError checks if the error is transient and should be retried
func isTransientError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if isNotFoundError(err) {
		return false
	}
	if svc, ok := serviceError(err); ok {
		code := svc.GetHTTPStatusCode()
		return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "temporary failure") ||
		strings.Contains(errStr, "service unavailable") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "toomanyrequests") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504")
}

// backoff is 2^attempt seconds capped at 30s, with 10% jitter.
func backoff(attempt int) time.Duration {
	d := time.Duration(math.Min(math.Pow(2, float64(attempt))*float64(baseBackoff), float64(maxBackoff)))
	jitter := time.Duration(float64(d) * 0.1 * (2*rand.Float64() - 1))
	if d+jitter < 0 {
		return d
	}
	return d + jitter
}

// withRetry runs operation until it succeeds, fails with a non-transient error,
// or exhausts maxRetries.
func withRetry(ctx context.Context, log zerolog.Logger, operation func() error, maxRetries int, operationName string) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}

		if !isTransientError(err) {
			return err
		}

		if attempt == maxRetries {
			return fmt.Errorf("operation '%s' failed after %d attempts: %w", operationName, maxRetries+1, err)
		}

		sleepTime := backoff(attempt)
		log.Debug().
			Err(err).
			Str("operation", operationName).
			Str("opc_request_id", requestID(err)).
			Msgf("Retrying %s in %v (attempt %d/%d)", operationName, sleepTime, attempt+1, maxRetries+1)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleepTime):
		}
	}
	return nil
}

// requestID extracts the OCI request id from a service error for support tickets.
func requestID(err error) string {
	if svc, ok := serviceError(err); ok {
		return svc.GetOpcRequestID()
	}
	return ""
}

// serviceError finds an OCI service error anywhere in the wrap chain.
func serviceError(err error) (common.ServiceError, bool) {
	var svc common.ServiceError
	if errors.As(err, &svc) {
		return svc, true
	}
	return nil, false
}
