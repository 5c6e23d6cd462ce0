// Package retry implements an explicit retry policy with exponential backoff
// for HTTP calls to the text-generation service.
package retry

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Policy holds the backoff schedule. MaxAttempts counts the first try, so
// MaxAttempts=5 means at most four retries.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
}

// DefaultPolicy matches the service's documented retry ceiling of 5 attempts.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 5,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    8 * time.Second,
		Multiplier:  2.0,
	}
}

// Checker decides whether a failed attempt should be retried.
type Checker func(err error, statusCode int, responseBody []byte) bool

// Func is one attempt of the retryable operation.
type Func func(attempt int) (result any, statusCode int, responseBody []byte, err error)

// Logger receives retry progress messages. zap's SugaredLogger Infof/Debugf
// satisfy it directly.
type Logger func(template string, args ...any)

// delay computes the backoff for the given zero-based retry index.
func (p Policy) delay(retryIdx int) time.Duration {
	d := time.Duration(float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(retryIdx)))
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// Execute runs fn under the policy. A nil check retries every error. The
// context is honored while waiting between attempts.
func (p Policy) Execute(ctx context.Context, name string, log Logger, check Checker, fn Func) (any, error) {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	var lastErr error
	var lastStatus int
	var lastBody []byte

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if attempt > 1 {
			d := p.delay(attempt - 2)
			if log != nil {
				log("%s retry %d/%d after %v", name, attempt, p.MaxAttempts, d)
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(d):
			}
		}

		result, status, body, err := fn(attempt)
		if err == nil {
			return result, nil
		}

		lastErr, lastStatus, lastBody = err, status, body
		retryable := check == nil || check(err, status, body)
		if !retryable {
			return nil, err
		}
		if log != nil {
			log("%s attempt %d/%d failed: %v", name, attempt, p.MaxAttempts, err)
		}
	}

	return nil, &ExhaustedError{
		Name:        name,
		MaxAttempts: p.MaxAttempts,
		LastStatus:  lastStatus,
		LastBody:    lastBody,
		LastErr:     lastErr,
	}
}

// ExhaustedError reports that every attempt under the policy failed.
type ExhaustedError struct {
	Name        string
	MaxAttempts int
	LastStatus  int
	LastBody    []byte
	LastErr     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s: %d attempts exhausted, last error: %v", e.Name, e.MaxAttempts, e.LastErr)
}

func (e *ExhaustedError) Unwrap() error {
	return e.LastErr
}
