package util

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"syscall"
	"time"
)

// RetryPolicy controls how often a transient filesystem failure is retried
type RetryPolicy struct {
	Attempts    int           // total attempts including the first
	InitialWait time.Duration // doubled after every failure
	MaxWait     time.Duration
}

// DefaultRetryPolicy suits local disks and card readers
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		Attempts:    2,
		InitialWait: 100 * time.Millisecond,
		MaxWait:     time.Second,
	}
}

// NetworkRetryPolicy suits audio archives on NFS or SMB mounts
func NetworkRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		Attempts:    4,
		InitialWait: 250 * time.Millisecond,
		MaxWait:     5 * time.Second,
	}
}

// IsTransient reports whether err looks like a passing I/O or network
// failure rather than a property of the file itself
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, ErrCorrupt) || errors.Is(err, ErrUnsupported) {
		return false
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EAGAIN,
			syscall.EINTR,
			syscall.EIO,
			syscall.ETIMEDOUT,
			syscall.ECONNRESET,
			syscall.ECONNABORTED,
			syscall.ENETDOWN,
			syscall.ENETUNREACH,
			syscall.EHOSTDOWN,
			syscall.EHOSTUNREACH,
			syscall.ESTALE:
			return true
		}
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"timed out",
		"connection reset",
		"resource temporarily unavailable",
		"stale file handle",
		"input/output error",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// RetryValue runs op until it succeeds, fails permanently, or the policy is
// exhausted. A nil policy means a single attempt.
func RetryValue[T any](ctx context.Context, p *RetryPolicy, log *Logger, name string, op func() (T, error)) (T, error) {
	attempts := 1
	var wait, maxWait time.Duration
	if p != nil && p.Attempts > 1 {
		attempts, wait, maxWait = p.Attempts, p.InitialWait, p.MaxWait
	}

	var result T
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err = op()
		if err == nil {
			if attempt > 1 {
				log.Debug("%s succeeded on attempt %d/%d", name, attempt, attempts)
			}
			return result, nil
		}
		if !IsTransient(err) || attempt == attempts {
			break
		}

		log.Debug("%s failed (attempt %d/%d), retrying in %v: %v", name, attempt, attempts, wait, err)
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
		if maxWait > 0 && wait > maxWait {
			wait = maxWait
		}
	}

	if attempts > 1 && IsTransient(err) {
		return result, fmt.Errorf("%s failed after %d attempts: %w", name, attempts, err)
	}
	return result, err
}

// Retry is RetryValue for operations without a result
func Retry(ctx context.Context, p *RetryPolicy, log *Logger, name string, op func() error) error {
	_, err := RetryValue(ctx, p, log, name, func() (struct{}, error) {
		return struct{}{}, op()
	})
	return err
}
