package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a record id does not exist in the store.
var ErrNotFound = errors.New("job not found")

// ErrNoBatches is returned when every configured source failed in a run.
var ErrNoBatches = errors.New("no source produced a batch")

// HTTPError wraps an HTTP status code so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// ValidationError marks a malformed record. It is rejected before any write.
type ValidationError struct {
	ID     string
	Index  int // position in the offending call, -1 if unknown
	Reason string
}

func (e *ValidationError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("invalid record %s: %s", e.ID, e.Reason)
	}
	if e.Index >= 0 {
		return fmt.Sprintf("invalid record at index %d: %s", e.Index, e.Reason)
	}
	return "invalid record: " + e.Reason
}

// StorageError wraps a failed store operation. It is fatal to a run.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// OracleError is a per-record scoring failure. It never aborts a run.
type OracleError struct {
	ID  string
	Err error
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("scoring %s: %v", e.ID, e.Err)
}

func (e *OracleError) Unwrap() error {
	return e.Err
}
