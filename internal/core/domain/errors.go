package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRoute rejects empty or malformed routes before any state
	// mutation.
	ErrInvalidRoute = errors.New("route must contain at least one valid waypoint")

	// ErrStorageUnavailable wraps backing-store read/write failures. It is
	// the only true failure in the taxonomy: it propagates to the caller,
	// is never retried by the engine, and is never downgraded to a default
	// value.
	ErrStorageUnavailable = errors.New("progress storage unavailable")

	// ErrStepConflict is returned by CreditWaypoint when another writer
	// advanced the user's step first. The engine resolves it by reloading
	// and re-evaluating; it never surfaces to callers.
	ErrStepConflict = errors.New("route step advanced concurrently")

	// ErrNoRouteProduced reports that the content generator failed or
	// returned an empty candidate list.
	ErrNoRouteProduced = errors.New("route generator produced no route")
)

// StorageError tags err as a storage failure while keeping its detail.
func StorageError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}
