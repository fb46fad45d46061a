// Package memory provides an in-process ProgressRepository used by tests
// and single-node development setups. It honors the same per-user
// linearizability contract as the Postgres adapter, using a mutex per user
// record instead of a guarded UPDATE.
package memory

import (
	"context"
	"sync"

	"github.com/samirrijal/questline/internal/core/domain"
)

// ProgressRepo implements ports.ProgressRepository in memory.
type ProgressRepo struct {
	mu    sync.Mutex
	users map[string]*userRecord
}

type userRecord struct {
	mu       sync.Mutex
	progress domain.RouteProgress
}

// NewProgressRepo creates an empty in-memory store.
func NewProgressRepo() *ProgressRepo {
	return &ProgressRepo{users: make(map[string]*userRecord)}
}

func (r *ProgressRepo) record(userID string) *userRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.users[userID]
	if !ok {
		rec = &userRecord{progress: domain.RouteProgress{UserID: userID}}
		r.users[userID] = rec
	}
	return rec
}

// GetProgress returns a copy of the stored progress; unknown users get the
// empty default record.
func (r *ProgressRepo) GetProgress(ctx context.Context, userID string) (*domain.RouteProgress, error) {
	rec := r.record(userID)
	rec.mu.Lock()
	defer rec.mu.Unlock()

	p := rec.progress
	p.Route = append(domain.Route(nil), rec.progress.Route...)
	p.Visited = append([]domain.Waypoint(nil), rec.progress.Visited...)
	return &p, nil
}

// SetRoute replaces the route, resets step and visited history and bumps
// the route generation.
func (r *ProgressRepo) SetRoute(ctx context.Context, userID string, route domain.Route) error {
	if len(route) == 0 {
		return domain.ErrInvalidRoute
	}
	rec := r.record(userID)
	rec.mu.Lock()
	defer rec.mu.Unlock()

	rec.progress.Route = append(domain.Route(nil), route...)
	rec.progress.Generation++
	rec.progress.Step = 0
	rec.progress.Visited = nil
	return nil
}

// SetStep sets the step directly.
func (r *ProgressRepo) SetStep(ctx context.Context, userID string, step int) error {
	rec := r.record(userID)
	rec.mu.Lock()
	defer rec.mu.Unlock()

	rec.progress.Step = step
	return nil
}

// AppendVisited appends to the visited history.
func (r *ProgressRepo) AppendVisited(ctx context.Context, userID string, wp domain.Waypoint) error {
	rec := r.record(userID)
	rec.mu.Lock()
	defer rec.mu.Unlock()

	rec.progress.Visited = append(rec.progress.Visited, wp)
	return nil
}

// AddBalance atomically adds delta to the balance.
func (r *ProgressRepo) AddBalance(ctx context.Context, userID string, delta int) error {
	rec := r.record(userID)
	rec.mu.Lock()
	defer rec.mu.Unlock()

	rec.progress.Balance += delta
	return nil
}

// CreditWaypoint applies append+advance+credit atomically, guarded by the
// generation+step compare-and-swap.
func (r *ProgressRepo) CreditWaypoint(ctx context.Context, userID string, fromGeneration, fromStep int, wp domain.Waypoint, points int) error {
	rec := r.record(userID)
	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.progress.Generation != fromGeneration || rec.progress.Step != fromStep {
		return domain.ErrStepConflict
	}
	rec.progress.Visited = append(rec.progress.Visited, wp)
	rec.progress.Step = fromStep + 1
	rec.progress.Balance += points
	return nil
}
