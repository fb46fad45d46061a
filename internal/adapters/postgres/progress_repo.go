package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/questline/internal/core/domain"
)

// ProgressRepo implements ports.ProgressRepository with pgx. Route and
// visited history live in jsonb columns; coordinates round-trip through
// float64 JSON numbers, well inside the 1e-6 degree fidelity matching
// decisions need. Every mutation is a single statement, so per-user
// writes are atomic at the storage layer; the compound credit is guarded
// by a generation+step predicate (compare-and-swap).
type ProgressRepo struct {
	db *DB
}

// NewProgressRepo creates a new ProgressRepo.
func NewProgressRepo(db *DB) *ProgressRepo {
	return &ProgressRepo{db: db}
}

// GetProgress returns the stored record, or the empty default for a user
// that has no row yet.
func (r *ProgressRepo) GetProgress(ctx context.Context, userID string) (*domain.RouteProgress, error) {
	var (
		routeJSON   []byte
		visitedJSON []byte
		p           domain.RouteProgress
	)
	p.UserID = userID

	err := r.db.Pool.QueryRow(ctx, `
		SELECT route, route_generation, route_step, visited, balance
		FROM quest_progress WHERE user_id = $1
	`, userID).Scan(&routeJSON, &p.Generation, &p.Step, &visitedJSON, &p.Balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return &p, nil
	}
	if err != nil {
		return nil, domain.StorageError(err)
	}

	if err := json.Unmarshal(routeJSON, &p.Route); err != nil {
		return nil, domain.StorageError(fmt.Errorf("decode route: %w", err))
	}
	if err := json.Unmarshal(visitedJSON, &p.Visited); err != nil {
		return nil, domain.StorageError(fmt.Errorf("decode visited: %w", err))
	}
	return &p, nil
}

// SetRoute replaces the route, resets step and visited history and bumps
// the route generation. The balance column is deliberately untouched.
func (r *ProgressRepo) SetRoute(ctx context.Context, userID string, route domain.Route) error {
	if len(route) == 0 {
		return domain.ErrInvalidRoute
	}

	routeJSON, err := json.Marshal(route)
	if err != nil {
		return domain.StorageError(fmt.Errorf("encode route: %w", err))
	}

	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO quest_progress (user_id, route, route_generation, route_step, visited)
		VALUES ($1, $2, 1, 0, '[]'::jsonb)
		ON CONFLICT (user_id) DO UPDATE
		SET route = EXCLUDED.route,
		    route_generation = quest_progress.route_generation + 1,
		    route_step = 0, visited = '[]'::jsonb,
		    updated_at = now()
	`, userID, routeJSON)
	if err != nil {
		return domain.StorageError(err)
	}
	return nil
}

// SetStep sets the step directly.
func (r *ProgressRepo) SetStep(ctx context.Context, userID string, step int) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO quest_progress (user_id, route_step) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET route_step = $2, updated_at = now()
	`, userID, step)
	if err != nil {
		return domain.StorageError(err)
	}
	return nil
}

// AppendVisited appends one waypoint to the visited history.
func (r *ProgressRepo) AppendVisited(ctx context.Context, userID string, wp domain.Waypoint) error {
	wpJSON, err := json.Marshal([]domain.Waypoint{wp})
	if err != nil {
		return domain.StorageError(fmt.Errorf("encode waypoint: %w", err))
	}

	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO quest_progress (user_id, visited) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET visited = quest_progress.visited || EXCLUDED.visited, updated_at = now()
	`, userID, wpJSON)
	if err != nil {
		return domain.StorageError(err)
	}
	return nil
}

// AddBalance adds delta as a single SQL increment; concurrent calls for
// the same user serialize on the row and never lose updates.
func (r *ProgressRepo) AddBalance(ctx context.Context, userID string, delta int) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO quest_progress (user_id, balance) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET balance = quest_progress.balance + $2, updated_at = now()
	`, userID, delta)
	if err != nil {
		return domain.StorageError(err)
	}
	return nil
}

// CreditWaypoint applies append+advance+credit in one guarded UPDATE.
// The WHERE predicate on route_generation and route_step is the
// compare-and-swap: if a concurrent report already advanced the step, or
// a reassignment replaced the route since the caller read it, zero rows
// match and the caller gets ErrStepConflict.
func (r *ProgressRepo) CreditWaypoint(ctx context.Context, userID string, fromGeneration, fromStep int, wp domain.Waypoint, points int) error {
	wpJSON, err := json.Marshal([]domain.Waypoint{wp})
	if err != nil {
		return domain.StorageError(fmt.Errorf("encode waypoint: %w", err))
	}

	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE quest_progress
		SET visited = visited || $4::jsonb,
		    route_step = route_step + 1,
		    balance = balance + $5,
		    updated_at = now()
		WHERE user_id = $1 AND route_generation = $2 AND route_step = $3
	`, userID, fromGeneration, fromStep, wpJSON, points)
	if err != nil {
		return domain.StorageError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStepConflict
	}
	return nil
}
