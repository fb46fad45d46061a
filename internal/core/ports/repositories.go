package ports

import (
	"context"

	"github.com/samirrijal/questline/internal/core/domain"
)

// ProgressRepository persists one RouteProgress per user. Operations are
// discrete, not a transaction abstraction: two calls against the same user
// are only atomic with each other when composed through CreditWaypoint.
// Implementations must wrap backing-store failures with
// domain.ErrStorageUnavailable.
type ProgressRepository interface {
	// GetProgress returns the stored progress, or an empty default record
	// for a user that was never seen. It never fails for an unknown user.
	GetProgress(ctx context.Context, userID string) (*domain.RouteProgress, error)

	// SetRoute replaces the route, resets the step to 0, clears the
	// visited history and increments the route generation. The balance is
	// untouched. Empty routes are rejected with domain.ErrInvalidRoute.
	SetRoute(ctx context.Context, userID string, route domain.Route) error

	// SetStep sets the step directly. The caller is responsible for
	// keeping it consistent with the visited history.
	SetStep(ctx context.Context, userID string, step int) error

	// AppendVisited appends one waypoint to the visited history.
	AppendVisited(ctx context.Context, userID string, wp domain.Waypoint) error

	// AddBalance atomically adds delta to the balance. Concurrent calls
	// for the same user must not lose updates.
	AddBalance(ctx context.Context, userID string, delta int) error

	// CreditWaypoint applies the append+advance+credit triple as one
	// atomic unit, guarded by a compare-and-swap on the route generation
	// and the step: it succeeds only if the stored generation still equals
	// fromGeneration and the stored step still equals fromStep, and
	// returns domain.ErrStepConflict otherwise. The generation part of the
	// guard keeps a credit prepared against an old route from landing on a
	// route assigned in between; the step part keeps two reports from
	// crediting the same waypoint twice. Together they keep per-user
	// progression linearizable across processes.
	CreditWaypoint(ctx context.Context, userID string, fromGeneration, fromStep int, wp domain.Waypoint, points int) error
}

// ProfileRepository persists user directory records.
type ProfileRepository interface {
	Upsert(ctx context.Context, p *domain.Profile) error
	Get(ctx context.Context, userID string) (*domain.Profile, error)
	UpdateInterests(ctx context.Context, userID, interests string) error
}

// ShopRepository persists the reward catalog.
type ShopRepository interface {
	List(ctx context.Context, activeOnly bool) ([]domain.ShopItem, error)
	Get(ctx context.Context, id string) (*domain.ShopItem, error)
	Create(ctx context.Context, item *domain.ShopItem) (string, error)
	Update(ctx context.Context, item *domain.ShopItem) error
	Delete(ctx context.Context, id string) error
}
