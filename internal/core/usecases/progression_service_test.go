package usecases_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/samirrijal/questline/internal/adapters/memory"
	"github.com/samirrijal/questline/internal/core/domain"
	"github.com/samirrijal/questline/internal/core/usecases"
	"github.com/samirrijal/questline/internal/pkg/geospatial"
)

// --- Mock RouteGenerator ---

type mockGenerator struct {
	generateFn func(ctx context.Context, interests string, count int) (domain.Route, error)
	suggestFn  func(ctx context.Context, input string) ([]string, error)
}

func (m *mockGenerator) GenerateRoute(ctx context.Context, interests string, count int) (domain.Route, error) {
	if m.generateFn != nil {
		return m.generateFn(ctx, interests, count)
	}
	return nil, nil
}

func (m *mockGenerator) SuggestInterests(ctx context.Context, input string) ([]string, error) {
	if m.suggestFn != nil {
		return m.suggestFn(ctx, input)
	}
	return []string{input}, nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu        sync.Mutex
	visited   int
	completed int
	assigned  int
	failWith  error
}

func (m *mockPublisher) PublishWaypointVisited(ctx context.Context, userID string, wp domain.Waypoint, step, balance int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visited++
	return m.failWith
}

func (m *mockPublisher) PublishRouteCompleted(ctx context.Context, userID string, totalSteps, balance int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completed++
	return m.failWith
}

func (m *mockPublisher) PublishRouteAssigned(ctx context.Context, userID string, route domain.Route) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assigned++
	return m.failWith
}

// --- Failing repository for storage-error propagation ---

type failingProgressRepo struct{}

func (f *failingProgressRepo) GetProgress(ctx context.Context, userID string) (*domain.RouteProgress, error) {
	return nil, domain.StorageError(errors.New("connection refused"))
}
func (f *failingProgressRepo) SetRoute(ctx context.Context, userID string, route domain.Route) error {
	return domain.StorageError(errors.New("connection refused"))
}
func (f *failingProgressRepo) SetStep(ctx context.Context, userID string, step int) error {
	return domain.StorageError(errors.New("connection refused"))
}
func (f *failingProgressRepo) AppendVisited(ctx context.Context, userID string, wp domain.Waypoint) error {
	return domain.StorageError(errors.New("connection refused"))
}
func (f *failingProgressRepo) AddBalance(ctx context.Context, userID string, delta int) error {
	return domain.StorageError(errors.New("connection refused"))
}
func (f *failingProgressRepo) CreditWaypoint(ctx context.Context, userID string, fromGeneration, fromStep int, wp domain.Waypoint, points int) error {
	return domain.StorageError(errors.New("connection refused"))
}

// --- Repository that swaps the route mid-report ---

// reassignMidReportRepo injects a route reassignment between the engine's
// read of the progress record and its credit attempt, the window where a
// stale report could otherwise land on the wrong route.
type reassignMidReportRepo struct {
	*memory.ProgressRepo
	once     sync.Once
	reassign func()
}

func (r *reassignMidReportRepo) CreditWaypoint(ctx context.Context, userID string, fromGeneration, fromStep int, wp domain.Waypoint, points int) error {
	r.once.Do(r.reassign)
	return r.ProgressRepo.CreditWaypoint(ctx, userID, fromGeneration, fromStep, wp, points)
}

// --- Helpers ---

var minskRoute = domain.Route{
	{Name: "A", Description: "first", Position: domain.GeoPoint{Lat: 53.9000, Lon: 27.5600}},
	{Name: "B", Description: "second", Position: domain.GeoPoint{Lat: 53.9100, Lon: 27.5700}},
}

func newService(repo *memory.ProgressRepo) *usecases.ProgressionService {
	return usecases.NewProgressionService(repo, nil, nil, usecases.ProgressionConfig{
		AcceptanceRadiusMeters: 50,
		PointsPerWaypoint:      10,
	})
}

// --- Tests ---

func TestReportLocation_NoActiveRoute(t *testing.T) {
	svc := newService(memory.NewProgressRepo())

	out, err := svc.ReportLocation(context.Background(), "u1", 53.9, 27.56)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Kind != domain.OutcomeNoActiveRoute {
		t.Errorf("expected no_active_route, got %s", out.Kind)
	}
}

func TestReportLocation_TooFarIsSideEffectFree(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewProgressRepo()
	svc := newService(repo)

	if err := svc.AssignRoute(ctx, "u1", minskRoute); err != nil {
		t.Fatal(err)
	}

	// Roughly 1.3 km away from waypoint A; repeat a few times.
	for i := 0; i < 3; i++ {
		out, err := svc.ReportLocation(ctx, "u1", 53.9100, 27.5700)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Kind != domain.OutcomeTooFar {
			t.Fatalf("expected too_far, got %s", out.Kind)
		}
		if out.Target == nil || out.Target.Name != "A" {
			t.Errorf("too_far must carry the current target, got %+v", out.Target)
		}
		if out.DistanceMeters <= 50 {
			t.Errorf("expected distance over the radius, got %.1f", out.DistanceMeters)
		}
	}

	p, _ := repo.GetProgress(ctx, "u1")
	if p.Step != 0 || p.Balance != 0 || len(p.Visited) != 0 {
		t.Errorf("failed match must not mutate state: %+v", p)
	}
}

func TestReportLocation_MinskScenario(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewProgressRepo()
	svc := newService(repo)

	if err := svc.AssignRoute(ctx, "u1", minskRoute); err != nil {
		t.Fatal(err)
	}

	// At A exactly: advance to B, +10 points.
	out, err := svc.ReportLocation(ctx, "u1", 53.9000, 27.5600)
	if err != nil {
		t.Fatal(err)
	}
	if out.Kind != domain.OutcomeAdvanced {
		t.Fatalf("expected advanced, got %s", out.Kind)
	}
	if out.NextTarget == nil || out.NextTarget.Name != "B" {
		t.Errorf("expected next target B, got %+v", out.NextTarget)
	}
	if out.Balance != 10 || out.PointsAwarded != 10 {
		t.Errorf("expected balance 10 (+10), got balance=%d awarded=%d", out.Balance, out.PointsAwarded)
	}

	// Same position again: evaluated against B now, far away, no credit.
	out, err = svc.ReportLocation(ctx, "u1", 53.9000, 27.5600)
	if err != nil {
		t.Fatal(err)
	}
	if out.Kind != domain.OutcomeTooFar {
		t.Fatalf("expected too_far on repeated report, got %s", out.Kind)
	}
	if p, _ := repo.GetProgress(ctx, "u1"); p.Balance != 10 {
		t.Errorf("balance must stay 10, got %d", p.Balance)
	}

	// At B exactly: route completed, derived total 20, balance 20.
	out, err = svc.ReportLocation(ctx, "u1", 53.9100, 27.5700)
	if err != nil {
		t.Fatal(err)
	}
	if out.Kind != domain.OutcomeRouteCompleted {
		t.Fatalf("expected route_completed, got %s", out.Kind)
	}
	if out.TotalPoints != 20 {
		t.Errorf("expected derived total 20, got %d", out.TotalPoints)
	}
	if out.Balance != 20 {
		t.Errorf("completion must not double-award: balance=%d", out.Balance)
	}
}

func TestReportLocation_ExactlyOnceCrediting(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewProgressRepo()
	svc := newService(repo)

	route := domain.Route{
		{Name: "W1", Position: domain.GeoPoint{Lat: 53.9000, Lon: 27.5600}},
		{Name: "W2", Position: domain.GeoPoint{Lat: 53.9100, Lon: 27.5700}},
		{Name: "W3", Position: domain.GeoPoint{Lat: 53.9200, Lon: 27.5800}},
	}
	if err := svc.AssignRoute(ctx, "u1", route); err != nil {
		t.Fatal(err)
	}

	for i, wp := range route {
		out, err := svc.ReportLocation(ctx, "u1", wp.Position.Lat, wp.Position.Lon)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		want := domain.OutcomeAdvanced
		if i == len(route)-1 {
			want = domain.OutcomeRouteCompleted
		}
		if out.Kind != want {
			t.Fatalf("step %d: expected %s, got %s", i, want, out.Kind)
		}
	}

	p, _ := repo.GetProgress(ctx, "u1")
	if p.Step != 3 || len(p.Visited) != 3 || p.Balance != 30 {
		t.Errorf("expected step=3 visited=3 balance=30, got %+v", p)
	}
	for i, wp := range p.Visited {
		if wp.Name != route[i].Name {
			t.Errorf("visited order broken at %d: got %s", i, wp.Name)
		}
	}

	// One more matching-distance report: already complete, nothing moves.
	out, err := svc.ReportLocation(ctx, "u1", route[2].Position.Lat, route[2].Position.Lon)
	if err != nil {
		t.Fatal(err)
	}
	if out.Kind != domain.OutcomeRouteAlreadyComplete {
		t.Fatalf("expected route_already_complete, got %s", out.Kind)
	}
	if p, _ := repo.GetProgress(ctx, "u1"); p.Balance != 30 || p.Step != 3 {
		t.Errorf("completed route must not mutate further: %+v", p)
	}
}

func TestReportLocation_BoundaryDistanceCounts(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewProgressRepo()

	// 0.001 degrees of latitude is ~111.2 m; make that the exact radius.
	target := domain.GeoPoint{Lat: 53.9010, Lon: 27.5600}
	route := domain.Route{{Name: "Edge", Position: target}}
	radius := geospatial.Distance(53.9000, 27.5600, target.Lat, target.Lon)

	svc := usecases.NewProgressionService(repo, nil, nil, usecases.ProgressionConfig{
		AcceptanceRadiusMeters: radius,
		PointsPerWaypoint:      10,
	})
	if err := svc.AssignRoute(ctx, "u1", route); err != nil {
		t.Fatal(err)
	}

	out, err := svc.ReportLocation(ctx, "u1", 53.9000, 27.5600)
	if err != nil {
		t.Fatal(err)
	}
	if out.Kind != domain.OutcomeRouteCompleted {
		t.Errorf("distance equal to the radius must match, got %s (%.6f m)", out.Kind, out.DistanceMeters)
	}
}

func TestAssignRoute_EmptyRejectedWithoutTouchingProgress(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewProgressRepo()
	svc := newService(repo)

	if err := svc.AssignRoute(ctx, "u1", minskRoute); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ReportLocation(ctx, "u1", 53.9000, 27.5600); err != nil {
		t.Fatal(err)
	}

	if err := svc.AssignRoute(ctx, "u1", domain.Route{}); !errors.Is(err, domain.ErrInvalidRoute) {
		t.Fatalf("expected ErrInvalidRoute, got %v", err)
	}

	p, _ := repo.GetProgress(ctx, "u1")
	if p.Step != 1 || p.Balance != 10 || len(p.Route) != 2 {
		t.Errorf("rejected assignment must not touch progress: %+v", p)
	}
}

func TestAssignRoute_ReassignmentResetsProgressKeepsBalance(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewProgressRepo()
	svc := newService(repo)

	_ = svc.AssignRoute(ctx, "u1", minskRoute)
	if _, err := svc.ReportLocation(ctx, "u1", 53.9000, 27.5600); err != nil {
		t.Fatal(err)
	}

	fresh := domain.Route{{Name: "C", Position: domain.GeoPoint{Lat: 53.95, Lon: 27.60}}}
	if err := svc.AssignRoute(ctx, "u1", fresh); err != nil {
		t.Fatal(err)
	}

	status, err := svc.CurrentStatus(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if status.Step != 0 || status.TotalSteps != 1 || status.Completed {
		t.Errorf("expected fresh progress, got %+v", status)
	}
	if status.Balance != 10 {
		t.Errorf("reassignment must keep the balance, got %d", status.Balance)
	}
	if status.CurrentTarget == nil || status.CurrentTarget.Name != "C" {
		t.Errorf("expected target C, got %+v", status.CurrentTarget)
	}
}

func TestReportLocation_ConcurrentReportsCreditOnce(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewProgressRepo()
	svc := newService(repo)

	route := domain.Route{
		{Name: "A", Position: domain.GeoPoint{Lat: 53.9000, Lon: 27.5600}},
		{Name: "B", Position: domain.GeoPoint{Lat: 53.9100, Lon: 27.5700}},
	}
	if err := svc.AssignRoute(ctx, "u1", route); err != nil {
		t.Fatal(err)
	}

	const n = 32
	outcomes := make([]domain.OutcomeKind, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			out, err := svc.ReportLocation(ctx, "u1", 53.9000, 27.5600)
			if err != nil {
				t.Errorf("report %d: %v", i, err)
				return
			}
			outcomes[i] = out.Kind
		}(i)
	}
	wg.Wait()

	advanced := 0
	for _, k := range outcomes {
		if k == domain.OutcomeAdvanced {
			advanced++
		}
	}
	if advanced != 1 {
		t.Errorf("expected exactly one advancement, got %d", advanced)
	}

	p, _ := repo.GetProgress(ctx, "u1")
	if p.Step != 1 || p.Balance != 10 || len(p.Visited) != 1 {
		t.Errorf("double credit under concurrency: %+v", p)
	}
}

func TestReportLocation_ReassignmentDuringReportIsNotCredited(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewProgressRepo()

	fresh := domain.Route{{Name: "C", Position: domain.GeoPoint{Lat: 53.95, Lon: 27.60}}}
	repo := &reassignMidReportRepo{
		ProgressRepo: inner,
		reassign: func() {
			if err := inner.SetRoute(ctx, "u1", fresh); err != nil {
				t.Error(err)
			}
		},
	}
	svc := usecases.NewProgressionService(repo, nil, nil, usecases.ProgressionConfig{})

	if err := inner.SetRoute(ctx, "u1", minskRoute); err != nil {
		t.Fatal(err)
	}

	// The report at A was matched against the old route, but by the time
	// the credit lands the route is [C]. Both routes sit at step 0, so the
	// step alone cannot tell them apart; the credit must be rejected and
	// the report re-evaluated against the new route.
	out, err := svc.ReportLocation(ctx, "u1", 53.9000, 27.5600)
	if err != nil {
		t.Fatal(err)
	}
	if out.Kind != domain.OutcomeTooFar {
		t.Fatalf("expected too_far against the new route, got %s", out.Kind)
	}
	if out.Target == nil || out.Target.Name != "C" {
		t.Errorf("expected new route target C, got %+v", out.Target)
	}

	p, _ := inner.GetProgress(ctx, "u1")
	if len(p.Route) != 1 || p.Route[0].Name != "C" {
		t.Fatalf("expected route [C], got %+v", p.Route)
	}
	if p.Step != 0 || p.Balance != 0 || len(p.Visited) != 0 {
		t.Errorf("old-route waypoint leaked into the new route: %+v", p)
	}
}

func TestReportLocation_StorageFailurePropagates(t *testing.T) {
	svc := usecases.NewProgressionService(&failingProgressRepo{}, nil, nil, usecases.ProgressionConfig{})

	_, err := svc.ReportLocation(context.Background(), "u1", 53.9, 27.56)
	if !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Errorf("expected ErrStorageUnavailable, got %v", err)
	}
}

func TestReportLocation_PublishFailureDoesNotChangeOutcome(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewProgressRepo()
	pub := &mockPublisher{failWith: errors.New("broker down")}
	svc := usecases.NewProgressionService(repo, nil, pub, usecases.ProgressionConfig{})

	_ = svc.AssignRoute(ctx, "u1", minskRoute)
	out, err := svc.ReportLocation(ctx, "u1", 53.9000, 27.5600)
	if err != nil {
		t.Fatalf("publish failure must not fail the report: %v", err)
	}
	if out.Kind != domain.OutcomeAdvanced {
		t.Errorf("expected advanced, got %s", out.Kind)
	}
}

func TestGenerateAndAssign_Success(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewProgressRepo()
	gen := &mockGenerator{
		generateFn: func(ctx context.Context, interests string, count int) (domain.Route, error) {
			if interests != "museums, parks" {
				t.Errorf("unexpected interests: %s", interests)
			}
			if count != 2 {
				t.Errorf("expected count 2, got %d", count)
			}
			return minskRoute, nil
		},
	}
	svc := usecases.NewProgressionService(repo, gen, nil, usecases.ProgressionConfig{})

	route, err := svc.GenerateAndAssign(ctx, "u1", "museums, parks", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(route) != 2 {
		t.Fatalf("expected 2 waypoints, got %d", len(route))
	}

	status, _ := svc.CurrentStatus(ctx, "u1")
	if !status.HasRoute || status.TotalSteps != 2 {
		t.Errorf("route was not assigned: %+v", status)
	}
}

func TestGenerateAndAssign_GeneratorFailure(t *testing.T) {
	repo := memory.NewProgressRepo()
	gen := &mockGenerator{
		generateFn: func(ctx context.Context, interests string, count int) (domain.Route, error) {
			return nil, errors.New("upstream 500")
		},
	}
	svc := usecases.NewProgressionService(repo, gen, nil, usecases.ProgressionConfig{})

	if _, err := svc.GenerateAndAssign(context.Background(), "u1", "parks", 3); !errors.Is(err, domain.ErrNoRouteProduced) {
		t.Errorf("expected ErrNoRouteProduced, got %v", err)
	}
}

func TestGenerateAndAssign_EmptyResultIsNoRoute(t *testing.T) {
	gen := &mockGenerator{
		generateFn: func(ctx context.Context, interests string, count int) (domain.Route, error) {
			return domain.Route{}, nil
		},
	}
	svc := usecases.NewProgressionService(memory.NewProgressRepo(), gen, nil, usecases.ProgressionConfig{})

	if _, err := svc.GenerateAndAssign(context.Background(), "u1", "parks", 3); !errors.Is(err, domain.ErrNoRouteProduced) {
		t.Errorf("expected ErrNoRouteProduced for empty result, got %v", err)
	}
}

func TestGenerateAndAssign_RecreateReusesPreviousLength(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewProgressRepo()

	var askedCount int
	gen := &mockGenerator{
		generateFn: func(ctx context.Context, interests string, count int) (domain.Route, error) {
			askedCount = count
			return minskRoute, nil
		},
	}
	svc := usecases.NewProgressionService(repo, gen, nil, usecases.ProgressionConfig{})

	// No previous route: defaults to 5.
	if _, err := svc.GenerateAndAssign(ctx, "u1", "parks", 0); err != nil {
		t.Fatal(err)
	}
	if askedCount != 5 {
		t.Errorf("expected default count 5, got %d", askedCount)
	}

	// With a 2-waypoint route assigned, recreate keeps the length.
	if _, err := svc.GenerateAndAssign(ctx, "u1", "parks", 0); err != nil {
		t.Fatal(err)
	}
	if askedCount != 2 {
		t.Errorf("expected previous length 2, got %d", askedCount)
	}
}

func TestCurrentStatus_NoRoute(t *testing.T) {
	svc := newService(memory.NewProgressRepo())
	status, err := svc.CurrentStatus(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if status.HasRoute || status.CurrentTarget != nil || status.Completed {
		t.Errorf("expected empty status, got %+v", status)
	}
}
