package geospatial

import (
	"math"
	"testing"
)

func TestDistance_ZeroForSamePoint(t *testing.T) {
	if d := Distance(53.9045, 27.5615, 53.9045, 27.5615); d != 0 {
		t.Errorf("expected 0 for identical points, got %f", d)
	}
}

func TestDistance_KnownSpan(t *testing.T) {
	// Minsk: Victory Square to the National Library is roughly 4.9 km.
	d := Distance(53.9083, 27.5754, 53.9311, 27.6462)
	if d < 4500 || d > 5500 {
		t.Errorf("expected ~4.9 km, got %.0f m", d)
	}
}

func TestDistance_ShortSpanAccuracy(t *testing.T) {
	// 0.001 degrees of latitude is ~111.2 m everywhere on the sphere.
	d := Distance(53.9000, 27.5600, 53.9010, 27.5600)
	if math.Abs(d-111.2) > 1 {
		t.Errorf("expected ~111.2 m, got %.2f m", d)
	}
}

func TestDistance_Symmetric(t *testing.T) {
	a := Distance(53.90, 27.56, 53.91, 27.57)
	b := Distance(53.91, 27.57, 53.90, 27.56)
	if math.Abs(a-b) > 1e-9 {
		t.Errorf("distance not symmetric: %f vs %f", a, b)
	}
}

func TestWithinRadius_InclusiveBoundary(t *testing.T) {
	d := Distance(53.9000, 27.5600, 53.9010, 27.5600)
	if _, ok := WithinRadius(53.9000, 27.5600, 53.9010, 27.5600, d); !ok {
		t.Error("distance exactly equal to the radius must count as a match")
	}
	if _, ok := WithinRadius(53.9000, 27.5600, 53.9010, 27.5600, d-0.5); ok {
		t.Error("distance beyond the radius must not match")
	}
}
