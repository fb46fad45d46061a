package geospatial

import "math"

const earthRadiusKm = 6371.0

// Distance calculates the great-circle distance in meters between two
// points. For the spans this system cares about (a user walking towards a
// waypoint, well under 1 km) haversine agrees with ellipsoidal formulas to
// within a meter, which is inside the acceptance-radius tolerance.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c * 1000 // meters
}

// WithinRadius reports whether the two points lie within radiusMeters of
// each other. The boundary is inclusive: a distance exactly equal to the
// radius counts as a match.
func WithinRadius(lat1, lon1, lat2, lon2, radiusMeters float64) (float64, bool) {
	d := Distance(lat1, lon1, lat2, lon2)
	return d, d <= radiusMeters
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
