package services

import (
	"math"
	"testing"

	"fizzcaps-server/models"
)

func TestHaversineMeters(t *testing.T) {
	cases := []struct {
		name                   string
		lat1, lng1, lat2, lng2 float64
		want                   float64
		tol                    float64
	}{
		{"same point", 36.1699, -115.1398, 36.1699, -115.1398, 0, 0.001},
		// 0.001 deg of longitude at the equator is R * 0.001 * pi/180.
		{"equator lng step", 0, 0, 0, 0.001, 111.1949, 0.01},
		{"equator lat step", 0, 0, 0.001, 0, 111.1949, 0.01},
		// LAX to JFK, reference great-circle distance ~3974 km.
		{"cross country", 33.9425, -118.4081, 40.6413, -73.7781, 3974500, 10000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := HaversineMeters(tc.lat1, tc.lng1, tc.lat2, tc.lng2)
			if math.Abs(got-tc.want) > tc.tol {
				t.Fatalf("distance = %.3fm, want %.3fm ±%.3f", got, tc.want, tc.tol)
			}
		})
	}
}

func TestGeofenceCheck(t *testing.T) {
	loc := &models.Location{Name: "Rusty Springs", Lat: 36.1699, Lng: -115.1398}
	g := NewGeofenceValidator(50)

	// Standing on the spot with a tight fix.
	if d, err := g.Check(loc.Lat, loc.Lng, 10, loc); err != nil || d > 0.001 {
		t.Fatalf("on-the-spot claim rejected: d=%.3f err=%v", d, err)
	}

	// A fix wider than the claim radius is rejected regardless of distance.
	if _, err := g.Check(loc.Lat, loc.Lng, 60, loc); err == nil {
		t.Fatal("wide accuracy accepted")
	} else if ge, _ := AsGameError(err); ge.Code != CodeOutOfRange {
		t.Fatalf("wrong code: %s", ge.Code)
	}

	// Clearly out of range; the error carries the distance.
	farLat := loc.Lat + 0.01
	wantDist := HaversineMeters(farLat, loc.Lng, loc.Lat, loc.Lng)
	_, err := g.Check(farLat, loc.Lng, 10, loc)
	if err == nil {
		t.Fatal("1km-away claim accepted")
	}
	ge, ok := AsGameError(err)
	if !ok || ge.Code != CodeOutOfRange {
		t.Fatalf("wrong error: %v", err)
	}
	if math.Abs(ge.DistanceM-wantDist) > 0.5 {
		t.Fatalf("error distance %.1f, want %.1f", ge.DistanceM, wantDist)
	}
}

func TestGeofenceBoundaryInclusive(t *testing.T) {
	loc := &models.Location{Name: "Edge Case Flats", Lat: 0, Lng: 0}
	lat := 0.0004
	d := HaversineMeters(lat, 0, 0, 0)

	// Radius set to exactly the computed distance: on the line is in.
	g := GeofenceValidator{RadiusM: d}
	if _, err := g.Check(lat, 0, 1, loc); err != nil {
		t.Fatalf("boundary claim rejected: %v", err)
	}

	// The next representable step out is not.
	g = GeofenceValidator{RadiusM: math.Nextafter(d, 0)}
	if _, err := g.Check(lat, 0, 1, loc); err == nil {
		t.Fatal("claim just outside radius accepted")
	}
}

func TestNewGeofenceValidatorDefault(t *testing.T) {
	if g := NewGeofenceValidator(0); g.RadiusM != DefaultClaimRadiusM {
		t.Fatalf("zero radius not defaulted: %v", g.RadiusM)
	}
	if g := NewGeofenceValidator(-5); g.RadiusM != DefaultClaimRadiusM {
		t.Fatalf("negative radius not defaulted: %v", g.RadiusM)
	}
}
