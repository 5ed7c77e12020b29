package services

import (
	"fmt"
	"math"

	"fizzcaps-server/models"
)

// DefaultClaimRadiusM matches the client's CLAIM_RADIUS.
const DefaultClaimRadiusM = 50.0

const earthRadiusM = 6371000.0

// HaversineMeters is the great-circle distance between two WGS84 points.
// Locations are fixed and small-area, so no pole/date-line special cases.
func HaversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusM * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// GeofenceValidator is a pure pass/fail gate: the reported position must sit
// within RadiusM of the location (boundary inclusive), and the device's own
// accuracy radius must not exceed the claim radius — a fix that uncertain
// could be anywhere.
type GeofenceValidator struct {
	RadiusM float64
}

func NewGeofenceValidator(radiusM float64) GeofenceValidator {
	if radiusM <= 0 {
		radiusM = DefaultClaimRadiusM
	}
	return GeofenceValidator{RadiusM: radiusM}
}

// Check returns the computed distance either way so callers can log it and
// clients can render "too far (123m)".
func (g GeofenceValidator) Check(lat, lng, accuracyM float64, loc *models.Location) (float64, error) {
	distance := HaversineMeters(lat, lng, loc.Lat, loc.Lng)
	if accuracyM > g.RadiusM {
		return distance, errOutOfRange(distance,
			fmt.Sprintf("GPS accuracy %.0fm exceeds claim radius %.0fm", accuracyM, g.RadiusM))
	}
	if distance > g.RadiusM {
		return distance, errOutOfRange(distance,
			fmt.Sprintf("too far: %.0fm away, claim radius is %.0fm", distance, g.RadiusM))
	}
	return distance, nil
}
