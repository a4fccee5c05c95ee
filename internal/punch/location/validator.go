package location

import (
	"math"
	"time"

	"punchclock/internal/punch/models"
	dErrors "punchclock/pkg/domain-errors"
)

const earthRadiusMeters = 6371000.0

// Validator checks a location sample against accuracy, staleness and the
// group's geofences. It reports facts; the registration service decides policy.
type Validator struct {
	accuracyThreshold float64
	maxAge            time.Duration
}

// New creates a validator with the given thresholds.
func New(accuracyThresholdMeters float64, maxAge time.Duration) *Validator {
	return &Validator{accuracyThreshold: accuracyThresholdMeters, maxAge: maxAge}
}

// Validate evaluates sample. A nil sample fails accuracy and staleness, and
// satisfies the geofence only when none is configured.
func (v *Validator) Validate(sample *models.LocationSample, geofences []models.Geofence) models.LocationVerdict {
	var verdict models.LocationVerdict
	if sample != nil {
		verdict.AccuracyOK = sample.AccuracyMeters <= v.accuracyThreshold
		verdict.StalenessOK = sample.AgeSeconds <= v.maxAge.Seconds()
	}

	if len(geofences) == 0 {
		verdict.GeofenceOK = true
	} else if sample != nil {
		best := math.Inf(1)
		for _, g := range geofences {
			d := Haversine(sample.Latitude, sample.Longitude, g.Latitude, g.Longitude)
			if d <= g.RadiusMeters {
				verdict.GeofenceOK = true
			}
			if d < best {
				best = d
				verdict.NearestGeofence = g.Name
			}
		}
		verdict.DistanceToNearest = &best
	}

	verdict.OK = verdict.AccuracyOK && verdict.StalenessOK && verdict.GeofenceOK
	return verdict
}

// Haversine returns the great-circle distance in meters.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// CheckSample rejects malformed samples before any evaluation.
func CheckSample(sample *models.LocationSample) error {
	if sample == nil {
		return nil
	}
	switch {
	case math.IsNaN(sample.Latitude) || sample.Latitude < -90 || sample.Latitude > 90:
		return dErrors.New(dErrors.CodeValidation, "latitude must be between -90 and 90")
	case math.IsNaN(sample.Longitude) || sample.Longitude < -180 || sample.Longitude > 180:
		return dErrors.New(dErrors.CodeValidation, "longitude must be between -180 and 180")
	case math.IsNaN(sample.AccuracyMeters) || sample.AccuracyMeters < 0:
		return dErrors.New(dErrors.CodeValidation, "accuracy must be non-negative")
	case math.IsNaN(sample.AgeSeconds) || sample.AgeSeconds < 0:
		return dErrors.New(dErrors.CodeValidation, "age must be non-negative")
	}
	return nil
}
