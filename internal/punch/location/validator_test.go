package location

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"punchclock/internal/punch/models"
	dErrors "punchclock/pkg/domain-errors"
)

var home = models.Geofence{Name: "employer home", Latitude: -23.561414, Longitude: -46.655881, RadiusMeters: 150}

func sampleAt(lat, lon, accuracy, age float64) *models.LocationSample {
	return &models.LocationSample{Latitude: lat, Longitude: lon, AccuracyMeters: accuracy, AgeSeconds: age}
}

func TestValidate(t *testing.T) {
	v := New(100, 60*time.Second)

	t.Run("accurate fresh sample inside geofence", func(t *testing.T) {
		got := v.Validate(sampleAt(-23.5615, -46.6560, 10, 2), []models.Geofence{home})
		assert.True(t, got.OK)
		assert.True(t, got.GeofenceOK)
		assert.Equal(t, "employer home", got.NearestGeofence)
		require.NotNil(t, got.DistanceToNearest)
		assert.Less(t, *got.DistanceToNearest, 50.0)
	})

	t.Run("thresholds are inclusive", func(t *testing.T) {
		got := v.Validate(sampleAt(0, 0, 100, 60), nil)
		assert.True(t, got.AccuracyOK)
		assert.True(t, got.StalenessOK)
	})

	t.Run("low accuracy fails only accuracy", func(t *testing.T) {
		got := v.Validate(sampleAt(0, 0, 500, 2), nil)
		assert.False(t, got.OK)
		assert.False(t, got.AccuracyOK)
		assert.True(t, got.StalenessOK)
		assert.True(t, got.GeofenceOK, "no geofences configured disables the check")
		assert.Nil(t, got.DistanceToNearest)
	})

	t.Run("stale sample", func(t *testing.T) {
		got := v.Validate(sampleAt(0, 0, 5, 61), nil)
		assert.False(t, got.StalenessOK)
		assert.False(t, got.OK)
	})

	t.Run("outside every geofence reports the nearest", func(t *testing.T) {
		far := models.Geofence{Name: "office", Latitude: -22.9068, Longitude: -43.1729, RadiusMeters: 200}
		got := v.Validate(sampleAt(-23.5700, -46.6560, 5, 1), []models.Geofence{far, home})
		assert.False(t, got.GeofenceOK)
		assert.Equal(t, "employer home", got.NearestGeofence)
		assert.Greater(t, *got.DistanceToNearest, 150.0)
	})

	t.Run("missing sample fails location checks", func(t *testing.T) {
		got := v.Validate(nil, []models.Geofence{home})
		assert.False(t, got.OK)
		assert.False(t, got.AccuracyOK)
		assert.False(t, got.StalenessOK)
		assert.False(t, got.GeofenceOK)
	})
}

func TestHaversine(t *testing.T) {
	assert.InDelta(t, 0, Haversine(10, 10, 10, 10), 1e-9)
	// Sao Paulo to Rio de Janeiro is roughly 360 km.
	assert.InDelta(t, 360_000, Haversine(-23.5505, -46.6333, -22.9068, -43.1729), 10_000)
	// One degree of latitude is about 111 km.
	assert.InDelta(t, 111_195, Haversine(0, 0, 1, 0), 100)
}

func TestCheckSample(t *testing.T) {
	assert.NoError(t, CheckSample(nil))
	assert.NoError(t, CheckSample(sampleAt(45, 90, 0, 0)))

	for name, s := range map[string]*models.LocationSample{
		"latitude":  sampleAt(91, 0, 1, 1),
		"longitude": sampleAt(0, -181, 1, 1),
		"accuracy":  sampleAt(0, 0, -1, 1),
		"age":       sampleAt(0, 0, 1, -0.5),
		"nan":       sampleAt(math.NaN(), 0, 1, 1),
	} {
		t.Run(name, func(t *testing.T) {
			err := CheckSample(s)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}
