package models

import (
	"fmt"
	"strings"
)

// LocationSample is a captured device position.
type LocationSample struct {
	Latitude       float64
	Longitude      float64
	AccuracyMeters float64
	AgeSeconds     float64
	Address        *Address // optional client-side resolution
}

// Address is a reverse-geocoded location. HouseNumber being set confirms the
// resolver reached street-number precision.
type Address struct {
	HouseNumber  string
	Street       string
	Neighborhood string
	City         string
	State        string
	PostalCode   string
	Country      string
	DisplayName  string
}

// HasHouseNumber reports whether the resolver reached street-number precision.
func (a *Address) HasHouseNumber() bool {
	return a != nil && strings.TrimSpace(a.HouseNumber) != ""
}

// Geofence is a named circular area in which punches are considered on site.
type Geofence struct {
	Name         string
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
}

// UnknownAddress is stored when no location or resolution is available.
const UnknownAddress = "location unknown"

// FormatAddress renders the stored address line:
// "number • street • Lat: x, Lon: y", omitting unresolved parts.
func FormatAddress(sample *LocationSample, addr *Address) string {
	if sample == nil {
		return UnknownAddress
	}
	var parts []string
	if addr != nil {
		if n := strings.TrimSpace(addr.HouseNumber); n != "" {
			parts = append(parts, n)
		}
		if s := strings.TrimSpace(addr.Street); s != "" {
			parts = append(parts, s)
		} else if d := strings.TrimSpace(addr.DisplayName); d != "" {
			parts = append(parts, d)
		}
	}
	parts = append(parts, fmt.Sprintf("Lat: %.6f, Lon: %.6f", sample.Latitude, sample.Longitude))
	return strings.Join(parts, " • ")
}
