package handler

import (
	"strings"
	"time"

	"punchclock/internal/punch/location"
	"punchclock/internal/punch/models"
	dErrors "punchclock/pkg/domain-errors"
)

const maxJustificationLength = 500

// RegisterPunchRequest is the HTTP request body for POST /punches.
type RegisterPunchRequest struct {
	Type                  string         `json:"type"`
	Location              *LocationInput `json:"location,omitempty"`
	Network               *NetworkInput  `json:"network,omitempty"`
	Justification         string         `json:"justification,omitempty"`
	OverrideJustification string         `json:"override_justification,omitempty"`

	// Parsed values (populated by Validate)
	parsedType models.PunchType
}

// LocationInput is the device position captured with the punch.
type LocationInput struct {
	Latitude       float64       `json:"latitude"`
	Longitude      float64       `json:"longitude"`
	AccuracyMeters float64       `json:"accuracy_m"`
	AgeSeconds     float64       `json:"age_s"`
	Address        *AddressInput `json:"address,omitempty"`
}

// AddressInput is an address the client already resolved.
type AddressInput struct {
	HouseNumber  string `json:"house_number,omitempty"`
	Street       string `json:"street,omitempty"`
	Neighborhood string `json:"neighborhood,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	PostalCode   string `json:"postal_code,omitempty"`
	Country      string `json:"country,omitempty"`
	DisplayName  string `json:"display_name,omitempty"`
}

// NetworkInput carries what the client reports about its connection and device.
type NetworkInput struct {
	ConnectionType   string   `json:"connection_type,omitempty"`
	EffectiveType    string   `json:"effective_type,omitempty"`
	DownlinkMbps     *float64 `json:"downlink_mbps,omitempty"`
	RTTMillis        *int     `json:"rtt_ms,omitempty"`
	NetworkName      string   `json:"network_name,omitempty"`
	Timezone         string   `json:"timezone,omitempty"`
	Locale           string   `json:"locale,omitempty"`
	ScreenResolution string   `json:"screen_resolution,omitempty"`
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *RegisterPunchRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.Justification = strings.TrimSpace(r.Justification)
	r.OverrideJustification = strings.TrimSpace(r.OverrideJustification)
	if len(r.Justification) > maxJustificationLength {
		return dErrors.New(dErrors.CodeValidation, "justification must be at most 500 characters")
	}
	if len(r.OverrideJustification) > maxJustificationLength {
		return dErrors.New(dErrors.CodeValidation, "override_justification must be at most 500 characters")
	}

	r.Type = strings.TrimSpace(r.Type)
	if r.Type == "" {
		return dErrors.New(dErrors.CodeValidation, "type is required")
	}
	t, err := models.ParsePunchType(r.Type)
	if err != nil {
		return err
	}
	r.parsedType = t

	return location.CheckSample(r.Sample())
}

// ParsedType returns the validated punch type.
func (r *RegisterPunchRequest) ParsedType() models.PunchType {
	return r.parsedType
}

// Sample converts the location input. Nil when the client sent none.
func (r *RegisterPunchRequest) Sample() *models.LocationSample {
	if r.Location == nil {
		return nil
	}
	sample := &models.LocationSample{
		Latitude:       r.Location.Latitude,
		Longitude:      r.Location.Longitude,
		AccuracyMeters: r.Location.AccuracyMeters,
		AgeSeconds:     r.Location.AgeSeconds,
	}
	if a := r.Location.Address; a != nil {
		sample.Address = &models.Address{
			HouseNumber:  a.HouseNumber,
			Street:       a.Street,
			Neighborhood: a.Neighborhood,
			City:         a.City,
			State:        a.State,
			PostalCode:   a.PostalCode,
			Country:      a.Country,
			DisplayName:  a.DisplayName,
		}
	}
	return sample
}

// Hints converts the network input.
func (r *RegisterPunchRequest) Hints() models.ClientHints {
	if r.Network == nil {
		return models.ClientHints{}
	}
	return models.ClientHints{
		ConnectionType:   r.Network.ConnectionType,
		EffectiveType:    r.Network.EffectiveType,
		DownlinkMbps:     r.Network.DownlinkMbps,
		RTTMillis:        r.Network.RTTMillis,
		NetworkName:      r.Network.NetworkName,
		Timezone:         r.Network.Timezone,
		Locale:           r.Network.Locale,
		ScreenResolution: r.Network.ScreenResolution,
	}
}

// parseDate reads a YYYY-MM-DD query value as a UTC-midnight date. Empty means today.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, dErrors.New(dErrors.CodeValidation, "date must be YYYY-MM-DD")
	}
	return d, nil
}

// parseMonth reads a YYYY-MM query value as the first day of the month. Empty means this month.
func parseMonth(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	m, err := time.Parse("2006-01", s)
	if err != nil {
		return time.Time{}, dErrors.New(dErrors.CodeValidation, "month must be YYYY-MM")
	}
	return m, nil
}
