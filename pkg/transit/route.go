package transit

import "fmt"

// Route is the raw provider route, typed after the directions web service
// response so it can be decoded directly.
type Route struct {
	Summary string `json:"summary"`
	Fare    *Money `json:"fare,omitempty"`
	Legs    []Leg  `json:"legs"`
}

// Leg is one origin-to-destination leg of a route.
type Leg struct {
	StartAddress  string     `json:"start_address"`
	EndAddress    string     `json:"end_address"`
	DepartureTime *TimeValue `json:"departure_time,omitempty"`
	ArrivalTime   *TimeValue `json:"arrival_time,omitempty"`
	Duration      *TextValue `json:"duration,omitempty"`
	Distance      *TextValue `json:"distance,omitempty"`
	Fare          *Money     `json:"fare,omitempty"`
	Steps         []RawStep  `json:"steps"`
}

// RawStep is a provider step before normalization.
type RawStep struct {
	TravelMode       string             `json:"travel_mode"`
	HTMLInstructions string             `json:"html_instructions"`
	Distance         *TextValue         `json:"distance,omitempty"`
	Duration         *TextValue         `json:"duration,omitempty"`
	TransitDetails   *RawTransitDetails `json:"transit_details,omitempty"`
}

// RawTransitDetails is the provider's description of a transit ride.
type RawTransitDetails struct {
	Line     Line   `json:"line"`
	Headsign string `json:"headsign"`
	NumStops int    `json:"num_stops"`
}

// Line identifies a transit line.
type Line struct {
	Name      string  `json:"name"`
	ShortName string  `json:"short_name"`
	Vehicle   Vehicle `json:"vehicle"`
}

// Vehicle is the provider vehicle descriptor; Type is e.g. HIGH_SPEED_RAIL or BUS.
type Vehicle struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// TextValue pairs display text with a numeric value (seconds or meters).
type TextValue struct {
	Text  string  `json:"text"`
	Value float64 `json:"value"`
}

// TimeValue pairs display text with a unix-seconds instant. Value 0 means no instant.
type TimeValue struct {
	Text     string `json:"text"`
	TimeZone string `json:"time_zone"`
	Value    int64  `json:"value"`
}

// Money is a provider fare.
type Money struct {
	Currency string  `json:"currency"`
	Value    float64 `json:"value"`
	Text     string  `json:"text"`
}

// Validate rejects routes missing fields the normalizer depends on.
func (r Route) Validate() error {
	if len(r.Legs) == 0 {
		return fmt.Errorf("%w: route has no legs", ErrMalformedRoute)
	}
	leg := r.Legs[0]
	if leg.Duration == nil {
		return fmt.Errorf("%w: leg duration missing", ErrMalformedRoute)
	}
	for i, s := range leg.Steps {
		if s.TravelMode == "" {
			return fmt.Errorf("%w: step %d has no travel mode", ErrMalformedRoute, i)
		}
		if s.Distance == nil || s.Duration == nil {
			return fmt.Errorf("%w: step %d missing distance or duration", ErrMalformedRoute, i)
		}
	}
	return nil
}
