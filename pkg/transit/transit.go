// Package transit turns a raw public-transit route from a directions provider
// into the compact, localized summary the assistant reads aloud.
//
// The package is pure: Normalize has no side effects and takes the current
// time as an argument, so identical inputs always produce identical results.
//
// Example usage:
//
//	route, _ := dirs.Route(ctx, query, key)
//	result, err := transit.Normalize(route, transit.Request{
//	    Origin:      "台北",
//	    Destination: "高雄",
//	    Now:         time.Now(),
//	})
//	// result.MainVehicle == "高鐵", result.ArrivalTime == "16:30"
package transit

import "time"

// Fallback strings used when the provider leaves a field empty.
const (
	DepartImmediately  = "立即"
	ArrivalUnknown     = "未定"
	DefaultMainVehicle = "大眾運輸"
	DefaultVehicleName = "公車/火車"
)

// TimeLayout renders clock times in 24h zh-TW style.
const TimeLayout = "15:04"

// StepType classifies a normalized step.
type StepType string

const (
	StepTransit StepType = "TRANSIT"
	StepWalk    StepType = "WALK"
	StepOther   StepType = "OTHER"
)

// Details describes the transit line used by a TRANSIT step.
type Details struct {
	LineName string `json:"lineName"`
	Headsign string `json:"headsign"`
	NumStops int    `json:"numStops"`
}

// Step is one normalized leg segment, in provider order.
type Step struct {
	Type         StepType `json:"type"`
	Instructions string   `json:"instructions"`
	Distance     string   `json:"distance"`
	Duration     string   `json:"duration"`
	Vehicle      string   `json:"vehicle,omitempty"`
	Details      *Details `json:"transitDetails,omitempty"`
	ExitInfo     string   `json:"exitInfo,omitempty"`
}

// Result is the normalized route summary.
// DepartureTime and ArrivalTime are never empty.
type Result struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	TotalDuration string `json:"totalDuration"`
	Steps         []Step `json:"steps"`
	DepartureTime string `json:"departureTime"`
	ArrivalTime   string `json:"arrivalTime"`
	Fare          string `json:"fare,omitempty"`
	MainVehicle   string `json:"mainVehicle,omitempty"`
	BestExit      string `json:"bestExit,omitempty"`
}

// HasFare reports whether a fare could be determined.
func (r Result) HasFare() bool { return r.Fare != "" }

// HasBestExit reports whether a walking step named a station exit.
func (r Result) HasBestExit() bool { return r.BestExit != "" }

// Request carries the caller-side inputs to Normalize.
type Request struct {
	Origin      string
	Destination string

	// Departure is the requested departure instant, nil for "now".
	Departure *time.Time

	// Now anchors "leave immediately" arithmetic.
	Now time.Time

	// Location used to render clock times. Defaults to Asia/Taipei.
	Location *time.Location
}

var taipei = loadTaipei()

func loadTaipei() *time.Location {
	loc, err := time.LoadLocation("Asia/Taipei")
	if err != nil {
		return time.FixedZone("CST", 8*60*60)
	}
	return loc
}

// Taipei returns the Asia/Taipei location, or a fixed UTC+8 zone when the
// tz database is unavailable.
func Taipei() *time.Location { return taipei }

// FormatClock renders t as "HH:MM" in loc.
func FormatClock(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = taipei
	}
	return t.In(loc).Format(TimeLayout)
}
