package transit

import (
	"strings"
	"time"
)

// Normalize converts the first leg of route into a Result.
//
// Departure text falls back in order: provider text, provider instant,
// requested instant, then DepartImmediately anchored at req.Now. Arrival is the
// provider text, else anchor plus leg duration, else ArrivalUnknown.
func Normalize(route Route, req Request) (Result, error) {
	if err := route.Validate(); err != nil {
		return Result{}, err
	}

	loc := req.Location
	if loc == nil {
		loc = taipei
	}

	leg := route.Legs[0]
	departure, anchor := departureOf(leg, req, loc)

	result := Result{
		Origin:        req.Origin,
		Destination:   req.Destination,
		TotalDuration: leg.Duration.Text,
		DepartureTime: departure,
		ArrivalTime:   arrivalOf(leg, anchor, loc),
		Fare:          fareText(route),
		Steps:         make([]Step, 0, len(leg.Steps)),
	}

	for _, raw := range leg.Steps {
		step := normalizeStep(raw)
		if step.Type == StepTransit && result.MainVehicle == "" {
			result.MainVehicle = step.Vehicle
		}
		if step.ExitInfo != "" && result.BestExit == "" {
			result.BestExit = step.ExitInfo
		}
		result.Steps = append(result.Steps, step)
	}

	if result.MainVehicle == "" {
		result.MainVehicle = DefaultMainVehicle
	}

	return result, nil
}

// departureOf returns the departure text and the instant used for arrival
// arithmetic. A zero anchor means arrival cannot be computed.
func departureOf(leg Leg, req Request, loc *time.Location) (string, time.Time) {
	var (
		text   string
		anchor time.Time
	)

	if dt := leg.DepartureTime; dt != nil {
		text = dt.Text
		if dt.Value != 0 {
			anchor = time.Unix(dt.Value, 0)
			if text == "" {
				text = FormatClock(anchor, loc)
			}
		}
	}

	if text != "" {
		return text, anchor
	}

	if req.Departure != nil {
		return FormatClock(*req.Departure, loc), *req.Departure
	}
	return DepartImmediately, req.Now
}

func arrivalOf(leg Leg, anchor time.Time, loc *time.Location) string {
	if leg.ArrivalTime != nil && leg.ArrivalTime.Text != "" {
		return leg.ArrivalTime.Text
	}

	secs := leg.Duration.Value
	if !anchor.IsZero() && secs > 0 {
		return FormatClock(anchor.Add(time.Duration(secs*float64(time.Second))), loc)
	}
	return ArrivalUnknown
}

func normalizeStep(raw RawStep) Step {
	step := Step{
		Type:         StepOther,
		Instructions: PlainText(raw.HTMLInstructions),
		Distance:     raw.Distance.Text,
		Duration:     raw.Duration.Text,
	}

	switch strings.ToUpper(raw.TravelMode) {
	case "TRANSIT":
		step.Type = StepTransit
		if d := raw.TransitDetails; d != nil {
			step.Vehicle = LocalizeVehicle(rawVehicleName(d), d.Line.Vehicle.Type)
			step.Details = &Details{
				LineName: d.Line.Name,
				Headsign: d.Headsign,
				NumStops: d.NumStops,
			}
		} else {
			step.Vehicle = DefaultVehicleName
		}
	case "WALKING":
		step.Type = StepWalk
		if exit, ok := ExtractExit(step.Instructions); ok {
			step.ExitInfo = exit
		}
	}

	return step
}
