package transit

import (
	"errors"
	"testing"
	"time"
)

func tv(text string, value float64) *TextValue { return &TextValue{Text: text, Value: value} }

func walkStep(html string) RawStep {
	return RawStep{TravelMode: "WALKING", HTMLInstructions: html, Distance: tv("200 公尺", 200), Duration: tv("3 分", 180)}
}

func rideStep(short, name, vehicleType string) RawStep {
	return RawStep{
		TravelMode:       "TRANSIT",
		HTMLInstructions: "搭乘 " + name,
		Distance:         tv("300 公里", 300000),
		Duration:         tv("1 小時 30 分", 5400),
		TransitDetails: &RawTransitDetails{
			Line:     Line{Name: name, ShortName: short, Vehicle: Vehicle{Name: "Train", Type: vehicleType}},
			Headsign: "左營",
			NumStops: 3,
		},
	}
}

func baseRoute() Route {
	return Route{Legs: []Leg{{
		Duration: tv("2 小時 30 分", 9000),
		Steps: []RawStep{
			walkStep("步行到台北車站"),
			rideStep("", "台灣高鐵", "HIGH_SPEED_RAIL"),
			walkStep("從<b>2號出口</b>出站<div>目的地在左側</div>"),
		},
	}}}
}

func TestNormalizeLeaveNow(t *testing.T) {
	now := time.Date(2025, 1, 2, 13, 0, 0, 0, Taipei())

	got, err := Normalize(baseRoute(), Request{Origin: "台北", Destination: "高雄", Now: now})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	if got.DepartureTime != DepartImmediately {
		t.Errorf("DepartureTime = %q, want %q", got.DepartureTime, DepartImmediately)
	}
	if got.ArrivalTime != "15:30" {
		t.Errorf("ArrivalTime = %q, want 15:30", got.ArrivalTime)
	}
	if got.MainVehicle != VehicleHighSpeedRail {
		t.Errorf("MainVehicle = %q", got.MainVehicle)
	}
	if got.BestExit != "2號出口" {
		t.Errorf("BestExit = %q", got.BestExit)
	}
	if got.HasFare() {
		t.Errorf("expected no fare, got %q", got.Fare)
	}
	if got.TotalDuration != "2 小時 30 分" || got.Origin != "台北" || got.Destination != "高雄" {
		t.Errorf("unexpected summary: %+v", got)
	}
	if len(got.Steps) != 3 {
		t.Fatalf("steps = %d", len(got.Steps))
	}
	if got.Steps[0].Type != StepWalk || got.Steps[1].Type != StepTransit || got.Steps[2].Type != StepWalk {
		t.Errorf("step order/types wrong: %+v", got.Steps)
	}
	if d := got.Steps[1].Details; d == nil || d.LineName != "台灣高鐵" || d.Headsign != "左營" || d.NumStops != 3 {
		t.Errorf("details = %+v", got.Steps[1].Details)
	}
	if got.Steps[2].Instructions != "從2號出口出站 目的地在左側" {
		t.Errorf("instructions = %q", got.Steps[2].Instructions)
	}
}

func TestNormalizeDepartureFallbacks(t *testing.T) {
	now := time.Date(2025, 1, 2, 13, 0, 0, 0, Taipei())
	requested := time.Date(2025, 1, 3, 9, 15, 0, 0, Taipei())
	providerDep := time.Date(2025, 1, 2, 14, 5, 0, 0, Taipei())

	tests := []struct {
		name      string
		dep       *TimeValue
		arr       *TimeValue
		requested *time.Time
		wantDep   string
		wantArr   string
	}{
		{"provider text and instant", &TimeValue{Text: "下午2:05", Value: providerDep.Unix()}, nil, nil, "下午2:05", "16:35"},
		{"provider instant only", &TimeValue{Value: providerDep.Unix()}, nil, nil, "14:05", "16:35"},
		{"provider text without instant", &TimeValue{Text: "稍後"}, nil, nil, "稍後", ArrivalUnknown},
		{"requested", nil, nil, &requested, "09:15", "11:45"},
		{"provider arrival text wins", nil, &TimeValue{Text: "晚上9:00"}, &requested, "09:15", "晚上9:00"},
		{"now", nil, nil, nil, DepartImmediately, "15:30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			route := baseRoute()
			route.Legs[0].DepartureTime = tt.dep
			route.Legs[0].ArrivalTime = tt.arr

			got, err := Normalize(route, Request{Departure: tt.requested, Now: now})
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if got.DepartureTime != tt.wantDep {
				t.Errorf("DepartureTime = %q, want %q", got.DepartureTime, tt.wantDep)
			}
			if got.ArrivalTime != tt.wantArr {
				t.Errorf("ArrivalTime = %q, want %q", got.ArrivalTime, tt.wantArr)
			}
		})
	}
}

func TestNormalizeZeroDuration(t *testing.T) {
	route := baseRoute()
	route.Legs[0].Duration = tv("", 0)

	got, err := Normalize(route, Request{Now: time.Now()})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got.ArrivalTime != ArrivalUnknown {
		t.Errorf("ArrivalTime = %q, want %q", got.ArrivalTime, ArrivalUnknown)
	}
}

func TestNormalizeFare(t *testing.T) {
	tests := []struct {
		name      string
		routeFare *Money
		legFares  []*Money
		want      string
	}{
		{"route text wins", &Money{Text: "$1,490"}, []*Money{{Value: 10}}, "$1,490"},
		{"sum default currency", nil, []*Money{{Value: 20}, {Value: 30}}, "$50"},
		{"NT$ prefix", nil, []*Money{{Value: 15, Currency: "NT$"}}, "$15"},
		{"last currency wins", nil, []*Money{{Value: 100, Currency: "TWD"}, {Value: 200, Currency: "JPY"}}, "JPY 300"},
		{"fractional", nil, []*Money{{Value: 12.5, Currency: "USD"}}, "USD 12.5"},
		{"zero values ignored", nil, []*Money{{Value: 0, Currency: "JPY"}}, ""},
		{"absent", nil, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			route := baseRoute()
			route.Fare = tt.routeFare
			legs := []Leg{route.Legs[0]}
			for i, f := range tt.legFares {
				if i == 0 {
					legs[0].Fare = f
					continue
				}
				legs = append(legs, Leg{Duration: tv("1 分", 60), Fare: f})
			}
			route.Legs = legs

			got, err := Normalize(route, Request{Now: time.Now()})
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if got.Fare != tt.want {
				t.Errorf("Fare = %q, want %q", got.Fare, tt.want)
			}
		})
	}
}

func TestNormalizeMainVehicleFallback(t *testing.T) {
	route := Route{Legs: []Leg{{
		Duration: tv("10 分", 600),
		Steps:    []RawStep{walkStep("一路步行")},
	}}}

	got, err := Normalize(route, Request{Now: time.Now()})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got.MainVehicle != DefaultMainVehicle {
		t.Errorf("MainVehicle = %q", got.MainVehicle)
	}
	if got.HasBestExit() {
		t.Errorf("unexpected exit %q", got.BestExit)
	}
}

func TestNormalizeFirstTransitIsMain(t *testing.T) {
	route := Route{Legs: []Leg{{
		Duration: tv("40 分", 2400),
		Steps: []RawStep{
			rideStep("307", "307", "BUS"),
			rideStep("", "Subway", "SUBWAY"),
		},
	}}}

	got, err := Normalize(route, Request{Now: time.Now()})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got.MainVehicle != "307" {
		t.Errorf("MainVehicle = %q, want 307", got.MainVehicle)
	}
	if got.Steps[1].Vehicle != VehicleMetro {
		t.Errorf("second vehicle = %q", got.Steps[1].Vehicle)
	}
}

func TestNormalizeRejectsMalformed(t *testing.T) {
	tests := []struct {
		name  string
		route Route
	}{
		{"no legs", Route{}},
		{"no duration", Route{Legs: []Leg{{Steps: []RawStep{walkStep("x")}}}}},
		{"step without duration", Route{Legs: []Leg{{Duration: tv("1 分", 60), Steps: []RawStep{{TravelMode: "WALKING", Distance: tv("1 公尺", 1)}}}}}},
		{"step without mode", Route{Legs: []Leg{{Duration: tv("1 分", 60), Steps: []RawStep{{Distance: tv("1", 1), Duration: tv("1", 1)}}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.route, Request{Now: time.Now()})
			if !errors.Is(err, ErrMalformedRoute) {
				t.Errorf("expected ErrMalformedRoute, got %v", err)
			}
		})
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	now := time.Date(2025, 1, 2, 13, 0, 0, 0, Taipei())
	req := Request{Origin: "台北", Destination: "高雄", Now: now}

	a, err := Normalize(baseRoute(), req)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Normalize(baseRoute(), req)
	if err != nil {
		t.Fatal(err)
	}
	if a.ArrivalTime != b.ArrivalTime || a.DepartureTime != b.DepartureTime || a.MainVehicle != b.MainVehicle || len(a.Steps) != len(b.Steps) {
		t.Errorf("results differ: %+v vs %+v", a, b)
	}
}
