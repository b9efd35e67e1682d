package transit

import "strings"

// Localized vehicle names.
const (
	VehicleHighSpeedRail = "高鐵"
	VehicleMetro         = "捷運"
	VehicleTrain         = "火車"
	VehicleIntercityBus  = "客運"
	VehicleBus           = "公車"
)

// LocalizeVehicle maps a provider line/vehicle name and vehicle type code to
// the everyday Taiwanese term. Specific names such as "淡水信義線" or "307"
// are kept as they are.
func LocalizeVehicle(name, vehicleType string) string {
	n := strings.ToLower(name)
	t := strings.ToUpper(vehicleType)

	if t == "HIGH_SPEED_RAIL" || containsAny(n, "high speed", "high-speed", "高速火車") {
		return VehicleHighSpeedRail
	}

	if t == "SUBWAY" || t == "METRO" || t == "HEAVY_RAIL" || containsAny(n, "metro", "subway", "捷運", "地下鐵") {
		if equalsAny(n, "subway", "metro", "地下鐵", "捷運") {
			return VehicleMetro
		}
		return name
	}

	if t == "RAIL" || containsAny(n, "train", "rail", "鐵路") {
		if equalsAny(n, "train", "railway", "鐵路") {
			return VehicleTrain
		}
	}

	if t == "INTERCITY_BUS" || containsAny(n, "intercity", "客運") {
		return VehicleIntercityBus
	}

	if t == "BUS" || containsAny(n, "bus", "公車") {
		if equalsAny(n, "bus", "公車") {
			return VehicleBus
		}
	}

	return name
}

// rawVehicleName picks the most specific name the provider gave for a ride.
func rawVehicleName(d *RawTransitDetails) string {
	switch {
	case d.Line.ShortName != "":
		return d.Line.ShortName
	case d.Line.Name != "":
		return d.Line.Name
	case d.Line.Vehicle.Name != "":
		return d.Line.Vehicle.Name
	default:
		return DefaultVehicleName
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func equalsAny(s string, values ...string) bool {
	for _, v := range values {
		if s == v {
			return true
		}
	}
	return false
}
