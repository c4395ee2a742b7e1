package records

import "strings"

// Vehicle type categories.
const (
	CategoryPassenger  = "PASSENGER"
	CategoryTruck      = "TRUCK"
	CategoryBus        = "BUS"
	CategoryBicycle    = "BICYCLE"
	CategoryMotorcycle = "MOTORCYCLE"
	CategoryEmergency  = "EMERGENCY"
	CategoryOther      = "OTHER"
)

// Contributing factor severities.
const (
	FactorSeverityHigh   = "HIGH"
	FactorSeverityMedium = "MEDIUM"
	FactorSeverityLow    = "LOW"
)

// UnspecifiedFactor is the source's explicit "no factor identified"
// code. It is a real dimension row, not a missing value.
const UnspecifiedFactor = "Unspecified"

// ClassifyVehicleType buckets a raw vehicle type code into a category
// and reports whether the vehicle is motorized. Matching is by keyword
// on the upper-cased code; unrecognized codes land in OTHER.
func ClassifyVehicleType(typeCode string) (category string, motorized bool) {
	code := strings.ToUpper(strings.TrimSpace(typeCode))

	switch {
	case code == "" || code == UnknownVehicleType:
		return CategoryOther, true
	case containsAny(code, "AMBUL", "FIRE", "POLICE"):
		return CategoryEmergency, true
	case containsAny(code, "BICYCLE", "BIKE", "E-BIK", "EBIKE", "E-SCO", "SCOOTER"):
		// Scooters and e-bikes group with bicycles as vulnerable road
		// users even when motorized.
		return CategoryBicycle, false
	case containsAny(code, "MOTORCYCLE", "MOPED"):
		return CategoryMotorcycle, true
	case containsAny(code, "BUS"):
		return CategoryBus, true
	case containsAny(code, "TRUCK", "TRACTOR", "TRAILER", "DUMP", "FLAT BED", "TANKER", "GARBAGE", "DELIV", "VAN"):
		return CategoryTruck, true
	case containsAny(code, "SEDAN", "STATION WAGON", "SPORT UTILITY", "SUV", "PASSENGER", "TAXI", "LIMO", "CONVERTIBLE"):
		return CategoryPassenger, true
	default:
		return CategoryOther, true
	}
}

// ClassifyFactor grades a raw contributing factor code by severity and
// reports whether it describes preventable driver behavior.
func ClassifyFactor(factorCode string) (severity string, preventable bool) {
	code := strings.ToUpper(strings.TrimSpace(factorCode))

	switch {
	case code == "" || code == strings.ToUpper(UnspecifiedFactor):
		return FactorSeverityLow, false
	case containsAny(code, "ALCOHOL", "DRUGS", "SPEED", "TRAFFIC CONTROL DISREGARDED", "CELL PHONE", "TEXTING"):
		return FactorSeverityHigh, true
	case containsAny(code, "DISTRACTION", "INATTENTION", "FOLLOWING TOO CLOSELY", "FAILURE TO YIELD", "AGGRESSIVE", "ROAD RAGE", "PASSING", "FATIGUED", "DROWSY", "ASLEEP", "BACKING UNSAFELY", "TURNING IMPROPERLY"):
		return FactorSeverityMedium, true
	case containsAny(code, "DEFECTIVE", "BRAKES", "TIRE", "STEERING", "OVERSIZED"):
		return FactorSeverityMedium, false
	case containsAny(code, "PAVEMENT", "SLIPPERY", "OBSTRUCTION", "DEBRIS", "GLARE", "VIEW OBSTRUCTED", "ANIMALS", "LANE MARKING", "SHOULDERS"):
		return FactorSeverityLow, false
	default:
		return FactorSeverityLow, true
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
