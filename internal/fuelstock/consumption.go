package fuelstock

import "math"

// SafetyCoefficient inflates rated consumption to approximate real-world use.
const SafetyCoefficient = 1.2

// ConsumedLiters converts a driven distance into liters using the rated
// consumption (l/100 km) and a multiplier. A missing or non-positive rating
// yields zero consumption and WarningMissingRatedConsumption.
func ConsumedLiters(distanceKm float64, ratedConsumption *float64, coefficient float64) (float64, string) {
	if ratedConsumption == nil || *ratedConsumption <= 0 {
		return 0, WarningMissingRatedConsumption
	}
	if distanceKm <= 0 {
		return 0, ""
	}
	return distanceKm * *ratedConsumption * coefficient / 100, ""
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
