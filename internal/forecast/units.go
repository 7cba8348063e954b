package forecast

import "math"

// feetPerMeter converts wave heights between meters and feet.
const feetPerMeter = 3.28084

// MetersToFeet converts a height to whole feet. Unknown stays unknown.
func MetersToFeet(m Value) Value {
	return m.Map(func(v float64) float64 {
		return math.Round(v * feetPerMeter)
	})
}

// metersToRawFeet converts without rounding, for scoring and comparison.
func metersToRawFeet(m Value) Value {
	return m.Map(func(v float64) float64 {
		return v * feetPerMeter
	})
}

// FeetToMeters converts a height in feet back to meters. Unknown stays unknown.
func FeetToMeters(ft Value) Value {
	return ft.Map(func(v float64) float64 {
		return v / feetPerMeter
	})
}
