// Package units provides shared constants and conversions for speed units.
package units

// Unit constants
const (
	MPS  = "mps"
	MPH  = "mph"
	KMPH = "kmph"
	KPH  = "kph"
)

// Conversion factors. Speeds inside the pipeline are meters per second;
// reported speeds are km/h with an mph companion value.
const (
	KMPHPerMPS = 3.6
	MPHPerMPS  = 2.23694
	MPHPerKMPH = 0.621371
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{MPS, MPH, KMPH, KPH}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "mps, mph, kmph, kph"
}

// ConvertSpeed converts a speed from meters per second to the target units
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case MPH:
		return speedMPS * MPHPerMPS
	case KMPH, KPH:
		return speedMPS * KMPHPerMPS
	case MPS:
		return speedMPS
	default:
		return speedMPS
	}
}
