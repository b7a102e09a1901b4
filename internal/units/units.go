// Package units provides shared constants and validation for length units
package units

import (
	"fmt"
	"strings"
)

// Unit constants
const (
	UM = "um"
	MM = "mm"
	CM = "cm"
	M  = "m"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{UM, MM, CM, M}

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
	return strings.Join(ValidUnits, ", ")
}

// MillimetresPer returns how many millimetres one of unit is. An empty unit
// means millimetres, the scene's native unit.
func MillimetresPer(unit string) (float64, error) {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case UM:
		return 0.001, nil
	case MM, "":
		return 1, nil
	case CM:
		return 10, nil
	case M:
		return 1000, nil
	default:
		return 0, fmt.Errorf("unsupported length unit %q (want %s)", unit, GetValidUnitsString())
	}
}

// ToMillimetres converts v from unit into millimetres.
func ToMillimetres(v float64, unit string) (float64, error) {
	scale, err := MillimetresPer(unit)
	if err != nil {
		return 0, err
	}
	return v * scale, nil
}
