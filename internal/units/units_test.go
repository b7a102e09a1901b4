package units

import (
	"math"
	"testing"
)

func TestToMillimetres(t *testing.T) {
	tests := []struct {
		value    float64
		unit     string
		expected float64
	}{
		{5, MM, 5},
		{5, "", 5},
		{2.5, CM, 25},
		{0.02, M, 20},
		{1500, UM, 1.5},
		{3, " CM ", 30},
	}

	for _, test := range tests {
		result, err := ToMillimetres(test.value, test.unit)
		if err != nil {
			t.Errorf("ToMillimetres(%f, %q) returned error: %v", test.value, test.unit, err)
			continue
		}
		if math.Abs(result-test.expected) > 1e-9 {
			t.Errorf("ToMillimetres(%f, %q) = %f; expected %f", test.value, test.unit, result, test.expected)
		}
	}
}

func TestToMillimetres_Invalid(t *testing.T) {
	if _, err := ToMillimetres(1, "furlong"); err == nil {
		t.Error("expected error for unknown unit")
	}
}

func TestIsValid(t *testing.T) {
	for _, unit := range ValidUnits {
		if !IsValid(unit) {
			t.Errorf("IsValid(%q) = false; expected true", unit)
		}
	}
	for _, unit := range []string{"", "MM", "inch", "mps"} {
		if IsValid(unit) {
			t.Errorf("IsValid(%q) = true; expected false", unit)
		}
	}
}

func TestGetValidUnitsString(t *testing.T) {
	if got, want := GetValidUnitsString(), "um, mm, cm, m"; got != want {
		t.Errorf("GetValidUnitsString() = %q; expected %q", got, want)
	}
}
