package enums

import "fmt"

// PartUnit is the unit of measure a catalog part is tracked in.
type PartUnit string

const (
	PartUnitPiece PartUnit = "piece"
	PartUnitSet   PartUnit = "set"
	PartUnitPair  PartUnit = "pair"
	PartUnitLiter PartUnit = "liter"
	PartUnitKg    PartUnit = "kg"
)

var validPartUnits = []PartUnit{
	PartUnitPiece,
	PartUnitSet,
	PartUnitPair,
	PartUnitLiter,
	PartUnitKg,
}

// String implements fmt.Stringer.
func (p PartUnit) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PartUnit.
func (p PartUnit) IsValid() bool {
	for _, candidate := range validPartUnits {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePartUnit converts raw input into a PartUnit.
func ParsePartUnit(value string) (PartUnit, error) {
	for _, candidate := range validPartUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid part unit %q", value)
}
