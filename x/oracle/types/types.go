package types

import (
	"fmt"
	"strings"
)

const (
	// MinSeverity and MaxSeverity bound the accepted severity scale.
	MinSeverity = 1
	MaxSeverity = 10

	// MaxLocationLength bounds the free-form location label.
	MaxLocationLength = 256
)

// DisasterType classifies a declared disaster. Values mirror the uint8
// encoding used on the wire.
type DisasterType uint8

const (
	DisasterEarthquake DisasterType = iota
	DisasterFlood
	DisasterWildfire
	DisasterHurricane
	DisasterTornado
)

// String implements fmt.Stringer.
func (d DisasterType) String() string {
	switch d {
	case DisasterEarthquake:
		return "earthquake"
	case DisasterFlood:
		return "flood"
	case DisasterWildfire:
		return "wildfire"
	case DisasterHurricane:
		return "hurricane"
	case DisasterTornado:
		return "tornado"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(d))
	}
}

// Valid reports whether the disaster type is a known value.
func (d DisasterType) Valid() bool {
	return d <= DisasterTornado
}

// DisasterTypeFromString parses a case-insensitive disaster type name.
func DisasterTypeFromString(s string) (DisasterType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "earthquake":
		return DisasterEarthquake, nil
	case "flood":
		return DisasterFlood, nil
	case "wildfire":
		return DisasterWildfire, nil
	case "hurricane":
		return DisasterHurricane, nil
	case "tornado":
		return DisasterTornado, nil
	default:
		return 0, fmt.Errorf("%w: unknown disaster type %q", ErrInvalidInput, s)
	}
}

// Declaration is an immutable record that a disaster of the given type,
// severity and location has occurred. Sequence is strictly increasing and
// defines the log's total order; entries are never modified or deleted.
type Declaration struct {
	Sequence        uint64       `json:"sequence"`
	DisasterType    DisasterType `json:"disaster_type"`
	Severity        uint32       `json:"severity"`
	Location        string       `json:"location"`
	DeclaredBy      string       `json:"declared_by"`
	DeclaredAtUnix  int64        `json:"declared_at_unix"`
	DeclaredAtBlock int64        `json:"declared_at_block"`
}

// ValidateSeverity checks the severity bounds shared by msgs and the keeper.
func ValidateSeverity(severity uint32) error {
	if severity < MinSeverity || severity > MaxSeverity {
		return fmt.Errorf("%w: severity %d outside [%d,%d]", ErrInvalidInput, severity, MinSeverity, MaxSeverity)
	}
	return nil
}

// ValidateLocation checks the location label shared by msgs and the keeper.
func ValidateLocation(location string) error {
	trimmed := strings.TrimSpace(location)
	if trimmed == "" {
		return fmt.Errorf("%w: location cannot be empty", ErrInvalidInput)
	}
	if len(trimmed) > MaxLocationLength {
		return fmt.Errorf("%w: location exceeds %d characters", ErrInvalidInput, MaxLocationLength)
	}
	return nil
}
