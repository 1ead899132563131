package types

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	oracletypes "github.com/morelucks/reactiaid/x/oracle/types"
)

// ResponseLevel grades the urgency of an aid distribution. Values mirror the
// uint8 encoding used on the wire.
type ResponseLevel uint8

const (
	ResponseLow ResponseLevel = iota
	ResponseMedium
	ResponseHigh
	ResponseCritical
)

// String implements fmt.Stringer.
func (r ResponseLevel) String() string {
	switch r {
	case ResponseLow:
		return "low"
	case ResponseMedium:
		return "medium"
	case ResponseHigh:
		return "high"
	case ResponseCritical:
		return "critical"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(r))
	}
}

// Valid reports whether the response level is a known value.
func (r ResponseLevel) Valid() bool {
	return r <= ResponseCritical
}

// DistributionRecord is created at most once per declaration reference and
// is the audit trail of a completed payout.
type DistributionRecord struct {
	DeclarationRef    uint64                   `json:"declaration_ref"`
	DisasterType      oracletypes.DisasterType `json:"disaster_type"`
	Severity          uint32                   `json:"severity"`
	ResponseLevel     ResponseLevel            `json:"response_level"`
	Amount            sdkmath.Int              `json:"amount"`
	RecipientLocation string                   `json:"recipient_location"`
	ProcessedAtUnix   int64                    `json:"processed_at_unix"`
	ProcessedAtBlock  int64                    `json:"processed_at_block"`
}

// Params holds the payout policy. The formula is deterministic and pure:
// amount = BaseUnit * severity * weight(responseLevel). DebtFloor is the
// most negative balance a distribution may leave behind, expressed as a
// non-negative magnitude.
type Params struct {
	BaseUnit       sdkmath.Int `json:"base_unit"`
	WeightLow      uint64      `json:"weight_low"`
	WeightMedium   uint64      `json:"weight_medium"`
	WeightHigh     uint64      `json:"weight_high"`
	WeightCritical uint64      `json:"weight_critical"`
	DebtFloor      sdkmath.Int `json:"debt_floor"`
}

// DefaultParams returns the default payout policy.
func DefaultParams() Params {
	return Params{
		BaseUnit:       sdkmath.NewInt(1000),
		WeightLow:      1,
		WeightMedium:   2,
		WeightHigh:     3,
		WeightCritical: 5,
		DebtFloor:      sdkmath.NewInt(10_000),
	}
}

// Validate checks the policy for internal consistency.
func (p Params) Validate() error {
	if p.BaseUnit.IsNil() || p.BaseUnit.IsNegative() {
		return fmt.Errorf("%w: base unit must be non-negative", ErrInvalidInput)
	}
	if p.DebtFloor.IsNil() || p.DebtFloor.IsNegative() {
		return fmt.Errorf("%w: debt floor must be a non-negative magnitude", ErrInvalidInput)
	}
	return nil
}

// Weight returns the configured multiplier for a response level.
func (p Params) Weight(level ResponseLevel) (uint64, error) {
	switch level {
	case ResponseLow:
		return p.WeightLow, nil
	case ResponseMedium:
		return p.WeightMedium, nil
	case ResponseHigh:
		return p.WeightHigh, nil
	case ResponseCritical:
		return p.WeightCritical, nil
	default:
		return 0, fmt.Errorf("%w: unknown response level %d", ErrInvalidInput, level)
	}
}

// PayoutAmount applies the payout formula for the given severity and level.
func (p Params) PayoutAmount(severity uint32, level ResponseLevel) (sdkmath.Int, error) {
	if err := oracletypes.ValidateSeverity(severity); err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: severity %d", ErrInvalidInput, severity)
	}
	weight, err := p.Weight(level)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return p.BaseUnit.
		MulRaw(int64(severity)).
		MulRaw(int64(weight)), nil
}
