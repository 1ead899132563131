package types

import (
	"fmt"
	"strings"
)

// MsgTriggerDisaster declares a disaster into the append-only log.
type MsgTriggerDisaster struct {
	Declarer     string       `json:"declarer"`
	DisasterType DisasterType `json:"disaster_type"`
	Severity     uint32       `json:"severity"`
	Location     string       `json:"location"`
}

// NewMsgTriggerDisaster creates a new MsgTriggerDisaster.
func NewMsgTriggerDisaster(declarer string, disasterType DisasterType, severity uint32, location string) MsgTriggerDisaster {
	return MsgTriggerDisaster{
		Declarer:     declarer,
		DisasterType: disasterType,
		Severity:     severity,
		Location:     strings.TrimSpace(location),
	}
}

// ValidateBasic performs stateless validation.
func (m MsgTriggerDisaster) ValidateBasic() error {
	if strings.TrimSpace(m.Declarer) == "" {
		return fmt.Errorf("%w: declarer cannot be empty", ErrInvalidInput)
	}
	if !m.DisasterType.Valid() {
		return fmt.Errorf("%w: unknown disaster type %d", ErrInvalidInput, m.DisasterType)
	}
	if err := ValidateSeverity(m.Severity); err != nil {
		return err
	}
	return ValidateLocation(m.Location)
}

// MsgSetAuthorization grants or revokes a principal's right to declare.
// Only the oracle owner may issue it.
type MsgSetAuthorization struct {
	Requester string `json:"requester"`
	Principal string `json:"principal"`
	Granted   bool   `json:"granted"`
}

// NewMsgGrantAuthorization authorizes a principal to declare disasters.
func NewMsgGrantAuthorization(requester, principal string) MsgSetAuthorization {
	return MsgSetAuthorization{Requester: requester, Principal: principal, Granted: true}
}

// NewMsgRevokeAuthorization removes a principal's declaration rights.
func NewMsgRevokeAuthorization(requester, principal string) MsgSetAuthorization {
	return MsgSetAuthorization{Requester: requester, Principal: principal, Granted: false}
}

// ValidateBasic performs stateless validation.
func (m MsgSetAuthorization) ValidateBasic() error {
	if strings.TrimSpace(m.Requester) == "" {
		return fmt.Errorf("%w: requester cannot be empty", ErrInvalidInput)
	}
	if strings.TrimSpace(m.Principal) == "" {
		return fmt.Errorf("%w: principal cannot be empty", ErrInvalidInput)
	}
	return nil
}
