package workflow

import (
	"github.com/Proton-105/rental-agent/internal/inventory"
)

// DefaultMaxNegotiationAttempts is the price proposal budget of a call.
const DefaultMaxNegotiationAttempts = 3

// ContextKeyEndReason is the ContextData key holding the reason passed to EndCall.
const ContextKeyEndReason = "end_reason"

// End reasons recorded by the workflow.
const (
	ReasonCompleted                   = "completed"
	ReasonFailedLicenseVerification   = "failed_license_verification"
	ReasonFailedSiteVerification      = "failed_site_verification"
	ReasonFailedNegotiation           = "failed_negotiation"
	ReasonFailedOperatorVerification  = "failed_operator_verification"
	ReasonFailedInsuranceVerification = "failed_insurance_verification"
)

var transitionRecorder = func(from, to string) {}

// RegisterTransitionRecorder allows external packages to observe stage transitions.
func RegisterTransitionRecorder(recorder func(from, to string)) {
	if recorder == nil {
		transitionRecorder = func(string, string) {}
		return
	}

	transitionRecorder = recorder
}

// ConversationState is everything collected during one call.
// It belongs to a single call and is mutated only by the workflow handlers.
type ConversationState struct {
	Stage Stage `json:"stage"`

	BusinessLicense  string `json:"business_license,omitempty"`
	BusinessName     string `json:"business_name,omitempty"`
	CustomerVerified bool   `json:"customer_verified"`

	// SelectedEquipment is a snapshot taken at selection time.
	SelectedEquipment *inventory.Equipment `json:"selected_equipment,omitempty"`
	EquipmentID       string               `json:"equipment_id,omitempty"`

	JobAddress   string `json:"job_address,omitempty"`
	SiteVerified bool   `json:"site_verified"`

	// ProposedDailyRate holds an in-range proposal awaiting confirmation.
	ProposedDailyRate      *float64 `json:"proposed_daily_rate,omitempty"`
	AgreedDailyRate        *float64 `json:"agreed_daily_rate,omitempty"`
	RentalDays             int      `json:"rental_days,omitempty"`
	NegotiationAttempts    int      `json:"negotiation_attempts"`
	MaxNegotiationAttempts int      `json:"max_negotiation_attempts"`

	OperatorName     string `json:"operator_name,omitempty"`
	OperatorLicense  string `json:"operator_license,omitempty"`
	OperatorPhone    string `json:"operator_phone,omitempty"`
	OperatorVerified bool   `json:"operator_verified"`

	InsurancePolicy   string `json:"insurance_policy,omitempty"`
	InsuranceVerified bool   `json:"insurance_verified"`

	BookingConfirmed bool   `json:"booking_confirmed"`
	BookingReference string `json:"booking_reference,omitempty"`

	ContextData map[string]any `json:"context_data,omitempty"`
}

// NewConversationState returns a state at the greeting stage.
// A non-positive maxAttempts uses DefaultMaxNegotiationAttempts.
func NewConversationState(maxAttempts int) *ConversationState {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxNegotiationAttempts
	}

	return &ConversationState{
		Stage:                  StageGreeting,
		MaxNegotiationAttempts: maxAttempts,
		ContextData:            make(map[string]any),
	}
}

// CanAdvance reports whether the current stage's completion predicate holds.
func (s *ConversationState) CanAdvance() bool {
	switch s.Stage {
	case StageGreeting:
		return true
	case StageCustomerVerification:
		return s.CustomerVerified
	case StageEquipmentDiscovery:
		return s.SelectedEquipment != nil
	case StageRequirementsConfirmation:
		return s.SiteVerified
	case StagePricingNegotiation:
		return s.AgreedDailyRate != nil
	case StageOperatorCertification:
		return s.OperatorVerified
	case StageInsuranceVerification:
		return s.InsuranceVerified
	default:
		return false
	}
}

// Advance moves one stage forward when CanAdvance holds and reports whether it moved.
func (s *ConversationState) Advance() bool {
	if !s.CanAdvance() {
		return false
	}

	next, ok := s.Stage.Next()
	if !ok {
		return false
	}

	from := s.Stage
	s.Stage = next
	transitionRecorder(string(from), string(next))

	return true
}

// EndCall moves the call to StageCallEnded from any stage and records reason.
// Calling it again keeps the call ended and overwrites the reason.
func (s *ConversationState) EndCall(reason string) {
	if s.ContextData == nil {
		s.ContextData = make(map[string]any)
	}
	s.ContextData[ContextKeyEndReason] = reason

	if s.Stage == StageCallEnded {
		return
	}

	from := s.Stage
	s.Stage = StageCallEnded
	transitionRecorder(string(from), string(StageCallEnded))
}

// Ended reports whether the call has terminated.
func (s *ConversationState) Ended() bool {
	return s.Stage.Terminal()
}

// EndReason returns the reason recorded by EndCall, if any.
func (s *ConversationState) EndReason() string {
	reason, _ := s.ContextData[ContextKeyEndReason].(string)
	return reason
}

// NegotiationExhausted reports whether the proposal budget is spent.
func (s *ConversationState) NegotiationExhausted() bool {
	return s.NegotiationAttempts >= s.MaxNegotiationAttempts
}

// BookingReferenceFor derives the booking reference for an equipment id and business license.
func BookingReferenceFor(equipmentID, businessLicense string) string {
	return "BK" + equipmentID + "-" + businessLicense
}

// Clone returns a deep copy of s.
func (s *ConversationState) Clone() *ConversationState {
	c := *s
	if s.SelectedEquipment != nil {
		eq := *s.SelectedEquipment
		c.SelectedEquipment = &eq
	}
	if s.ProposedDailyRate != nil {
		v := *s.ProposedDailyRate
		c.ProposedDailyRate = &v
	}
	if s.AgreedDailyRate != nil {
		v := *s.AgreedDailyRate
		c.AgreedDailyRate = &v
	}
	if s.ContextData != nil {
		c.ContextData = make(map[string]any, len(s.ContextData))
		for k, v := range s.ContextData {
			c.ContextData[k] = v
		}
	}
	return &c
}
