package workflow

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/rental-agent/internal/inventory"
)

func ptr(v float64) *float64 { return &v }

// satisfy sets the completion predicate of stage on s.
func satisfy(s *ConversationState, stage Stage) {
	switch stage {
	case StageCustomerVerification:
		s.CustomerVerified = true
	case StageEquipmentDiscovery:
		s.SelectedEquipment = &inventory.Equipment{ID: "EQ001"}
	case StageRequirementsConfirmation:
		s.SiteVerified = true
	case StagePricingNegotiation:
		s.AgreedDailyRate = ptr(500)
	case StageOperatorCertification:
		s.OperatorVerified = true
	case StageInsuranceVerification:
		s.InsuranceVerified = true
	}
}

func TestStageOrder(t *testing.T) {
	next, ok := StageGreeting.Next()
	require.True(t, ok)
	assert.Equal(t, StageCustomerVerification, next)

	_, ok = StageBookingCompletion.Next()
	assert.False(t, ok)

	_, ok = StageCallEnded.Next()
	assert.False(t, ok)

	assert.True(t, StageCallEnded.Valid())
	assert.False(t, Stage("payment").Valid())
	assert.Len(t, Stages(), 9)
}

func TestCanAdvance(t *testing.T) {
	testCases := []struct {
		name     string
		stage    Stage
		prepare  func(*ConversationState)
		expected bool
	}{
		{name: "greeting always", stage: StageGreeting, expected: true},
		{name: "customer unverified", stage: StageCustomerVerification, expected: false},
		{name: "customer verified", stage: StageCustomerVerification, prepare: func(s *ConversationState) { s.CustomerVerified = true }, expected: true},
		{name: "no equipment", stage: StageEquipmentDiscovery, expected: false},
		{name: "equipment selected", stage: StageEquipmentDiscovery, prepare: func(s *ConversationState) { s.SelectedEquipment = &inventory.Equipment{ID: "EQ001"} }, expected: true},
		{name: "site unverified", stage: StageRequirementsConfirmation, expected: false},
		{name: "site verified", stage: StageRequirementsConfirmation, prepare: func(s *ConversationState) { s.SiteVerified = true }, expected: true},
		{name: "only proposed rate", stage: StagePricingNegotiation, prepare: func(s *ConversationState) { s.ProposedDailyRate = ptr(500) }, expected: false},
		{name: "agreed rate", stage: StagePricingNegotiation, prepare: func(s *ConversationState) { s.AgreedDailyRate = ptr(500) }, expected: true},
		{name: "operator unverified", stage: StageOperatorCertification, expected: false},
		{name: "operator verified", stage: StageOperatorCertification, prepare: func(s *ConversationState) { s.OperatorVerified = true }, expected: true},
		{name: "insurance unverified", stage: StageInsuranceVerification, expected: false},
		{name: "insurance verified", stage: StageInsuranceVerification, prepare: func(s *ConversationState) { s.InsuranceVerified = true }, expected: true},
		{name: "booking completion never", stage: StageBookingCompletion, prepare: func(s *ConversationState) { s.BookingConfirmed = true }, expected: false},
		{name: "call ended never", stage: StageCallEnded, expected: false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			s := NewConversationState(0)
			s.Stage = tc.stage
			if tc.prepare != nil {
				tc.prepare(s)
			}

			assert.Equal(t, tc.expected, s.CanAdvance())
		})
	}
}

func TestAdvanceMatchesCanAdvance(t *testing.T) {
	for _, stage := range Stages() {
		for _, satisfied := range []bool{false, true} {
			s := NewConversationState(0)
			s.Stage = stage
			if satisfied {
				satisfy(s, stage)
			}

			could := s.CanAdvance()
			moved := s.Advance()

			assert.Equal(t, could, moved, "stage %s satisfied=%t", stage, satisfied)
			if moved {
				assert.Equal(t, stage.Index()+1, s.Stage.Index(), "advance must move exactly one step from %s", stage)
			} else {
				assert.Equal(t, stage, s.Stage, "failed advance must not move from %s", stage)
			}
		}
	}
}

func TestAdvanceNeverSkipsEvenWhenLaterPredicatesHold(t *testing.T) {
	s := NewConversationState(0)
	s.Stage = StageCustomerVerification
	s.CustomerVerified = true
	s.SelectedEquipment = &inventory.Equipment{ID: "EQ001"}
	s.SiteVerified = true

	require.True(t, s.Advance())
	assert.Equal(t, StageEquipmentDiscovery, s.Stage)
}

func TestFullWalkthrough(t *testing.T) {
	s := NewConversationState(0)
	visited := []Stage{s.Stage}

	for _, stage := range stageOrder {
		satisfy(s, stage)
		if s.Advance() {
			visited = append(visited, s.Stage)
		}
	}

	assert.Equal(t, stageOrder, visited)
	assert.False(t, s.Advance())
}

func TestEndCallFromEveryStage(t *testing.T) {
	for _, stage := range Stages() {
		s := NewConversationState(0)
		s.Stage = stage

		s.EndCall("customer_request")
		assert.Equal(t, StageCallEnded, s.Stage)
		assert.Equal(t, "customer_request", s.EndReason())

		s.EndCall("customer_request")
		assert.Equal(t, StageCallEnded, s.Stage)
		assert.True(t, s.Ended())

		s.CustomerVerified = true
		assert.False(t, s.Advance(), "no transition out of call_ended")
	}
}

func TestEndCallWithNilContextData(t *testing.T) {
	s := &ConversationState{Stage: StagePricingNegotiation}

	s.EndCall(ReasonFailedNegotiation)

	assert.Equal(t, ReasonFailedNegotiation, s.EndReason())
}

func TestTransitionRecorder(t *testing.T) {
	var transitions [][2]string
	RegisterTransitionRecorder(func(from, to string) {
		transitions = append(transitions, [2]string{from, to})
	})
	t.Cleanup(func() { RegisterTransitionRecorder(nil) })

	s := NewConversationState(0)
	s.Advance()
	s.Advance()
	s.EndCall(ReasonCompleted)
	s.EndCall(ReasonCompleted)

	assert.Equal(t, [][2]string{
		{"greeting", "customer_verification"},
		{"customer_verification", "call_ended"},
	}, transitions)
}

func TestBookingReferenceFor(t *testing.T) {
	assert.Equal(t, "BKEQ001-ABC123", BookingReferenceFor("EQ001", "ABC123"))
	assert.Equal(t, BookingReferenceFor("EQ001", "ABC123"), BookingReferenceFor("EQ001", "ABC123"))
}

func TestNewConversationStateDefaults(t *testing.T) {
	s := NewConversationState(0)

	assert.Equal(t, StageGreeting, s.Stage)
	assert.Equal(t, 3, s.MaxNegotiationAttempts)
	assert.Zero(t, s.NegotiationAttempts)
	assert.Nil(t, s.AgreedDailyRate)
	assert.Equal(t, 5, NewConversationState(5).MaxNegotiationAttempts)
}

func TestCloneIsIndependent(t *testing.T) {
	s := NewConversationState(0)
	s.SelectedEquipment = &inventory.Equipment{ID: "EQ001", DailyRate: 400}
	s.AgreedDailyRate = ptr(450)
	s.ContextData["note"] = "x"

	c := s.Clone()
	c.SelectedEquipment.DailyRate = 1
	*c.AgreedDailyRate = 1
	c.ContextData["note"] = "y"

	assert.Equal(t, 400.0, s.SelectedEquipment.DailyRate)
	assert.Equal(t, 450.0, *s.AgreedDailyRate)
	assert.Equal(t, "x", s.ContextData["note"])
}

func TestStateJSONRoundTripKeepsAbsentRate(t *testing.T) {
	s := NewConversationState(0)
	s.ProposedDailyRate = ptr(500)

	raw, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded ConversationState
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Nil(t, decoded.AgreedDailyRate)
	require.NotNil(t, decoded.ProposedDailyRate)
	assert.Equal(t, 500.0, *decoded.ProposedDailyRate)
}
