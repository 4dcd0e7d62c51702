package agent

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/rental-agent/internal/inventory"
	"github.com/Proton-105/rental-agent/internal/prompt"
	"github.com/Proton-105/rental-agent/internal/verification"
	"github.com/Proton-105/rental-agent/internal/workflow"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memStore struct {
	mu    sync.Mutex
	items []inventory.Equipment
}

func newMemStore() *memStore {
	return &memStore{items: []inventory.Equipment{
		{ID: "EQ001", Name: "CAT 320 Excavator", Category: "Excavator", DailyRate: 400, MaxRate: 600, Status: inventory.StatusAvailable, OperatorCertRequired: "Heavy Equipment License", MinInsurance: 1000000, StorageLocation: "Yard A", WeightClass: "20 ton"},
		{ID: "EQ002", Name: "JLG Boom Lift", Category: "Aerial Lift", DailyRate: 300, MaxRate: 450, Status: inventory.StatusRented, OperatorCertRequired: "Aerial Lift Cert", MinInsurance: 500000, StorageLocation: "Yard B", WeightClass: "8 ton"},
		{ID: "EQ003", Name: "Toyota Forklift", Category: "Forklift", DailyRate: 250, MaxRate: 350, Status: inventory.StatusAvailable, OperatorCertRequired: "Forklift Cert", MinInsurance: 250000, StorageLocation: "Yard C", WeightClass: "3 ton"},
	}}
}

func (s *memStore) ListAll(context.Context) ([]inventory.Equipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]inventory.Equipment(nil), s.items...), nil
}

func (s *memStore) ListAvailable(context.Context) ([]inventory.Equipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []inventory.Equipment
	for _, it := range s.items {
		if it.Available() {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *memStore) GetByID(_ context.Context, id string) (*inventory.Equipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.items {
		if it.ID == id {
			eq := it
			return &eq, nil
		}
	}
	return nil, inventory.ErrNotFound
}

func (s *memStore) TryReserve(_ context.Context, id string, status inventory.Status) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id && s.items[i].Available() {
			s.items[i].Status = status
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) status(id string) inventory.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.items {
		if it.ID == id {
			return it.Status
		}
	}
	return ""
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) VerifyBusinessLicense(ctx context.Context, license string) (verification.Result, error) {
	args := m.Called(ctx, license)
	return args.Get(0).(verification.Result), args.Error(1)
}

func (m *mockGateway) VerifySiteSafety(ctx context.Context, address, category, weightClass string) (verification.Result, error) {
	args := m.Called(ctx, address, category, weightClass)
	return args.Get(0).(verification.Result), args.Error(1)
}

func (m *mockGateway) VerifyOperatorCredentials(ctx context.Context, license, cert string) (verification.Result, error) {
	args := m.Called(ctx, license, cert)
	return args.Get(0).(verification.Result), args.Error(1)
}

func (m *mockGateway) VerifyInsuranceCoverage(ctx context.Context, policy string, required, value float64) (verification.Result, error) {
	args := m.Called(ctx, policy, required, value)
	return args.Get(0).(verification.Result), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) BookingConfirmed(ctx context.Context, b Booking) error {
	return m.Called(ctx, b).Error(0)
}

type fixture struct {
	agent    *Agent
	store    *memStore
	notifier *mockNotifier
}

func newFixture(t *testing.T, gw verification.Gateway) *fixture {
	t.Helper()

	if gw == nil {
		gw = verification.NewPlaceholder("Metro Construction LLC", testLogger())
	}

	prompts, err := prompt.New(DefaultCompanyName)
	require.NoError(t, err)

	store := newMemStore()
	notifier := &mockNotifier{}
	notifier.On("BookingConfirmed", mock.Anything, mock.Anything).Return(nil).Maybe()

	a, err := New(Deps{
		Store:    store,
		Gateway:  gw,
		Prompts:  prompts,
		Notifier: notifier,
		Log:      testLogger(),
	})
	require.NoError(t, err)

	return &fixture{agent: a, store: store, notifier: notifier}
}

func (f *fixture) invoke(t *testing.T, st *workflow.ConversationState, tool string, args Args) string {
	t.Helper()
	reply, err := f.agent.Invoke(context.Background(), st, tool, args)
	require.NoError(t, err)
	return reply
}

// atPricing drives a fresh call up to the pricing stage with EQ001 selected.
func (f *fixture) atPricing(t *testing.T) *workflow.ConversationState {
	t.Helper()
	st := workflow.NewConversationState(0)
	f.invoke(t, st, ToolVerifyBusinessLicense, Args{"license_number": "ABC123"})
	f.invoke(t, st, ToolSelectEquipment, Args{"equipment_id": "EQ001"})
	f.invoke(t, st, ToolVerifySiteSafety, Args{"job_address": "123 Main Street, Springfield"})
	require.Equal(t, workflow.StagePricingNegotiation, st.Stage)
	return st
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Deps{})
	assert.Error(t, err)
}

func TestInvokeUnknownTool(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.agent.Invoke(context.Background(), workflow.NewConversationState(0), "teleport", nil)
	assert.ErrorIs(t, err, ErrUnknownTool)
}

func TestVerifyBusinessLicense(t *testing.T) {
	f := newFixture(t, nil)
	st := workflow.NewConversationState(0)

	reply := f.invoke(t, st, ToolVerifyBusinessLicense, Args{"license_number": "ABC123"})

	assert.Equal(t, "Business license verified. Customer: Metro Construction LLC", reply)
	assert.True(t, st.CustomerVerified)
	assert.Equal(t, "ABC123", st.BusinessLicense)
	assert.Equal(t, workflow.StageEquipmentDiscovery, st.Stage)
}

func TestVerifyBusinessLicenseRejected(t *testing.T) {
	gw := &mockGateway{}
	gw.On("VerifyBusinessLicense", mock.Anything, "ABC123").Return(verification.Result{Accepted: false, Detail: "revoked"}, nil)
	f := newFixture(t, gw)
	st := workflow.NewConversationState(0)

	reply := f.invoke(t, st, ToolVerifyBusinessLicense, Args{"license_number": "ABC123"})

	assert.Equal(t, "License verification failed. Cannot proceed with rental.", reply)
	assert.True(t, st.Ended())
	assert.Equal(t, workflow.ReasonFailedLicenseVerification, st.EndReason())
	assert.False(t, st.CustomerVerified)
}

func TestVerifyBusinessLicenseUnavailableKeepsCallOpen(t *testing.T) {
	gw := &mockGateway{}
	gw.On("VerifyBusinessLicense", mock.Anything, "ABC123").
		Return(verification.Result{Detail: "verification service unavailable", Unavailable: true}, nil)
	f := newFixture(t, gw)
	st := workflow.NewConversationState(0)

	reply := f.invoke(t, st, ToolVerifyBusinessLicense, Args{"license_number": "ABC123"})

	assert.Contains(t, reply, "unavailable right now")
	assert.False(t, st.Ended())
	assert.Equal(t, workflow.StageGreeting, st.Stage)
}

func TestInvalidArgumentReasksWithoutGatewayCall(t *testing.T) {
	gw := &mockGateway{}
	f := newFixture(t, gw)
	st := workflow.NewConversationState(0)

	reply := f.invoke(t, st, ToolVerifyBusinessLicense, Args{"license_number": "a!"})

	assert.Contains(t, reply, "doesn't look right")
	assert.Equal(t, workflow.StageGreeting, st.Stage)
	gw.AssertNotCalled(t, "VerifyBusinessLicense", mock.Anything, mock.Anything)
}

func TestSearchAvailableEquipment(t *testing.T) {
	f := newFixture(t, nil)
	st := workflow.NewConversationState(0)

	reply := f.invoke(t, st, ToolSearchAvailableEquipment, Args{"search_query": "forklifts for the warehouse"})

	assert.Contains(t, reply, "Found 2 available equipment:")
	assert.NotContains(t, reply, "EQ002")
	assert.Less(t, strings.Index(reply, "ID: EQ003"), strings.Index(reply, "ID: EQ001"))
	assert.Contains(t, reply, "Daily Rate: $250.00")
	assert.Contains(t, reply, "Min Insurance: $250000.00")
	assert.Equal(t, workflow.StageGreeting, st.Stage)
}

func TestSearchEmptyInventory(t *testing.T) {
	f := newFixture(t, nil)
	f.store.items = nil

	reply := f.invoke(t, workflow.NewConversationState(0), ToolSearchAvailableEquipment, Args{"search_query": "anything"})

	assert.Equal(t, "Found 0 available equipment:\n\nNo equipment available.", reply)
}

func TestSelectEquipment(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		name     string
		id       string
		want     string
		selected bool
	}{
		{name: "not found", id: "EQ999", want: "Equipment EQ999 not found."},
		{name: "not available", id: "EQ002", want: "Equipment EQ002 is not available (Status: RENTED)."},
		{name: "available", id: "eq001", want: "Selected: CAT 320 Excavator at $400.00/day. Location: Yard A", selected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := workflow.NewConversationState(0)
			st.Stage = workflow.StageEquipmentDiscovery
			st.CustomerVerified = true

			reply := f.invoke(t, st, ToolSelectEquipment, Args{"equipment_id": tt.id})

			assert.Equal(t, tt.want, reply)
			if tt.selected {
				require.NotNil(t, st.SelectedEquipment)
				assert.Equal(t, "EQ001", st.EquipmentID)
				assert.Equal(t, workflow.StageRequirementsConfirmation, st.Stage)
				return
			}
			assert.Nil(t, st.SelectedEquipment)
			assert.Empty(t, st.EquipmentID)
			assert.Equal(t, workflow.StageEquipmentDiscovery, st.Stage)
		})
	}
}

func TestSelectionIsSnapshot(t *testing.T) {
	f := newFixture(t, nil)
	st := workflow.NewConversationState(0)
	f.invoke(t, st, ToolSelectEquipment, Args{"equipment_id": "EQ001"})

	f.store.items[0].DailyRate = 999

	assert.Equal(t, 400.0, st.SelectedEquipment.DailyRate)
}

func TestOperationsRequireSelectedEquipment(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		tool string
		args Args
		want string
	}{
		{ToolVerifySiteSafety, Args{"job_address": "123 Main Street, Springfield"}, "No equipment selected yet."},
		{ToolProposePrice, Args{"proposed_daily_rate": 450.0}, "No equipment selected."},
		{ToolAcceptPrice, Args{"confirmed_daily_rate": 450.0}, "No equipment selected."},
		{ToolVerifyOperatorCredentials, Args{"operator_name": "John Smith", "operator_license": "OP-12345", "operator_phone": "555-123-4567"}, "No equipment selected."},
		{ToolVerifyInsuranceCoverage, Args{"policy_number": "POL-98765"}, "No equipment selected."},
		{ToolCompleteBooking, nil, "No equipment selected."},
	}

	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			st := workflow.NewConversationState(0)
			assert.Equal(t, tt.want, f.invoke(t, st, tt.tool, tt.args))
			assert.Equal(t, 0, st.NegotiationAttempts)
		})
	}
}

func TestPriceGatingScenario(t *testing.T) {
	f := newFixture(t, nil)
	st := f.atPricing(t)

	reply := f.invoke(t, st, ToolProposePrice, Args{"proposed_daily_rate": 350.0})
	assert.Equal(t, "Rate $350.00/day is below our minimum of $400.00/day. Can you work with a higher rate?", reply)
	assert.Nil(t, st.AgreedDailyRate)
	assert.Equal(t, 1, st.NegotiationAttempts)

	reply = f.invoke(t, st, ToolProposePrice, Args{"proposed_daily_rate": 500.0, "rental_days": 3.0})
	assert.Equal(t, "Rate of $500.00/day for 3 days is acceptable. Total would be $1500.00. Please confirm this rate to proceed.", reply)
	assert.Nil(t, st.AgreedDailyRate)
	require.NotNil(t, st.ProposedDailyRate)
	assert.Equal(t, 500.0, *st.ProposedDailyRate)
	assert.Equal(t, workflow.StagePricingNegotiation, st.Stage)

	reply = f.invoke(t, st, ToolAcceptPrice, Args{"confirmed_daily_rate": 500.0})
	assert.Equal(t, "Price confirmed at $500.00/day. Total cost: $1500.00. Now let's verify your operator credentials.", reply)
	require.NotNil(t, st.AgreedDailyRate)
	assert.Equal(t, 500.0, *st.AgreedDailyRate)
	assert.Nil(t, st.ProposedDailyRate)
	assert.Equal(t, workflow.StageOperatorCertification, st.Stage)
}

func TestNegotiationEndsOnThirdBelowMinimum(t *testing.T) {
	f := newFixture(t, nil)
	st := f.atPricing(t)

	for i := 1; i <= 2; i++ {
		reply := f.invoke(t, st, ToolProposePrice, Args{"proposed_daily_rate": 300.0})
		assert.Contains(t, reply, "below our minimum")
		assert.False(t, st.Ended(), "attempt %d must not end the call", i)
	}

	reply := f.invoke(t, st, ToolProposePrice, Args{"proposed_daily_rate": 300.0})

	assert.Equal(t, "Cannot negotiate below $400.00/day. Maximum attempts reached. Thank you for your interest.", reply)
	assert.True(t, st.Ended())
	assert.Equal(t, workflow.ReasonFailedNegotiation, st.EndReason())
	assert.Equal(t, 3, st.NegotiationAttempts)
}

func TestAboveMaximumCountsButDoesNotEnd(t *testing.T) {
	f := newFixture(t, nil)
	st := f.atPricing(t)

	for i := 0; i < 4; i++ {
		reply := f.invoke(t, st, ToolProposePrice, Args{"proposed_daily_rate": "$700"})
		assert.Equal(t, "Rate $700.00/day exceeds our maximum of $600.00/day.", reply)
	}

	assert.Equal(t, 4, st.NegotiationAttempts)
	assert.False(t, st.Ended())
}

func TestProposePriceInvalidArgumentsDoNotCount(t *testing.T) {
	f := newFixture(t, nil)
	st := f.atPricing(t)

	f.invoke(t, st, ToolProposePrice, Args{"proposed_daily_rate": "lots"})
	f.invoke(t, st, ToolProposePrice, Args{"proposed_daily_rate": 450.0, "rental_days": 2.5})
	f.invoke(t, st, ToolProposePrice, Args{"proposed_daily_rate": 450.0, "rental_days": 0.0})

	assert.Equal(t, 0, st.NegotiationAttempts)
	assert.Nil(t, st.ProposedDailyRate)
}

func TestAcceptPriceOutsideRange(t *testing.T) {
	f := newFixture(t, nil)
	st := f.atPricing(t)

	reply := f.invoke(t, st, ToolAcceptPrice, Args{"confirmed_daily_rate": 100.0})

	assert.Contains(t, reply, "outside our range of $400.00 to $600.00")
	assert.Nil(t, st.AgreedDailyRate)
	assert.Equal(t, workflow.StagePricingNegotiation, st.Stage)
}

func TestSiteRejectionEndsCall(t *testing.T) {
	gw := &mockGateway{}
	gw.On("VerifySiteSafety", mock.Anything, "123 Main Street, Springfield", "Excavator", "20 ton").
		Return(verification.Result{Accepted: false}, nil)
	f := newFixture(t, gw)

	st := workflow.NewConversationState(0)
	eq, _ := f.store.GetByID(context.Background(), "EQ001")
	st.SelectedEquipment = eq
	st.EquipmentID = eq.ID

	reply := f.invoke(t, st, ToolVerifySiteSafety, Args{"job_address": "123 Main Street, Springfield"})

	assert.Equal(t, "Site does not meet safety requirements. Cannot proceed.", reply)
	assert.Equal(t, workflow.ReasonFailedSiteVerification, st.EndReason())
	gw.AssertExpectations(t)
}

func TestInsuranceUsesEquipmentValue(t *testing.T) {
	gw := &mockGateway{}
	gw.On("VerifyInsuranceCoverage", mock.Anything, "POL-98765", 1000000.0, 40000.0).
		Return(verification.Result{Accepted: false}, nil)
	f := newFixture(t, gw)

	st := workflow.NewConversationState(0)
	eq, _ := f.store.GetByID(context.Background(), "EQ001")
	st.SelectedEquipment = eq
	st.EquipmentID = eq.ID

	reply := f.invoke(t, st, ToolVerifyInsuranceCoverage, Args{"policy_number": "POL-98765"})

	assert.Equal(t, "Insurance coverage is insufficient. Cannot proceed with rental.", reply)
	assert.Equal(t, workflow.ReasonFailedInsuranceVerification, st.EndReason())
	gw.AssertExpectations(t)
}

func TestOperatorRejectionEndsCall(t *testing.T) {
	gw := &mockGateway{}
	gw.On("VerifyOperatorCredentials", mock.Anything, "OP-12345", "Heavy Equipment License").
		Return(verification.Result{Accepted: false}, nil)
	f := newFixture(t, gw)

	st := workflow.NewConversationState(0)
	eq, _ := f.store.GetByID(context.Background(), "EQ001")
	st.SelectedEquipment = eq
	st.EquipmentID = eq.ID

	reply := f.invoke(t, st, ToolVerifyOperatorCredentials, Args{
		"operator_name": "John Smith", "operator_license": "OP-12345", "operator_phone": "555-123-4567",
	})

	assert.Equal(t, "Operator credentials could not be verified. Cannot proceed with rental.", reply)
	assert.Equal(t, workflow.ReasonFailedOperatorVerification, st.EndReason())
}

func completeThroughInsurance(t *testing.T, f *fixture) *workflow.ConversationState {
	t.Helper()
	st := f.atPricing(t)
	f.invoke(t, st, ToolProposePrice, Args{"proposed_daily_rate": 500.0, "rental_days": 3})
	f.invoke(t, st, ToolAcceptPrice, Args{"confirmed_daily_rate": 500.0})
	f.invoke(t, st, ToolVerifyOperatorCredentials, Args{
		"operator_name": "John Smith", "operator_license": "OP-12345", "operator_phone": "555-123-4567",
	})
	reply := f.invoke(t, st, ToolVerifyInsuranceCoverage, Args{"policy_number": "POL-98765"})
	require.Equal(t, "Insurance policy POL-98765 verified with $1000000.00 coverage.", reply)
	require.Equal(t, workflow.StageBookingCompletion, st.Stage)
	return st
}

func TestCompleteBooking(t *testing.T) {
	f := newFixture(t, nil)
	st := completeThroughInsurance(t, f)

	reply := f.invoke(t, st, ToolCompleteBooking, nil)

	assert.True(t, st.BookingConfirmed)
	assert.Equal(t, "BKEQ001-ABC123", st.BookingReference)
	assert.Contains(t, reply, "Reference Number: BKEQ001-ABC123")
	assert.Contains(t, reply, "Rental Period: 3 days")
	assert.Contains(t, reply, "Total Cost: $1500.00")
	assert.Contains(t, reply, "email confirmation")
	assert.Equal(t, inventory.StatusRented, f.store.status("EQ001"))

	f.notifier.AssertCalled(t, "BookingConfirmed", mock.Anything, mock.MatchedBy(func(b Booking) bool {
		return b.Reference == "BKEQ001-ABC123" && b.TotalCost == 1500 && b.OperatorName == "John Smith"
	}))

	again := f.invoke(t, st, ToolCompleteBooking, nil)
	assert.Equal(t, reply, again)
	assert.Equal(t, "BKEQ001-ABC123", st.BookingReference)
	f.notifier.AssertNumberOfCalls(t, "BookingConfirmed", 1)
}

func TestCompleteBookingLostRace(t *testing.T) {
	f := newFixture(t, nil)
	st := completeThroughInsurance(t, f)

	ok, err := f.store.TryReserve(context.Background(), "EQ001", inventory.StatusRented)
	require.NoError(t, err)
	require.True(t, ok)

	before := st.Clone()
	reply := f.invoke(t, st, ToolCompleteBooking, nil)

	assert.Equal(t, "Sorry, CAT 320 Excavator was just booked by another customer. Let me show you alternatives.", reply)
	assert.Equal(t, before, st)
	f.notifier.AssertNotCalled(t, "BookingConfirmed", mock.Anything, mock.Anything)
}

func TestCompleteBookingListsMissingPrerequisites(t *testing.T) {
	f := newFixture(t, nil)
	st := f.atPricing(t)

	reply := f.invoke(t, st, ToolCompleteBooking, nil)

	assert.Equal(t, "Before booking I still need: a confirmed daily rate, verified operator credentials, verified insurance coverage.", reply)
	assert.Equal(t, inventory.StatusAvailable, f.store.status("EQ001"))
}

func TestReselectionResetsDependentConfirmations(t *testing.T) {
	f := newFixture(t, nil)
	st := completeThroughInsurance(t, f)
	st.NegotiationAttempts = 2

	f.invoke(t, st, ToolSelectEquipment, Args{"equipment_id": "EQ003"})

	assert.Equal(t, "EQ003", st.EquipmentID)
	assert.False(t, st.SiteVerified)
	assert.Nil(t, st.ProposedDailyRate)
	assert.Nil(t, st.AgreedDailyRate)
	assert.Zero(t, st.NegotiationAttempts)
	assert.False(t, st.OperatorVerified)
	assert.False(t, st.InsuranceVerified)
	assert.Equal(t, workflow.StageBookingCompletion, st.Stage)
}

func TestEndCall(t *testing.T) {
	f := newFixture(t, nil)
	st := workflow.NewConversationState(0)

	reply := f.invoke(t, st, ToolEndCall, nil)

	assert.Equal(t, "Thank you for contacting Metro Equipment Rentals. Have a great day!", reply)
	assert.Equal(t, workflow.ReasonCompleted, st.EndReason())

	f.invoke(t, st, ToolEndCall, Args{"reason": "customer_request"})
	assert.Equal(t, workflow.StageCallEnded, st.Stage)
}

func TestInstructionsPerStage(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	st := f.atPricing(t)
	f.invoke(t, st, ToolProposePrice, Args{"proposed_daily_rate": 350.0})

	text, err := f.agent.Instructions(ctx, st)
	require.NoError(t, err)
	assert.Contains(t, text, "Metro Equipment Rentals")
	assert.Contains(t, text, "Negotiation attempts: 1/3")
	assert.Contains(t, text, "min $400.00, max $600.00")

	discovery := workflow.NewConversationState(0)
	discovery.Stage = workflow.StageEquipmentDiscovery
	text, err = f.agent.Instructions(ctx, discovery)
	require.NoError(t, err)
	assert.Contains(t, text, "ID: EQ001")

	for _, stage := range workflow.Stages() {
		s := st.Clone()
		s.Stage = stage
		_, err := f.agent.Instructions(ctx, s)
		assert.NoError(t, err, stage)
	}
}

func TestToolsCatalog(t *testing.T) {
	tools := Tools()
	require.Len(t, tools, 10)

	f := newFixture(t, nil)
	for _, tool := range tools {
		_, ok := f.agent.handlers[tool.Name]
		assert.True(t, ok, tool.Name)
	}

	tools[0].Params[0].Name = "changed"
	assert.Equal(t, "license_number", Tools()[0].Params[0].Name)
}

func TestArgs(t *testing.T) {
	args := Args{"rate": "$1,250.50", "days": 3.0, "bad": 2.5, "id": " EQ001 "}

	rate, ok := args.Float("rate")
	assert.True(t, ok)
	assert.Equal(t, 1250.5, rate)

	days, ok := args.Int("days", 1)
	assert.True(t, ok)
	assert.Equal(t, 3, days)

	_, ok = args.Int("bad", 1)
	assert.False(t, ok)

	def, ok := args.Int("missing", 1)
	assert.True(t, ok)
	assert.Equal(t, 1, def)

	assert.Equal(t, "EQ001", args.String("id"))
}
