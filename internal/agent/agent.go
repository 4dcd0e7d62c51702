// Package agent implements the rental workflow operations invoked by the
// voice runtime during a call.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	apperrors "github.com/Proton-105/rental-agent/internal/errors"
	"github.com/Proton-105/rental-agent/internal/inventory"
	"github.com/Proton-105/rental-agent/internal/prompt"
	"github.com/Proton-105/rental-agent/internal/validation"
	"github.com/Proton-105/rental-agent/internal/verification"
	"github.com/Proton-105/rental-agent/internal/workflow"
	"github.com/Proton-105/rental-agent/pkg/metrics"
)

// DefaultCompanyName is used in greetings and the farewell line.
const DefaultCompanyName = "Metro Equipment Rentals"

// ErrUnknownTool is returned by Invoke for names outside the catalog.
var ErrUnknownTool = errors.New("agent: unknown tool")

// Deps are the collaborators of an Agent.
type Deps struct {
	Store     inventory.Store
	Gateway   verification.Gateway
	Prompts   *prompt.Builder
	Validator *validation.Validator
	Notifier  Notifier
	Errors    *apperrors.Handler
	Log       *slog.Logger

	CompanyName string
}

type handlerFunc func(ctx context.Context, st *workflow.ConversationState, args Args) string

// Agent runs workflow operations against a caller-owned ConversationState.
// It keeps no per-call data and is safe for concurrent use across calls.
type Agent struct {
	store     inventory.Store
	gateway   verification.Gateway
	prompts   *prompt.Builder
	validator *validation.Validator
	notifier  Notifier
	errs      *apperrors.Handler
	log       *slog.Logger
	company   string

	handlers map[string]handlerFunc
}

func New(deps Deps) (*Agent, error) {
	if deps.Store == nil {
		return nil, errors.New("agent: inventory store is required")
	}
	if deps.Gateway == nil {
		return nil, errors.New("agent: verification gateway is required")
	}
	if deps.Prompts == nil {
		return nil, errors.New("agent: prompt builder is required")
	}

	a := &Agent{
		store:     deps.Store,
		gateway:   deps.Gateway,
		prompts:   deps.Prompts,
		validator: deps.Validator,
		notifier:  deps.Notifier,
		errs:      deps.Errors,
		log:       deps.Log,
		company:   deps.CompanyName,
	}
	if a.validator == nil {
		a.validator = validation.New()
	}
	if a.notifier == nil {
		a.notifier = NopNotifier{}
	}
	if a.log == nil {
		a.log = slog.Default()
	}
	if a.errs == nil {
		a.errs = apperrors.NewHandler(a.log, false)
	}
	if a.company == "" {
		a.company = DefaultCompanyName
	}

	a.handlers = map[string]handlerFunc{
		ToolVerifyBusinessLicense:     a.verifyBusinessLicense,
		ToolSearchAvailableEquipment:  a.searchAvailableEquipment,
		ToolSelectEquipment:           a.selectEquipment,
		ToolVerifySiteSafety:          a.verifySiteSafety,
		ToolProposePrice:              a.proposePrice,
		ToolAcceptPrice:               a.acceptPrice,
		ToolVerifyOperatorCredentials: a.verifyOperatorCredentials,
		ToolVerifyInsuranceCoverage:   a.verifyInsuranceCoverage,
		ToolCompleteBooking:           a.completeBooking,
		ToolEndCall:                   a.endCall,
	}

	return a, nil
}

// Invoke runs the named operation against st and returns the reply to speak.
// Business failures are expressed in the reply; the only error is ErrUnknownTool.
func (a *Agent) Invoke(ctx context.Context, st *workflow.ConversationState, name string, args Args) (string, error) {
	h, ok := a.handlers[name]
	if !ok {
		metrics.RecordToolInvocation("unknown", "rejected", 0)
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	started := time.Now()
	from := st.Stage

	reply := h(ctx, st, args)

	outcome := "ok"
	if st.Stage != from {
		outcome = "advanced"
		if st.Ended() {
			outcome = "ended"
		}
	}
	metrics.RecordToolInvocation(name, outcome, time.Since(started))

	a.log.InfoContext(ctx, "tool invoked",
		slog.String("tool", name),
		slog.String("from_stage", from.String()),
		slog.String("stage", st.Stage.String()),
		slog.Duration("duration", time.Since(started)),
	)

	return reply, nil
}

// Instructions renders the prompt for the current stage of st.
func (a *Agent) Instructions(ctx context.Context, st *workflow.ConversationState) (string, error) {
	fields := prompt.Fields{}
	eq := st.SelectedEquipment

	switch st.Stage {
	case workflow.StageEquipmentDiscovery:
		items, err := a.store.ListAvailable(ctx)
		if err != nil {
			a.log.WarnContext(ctx, "failed to list equipment for instructions", slog.Any("error", err))
		}
		fields[prompt.FieldEquipmentContext] = formatEquipmentList(items)
	case workflow.StageRequirementsConfirmation:
		fields[prompt.FieldSelectedEquipment] = equipmentField(eq, func(e *inventory.Equipment) string { return e.Name })
		fields[prompt.FieldCertRequired] = equipmentField(eq, func(e *inventory.Equipment) string { return e.OperatorCertRequired })
		fields[prompt.FieldWeightClass] = equipmentField(eq, func(e *inventory.Equipment) string { return e.WeightClass })
	case workflow.StagePricingNegotiation:
		fields[prompt.FieldDailyRate] = equipmentField(eq, func(e *inventory.Equipment) string { return amount(e.DailyRate) })
		fields[prompt.FieldMaxRate] = equipmentField(eq, func(e *inventory.Equipment) string { return amount(e.MaxRate) })
		fields[prompt.FieldNegotiationAttempts] = strconv.Itoa(st.NegotiationAttempts)
		fields[prompt.FieldMaxAttempts] = strconv.Itoa(st.MaxNegotiationAttempts)
	case workflow.StageOperatorCertification:
		fields[prompt.FieldCertRequired] = equipmentField(eq, func(e *inventory.Equipment) string { return e.OperatorCertRequired })
	case workflow.StageInsuranceVerification:
		fields[prompt.FieldMinInsurance] = equipmentField(eq, func(e *inventory.Equipment) string { return amount(e.MinInsurance) })
	}

	return a.prompts.Render(st.Stage, fields)
}

func equipmentField(eq *inventory.Equipment, get func(*inventory.Equipment) string) string {
	if eq == nil {
		return "not selected"
	}
	return get(eq)
}

// advance moves st forward while consecutive stage predicates hold.
func advance(st *workflow.ConversationState) {
	for st.Advance() {
	}
}

// reask turns a validation failure into the reply asking for the value again.
func (a *Agent) reask(ctx context.Context, err error) string {
	return a.errs.Handle(ctx, err).Message
}
