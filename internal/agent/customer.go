package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Proton-105/rental-agent/internal/inventory"
	"github.com/Proton-105/rental-agent/internal/validation"
	"github.com/Proton-105/rental-agent/internal/verification"
	"github.com/Proton-105/rental-agent/internal/workflow"
)

func (a *Agent) verifyBusinessLicense(ctx context.Context, st *workflow.ConversationState, args Args) string {
	license := args.String("license_number")
	if err := a.validator.Check(validation.FieldLicenseNumber, license); err != nil {
		return a.reask(ctx, err)
	}

	res, err := a.gateway.VerifyBusinessLicense(ctx, license)
	if err != nil || res.Unavailable {
		return a.unavailable(ctx, "business license", err, res)
	}

	if !res.Accepted {
		a.log.InfoContext(ctx, "business license rejected", slog.String("detail", res.Detail))
		st.EndCall(workflow.ReasonFailedLicenseVerification)
		return "License verification failed. Cannot proceed with rental."
	}

	st.BusinessLicense = license
	st.BusinessName = res.Subject
	st.CustomerVerified = true
	advance(st)

	return fmt.Sprintf("Business license verified. Customer: %s", st.BusinessName)
}

func (a *Agent) searchAvailableEquipment(ctx context.Context, _ *workflow.ConversationState, args Args) string {
	items, err := a.store.ListAvailable(ctx)
	if err != nil {
		a.log.WarnContext(ctx, "equipment search failed", slog.Any("error", err))
		items = nil
	}

	items = rankByQuery(items, args.String("search_query"))

	return fmt.Sprintf("Found %d available equipment:\n\n%s", len(items), formatEquipmentList(items))
}

func (a *Agent) selectEquipment(ctx context.Context, st *workflow.ConversationState, args Args) string {
	if st.BookingConfirmed {
		return fmt.Sprintf("Booking %s is already confirmed.", st.BookingReference)
	}

	id := validation.NormalizeEquipmentID(args.String("equipment_id"))
	if err := a.validator.Check(validation.FieldEquipmentID, id); err != nil {
		return a.reask(ctx, err)
	}

	eq, err := a.store.GetByID(ctx, id)
	switch {
	case errors.Is(err, inventory.ErrNotFound) || (err == nil && eq == nil):
		return fmt.Sprintf("Equipment %s not found.", id)
	case errors.Is(err, inventory.ErrUnavailable):
		return "I can't reach our inventory right now. Please try again in a moment."
	case err != nil:
		a.log.WarnContext(ctx, "equipment lookup failed", slog.String("equipment_id", id), slog.Any("error", err))
		return "I can't reach our inventory right now. Please try again in a moment."
	}

	if !eq.Available() {
		return fmt.Sprintf("Equipment %s is not available (Status: %s).", id, eq.Status)
	}

	if st.SelectedEquipment != nil && st.SelectedEquipment.ID != eq.ID {
		resetSelectionDependents(st)
	}

	snapshot := *eq
	st.SelectedEquipment = &snapshot
	st.EquipmentID = eq.ID
	advance(st)

	return fmt.Sprintf("Selected: %s at %s/day. Location: %s", eq.Name, money(eq.DailyRate), eq.StorageLocation)
}

// resetSelectionDependents clears confirmations tied to the previously selected unit.
func resetSelectionDependents(st *workflow.ConversationState) {
	st.JobAddress = ""
	st.SiteVerified = false
	st.ProposedDailyRate = nil
	st.AgreedDailyRate = nil
	st.NegotiationAttempts = 0
	st.OperatorVerified = false
	st.InsuranceVerified = false
}

// unavailable answers a check that could not reach its authority. State is left as is.
func (a *Agent) unavailable(ctx context.Context, check string, err error, res verification.Result) string {
	attrs := []any{slog.String("check", check), slog.String("detail", res.Detail)}
	if err != nil {
		attrs = append(attrs, slog.Any("error", err))
	}
	a.log.WarnContext(ctx, "verification unavailable", attrs...)

	return fmt.Sprintf("The %s check is unavailable right now. Please try again in a moment.", check)
}
