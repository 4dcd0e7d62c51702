package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Proton-105/rental-agent/internal/validation"
	"github.com/Proton-105/rental-agent/internal/workflow"
)

const noEquipmentReply = "No equipment selected."

func (a *Agent) verifySiteSafety(ctx context.Context, st *workflow.ConversationState, args Args) string {
	eq := st.SelectedEquipment
	if eq == nil {
		return "No equipment selected yet."
	}

	address := args.String("job_address")
	if err := a.validator.Check(validation.FieldJobAddress, address); err != nil {
		return a.reask(ctx, err)
	}

	res, err := a.gateway.VerifySiteSafety(ctx, address, eq.Category, eq.WeightClass)
	if err != nil || res.Unavailable {
		return a.unavailable(ctx, "site safety", err, res)
	}

	if !res.Accepted {
		a.log.InfoContext(ctx, "site rejected", slog.String("detail", res.Detail))
		st.EndCall(workflow.ReasonFailedSiteVerification)
		return "Site does not meet safety requirements. Cannot proceed."
	}

	st.JobAddress = address
	st.SiteVerified = true
	advance(st)

	return fmt.Sprintf("Site verified for %s equipment at %s.", eq.WeightClass, address)
}

// proposePrice counts every proposal against the negotiation budget. Only a
// below-minimum proposal on the last attempt ends the call.
func (a *Agent) proposePrice(ctx context.Context, st *workflow.ConversationState, args Args) string {
	eq := st.SelectedEquipment
	if eq == nil {
		return noEquipmentReply
	}
	if st.BookingConfirmed {
		return fmt.Sprintf("Booking %s is already confirmed.", st.BookingReference)
	}

	rate, _ := args.Float("proposed_daily_rate")
	if err := a.validator.Check(validation.FieldDailyRate, rate); err != nil {
		return a.reask(ctx, err)
	}

	days, ok := args.Int("rental_days", 1)
	if !ok {
		days = 0
	}
	if err := a.validator.Check(validation.FieldRentalDays, days); err != nil {
		return a.reask(ctx, err)
	}

	st.NegotiationAttempts++
	st.RentalDays = days

	if rate < eq.DailyRate {
		if st.NegotiationExhausted() {
			st.EndCall(workflow.ReasonFailedNegotiation)
			return fmt.Sprintf("Cannot negotiate below %s/day. Maximum attempts reached. Thank you for your interest.", money(eq.DailyRate))
		}
		return fmt.Sprintf("Rate %s/day is below our minimum of %s/day. Can you work with a higher rate?", money(rate), money(eq.DailyRate))
	}

	if rate > eq.MaxRate {
		return fmt.Sprintf("Rate %s/day exceeds our maximum of %s/day.", money(rate), money(eq.MaxRate))
	}

	st.ProposedDailyRate = &rate

	return fmt.Sprintf("Rate of %s/day for %s is acceptable. Total would be %s. Please confirm this rate to proceed.",
		money(rate), dayCount(days), money(rate*float64(days)))
}

func (a *Agent) acceptPrice(ctx context.Context, st *workflow.ConversationState, args Args) string {
	eq := st.SelectedEquipment
	if eq == nil {
		return noEquipmentReply
	}
	if st.BookingConfirmed {
		return fmt.Sprintf("Booking %s is already confirmed.", st.BookingReference)
	}

	rate, _ := args.Float("confirmed_daily_rate")
	if err := a.validator.Check(validation.FieldDailyRate, rate); err != nil {
		return a.reask(ctx, err)
	}

	if rate < eq.DailyRate || rate > eq.MaxRate {
		return fmt.Sprintf("Rate %s/day is outside our range of %s to %s per day. Please propose a rate within it.",
			money(rate), money(eq.DailyRate), money(eq.MaxRate))
	}

	st.AgreedDailyRate = &rate
	st.ProposedDailyRate = nil
	if st.RentalDays <= 0 {
		st.RentalDays = 1
	}
	advance(st)

	return fmt.Sprintf("Price confirmed at %s/day. Total cost: %s. Now let's verify your operator credentials.",
		money(rate), money(rate*float64(st.RentalDays)))
}

func dayCount(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
