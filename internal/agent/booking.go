package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Proton-105/rental-agent/internal/inventory"
	"github.com/Proton-105/rental-agent/internal/workflow"
	"github.com/Proton-105/rental-agent/pkg/metrics"
)

// Booking is the confirmed rental handed to the Notifier.
type Booking struct {
	Reference       string  `json:"reference"`
	EquipmentID     string  `json:"equipment_id"`
	EquipmentName   string  `json:"equipment_name"`
	BusinessName    string  `json:"business_name"`
	BusinessLicense string  `json:"business_license"`
	JobAddress      string  `json:"job_address"`
	DailyRate       float64 `json:"daily_rate"`
	RentalDays      int     `json:"rental_days"`
	TotalCost       float64 `json:"total_cost"`
	PickupLocation  string  `json:"pickup_location"`
	OperatorName    string  `json:"operator_name"`
	OperatorCert    string  `json:"operator_cert"`
}

// Notifier is told about every confirmed booking, e.g. to send the email confirmation.
type Notifier interface {
	BookingConfirmed(ctx context.Context, b Booking) error
}

// NopNotifier drops notifications.
type NopNotifier struct{}

func (NopNotifier) BookingConfirmed(context.Context, Booking) error { return nil }

func (a *Agent) completeBooking(ctx context.Context, st *workflow.ConversationState, _ Args) string {
	eq := st.SelectedEquipment
	if eq == nil {
		return noEquipmentReply
	}

	if st.BookingConfirmed {
		return bookingSummary(st)
	}

	if missing := missingPrerequisites(st); len(missing) > 0 {
		return fmt.Sprintf("Before booking I still need: %s.", strings.Join(missing, ", "))
	}

	reserved, err := a.store.TryReserve(ctx, st.EquipmentID, inventory.StatusRented)
	if err != nil {
		a.log.WarnContext(ctx, "reservation failed", slog.String("equipment_id", st.EquipmentID), slog.Any("error", err))
		reserved = false
	}

	if !reserved {
		metrics.RecordReservation(metrics.ReservationLost)
		return fmt.Sprintf("Sorry, %s was just booked by another customer. Let me show you alternatives.", eq.Name)
	}
	metrics.RecordReservation(metrics.ReservationWon)

	st.BookingConfirmed = true
	st.BookingReference = workflow.BookingReferenceFor(st.EquipmentID, st.BusinessLicense)

	a.log.InfoContext(ctx, "booking confirmed",
		slog.String("booking_reference", st.BookingReference),
		slog.String("equipment_id", st.EquipmentID),
	)

	if err := a.notifier.BookingConfirmed(ctx, bookingFrom(st)); err != nil {
		a.log.ErrorContext(ctx, "failed to enqueue booking confirmation",
			slog.String("booking_reference", st.BookingReference),
			slog.Any("error", err),
		)
	}

	return bookingSummary(st)
}

func (a *Agent) endCall(ctx context.Context, st *workflow.ConversationState, args Args) string {
	reason := args.String("reason")
	if reason == "" {
		reason = workflow.ReasonCompleted
	}

	st.EndCall(reason)
	a.log.InfoContext(ctx, "call ended", slog.String("reason", reason))

	return fmt.Sprintf("Thank you for contacting %s. Have a great day!", a.company)
}

func missingPrerequisites(st *workflow.ConversationState) []string {
	var missing []string
	if !st.CustomerVerified {
		missing = append(missing, "a verified business license")
	}
	if !st.SiteVerified {
		missing = append(missing, "a verified job site")
	}
	if st.AgreedDailyRate == nil {
		missing = append(missing, "a confirmed daily rate")
	}
	if !st.OperatorVerified {
		missing = append(missing, "verified operator credentials")
	}
	if !st.InsuranceVerified {
		missing = append(missing, "verified insurance coverage")
	}
	return missing
}

func rentalDays(st *workflow.ConversationState) int {
	if st.RentalDays <= 0 {
		return 1
	}
	return st.RentalDays
}

func bookingFrom(st *workflow.ConversationState) Booking {
	eq := st.SelectedEquipment
	rate := *st.AgreedDailyRate
	days := rentalDays(st)

	return Booking{
		Reference:       st.BookingReference,
		EquipmentID:     st.EquipmentID,
		EquipmentName:   eq.Name,
		BusinessName:    st.BusinessName,
		BusinessLicense: st.BusinessLicense,
		JobAddress:      st.JobAddress,
		DailyRate:       rate,
		RentalDays:      days,
		TotalCost:       rate * float64(days),
		PickupLocation:  eq.StorageLocation,
		OperatorName:    st.OperatorName,
		OperatorCert:    eq.OperatorCertRequired,
	}
}

func bookingSummary(st *workflow.ConversationState) string {
	b := bookingFrom(st)

	var sb strings.Builder
	sb.WriteString("Booking confirmed!\n\n")
	fmt.Fprintf(&sb, "Reference Number: %s\n", b.Reference)
	fmt.Fprintf(&sb, "Equipment: %s (%s)\n", b.EquipmentName, b.EquipmentID)
	fmt.Fprintf(&sb, "Daily Rate: %s\n", money(b.DailyRate))
	fmt.Fprintf(&sb, "Rental Period: %s\n", dayCount(b.RentalDays))
	fmt.Fprintf(&sb, "Total Cost: %s\n", money(b.TotalCost))
	fmt.Fprintf(&sb, "Pickup Location: %s\n", b.PickupLocation)
	fmt.Fprintf(&sb, "Operator Required: %s\n\n", b.OperatorCert)
	sb.WriteString("You'll receive email confirmation shortly. Is there anything else I can help you with?")

	return sb.String()
}
