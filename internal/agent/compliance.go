package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Proton-105/rental-agent/internal/validation"
	"github.com/Proton-105/rental-agent/internal/verification"
	"github.com/Proton-105/rental-agent/internal/workflow"
)

func (a *Agent) verifyOperatorCredentials(ctx context.Context, st *workflow.ConversationState, args Args) string {
	eq := st.SelectedEquipment
	if eq == nil {
		return noEquipmentReply
	}

	name := args.String("operator_name")
	license := args.String("operator_license")
	phone := args.String("operator_phone")

	for _, f := range []struct {
		field string
		value string
	}{
		{validation.FieldOperatorName, name},
		{validation.FieldOperatorLicense, license},
		{validation.FieldOperatorPhone, phone},
	} {
		if err := a.validator.Check(f.field, f.value); err != nil {
			return a.reask(ctx, err)
		}
	}

	required := eq.OperatorCertRequired
	res, err := a.gateway.VerifyOperatorCredentials(ctx, license, required)
	if err != nil || res.Unavailable {
		return a.unavailable(ctx, "operator credential", err, res)
	}

	if !res.Accepted {
		a.log.InfoContext(ctx, "operator rejected", slog.String("detail", res.Detail))
		st.EndCall(workflow.ReasonFailedOperatorVerification)
		return "Operator credentials could not be verified. Cannot proceed with rental."
	}

	st.OperatorName = name
	st.OperatorLicense = license
	st.OperatorPhone = phone
	st.OperatorVerified = true
	advance(st)

	return fmt.Sprintf("Operator %s verified for %s. Phone: %s", name, required, phone)
}

func (a *Agent) verifyInsuranceCoverage(ctx context.Context, st *workflow.ConversationState, args Args) string {
	eq := st.SelectedEquipment
	if eq == nil {
		return noEquipmentReply
	}

	policy := args.String("policy_number")
	if err := a.validator.Check(validation.FieldPolicyNumber, policy); err != nil {
		return a.reask(ctx, err)
	}

	res, err := a.gateway.VerifyInsuranceCoverage(ctx, policy, eq.MinInsurance, verification.EquipmentValue(eq.DailyRate))
	if err != nil || res.Unavailable {
		return a.unavailable(ctx, "insurance", err, res)
	}

	if !res.Accepted {
		a.log.InfoContext(ctx, "insurance rejected", slog.String("detail", res.Detail))
		st.EndCall(workflow.ReasonFailedInsuranceVerification)
		return "Insurance coverage is insufficient. Cannot proceed with rental."
	}

	st.InsurancePolicy = policy
	st.InsuranceVerified = true
	advance(st)

	return fmt.Sprintf("Insurance policy %s verified with %s coverage.", policy, money(eq.MinInsurance))
}
