package verification

import (
	"context"
	"fmt"
	"log/slog"
)

// Placeholder accepts every request. It stands in until the authority
// integrations exist.
type Placeholder struct {
	businessName string
	log          *slog.Logger
}

func NewPlaceholder(businessName string, log *slog.Logger) *Placeholder {
	if log == nil {
		log = slog.Default()
	}

	return &Placeholder{
		businessName: businessName,
		log:          log.With("gateway", "placeholder"),
	}
}

func (p *Placeholder) VerifyBusinessLicense(_ context.Context, licenseNumber string) (Result, error) {
	p.log.Debug("accepting business license", "license_number", licenseNumber)

	return Result{
		Accepted: true,
		Detail:   fmt.Sprintf("Business license %s verified successfully", licenseNumber),
		Subject:  p.businessName,
	}, nil
}

func (p *Placeholder) VerifySiteSafety(_ context.Context, jobAddress, equipmentCategory, weightClass string) (Result, error) {
	p.log.Debug("accepting job site", "job_address", jobAddress, "category", equipmentCategory)

	return Result{
		Accepted: true,
		Detail:   fmt.Sprintf("Site at %s approved for %s %s", jobAddress, weightClass, equipmentCategory),
	}, nil
}

func (p *Placeholder) VerifyOperatorCredentials(_ context.Context, operatorLicense, certificationType string) (Result, error) {
	p.log.Debug("accepting operator", "operator_license", operatorLicense, "certification", certificationType)

	return Result{
		Accepted: true,
		Detail:   fmt.Sprintf("Operator license %s verified for %s", operatorLicense, certificationType),
	}, nil
}

func (p *Placeholder) VerifyInsuranceCoverage(_ context.Context, policyNumber string, requiredAmount, equipmentValue float64) (Result, error) {
	p.log.Debug("accepting insurance", "policy_number", policyNumber, "equipment_value", equipmentValue)

	return Result{
		Accepted: true,
		Detail:   fmt.Sprintf("Insurance policy %s verified with $%.2f coverage", policyNumber, requiredAmount),
	}, nil
}
