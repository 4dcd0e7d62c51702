// Package verification talks to the authorities that vouch for customers,
// job sites, operators and insurance policies.
package verification

import "context"

// Result is the outcome of one check.
type Result struct {
	Accepted bool
	Detail   string
	// Subject is the name the authority has on record, e.g. the registered business name.
	Subject string
	// Unavailable marks a result produced because the authority could not be reached.
	Unavailable bool
}

// Gateway runs the four compliance checks of a rental.
type Gateway interface {
	VerifyBusinessLicense(ctx context.Context, licenseNumber string) (Result, error)
	VerifySiteSafety(ctx context.Context, jobAddress, equipmentCategory, weightClass string) (Result, error)
	VerifyOperatorCredentials(ctx context.Context, operatorLicense, certificationType string) (Result, error)
	VerifyInsuranceCoverage(ctx context.Context, policyNumber string, requiredAmount, equipmentValue float64) (Result, error)
}

// EquipmentValue estimates the replacement value used by insurance checks.
func EquipmentValue(dailyRate float64) float64 {
	return dailyRate * 100
}
