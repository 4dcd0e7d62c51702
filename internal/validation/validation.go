// Package validation checks tool arguments extracted from free-form speech.
package validation

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/Proton-105/rental-agent/internal/errors"
)

// Argument names as exposed to the voice runtime.
const (
	FieldLicenseNumber   = "license_number"
	FieldEquipmentID     = "equipment_id"
	FieldJobAddress      = "job_address"
	FieldDailyRate       = "daily_rate"
	FieldRentalDays      = "rental_days"
	FieldOperatorName    = "operator_name"
	FieldOperatorLicense = "operator_license"
	FieldOperatorPhone   = "operator_phone"
	FieldPolicyNumber    = "policy_number"
)

var (
	alnumDashPattern   = regexp.MustCompile(`^[A-Za-z0-9\-]+$`)
	equipmentIDPattern = regexp.MustCompile(`^[A-Z]{2,4}\d{3,6}$`)
	personNamePattern  = regexp.MustCompile(`^[A-Za-z\s\-']+$`)
	phoneStripper      = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "", "+", "")
)

type rule struct {
	tag  string
	hint string
}

var rules = map[string]rule{
	FieldLicenseNumber: {
		tag:  "required,min=5,max=50,alnumdash",
		hint: "License numbers are 5 to 50 letters, digits or dashes. Could you read it again?",
	},
	FieldEquipmentID: {
		tag:  "required,max=20,equipment_id",
		hint: "Equipment IDs look like EQ001: 2 to 4 letters followed by 3 to 6 digits.",
	},
	FieldJobAddress: {
		tag:  "required,min=10,max=200",
		hint: "Please give the full street address of the job site.",
	},
	FieldDailyRate: {
		tag:  "gt=0,lte=100000",
		hint: "Please state the daily rate as a positive dollar amount.",
	},
	FieldRentalDays: {
		tag:  "min=1,max=365",
		hint: "Rentals run from 1 to 365 days.",
	},
	FieldOperatorName: {
		tag:  "required,min=2,max=100,person_name",
		hint: "Please spell the operator's full name.",
	},
	FieldOperatorLicense: {
		tag:  "required,min=3,max=50,alnumdash",
		hint: "Please read the operator's license or certification number again.",
	},
	FieldOperatorPhone: {
		tag:  "required,phone",
		hint: "Please give a phone number with 10 to 15 digits.",
	},
	FieldPolicyNumber: {
		tag:  "required,min=5,max=50,alnumdash",
		hint: "Policy numbers are 5 to 50 letters, digits or dashes.",
	},
}

// Validator checks single arguments against the rules above.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("alnumdash", func(fl validator.FieldLevel) bool {
		return alnumDashPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("equipment_id", func(fl validator.FieldLevel) bool {
		return equipmentIDPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("person_name", func(fl validator.FieldLevel) bool {
		return personNamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		digits := phoneStripper.Replace(fl.Field().String())
		if len(digits) < 10 || len(digits) > 15 {
			return false
		}
		for _, r := range digits {
			if r < '0' || r > '9' {
				return false
			}
		}
		return true
	})

	return &Validator{v: v}
}

// Check validates value as the named argument. The returned error is an
// *errors.AppError whose UserMessage asks the caller to repeat the value.
func (v *Validator) Check(field string, value any) error {
	r, ok := rules[field]
	if !ok {
		return nil
	}

	if err := v.v.Var(value, r.tag); err != nil {
		return apperrors.NewValidationError(field, r.hint)
	}

	return nil
}

// NormalizeEquipmentID upper-cases and trims an id read out by the caller.
func NormalizeEquipmentID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
