package agent

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Tool names exposed to the voice runtime.
const (
	ToolVerifyBusinessLicense     = "verify_business_license"
	ToolSearchAvailableEquipment  = "search_available_equipment"
	ToolSelectEquipment           = "select_equipment"
	ToolVerifySiteSafety          = "verify_site_safety"
	ToolProposePrice              = "propose_price"
	ToolAcceptPrice               = "accept_price"
	ToolVerifyOperatorCredentials = "verify_operator_credentials"
	ToolVerifyInsuranceCoverage   = "verify_insurance_coverage"
	ToolCompleteBooking           = "complete_booking"
	ToolEndCall                   = "end_call"
)

// Parameter types.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInteger = "integer"
)

type Param struct {
	Name        string
	Type        string
	Description string
	Required    bool
}

// Tool describes one operation for registration with a runtime.
type Tool struct {
	Name        string
	Description string
	Params      []Param
}

var catalog = []Tool{
	{
		Name:        ToolVerifyBusinessLicense,
		Description: "Verify customer's business license with state authorities. Call this after collecting the license number from the customer.",
		Params: []Param{
			{Name: "license_number", Type: TypeString, Description: "The business license number provided by the customer", Required: true},
		},
	},
	{
		Name:        ToolSearchAvailableEquipment,
		Description: "Search for available equipment based on customer needs. Use natural language from customer request.",
		Params: []Param{
			{Name: "search_query", Type: TypeString, Description: "Natural language search query from customer (e.g., 'excavator for foundation work', 'forklift under $400')", Required: true},
		},
	},
	{
		Name:        ToolSelectEquipment,
		Description: "Select specific equipment by ID after customer chooses.",
		Params: []Param{
			{Name: "equipment_id", Type: TypeString, Description: "The equipment ID (e.g., EQ001)", Required: true},
		},
	},
	{
		Name:        ToolVerifySiteSafety,
		Description: "Verify job site can safely accommodate selected equipment.",
		Params: []Param{
			{Name: "job_address", Type: TypeString, Description: "The job site address provided by customer", Required: true},
		},
	},
	{
		Name:        ToolProposePrice,
		Description: "Propose a negotiated price for the equipment rental.",
		Params: []Param{
			{Name: "proposed_daily_rate", Type: TypeNumber, Description: "The proposed daily rental rate", Required: true},
			{Name: "rental_days", Type: TypeInteger, Description: "Number of days for rental (default: 1)"},
		},
	},
	{
		Name:        ToolAcceptPrice,
		Description: "Accept the agreed price and move to operator verification.",
		Params: []Param{
			{Name: "confirmed_daily_rate", Type: TypeNumber, Description: "The confirmed daily rental rate", Required: true},
		},
	},
	{
		Name:        ToolVerifyOperatorCredentials,
		Description: "Verify operator has proper certifications for selected equipment.",
		Params: []Param{
			{Name: "operator_name", Type: TypeString, Description: "Name of the equipment operator", Required: true},
			{Name: "operator_license", Type: TypeString, Description: "Operator's license/certification number", Required: true},
			{Name: "operator_phone", Type: TypeString, Description: "Operator's contact phone number", Required: true},
		},
	},
	{
		Name:        ToolVerifyInsuranceCoverage,
		Description: "Verify customer's insurance meets minimum requirements for selected equipment.",
		Params: []Param{
			{Name: "policy_number", Type: TypeString, Description: "Insurance policy number", Required: true},
		},
	},
	{
		Name:        ToolCompleteBooking,
		Description: "Finalize the rental booking and update inventory.",
	},
	{
		Name:        ToolEndCall,
		Description: "End the call gracefully with a reason.",
		Params: []Param{
			{Name: "reason", Type: TypeString, Description: "Reason for ending the call (e.g., 'completed', 'failed_verification', 'no_equipment')"},
		},
	},
}

// Tools returns the operation catalog in registration order.
func Tools() []Tool {
	out := make([]Tool, len(catalog))
	for i, t := range catalog {
		t.Params = append([]Param(nil), t.Params...)
		out[i] = t
	}
	return out
}

// Args holds decoded tool arguments.
type Args map[string]any

// String returns the trimmed string value of key.
func (a Args) String(key string) string {
	switch v := a[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}

// Float returns the numeric value of key. Strings such as "$1,250.50" are accepted.
func (a Args) Float(key string) (float64, bool) {
	switch v := a[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(v)
		if cleaned == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(cleaned, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Int returns the integer value of key, or def when it is absent.
// The bool is false when a value is present but not a whole number.
func (a Args) Int(key string, def int) (int, bool) {
	if _, ok := a[key]; !ok || a[key] == nil {
		return def, true
	}
	f, ok := a.Float(key)
	if !ok || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}
