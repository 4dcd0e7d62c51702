package inventory

// Status is the availability of an equipment unit.
type Status string

const (
	StatusAvailable   Status = "AVAILABLE"
	StatusRented      Status = "RENTED"
	StatusMaintenance Status = "MAINTENANCE"
)

// Equipment is one rentable unit as kept by an inventory backend.
type Equipment struct {
	ID                   string  `json:"equipment_id" dynamodbav:"equipment_id"`
	Name                 string  `json:"equipment_name" dynamodbav:"equipment_name"`
	Category             string  `json:"category" dynamodbav:"category"`
	DailyRate            float64 `json:"daily_rate" dynamodbav:"daily_rate"`
	MaxRate              float64 `json:"max_rate" dynamodbav:"max_rate"`
	Status               Status  `json:"status" dynamodbav:"status"`
	OperatorCertRequired string  `json:"operator_cert_required" dynamodbav:"operator_cert_required"`
	MinInsurance         float64 `json:"min_insurance" dynamodbav:"min_insurance"`
	StorageLocation      string  `json:"storage_location" dynamodbav:"storage_location"`
	WeightClass          string  `json:"weight_class" dynamodbav:"weight_class"`
}

// Available reports whether the unit can be reserved.
func (e Equipment) Available() bool {
	return e.Status == StatusAvailable
}

func filterAvailable(items []Equipment) []Equipment {
	out := make([]Equipment, 0, len(items))
	for _, item := range items {
		if item.Available() {
			out = append(out, item)
		}
	}
	return out
}
