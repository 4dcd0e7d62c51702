package workflow

// Stage is a named phase of a rental call. Exactly one is current at a time.
type Stage string

const (
	StageGreeting                 Stage = "greeting"
	StageCustomerVerification     Stage = "customer_verification"
	StageEquipmentDiscovery       Stage = "equipment_discovery"
	StageRequirementsConfirmation Stage = "requirements_confirmation"
	StagePricingNegotiation       Stage = "pricing_negotiation"
	StageOperatorCertification    Stage = "operator_certification"
	StageInsuranceVerification    Stage = "insurance_verification"
	StageBookingCompletion        Stage = "booking_completion"
	// StageCallEnded is absorbing and reachable from every stage.
	StageCallEnded Stage = "call_ended"
)

// stageOrder is the only forward path through a call.
var stageOrder = []Stage{
	StageGreeting,
	StageCustomerVerification,
	StageEquipmentDiscovery,
	StageRequirementsConfirmation,
	StagePricingNegotiation,
	StageOperatorCertification,
	StageInsuranceVerification,
	StageBookingCompletion,
}

// Stages returns every stage, the ordered ones first and StageCallEnded last.
func Stages() []Stage {
	out := make([]Stage, 0, len(stageOrder)+1)
	out = append(out, stageOrder...)
	return append(out, StageCallEnded)
}

// Index returns the position of s in the forward order, or -1 for StageCallEnded and unknown values.
func (s Stage) Index() int {
	for i, candidate := range stageOrder {
		if candidate == s {
			return i
		}
	}
	return -1
}

// Next returns the stage following s and whether one exists.
func (s Stage) Next() (Stage, bool) {
	i := s.Index()
	if i < 0 || i+1 >= len(stageOrder) {
		return "", false
	}
	return stageOrder[i+1], true
}

func (s Stage) Valid() bool {
	return s == StageCallEnded || s.Index() >= 0
}

func (s Stage) Terminal() bool {
	return s == StageCallEnded
}

func (s Stage) String() string {
	return string(s)
}
