package nlu

// Intent is one label from the closed, versioned intent set. Adding an intent
// means adding a constant here, training patterns in data/intents.json, and a
// branch in the dialogue manager's switch.
type Intent string

const (
	IntentAdmissionRequirements Intent = "admission_requirements"
	IntentApplicationDeadline   Intent = "application_deadline"
	IntentTuitionFees           Intent = "tuition_fees"
	IntentProgramsOffered       Intent = "programs_offered"
	IntentFinancialAid          Intent = "financial_aid"
	IntentContactInfo           Intent = "contact_info"
	IntentCampusVisit           Intent = "campus_visit"
	IntentHousing               Intent = "housing"
	IntentGreeting              Intent = "greeting"
	IntentGoodbye               Intent = "goodbye"
	IntentUnknown               Intent = "unknown"
)

// IntentSetVersion tags the closed set; analytics rows carry it so rollups
// across a label change stay interpretable.
const IntentSetVersion = "intents/v1"

// KnownIntents lists every classifiable label, excluding the unknown fallback.
func KnownIntents() []Intent {
	return []Intent{
		IntentAdmissionRequirements,
		IntentApplicationDeadline,
		IntentTuitionFees,
		IntentProgramsOffered,
		IntentFinancialAid,
		IntentContactInfo,
		IntentCampusVisit,
		IntentHousing,
		IntentGreeting,
		IntentGoodbye,
	}
}

// IsFAQIntent reports whether the intent should be answered from the
// knowledge base rather than a social template.
func (i Intent) IsFAQIntent() bool {
	switch i {
	case IntentAdmissionRequirements, IntentApplicationDeadline, IntentTuitionFees,
		IntentProgramsOffered, IntentFinancialAid, IntentContactInfo,
		IntentCampusVisit, IntentHousing:
		return true
	default:
		return false
	}
}
