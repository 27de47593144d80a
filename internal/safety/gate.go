// Package safety classifies user messages before they reach the model and
// scans generated responses for medical-advice phrasing. All functions are
// pure, deterministic, and make no network calls.
package safety

import "strings"

// Action is the outcome of pre-generation classification.
type Action string

const (
	ActionAllow    Action = "allow"
	ActionRedirect Action = "redirect"
	ActionBlock    Action = "block"
)

// Safety categories.
const (
	CategoryMedication = "medication"
	CategoryAllergy    = "allergy"
	CategoryCondition  = "medical_condition"
	CategoryEmergency  = "emergency"
	CategoryHealth     = "health_topic"
)

// Decision is the transient result of classifying one message.
type Decision struct {
	Action   Action
	Keywords []string
	Category string
	// Message holds the fixed user-visible text for BLOCK decisions.
	Message string
}

// Disclaimer is appended to redirected or advice-flagged responses.
const Disclaimer = "\n\nPlease note: I'm a wellness coach, not a medical professional. " +
	"For questions about medical conditions, medications, or symptoms, please consult your doctor."

// Fixed block messages per category.
const (
	medicationMessage = "I can't give advice involving medications. Questions about prescriptions, " +
		"dosages, or how medications interact with diet and exercise need to go to your doctor or pharmacist."
	allergyMessage = "Allergies can be serious, so I don't make suggestions around them. " +
		"Please work with your doctor or an allergist on anything allergy-related."
	conditionMessage = "Because you mentioned a medical condition, I have to step back here. " +
		"Changes to diet, fasting, or exercise with a condition like this should be planned with your doctor."
	emergencyMessage = "This sounds like it could be urgent. Please contact your doctor or local " +
		"emergency services right away. I'm not able to help with medical emergencies."
)

// shortKeywordLen is the keyword length at or below which matches must fall
// on word boundaries ("fast" must not match inside "breakfast").
const shortKeywordLen = 4

// Keyword lists, checked in strict priority order.
var (
	medicationKeywords = []string{
		"insulin", "metformin", "warfarin", "blood thinner", "statin",
		"antidepressant", "antibiotic", "prescription", "medication",
		"beta blocker", "thyroid med", "dosage", "meds",
	}

	allergyKeywords = []string{
		"allergy", "allergic", "anaphylaxis", "epipen", "food allergy",
		"nut allergy", "shellfish allergy", "celiac",
	}

	conditionKeywords = []string{
		"diabetes", "diabetic", "heart disease", "heart condition",
		"kidney disease", "liver disease", "cancer", "chemotherapy",
		"pregnant", "pregnancy", "breastfeeding", "eating disorder",
		"anorexia", "bulimia", "epilepsy", "seizure", "copd",
	}

	emergencyKeywords = []string{
		"chest pain", "can't breathe", "cannot breathe", "passed out",
		"fainted", "suicidal", "suicide", "self harm", "overdose",
		"severe pain", "numbness in",
	}

	redirectKeywords = []string{
		"thyroid", "cholesterol", "blood pressure", "hypertension",
		"hormone", "menopause", "testosterone", "vitamin deficiency",
		"supplement interaction", "insomnia", "chronic fatigue",
		"ibs", "pcos",
	}

	// Phrases that indicate the generated response drifted into
	// dosage/diagnosis territory.
	advicePhrases = []string{
		"you should take", "recommended dose", "mg per day", "mg daily",
		"increase your dose", "reduce your dose", "stop taking",
		"start taking", "you likely have", "you probably have",
		"this diagnosis", "i diagnose", "consistent with a diagnosis",
	}
)

// Normalize lowercases text and collapses all whitespace runs to single
// spaces so classification is case- and spacing-invariant.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// Classify decides whether a message may proceed to generation.
// It is total: every input yields a decision, never an error.
func Classify(text string) Decision {
	msg := Normalize(text)

	if matched := matchAny(msg, medicationKeywords); len(matched) > 0 {
		return Decision{
			Action:   ActionBlock,
			Keywords: matched,
			Category: CategoryMedication,
			Message:  medicationMessage,
		}
	}

	if matched := matchAny(msg, allergyKeywords); len(matched) > 0 {
		return Decision{
			Action:   ActionBlock,
			Keywords: matched,
			Category: CategoryAllergy,
			Message:  allergyMessage,
		}
	}

	if matched := matchAny(msg, conditionKeywords); len(matched) > 0 {
		// Emergency sub-check: any emergency term upgrades the category
		// and swaps in the emergency message.
		if urgent := matchAny(msg, emergencyKeywords); len(urgent) > 0 {
			return Decision{
				Action:   ActionBlock,
				Keywords: append(matched, urgent...),
				Category: CategoryEmergency,
				Message:  emergencyMessage,
			}
		}
		return Decision{
			Action:   ActionBlock,
			Keywords: matched,
			Category: CategoryCondition,
			Message:  conditionMessage,
		}
	}

	// Emergency terms on their own still block.
	if urgent := matchAny(msg, emergencyKeywords); len(urgent) > 0 {
		return Decision{
			Action:   ActionBlock,
			Keywords: urgent,
			Category: CategoryEmergency,
			Message:  emergencyMessage,
		}
	}

	if matched := matchAny(msg, redirectKeywords); len(matched) > 0 {
		return Decision{
			Action:   ActionRedirect,
			Keywords: matched,
			Category: CategoryHealth,
		}
	}

	return Decision{Action: ActionAllow}
}

// ScanResponse reports whether a generated response contains
// dosage/diagnosis-style phrasing. Runs independently of the pre-check.
func ScanResponse(text string) bool {
	msg := Normalize(text)
	return len(matchAny(msg, advicePhrases)) > 0
}

// matchAny returns the keywords present in the normalized message.
func matchAny(msg string, keywords []string) []string {
	var matched []string
	for _, kw := range keywords {
		if containsKeyword(msg, kw) {
			matched = append(matched, kw)
		}
	}
	return matched
}

// containsKeyword matches short keywords on word boundaries only and longer
// keywords as plain substrings.
func containsKeyword(msg, kw string) bool {
	if len(kw) > shortKeywordLen {
		return strings.Contains(msg, kw)
	}

	for i := 0; ; {
		j := strings.Index(msg[i:], kw)
		if j < 0 {
			return false
		}
		start := i + j
		end := start + len(kw)
		if (start == 0 || !isWordChar(msg[start-1])) && (end == len(msg) || !isWordChar(msg[end])) {
			return true
		}
		i = start + 1
	}
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b == '\''
}
