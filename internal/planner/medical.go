package planner

import (
	"strings"
	"unicode"
)

// Common questionnaire misspellings mapped to their clinical terms. Applied
// in declaration order so earlier corrections can feed later ones.
var medicalCorrections = []struct{ typo, correct string }{
	{"diabetis", "diabetes"},
	{"diabetic", "diabetes"},
	{"hypertenion", "hypertension"},
	{"hypertention", "hypertension"},
	{"high bp", "hypertension"},
	{"hart disease", "heart disease"},
	{"thyroids", "thyroid"},
	{"metformine", "metformin"},
	{"lisiniprol", "lisinopril"},
	{"lactos intolerant", "lactose intolerant"},
	{"glutten", "gluten"},
	{"shelfish", "shellfish"},
}

// CorrectMedicalText lowercases free text and applies the known typo
// corrections. When the input started with an uppercase letter the result is
// re-capitalized so the correction is invisible in rendered output.
func CorrectMedicalText(text string) string {
	if text == "" {
		return text
	}

	corrected := strings.ToLower(text)
	for _, c := range medicalCorrections {
		corrected = strings.ReplaceAll(corrected, c.typo, c.correct)
	}

	if unicode.IsUpper(rune(text[0])) {
		corrected = capitalize(corrected)
	}
	return corrected
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Conditions that route a plan around the response cache and attach a
// medical-review warning.
var highRiskConditions = []string{
	"kidney disease", "renal failure", "dialysis",
	"liver disease", "cirrhosis", "hepatitis",
	"cancer", "chemotherapy", "radiation",
	"eating disorder", "anorexia", "bulimia",
	"severe diabetes", "insulin dependent",
	"heart failure", "cardiac", "stroke",
}

// FlagHighRisk scans the intake's medical free text for conditions that need
// clinician review. Returns the first matching condition.
func FlagHighRisk(in Intake) (bool, string) {
	text := strings.ToLower(in.Diagnosis + " " + in.Preexisting + " " + in.AdditionalHealth)
	for _, cond := range highRiskConditions {
		if strings.Contains(text, cond) {
			return true, cond
		}
	}
	return false, ""
}

// Validation reports whether a generated plan follows the mandatory output
// format the prompt demands.
type Validation struct {
	Valid           bool     `json:"valid"`
	MissingSections []string `json:"missing_sections"`
	HasCalories     bool     `json:"has_calories"`
	HasMacros       bool     `json:"has_macros"`
}

var requiredSections = []string{
	"CLINICAL ASSESSMENT",
	"PERSONALIZED MACRONUTRIENT PLAN",
	"DAILY MEAL PLAN",
	"BREAKFAST",
	"LUNCH",
	"DINNER",
	"FOODS TO STRICTLY AVOID",
	"THERAPEUTIC FOODS TO EMPHASIZE",
}

// ValidateResponse checks a generated plan for the required sections and for
// calorie and macronutrient mentions.
func ValidateResponse(text string) Validation {
	missing := []string{}
	for _, section := range requiredSections {
		if !strings.Contains(text, section) {
			missing = append(missing, section)
		}
	}

	lower := strings.ToLower(text)
	hasMacros := true
	for _, macro := range []string{"protein", "carbohydrates", "fats"} {
		if !strings.Contains(lower, macro) {
			hasMacros = false
			break
		}
	}

	return Validation{
		Valid:           len(missing) == 0,
		MissingSections: missing,
		HasCalories:     strings.Contains(lower, "calories"),
		HasMacros:       hasMacros,
	}
}
