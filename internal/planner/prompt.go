package planner

import (
	"fmt"
	"strings"
)

// Intake is the normalized questionnaire. Medical free-text fields are
// expected to have gone through CorrectMedicalText already.
type Intake struct {
	Age    int     `json:"age"`
	Gender string  `json:"gender"`
	Height float64 `json:"height"`
	Weight float64 `json:"weight"`
	Budget string  `json:"budget"`

	Diagnosis        string `json:"diagnosis"`
	Preexisting      string `json:"preexisting"`
	Medicines        string `json:"medicines"`
	Allergies        string `json:"allergies"`
	AdditionalHealth string `json:"additional_health"`

	DietType       string   `json:"diet_type"`
	DietGoal       string   `json:"diet_goal"`
	Exercise       string   `json:"exercise"`
	FoodPreference string   `json:"food_preference"`
	Cuisines       []string `json:"cuisines"`
	Fasting        string   `json:"fasting"`
	FastingDetails string   `json:"fasting_details"`
}

// SystemInstructions frames the model as a clinical nutritionist with
// reference-database access. Sent as the system message on every request.
const SystemInstructions = "You are a senior clinical nutritionist with access to USDA FoodData Central and RxNorm databases. Use this data to provide exact nutrition information and verified drug interactions. Always follow the exact format provided."

const divider = "==============================================================================="

// BuildPrompt renders the full clinical-nutritionist prompt: the complete
// patient profile, analysis instructions, and the mandatory output format the
// validator later checks for.
func BuildPrompt(in Intake, calories int) string {
	bmi := fmt.Sprintf("%.1f", BMI(in.Weight, in.Height))

	var b strings.Builder
	fmt.Fprintf(&b, `You are a SENIOR CLINICAL NUTRITIONIST with 20+ years of experience. You have deep knowledge of:
- Medical nutrition therapy for ALL conditions
- Drug-nutrient interactions for ALL medications
- Cultural and dietary preferences
- Exercise physiology and nutrition
- BMI-based nutritional strategies

IMPORTANT: TYPO AND SPELLING TOLERANCE
- Users may have typos or misspellings in medical conditions, medications, or other information
- Use your medical knowledge to interpret likely meanings (e.g., "diabetis" = "diabetes", "hypertenion" = "hypertension")
- If uncertain about a term, mention both the original text and your interpretation
- Always prioritize safety: if a term is completely unclear, recommend medical consultation

PATIENT COMPLETE PROFILE:
%[1]s

BASIC INFORMATION:
- Age: %d years
- Gender: %s
- Height: %.0f cm
- Weight: %.0f kg
- BMI: %s
- Monthly Budget: $%s

COMPLETE MEDICAL HISTORY:
- Primary Diagnosis/Condition: %s
- Pre-existing Conditions: %s
- Current Medications: %s
- Allergies & Food Restrictions: %s
- Additional Health Information: %s

LIFESTYLE & PREFERENCES:
- Diet Type: %s
- Primary Goal: %s
- Exercise Level: %s
- Food Preference: %s
- Preferred Cuisines: %s
- Fasting Schedule: %s
- Fasting Details: %s

TARGET DAILY CALORIES: %d
`,
		divider,
		in.Age, orDefault(in.Gender, "Not specified"),
		in.Height, in.Weight, bmi, orDefault(in.Budget, "Not specified"),
		orDefault(in.Diagnosis, "Not provided"),
		orDefault(in.Preexisting, "Not provided"),
		orDefault(in.Medicines, "Not provided"),
		orDefault(in.Allergies, "Not provided"),
		orDefault(in.AdditionalHealth, "Not provided"),
		orDefault(in.DietType, "Not specified"),
		orDefault(in.DietGoal, "Not specified"),
		orDefault(in.Exercise, "Not specified"),
		orDefault(in.FoodPreference, "Not specified"),
		orDefault(strings.Join(in.Cuisines, ", "), "Not specified"),
		orDefault(in.Fasting, "Not specified"),
		orDefault(in.FastingDetails, "Not provided"),
		calories,
	)

	fmt.Fprintf(&b, `
YOUR EXPERT ANALYSIS REQUIRED:
%[1]s

Using your extensive medical and nutritional knowledge, please:

1. INTERPRET & ANALYZE the complete patient profile above (correcting any obvious typos or misspellings)
2. IDENTIFY any medical conditions that require specific nutritional interventions
3. RECOGNIZE potential drug-nutrient interactions from medications listed (even if misspelled)
4. DETERMINE appropriate macronutrient distribution based on BMI, goals, and medical needs
5. CONSIDER cultural and personal preferences while maintaining medical safety
6. CREATE a comprehensive, safe, and personalized nutrition plan

CRITICAL REQUIREMENTS:
- Interpret misspelled medical conditions and medications using your clinical knowledge
- If ANY medical condition is mentioned (even with typos), apply evidence-based medical nutrition therapy
- For ANY medication listed (even misspelled), consider known food-drug interactions
- Respect ALL dietary restrictions and allergies mentioned
- If a term is unclear or potentially dangerous due to ambiguity, note this and recommend medical consultation
- Adapt meal timing if fasting schedule is specified
- Stay within the specified budget range
- Include foods from preferred cuisines when medically appropriate

MANDATORY OUTPUT FORMAT:
%[1]s

CLINICAL ASSESSMENT:

*Medical Terminology Interpretation:*
[If any medical terms appear misspelled, clarify: "Interpreting '[original text]' as '[corrected term]'"]

*Medical Nutrition Analysis:*
[Analyze any medical conditions mentioned and their nutritional implications]

*Drug-Nutrient Considerations:*
[Identify any food-medication interactions and timing recommendations, noting any spelling corrections made]

*BMI & Goal Strategy:*
[Determine if weight management is needed and appropriate approach]

*Special Dietary Needs:*
[Address any allergies, restrictions, or cultural dietary requirements]

PERSONALIZED MACRONUTRIENT PLAN:

Based on your analysis, determine optimal distribution:
- Protein: [X]g ([X]%% of calories) - [Reasoning for this amount]
- Carbohydrates: [X]g ([X]%% of calories) - [Reasoning for this amount]
- Fats: [X]g ([X]%% of calories) - [Reasoning for this amount]

DAILY MEAL PLAN (%[2]d calories):

BREAKFAST ([X] calories):
*Meal:* [Specific meal with exact portions]
*Key Nutrients:* [X]g protein, [X]g carbs, [X]g fats
*Medical Benefits:* [Why this meal supports their health conditions]
*Timing Notes:* [Any medication timing considerations]

LUNCH ([X] calories):
*Meal:* [Specific meal with exact portions]
*Key Nutrients:* [X]g protein, [X]g carbs, [X]g fats
*Medical Benefits:* [Why this meal supports their health conditions]
*Timing Notes:* [Any medication timing considerations]

DINNER ([X] calories):
*Meal:* [Specific meal with exact portions]
*Key Nutrients:* [X]g protein, [X]g carbs, [X]g fats
*Medical Benefits:* [Why this meal supports their health conditions]
*Timing Notes:* [Any medication timing considerations]

FOODS TO STRICTLY AVOID:
[List specific foods to avoid based on medical conditions, medications, and allergies]

THERAPEUTIC FOODS TO EMPHASIZE:
[List foods that specifically benefit their medical conditions]

MEAL TIMING STRATEGY:
[Specific timing recommendations based on medications, fasting schedule, and medical needs]

HYDRATION PLAN:
[Water intake recommendations considering medical conditions and medications]

MONITORING & ADJUSTMENTS:
[What to watch for and when to consult healthcare provider]

IMPORTANT MEDICAL DISCLAIMERS:
- This plan is based on the information provided
- Consult your healthcare provider before implementing any dietary changes
- Monitor for any adverse reactions, especially with [specific conditions mentioned]
- Regular follow-up recommended for [specific monitoring needs based on conditions]

%[1]s

CRITICAL INSTRUCTIONS FOR CONSISTENCY:
1. Interpret obvious typos and misspellings using medical knowledge before analysis
2. Base ALL recommendations on established medical nutrition therapy principles
3. If unsure about a misspelled term that could affect safety, note the ambiguity and recommend medical consultation
4. Always provide the exact calorie and macronutrient breakdown requested
5. Include specific portion sizes (grams, cups, pieces)
6. Maintain the exact format structure above
7. Be thorough but concise in explanations
8. Prioritize SAFETY over preferences when medical conditions are present
9. When correcting terminology, briefly mention: "Interpreting '[original]' as '[corrected]'"
`, divider, calories)

	return b.String()
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
