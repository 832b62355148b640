// Package composer folds reference-data summaries into the outgoing plan
// prompt: a static integration preamble, one block per resolvable medication,
// and a verification requirement the model must follow when citing foods.
package composer

import (
	"context"
	"fmt"
	"strings"

	"github.com/wickedtornado/diet-planning/internal/nutrition"
)

const integrationSection = `NUTRITION DATABASE INTEGRATION:
You now have access to USDA FoodData Central (400,000+ foods) and RxNorm drug database.
Use this data to provide EXACT nutrition information and verified drug interactions.

When recommending foods:
1. Verify actual calorie and macro content from USDA data
2. Provide specific portion sizes based on nutritional density
3. Ensure recommendations match calculated calorie targets exactly

When considering medications:
1. Check specific drug-food interactions from RxNorm
2. Provide evidence-based timing recommendations
3. Flag any potentially dangerous food combinations`

const verificationSection = `NUTRITION VERIFICATION REQUIREMENT:
For each recommended food item:
1. State the USDA-verified calories per 100g
2. Provide exact protein, carb, and fat content
3. Ensure portion sizes align with calorie targets
4. Mention any relevant micronutrients

Example format:
"Brown rice (1 cup cooked = 216 calories, 5g protein, 44g carbs, 1.8g fat - USDA verified)"`

// Source is the slice of the nutrition service the composer needs.
type Source interface {
	FoodSummary(ctx context.Context, foodName string) nutrition.FoodRecord
	DrugGuidance(ctx context.Context, medication string) nutrition.GuidanceRecord
}

// Enricher assembles enrichment sections around a base prompt.
type Enricher struct {
	source Source
}

func New(source Source) *Enricher {
	return &Enricher{source: source}
}

// Enrich appends the enrichment sections to basePrompt: the static integration
// preamble, a verified-interactions section when at least one medication block
// resolved, and the verification requirement. medications is the user's raw
// comma-separated free text; empty and "none"/"nil" tokens are skipped, and a
// medication whose lookup degraded to an error is silently omitted. Enrich
// never fails: the worst case is a prompt with no medication blocks.
func (e *Enricher) Enrich(ctx context.Context, basePrompt, medications string) string {
	sections := []string{integrationSection}

	if blocks := e.medicationBlocks(ctx, medications); len(blocks) > 0 {
		sections = append(sections, fmt.Sprintf(
			"VERIFIED DRUG-FOOD INTERACTIONS:\n%s\n\nCRITICAL: Incorporate these specific interactions into meal timing and food choices.",
			strings.Join(blocks, "\n\n")))
	}

	sections = append(sections, verificationSection)

	return basePrompt + "\n\n" + strings.Join(sections, "\n\n")
}

func (e *Enricher) medicationBlocks(ctx context.Context, medications string) []string {
	var blocks []string
	for _, token := range strings.Split(medications, ",") {
		med := strings.TrimSpace(token)
		switch strings.ToLower(med) {
		case "", "none", "nil":
			continue
		}

		rec := e.source.DrugGuidance(ctx, med)
		if rec.Err != "" {
			continue
		}
		blocks = append(blocks, formatMedicationBlock(rec))
	}
	return blocks
}

func formatMedicationBlock(rec nutrition.GuidanceRecord) string {
	return fmt.Sprintf(
		"MEDICATION: %s\n- Food Restrictions: %s\n- Timing: %s\n- Special Notes: %s",
		rec.Medication,
		strings.Join(rec.Restrictions, "; "),
		strings.Join(rec.Timing, "; "),
		strings.Join(rec.Considerations, "; "),
	)
}

// FoodVerification resolves each food through the cache-or-fetch pipeline and
// returns the records keyed by the input name, for callers that want to check
// a generated plan against reference data.
func (e *Enricher) FoodVerification(ctx context.Context, foods []string) map[string]nutrition.FoodRecord {
	out := make(map[string]nutrition.FoodRecord, len(foods))
	for _, food := range foods {
		out[food] = e.source.FoodSummary(ctx, food)
	}
	return out
}

// FormatFoodSummary renders a record as a one-line human summary. Unverified
// records print "Unknown" for every numeric field so downstream text never
// presents placeholder zeros as real data.
func FormatFoodSummary(rec nutrition.FoodRecord) string {
	if !rec.USDAVerified {
		return fmt.Sprintf("%s: calories Unknown, protein Unknown, carbs Unknown, fat Unknown", rec.FoodName)
	}
	return fmt.Sprintf("%s: %.1f kcal/100g, %.1fg protein, %.1fg carbs, %.1fg fat",
		rec.FoodName, rec.Calories, rec.ProteinG, rec.CarbsG, rec.FatG)
}
