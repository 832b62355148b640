package composer

import (
	"context"
	"strings"
	"testing"

	"github.com/wickedtornado/diet-planning/internal/nutrition"
	"github.com/wickedtornado/diet-planning/internal/usda"
)

type fakeSource struct {
	foods   map[string]nutrition.FoodRecord
	drugs   map[string]nutrition.GuidanceRecord
	lookups []string
}

func (f *fakeSource) FoodSummary(_ context.Context, name string) nutrition.FoodRecord {
	return f.foods[strings.ToLower(name)]
}

func (f *fakeSource) DrugGuidance(_ context.Context, med string) nutrition.GuidanceRecord {
	f.lookups = append(f.lookups, med)
	if rec, ok := f.drugs[strings.ToLower(med)]; ok {
		return rec
	}
	return nutrition.GuidanceRecord{Medication: med, BuiltIn: true,
		Restrictions: []string{"Avoid grapefruit juice unless confirmed safe"}}
}

func metforminRecord() nutrition.GuidanceRecord {
	return nutrition.GuidanceRecord{
		Medication:     "metformin",
		BuiltIn:        true,
		Restrictions:   []string{"Limit alcohol consumption", "Avoid excessive vitamin B12 depletion"},
		Timing:         []string{"Take with meals to reduce stomach upset"},
		Considerations: []string{"Monitor blood sugar levels"},
	}
}

func TestEnrichSectionOrder(t *testing.T) {
	src := &fakeSource{drugs: map[string]nutrition.GuidanceRecord{"metformin": metforminRecord()}}
	got := New(src).Enrich(context.Background(), "BASE PROMPT", "metformin")

	intro := strings.Index(got, "NUTRITION DATABASE INTEGRATION:")
	meds := strings.Index(got, "VERIFIED DRUG-FOOD INTERACTIONS:")
	verify := strings.Index(got, "NUTRITION VERIFICATION REQUIREMENT:")

	if !strings.HasPrefix(got, "BASE PROMPT\n\n") {
		t.Error("enriched prompt must start with the base prompt")
	}
	if intro < 0 || meds < 0 || verify < 0 {
		t.Fatalf("missing section: intro=%d meds=%d verify=%d", intro, meds, verify)
	}
	if !(intro < meds && meds < verify) {
		t.Errorf("sections out of order: intro=%d meds=%d verify=%d", intro, meds, verify)
	}
}

func TestEnrichSkipsEmptyAndNoneTokens(t *testing.T) {
	src := &fakeSource{drugs: map[string]nutrition.GuidanceRecord{"metformin": metforminRecord()}}
	got := New(src).Enrich(context.Background(), "BASE", "metformin, none, ")

	if n := strings.Count(got, "MEDICATION: "); n != 1 {
		t.Errorf("medication blocks = %d, want exactly 1", n)
	}
	if len(src.lookups) != 1 || src.lookups[0] != "metformin" {
		t.Errorf("lookups = %v, want just metformin", src.lookups)
	}
}

func TestEnrichSkipsErroredRecords(t *testing.T) {
	src := &fakeSource{drugs: map[string]nutrition.GuidanceRecord{
		"metformin": metforminRecord(),
		"aspirin": {
			Medication: "aspirin",
			Err:        "Drug interaction data unavailable: connection refused",
		},
	}}
	got := New(src).Enrich(context.Background(), "BASE", "aspirin, metformin")

	if strings.Contains(got, "MEDICATION: aspirin") {
		t.Error("errored record must be omitted")
	}
	if !strings.Contains(got, "MEDICATION: metformin") {
		t.Error("healthy record missing")
	}
}

func TestEnrichNoMedications(t *testing.T) {
	got := New(&fakeSource{}).Enrich(context.Background(), "BASE", "none")

	if strings.Contains(got, "VERIFIED DRUG-FOOD INTERACTIONS:") {
		t.Error("interactions section present with no medication blocks")
	}
	if !strings.Contains(got, "NUTRITION DATABASE INTEGRATION:") ||
		!strings.Contains(got, "NUTRITION VERIFICATION REQUIREMENT:") {
		t.Error("static sections must always be present")
	}
}

func TestEnrichMedicationBlockContent(t *testing.T) {
	src := &fakeSource{drugs: map[string]nutrition.GuidanceRecord{"metformin": metforminRecord()}}
	got := New(src).Enrich(context.Background(), "BASE", "metformin")

	want := "MEDICATION: metformin\n" +
		"- Food Restrictions: Limit alcohol consumption; Avoid excessive vitamin B12 depletion\n" +
		"- Timing: Take with meals to reduce stomach upset\n" +
		"- Special Notes: Monitor blood sugar levels"
	if !strings.Contains(got, want) {
		t.Errorf("medication block malformed:\n%s", got)
	}
}

func TestFoodVerification(t *testing.T) {
	src := &fakeSource{foods: map[string]nutrition.FoodRecord{
		"apple": {Nutrition: usda.Nutrition{FoodName: "Apple, raw", Calories: 52}, USDAVerified: true},
	}}
	got := New(src).FoodVerification(context.Background(), []string{"apple", "mystery"})

	if got["apple"].Calories != 52 {
		t.Errorf("apple record = %+v", got["apple"])
	}
	if got["mystery"].USDAVerified {
		t.Error("unknown food must not be verified")
	}
}

func TestFormatFoodSummary(t *testing.T) {
	verified := nutrition.FoodRecord{
		Nutrition:    usda.Nutrition{FoodName: "Apple, raw", Calories: 52, ProteinG: 0.3, CarbsG: 13.8, FatG: 0.2},
		USDAVerified: true,
	}
	if got := FormatFoodSummary(verified); !strings.Contains(got, "52.0 kcal/100g") {
		t.Errorf("FormatFoodSummary(verified) = %q", got)
	}

	placeholder := nutrition.FoodRecord{
		Nutrition: usda.Nutrition{FoodName: "xyznotafood"},
		Err:       "Food not found in USDA database",
	}
	got := FormatFoodSummary(placeholder)
	if !strings.Contains(got, "calories Unknown") {
		t.Errorf("FormatFoodSummary(placeholder) = %q, want Unknown fields", got)
	}
}
