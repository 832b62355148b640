package planner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/wickedtornado/diet-planning/internal/storage"
)

// planCacheSize bounds the in-memory response cache. Entries are keyed by a
// digest of the core health fields, so users with identical profiles share a
// generated plan.
const planCacheSize = 128

// LLM generates plan text from a system message and a user prompt.
type LLM interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Enricher folds reference-data sections into the outgoing prompt.
type Enricher interface {
	Enrich(ctx context.Context, basePrompt, medications string) string
}

// Result is a generated plan with its derived metrics and warnings.
type Result struct {
	PlanID            string     `json:"plan_id"`
	BMR               int        `json:"bmr"`
	BMI               float64    `json:"bmi"`
	BMICategory       string     `json:"bmi_category"`
	BMIAdvice         string     `json:"bmi_advice"`
	DailyCalories     int        `json:"daily_calories"`
	CalorieAdjustment string     `json:"calorie_adjustment"`
	DietPlan          string     `json:"diet_plan"`
	HighRisk          bool       `json:"high_risk"`
	RiskCondition     string     `json:"risk_condition,omitempty"`
	Validation        Validation `json:"validation"`
	Cached            bool       `json:"cached"`
	GeneratedAt       time.Time  `json:"generated_at"`
	MedicalWarning    string     `json:"medical_warning,omitempty"`
	FormatWarning     string     `json:"format_warning,omitempty"`
}

// Planner orchestrates plan generation end to end.
type Planner struct {
	llm      LLM
	enricher Enricher
	store    *storage.Store
	cache    *lru.Cache[string, Result]
}

// New constructs a Planner. enricher may be nil, in which case prompts go to
// the model without reference-data sections.
func New(llm LLM, enricher Enricher, store *storage.Store) (*Planner, error) {
	cache, err := lru.New[string, Result](planCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating plan cache: %w", err)
	}
	return &Planner{llm: llm, enricher: enricher, store: store, cache: cache}, nil
}

// Normalize applies the medical typo corrections to the intake's free-text
// fields. Call before Generate so the prompt, the risk scan, and the cache
// key all see the corrected text.
func Normalize(in Intake) Intake {
	in.Diagnosis = CorrectMedicalText(in.Diagnosis)
	in.Preexisting = CorrectMedicalText(in.Preexisting)
	in.Medicines = CorrectMedicalText(in.Medicines)
	in.Allergies = CorrectMedicalText(in.Allergies)
	in.AdditionalHealth = CorrectMedicalText(in.AdditionalHealth)
	return in
}

// Generate produces a diet plan for the intake. High-risk cases bypass the
// response cache in both directions and carry a medical warning; plans that
// fail format validation carry a format warning and are not cached.
func (p *Planner) Generate(ctx context.Context, in Intake) (Result, error) {
	in = Normalize(in)

	bmi := BMI(in.Weight, in.Height)
	category := CategorizeBMI(bmi)
	bmr := BMR(float64(in.Age), in.Weight, in.Height, strings.ToLower(in.Gender))
	calories := DailyCalories(bmr, in.Exercise, in.DietGoal, category.CalorieAdjustment)

	highRisk, riskCondition := FlagHighRisk(in)

	key := cacheKey(in)
	if !highRisk {
		if cached, ok := p.cache.Get(key); ok {
			cached.Cached = true
			return cached, nil
		}
	}

	prompt := BuildPrompt(in, calories)
	if p.enricher != nil {
		prompt = p.enricher.Enrich(ctx, prompt, in.Medicines)
	}

	planText, err := p.llm.Generate(ctx, SystemInstructions, prompt)
	if err != nil {
		return Result{}, fmt.Errorf("generating plan: %w", err)
	}

	validation := ValidateResponse(planText)

	result := Result{
		PlanID:            uuid.NewString(),
		BMR:               int(bmr),
		BMI:               bmi,
		BMICategory:       category.Category,
		BMIAdvice:         category.Advice,
		DailyCalories:     calories,
		CalorieAdjustment: fmt.Sprintf("%+d%% based on BMI", int((category.CalorieAdjustment-1)*100)),
		DietPlan:          planText,
		HighRisk:          highRisk,
		RiskCondition:     riskCondition,
		Validation:        validation,
		GeneratedAt:       time.Now(),
	}

	if highRisk {
		result.MedicalWarning = fmt.Sprintf(
			"High-risk condition detected: %s. Please consult healthcare provider before implementing this plan.",
			riskCondition)
	}
	if !validation.Valid {
		result.FormatWarning = fmt.Sprintf(
			"Response may be incomplete. Missing sections: %s",
			strings.Join(validation.MissingSections, ", "))
	}

	if !highRisk && validation.Valid {
		p.cache.Add(key, result)
	}

	p.savePlan(in, result)
	return result, nil
}

// savePlan records the plan for history. Persistence failures degrade to a
// log line; the caller already has the plan.
func (p *Planner) savePlan(in Intake, r Result) {
	if p.store == nil {
		return
	}
	err := p.store.SavePlan(storage.Plan{
		ID:            r.PlanID,
		CreatedAt:     r.GeneratedAt,
		Diagnosis:     in.Diagnosis,
		Medications:   in.Medicines,
		BMI:           r.BMI,
		BMR:           r.BMR,
		DailyCalories: r.DailyCalories,
		PlanText:      r.DietPlan,
		HighRisk:      r.HighRisk,
	})
	if err != nil {
		slog.Warn("plan history write failed", "plan_id", r.PlanID, "error", err)
	}
}

// cacheKey digests the core health fields only: personal identifiers never
// participate, so distinct users with the same profile share cache entries.
func cacheKey(in Intake) string {
	core := struct {
		Height      float64 `json:"height"`
		Weight      float64 `json:"weight"`
		Age         int     `json:"age"`
		Gender      string  `json:"gender"`
		Diagnosis   string  `json:"diagnosis"`
		Preexisting string  `json:"preexisting"`
		Medicines   string  `json:"medicines"`
		Allergies   string  `json:"allergies"`
		DietType    string  `json:"diet_type"`
		DietGoal    string  `json:"diet_goal"`
		Exercise    string  `json:"exercise"`
	}{
		Height:      in.Height,
		Weight:      in.Weight,
		Age:         in.Age,
		Gender:      in.Gender,
		Diagnosis:   strings.ToLower(strings.TrimSpace(in.Diagnosis)),
		Preexisting: strings.ToLower(strings.TrimSpace(in.Preexisting)),
		Medicines:   strings.ToLower(strings.TrimSpace(in.Medicines)),
		Allergies:   strings.ToLower(strings.TrimSpace(in.Allergies)),
		DietType:    in.DietType,
		DietGoal:    in.DietGoal,
		Exercise:    in.Exercise,
	}

	data, _ := json.Marshal(core)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
