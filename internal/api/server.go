// Package api exposes the planning service over HTTP and MCP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wickedtornado/diet-planning/internal/nutrition"
	"github.com/wickedtornado/diet-planning/internal/pdf"
	"github.com/wickedtornado/diet-planning/internal/planner"
	"github.com/wickedtornado/diet-planning/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1MB

// PlanGenerator produces a diet plan from an intake.
type PlanGenerator interface {
	Generate(ctx context.Context, in planner.Intake) (planner.Result, error)
}

// NutritionService is the reference-data surface the handlers need. Nil when
// no USDA key is configured; the nutrition routes then report that state.
type NutritionService interface {
	FoodSummary(ctx context.Context, foodName string) nutrition.FoodRecord
	DrugGuidance(ctx context.Context, medication string) nutrition.GuidanceRecord
	TestConnections(ctx context.Context) nutrition.Diagnostics
}

// Deps holds handler dependencies.
type Deps struct {
	Planner   PlanGenerator
	Nutrition NutritionService
	Store     *storage.Store
}

// NewHandler returns the HTTP API router.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(corsHeaders)

	r.Get("/health", handleHealth(deps))
	r.Post("/generate_diet", handleGenerateDiet(deps))
	r.Post("/download_pdf", handleDownloadPDF(deps))
	r.Get("/nutrition/foods/{name}", handleFoodLookup(deps))
	r.Get("/nutrition/drugs/{name}", handleDrugLookup(deps))
	r.Get("/test_nutrition_db", handleTestNutritionDB(deps))
	r.Get("/plans", handleListPlans(deps))
	r.Get("/plans/{id}", handleGetPlan(deps))

	return r
}

func corsHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET,PUT,POST,DELETE,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func handleHealth(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":              "healthy",
			"timestamp":           time.Now().Format(time.RFC3339),
			"nutrition_db_active": deps.Nutrition != nil,
		})
	}
}

// intakeRequest mirrors the questionnaire form. Numeric fields arrive as
// strings or numbers depending on the client; flexNumber accepts both.
type intakeRequest struct {
	Age    flexNumber `json:"age"`
	Gender string     `json:"gender"`
	Height flexNumber `json:"height"`
	Weight flexNumber `json:"weight"`
	Budget string     `json:"budget"`

	Diagnosis        string `json:"diagnosis"`
	Preexisting      string `json:"preexisting"`
	Medicines        string `json:"medicines"`
	Allergies        string `json:"allergies"`
	AdditionalHealth string `json:"additional-health"`

	DietType       string   `json:"diet-type"`
	DietGoal       string   `json:"diet-goal"`
	Exercise       string   `json:"exercise"`
	FoodPreference string   `json:"food-preference"`
	Cuisines       []string `json:"cuisines"`
	Fasting        string   `json:"fasting"`
	FastingDetails string   `json:"fasting-details"`
}

// flexNumber unmarshals either a JSON number or a numeric string.
type flexNumber float64

func (f *flexNumber) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q", s)
	}
	*f = flexNumber(v)
	return nil
}

func (r intakeRequest) toIntake() planner.Intake {
	in := planner.Intake{
		Age:              int(r.Age),
		Gender:           r.Gender,
		Height:           float64(r.Height),
		Weight:           float64(r.Weight),
		Budget:           r.Budget,
		Diagnosis:        r.Diagnosis,
		Preexisting:      r.Preexisting,
		Medicines:        r.Medicines,
		Allergies:        r.Allergies,
		AdditionalHealth: r.AdditionalHealth,
		DietType:         r.DietType,
		DietGoal:         r.DietGoal,
		Exercise:         r.Exercise,
		FoodPreference:   r.FoodPreference,
		Cuisines:         r.Cuisines,
		Fasting:          r.Fasting,
		FastingDetails:   r.FastingDetails,
	}

	// Questionnaire defaults for omitted fields.
	if in.Age == 0 {
		in.Age = 30
	}
	if in.Height == 0 {
		in.Height = 170
	}
	if in.Weight == 0 {
		in.Weight = 70
	}
	if in.Gender == "" {
		in.Gender = "male"
	}
	if in.DietType == "" {
		in.DietType = "vegetarian"
	}
	if in.DietGoal == "" {
		in.DietGoal = "balanced"
	}
	if in.Exercise == "" {
		in.Exercise = "moderate"
	}
	return in
}

func handleGenerateDiet(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req intakeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		result, err := deps.Planner.Generate(r.Context(), req.toIntake())
		if err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "plan generation failed: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

type downloadPDFRequest struct {
	Result planner.Result `json:"result"`
}

func handleDownloadPDF(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req downloadPDFRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Result.DietPlan == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "result.diet_plan is required")
			return
		}

		generatedAt := req.Result.GeneratedAt
		if generatedAt.IsZero() {
			generatedAt = time.Now()
		}

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="diet_plan_%s.pdf"`, time.Now().Format("20060102_150405")))

		err := pdf.Render(w, req.Result.DietPlan, pdf.Summary{
			BMR:           req.Result.BMR,
			BMI:           req.Result.BMI,
			BMICategory:   req.Result.BMICategory,
			DailyCalories: req.Result.DailyCalories,
			GeneratedAt:   generatedAt,
		})
		if err != nil {
			// Headers are already out; all we can do is log via the middleware.
			return
		}
	}
}

func handleFoodLookup(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Nutrition == nil {
			httpError(w, http.StatusServiceUnavailable, "api_error", "nutrition database not initialized")
			return
		}
		name := chi.URLParam(r, "name")
		writeJSON(w, http.StatusOK, deps.Nutrition.FoodSummary(r.Context(), name))
	}
}

func handleDrugLookup(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Nutrition == nil {
			httpError(w, http.StatusServiceUnavailable, "api_error", "nutrition database not initialized")
			return
		}
		name := chi.URLParam(r, "name")
		writeJSON(w, http.StatusOK, deps.Nutrition.DrugGuidance(r.Context(), name))
	}
}

func handleTestNutritionDB(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Nutrition == nil {
			writeJSON(w, http.StatusOK, map[string]any{
				"success": false,
				"error":   "nutrition database not initialized",
			})
			return
		}

		apple := deps.Nutrition.FoodSummary(r.Context(), "apple")
		aspirin := deps.Nutrition.DrugGuidance(r.Context(), "aspirin")
		status := deps.Nutrition.TestConnections(r.Context())

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"usda_test": map[string]any{
				"food":              "apple",
				"calories_per_100g": apple.Calories,
				"verified":          apple.USDAVerified,
			},
			"rxnorm_test": map[string]any{
				"medication":         "aspirin",
				"found":              aspirin.RxNormFound,
				"restrictions_count": len(aspirin.Restrictions),
			},
			"api_status":     status,
			"database_ready": true,
		})
	}
}

func handleListPlans(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 20
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
				limit = n
			}
		}

		plans, err := deps.Store.ListPlans(limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list plans: %v", err)
			return
		}

		type planSummary struct {
			ID            string    `json:"id"`
			CreatedAt     time.Time `json:"created_at"`
			Diagnosis     string    `json:"diagnosis"`
			BMI           float64   `json:"bmi"`
			DailyCalories int       `json:"daily_calories"`
			HighRisk      bool      `json:"high_risk"`
		}
		out := make([]planSummary, len(plans))
		for i, p := range plans {
			out[i] = planSummary{
				ID:            p.ID,
				CreatedAt:     p.CreatedAt,
				Diagnosis:     p.Diagnosis,
				BMI:           p.BMI,
				DailyCalories: p.DailyCalories,
				HighRisk:      p.HighRisk,
			}
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleGetPlan(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := deps.Store.GetPlan(chi.URLParam(r, "id"))
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				httpError(w, http.StatusNotFound, "not_found", "plan not found")
				return
			}
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get plan: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
