package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/wickedtornado/diet-planning/internal/nutrition"
	"github.com/wickedtornado/diet-planning/internal/planner"
	"github.com/wickedtornado/diet-planning/internal/storage"
	"github.com/wickedtornado/diet-planning/internal/usda"
)

// --- mocks ---

type mockPlanner struct {
	result planner.Result
	err    error
	gotIn  planner.Intake
}

func (m *mockPlanner) Generate(_ context.Context, in planner.Intake) (planner.Result, error) {
	m.gotIn = in
	return m.result, m.err
}

type mockNutrition struct{}

func (mockNutrition) FoodSummary(_ context.Context, name string) nutrition.FoodRecord {
	return nutrition.FoodRecord{
		Nutrition:    usda.Nutrition{FoodName: name, Calories: 52},
		USDAVerified: true,
	}
}

func (mockNutrition) DrugGuidance(_ context.Context, med string) nutrition.GuidanceRecord {
	return nutrition.GuidanceRecord{
		Medication:   med,
		RxNormFound:  true,
		Restrictions: []string{"Limit alcohol consumption"},
	}
}

func (mockNutrition) TestConnections(_ context.Context) nutrition.Diagnostics {
	return nutrition.Diagnostics{
		USDA:   nutrition.ServiceStatus{Status: "success", Message: "USDA API working"},
		RxNorm: nutrition.ServiceStatus{Status: "success", Message: "RxNorm API working"},
	}
}

// --- helpers ---

func newTestDeps(t *testing.T, p PlanGenerator) Deps {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return Deps{Planner: p, Nutrition: mockNutrition{}, Store: store}
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// --- tests ---

func TestHealth(t *testing.T) {
	h := NewHandler(newTestDeps(t, &mockPlanner{}))
	w := doJSON(t, h, http.MethodGet, "/health", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["status"] != "healthy" || resp["nutrition_db_active"] != true {
		t.Errorf("resp = %v", resp)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("CORS origin = %q", got)
	}
}

func TestGenerateDiet(t *testing.T) {
	mp := &mockPlanner{result: planner.Result{
		PlanID:        "p-1",
		BMI:           24.2,
		DailyCalories: 2600,
		DietPlan:      "CLINICAL ASSESSMENT: ...",
	}}
	h := NewHandler(newTestDeps(t, mp))

	w := doJSON(t, h, http.MethodPost, "/generate_diet", map[string]any{
		"age": "45", "gender": "female", "height": 165, "weight": "80",
		"diagnosis": "diabetes", "medicines": "metformin",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	// String and numeric form values both land in the intake.
	if mp.gotIn.Age != 45 || mp.gotIn.Height != 165 || mp.gotIn.Weight != 80 {
		t.Errorf("intake = %+v", mp.gotIn)
	}
	if mp.gotIn.DietGoal != "balanced" {
		t.Errorf("DietGoal = %q, want questionnaire default", mp.gotIn.DietGoal)
	}

	var resp planner.Result
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.PlanID != "p-1" || resp.DailyCalories != 2600 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestGenerateDietBadBody(t *testing.T) {
	h := NewHandler(newTestDeps(t, &mockPlanner{}))
	req := httptest.NewRequest(http.MethodPost, "/generate_diet", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestGenerateDietUpstreamFailure(t *testing.T) {
	h := NewHandler(newTestDeps(t, &mockPlanner{err: errors.New("llm down")}))
	w := doJSON(t, h, http.MethodPost, "/generate_diet", map[string]any{"age": 30})

	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
}

func TestDownloadPDF(t *testing.T) {
	h := NewHandler(newTestDeps(t, &mockPlanner{}))
	w := doJSON(t, h, http.MethodPost, "/download_pdf", map[string]any{
		"result": planner.Result{
			BMR: 1700, BMI: 24.2, BMICategory: "Normal weight", DailyCalories: 2600,
			DietPlan:    "CLINICAL ASSESSMENT:\nAll good.",
			GeneratedAt: time.Now(),
		},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Content-Type"); got != "application/pdf" {
		t.Errorf("Content-Type = %q", got)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")) {
		t.Error("body is not a PDF")
	}
}

func TestDownloadPDFRequiresPlanText(t *testing.T) {
	h := NewHandler(newTestDeps(t, &mockPlanner{}))
	w := doJSON(t, h, http.MethodPost, "/download_pdf", map[string]any{"result": planner.Result{}})

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestFoodLookup(t *testing.T) {
	h := NewHandler(newTestDeps(t, &mockPlanner{}))
	w := doJSON(t, h, http.MethodGet, "/nutrition/foods/apple", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var rec nutrition.FoodRecord
	json.Unmarshal(w.Body.Bytes(), &rec)
	if rec.FoodName != "apple" || !rec.USDAVerified {
		t.Errorf("rec = %+v", rec)
	}
}

func TestDrugLookup(t *testing.T) {
	h := NewHandler(newTestDeps(t, &mockPlanner{}))
	w := doJSON(t, h, http.MethodGet, "/nutrition/drugs/metformin", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var rec nutrition.GuidanceRecord
	json.Unmarshal(w.Body.Bytes(), &rec)
	if rec.Medication != "metformin" || !rec.RxNormFound {
		t.Errorf("rec = %+v", rec)
	}
}

func TestNutritionRoutesWithoutDatabase(t *testing.T) {
	deps := newTestDeps(t, &mockPlanner{})
	deps.Nutrition = nil
	h := NewHandler(deps)

	w := doJSON(t, h, http.MethodGet, "/nutrition/foods/apple", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}

	w = doJSON(t, h, http.MethodGet, "/test_nutrition_db", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["success"] != false {
		t.Errorf("resp = %v", resp)
	}
}

func TestTestNutritionDB(t *testing.T) {
	h := NewHandler(newTestDeps(t, &mockPlanner{}))
	w := doJSON(t, h, http.MethodGet, "/test_nutrition_db", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Success   bool `json:"success"`
		APIStatus struct {
			USDA nutrition.ServiceStatus `json:"usda"`
		} `json:"api_status"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Success || resp.APIStatus.USDA.Status != "success" {
		t.Errorf("resp body = %s", w.Body.String())
	}
}

func TestPlanHistoryRoutes(t *testing.T) {
	deps := newTestDeps(t, &mockPlanner{})
	if err := deps.Store.SavePlan(storage.Plan{
		ID:            "plan-1",
		CreatedAt:     time.Now(),
		Diagnosis:     "diabetes",
		BMI:           24.2,
		DailyCalories: 2600,
		PlanText:      "text",
	}); err != nil {
		t.Fatalf("SavePlan: %v", err)
	}
	h := NewHandler(deps)

	w := doJSON(t, h, http.MethodGet, "/plans", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var plans []map[string]any
	json.Unmarshal(w.Body.Bytes(), &plans)
	if len(plans) != 1 || plans[0]["id"] != "plan-1" {
		t.Errorf("plans = %v", plans)
	}

	w = doJSON(t, h, http.MethodGet, "/plans/plan-1", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}

	w = doJSON(t, h, http.MethodGet, "/plans/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
