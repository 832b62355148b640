package api

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wickedtornado/diet-planning/internal/nutrition"
)

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func makeCallToolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func TestMCPTool_FoodNutrition(t *testing.T) {
	handler := mcpFoodNutrition(MCPDeps{Nutrition: mockNutrition{}})

	result, err := handler(context.Background(), makeCallToolRequest("food_nutrition", map[string]interface{}{
		"food": "apple",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool error: %s", toolText(t, result))
	}

	var rec nutrition.FoodRecord
	if err := json.Unmarshal([]byte(toolText(t, result)), &rec); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if rec.FoodName != "apple" || rec.Calories != 52 {
		t.Errorf("rec = %+v", rec)
	}
}

func TestMCPTool_FoodNutritionMissingArg(t *testing.T) {
	handler := mcpFoodNutrition(MCPDeps{Nutrition: mockNutrition{}})

	result, err := handler(context.Background(), makeCallToolRequest("food_nutrition", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error for missing argument")
	}
}

func TestMCPTool_DrugGuidance(t *testing.T) {
	handler := mcpDrugGuidance(MCPDeps{Nutrition: mockNutrition{}})

	result, err := handler(context.Background(), makeCallToolRequest("drug_guidance", map[string]interface{}{
		"medication": "metformin",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool error: %s", toolText(t, result))
	}

	var rec nutrition.GuidanceRecord
	if err := json.Unmarshal([]byte(toolText(t, result)), &rec); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if rec.Medication != "metformin" || len(rec.Restrictions) == 0 {
		t.Errorf("rec = %+v", rec)
	}
}

func TestMCPTool_TestConnections(t *testing.T) {
	handler := mcpTestConnections(MCPDeps{Nutrition: mockNutrition{}})

	result, err := handler(context.Background(), makeCallToolRequest("test_connections", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool error: %s", toolText(t, result))
	}
	if !strings.Contains(toolText(t, result), "USDA API working") {
		t.Errorf("result = %s", toolText(t, result))
	}
}

func TestMCPTool_WithoutDatabase(t *testing.T) {
	handler := mcpFoodNutrition(MCPDeps{})

	result, err := handler(context.Background(), makeCallToolRequest("food_nutrition", map[string]interface{}{
		"food": "apple",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error when nutrition database is absent")
	}
}
