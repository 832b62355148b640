package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Nutrition NutritionService
}

// NewMCPServer creates an MCP server exposing the reference-data lookups as
// tools, so agent clients can query nutrition facts and drug guidance through
// the same cache-or-fetch pipeline the planner uses.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"dietplan",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions("dietplan — USDA food nutrition and RxNorm drug-food guidance lookups."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("food_nutrition",
			mcp.WithDescription("Look up USDA-verified nutrition facts (per 100g) for a food by name."),
			mcp.WithString("food", mcp.Description("Free-text food name, e.g. \"apple\""), mcp.Required()),
		),
		mcpFoodNutrition(deps),
	)

	s.AddTool(
		mcp.NewTool("drug_guidance",
			mcp.WithDescription("Look up food restrictions, timing recommendations, and special considerations for a medication."),
			mcp.WithString("medication", mcp.Description("Medication name, e.g. \"metformin\""), mcp.Required()),
		),
		mcpDrugGuidance(deps),
	)

	s.AddTool(
		mcp.NewTool("test_connections",
			mcp.WithDescription("Probe the USDA and RxNorm upstream services and report per-service status."),
		),
		mcpTestConnections(deps),
	)

	return s
}

func mcpFoodNutrition(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if deps.Nutrition == nil {
			return mcpError("nutrition database not initialized"), nil
		}
		food, err := req.RequireString("food")
		if err != nil {
			return mcpError("food is required"), nil
		}

		rec := deps.Nutrition.FoodSummary(ctx, food)
		return mcpJSON(rec)
	}
}

func mcpDrugGuidance(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if deps.Nutrition == nil {
			return mcpError("nutrition database not initialized"), nil
		}
		medication, err := req.RequireString("medication")
		if err != nil {
			return mcpError("medication is required"), nil
		}

		rec := deps.Nutrition.DrugGuidance(ctx, medication)
		return mcpJSON(rec)
	}
}

func mcpTestConnections(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if deps.Nutrition == nil {
			return mcpError("nutrition database not initialized"), nil
		}
		return mcpJSON(deps.Nutrition.TestConnections(ctx))
	}
}

func mcpJSON(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcpText(string(b)), nil
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
