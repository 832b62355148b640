package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wickedtornado/diet-planning/internal/nutrition"
)

// --- lookup ---

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Look up reference data through the running server",
}

var lookupFoodCmd = &cobra.Command{
	Use:   "food <name>",
	Short: "Look up USDA nutrition facts for a food",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		var rec nutrition.FoodRecord
		if err := client.getJSON(cmd.Context(), "/nutrition/foods/"+args[0], &rec); err != nil {
			return err
		}

		if rec.Err != "" {
			printWarning("%s", rec.Err)
		}
		printStatus("Food", "%s", rec.FoodName)
		if rec.USDAVerified {
			printStatus("Calories/100g", "%.1f", rec.Calories)
			printStatus("Protein", "%.1f g", rec.ProteinG)
			printStatus("Carbs", "%.1f g", rec.CarbsG)
			printStatus("Fat", "%.1f g", rec.FatG)
			printStatus("Fiber", "%.1f g", rec.FiberG)
			printSuccess("USDA verified")
		} else {
			printStatus("Calories/100g", "Unknown")
		}
		return nil
	},
}

var lookupDrugCmd = &cobra.Command{
	Use:   "drug <name>",
	Short: "Look up food-drug guidance for a medication",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		var rec nutrition.GuidanceRecord
		if err := client.getJSON(cmd.Context(), "/nutrition/drugs/"+args[0], &rec); err != nil {
			return err
		}

		if rec.Err != "" {
			printWarning("%s", rec.Err)
		}
		printStatus("Medication", "%s", rec.Medication)
		source := "built-in knowledge base"
		if rec.RxNormFound {
			source = "RxNorm"
		}
		printStatus("Source", "%s", source)
		printList("Food restrictions", rec.Restrictions)
		printList("Timing", rec.Timing)
		printList("Considerations", rec.Considerations)
		return nil
	},
}

// --- diagnose ---

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Probe the USDA and RxNorm upstream services",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		var resp struct {
			Success   bool                  `json:"success"`
			Error     string                `json:"error"`
			APIStatus nutrition.Diagnostics `json:"api_status"`
		}
		if err := client.getJSON(cmd.Context(), "/test_nutrition_db", &resp); err != nil {
			return err
		}
		if !resp.Success {
			printError("%s", resp.Error)
			return nil
		}

		printServiceStatus("USDA", resp.APIStatus.USDA)
		printServiceStatus("RxNorm", resp.APIStatus.RxNorm)
		return nil
	},
}

func printServiceStatus(name string, s nutrition.ServiceStatus) {
	if s.Status == "success" {
		printSuccess("%s: %s", name, s.Message)
	} else {
		printError("%s: %s", name, s.Message)
	}
}

// --- plans ---

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "List recently generated diet plans",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		var plans []struct {
			ID            string  `json:"id"`
			CreatedAt     string  `json:"created_at"`
			Diagnosis     string  `json:"diagnosis"`
			BMI           float64 `json:"bmi"`
			DailyCalories int     `json:"daily_calories"`
			HighRisk      bool    `json:"high_risk"`
		}
		if err := client.getJSON(cmd.Context(), "/plans", &plans); err != nil {
			return err
		}

		if len(plans) == 0 {
			printStep("no plans generated yet")
			return nil
		}
		for _, p := range plans {
			risk := ""
			if p.HighRisk {
				risk = " [high risk]"
			}
			fmt.Printf("%s  %s  BMI %.1f  %d kcal  %s%s\n",
				p.ID, p.CreatedAt, p.BMI, p.DailyCalories, p.Diagnosis, risk)
		}
		return nil
	},
}

func printList(label string, items []string) {
	if len(items) == 0 {
		return
	}
	printStatus(label, "%s", strings.Join(items, "; "))
}

func init() {
	lookupCmd.AddCommand(lookupFoodCmd)
	lookupCmd.AddCommand(lookupDrugCmd)
}
