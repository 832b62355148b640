// Package planner turns a health questionnaire into a generated diet plan:
// physiological metrics, medical-text normalization, prompt construction,
// LLM delegation, and plan persistence.
package planner

import "math"

// BMR computes the basal metabolic rate with the Harris-Benedict equation.
// Weight is in kilograms, height in centimeters. Any gender other than male
// uses the female coefficients.
func BMR(age, weight, height float64, gender string) float64 {
	if gender == "male" {
		return 88.362 + 13.397*weight + 4.799*height - 5.677*age
	}
	return 447.593 + 9.247*weight + 3.098*height - 4.330*age
}

// BMI computes the body mass index from weight in kilograms and height in
// centimeters, rounded to one decimal.
func BMI(weight, height float64) float64 {
	m := height / 100
	return math.Round(weight/(m*m)*10) / 10
}

// BMICategory carries the classification and the calorie adjustment factor
// applied on top of the activity-scaled BMR.
type BMICategory struct {
	Category          string
	Advice            string
	Priority          string
	CalorieAdjustment float64
}

// CategorizeBMI maps a BMI value onto the standard WHO bands.
func CategorizeBMI(bmi float64) BMICategory {
	switch {
	case bmi < 18.5:
		return BMICategory{
			Category:          "Underweight",
			Advice:            "Focus on healthy weight gain with nutrient-dense foods",
			Priority:          "Weight gain through healthy foods",
			CalorieAdjustment: 1.15,
		}
	case bmi < 25:
		return BMICategory{
			Category:          "Normal weight",
			Advice:            "Maintain current weight with balanced nutrition",
			Priority:          "Maintenance and optimal nutrition",
			CalorieAdjustment: 1.0,
		}
	case bmi < 30:
		return BMICategory{
			Category:          "Overweight",
			Advice:            "Gradual weight loss through moderate calorie deficit",
			Priority:          "Sustainable weight loss",
			CalorieAdjustment: 0.85,
		}
	default:
		return BMICategory{
			Category:          "Obese",
			Advice:            "Significant weight loss recommended",
			Priority:          "Medically supervised weight loss",
			CalorieAdjustment: 0.75,
		}
	}
}

var activityMultipliers = map[string]float64{
	"sedentary":   1.2,
	"light":       1.375,
	"moderate":    1.55,
	"active":      1.725,
	"very_active": 1.9,
}

// DailyCalories computes the target intake: BMR scaled by activity level,
// adjusted for the BMI band, then shifted for the stated goal. Unrecognized
// activity levels fall back to moderate.
func DailyCalories(bmr float64, activityLevel, goal string, bmiAdjustment float64) int {
	mult, ok := activityMultipliers[activityLevel]
	if !ok {
		mult = activityMultipliers["moderate"]
	}

	calories := bmr * mult * bmiAdjustment
	switch goal {
	case "lose_fat":
		calories *= 0.9
	case "gain_muscle":
		calories *= 1.1
	}
	return int(calories)
}
