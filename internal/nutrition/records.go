package nutrition

import "github.com/wickedtornado/diet-planning/internal/usda"

// FoodRecord is the cacheable result of a food lookup. A failed lookup still
// yields a well-shaped record: Err carries the reason and USDAVerified stays
// false, so callers can render numeric fields as "Unknown".
type FoodRecord struct {
	usda.Nutrition
	USDAVerified bool   `json:"usda_verified"`
	Err          string `json:"error,omitempty"`
}

// GuidanceRecord is the cacheable result of a drug lookup. The fallback policy
// guarantees the restriction and timing lists are never empty: when RxNorm has
// nothing, the built-in knowledge base fills them in.
type GuidanceRecord struct {
	Medication     string   `json:"medication"`
	RxNormFound    bool     `json:"rxnorm_found"`
	BuiltIn        bool     `json:"built_in_guidance"`
	Restrictions   []string `json:"food_restrictions"`
	Timing         []string `json:"timing_recommendations"`
	Considerations []string `json:"special_considerations"`
	Err            string   `json:"error,omitempty"`
}

// ServiceStatus is one service's connectivity probe result.
type ServiceStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Diagnostics reports connectivity per upstream service.
type Diagnostics struct {
	USDA   ServiceStatus `json:"usda"`
	RxNorm ServiceStatus `json:"rxnorm"`
}
