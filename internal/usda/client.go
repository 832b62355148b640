// Package usda is a client for the USDA FoodData Central API. Lookups follow
// a two-step protocol: a free-text search resolves the best-matching FDC ID,
// then a detail request returns the full nutrient breakdown.
package usda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.nal.usda.gov/fdc/v1"
	requestTimeout = 15 * time.Second
)

// ErrFoodNotFound is returned when the search yields zero candidates.
var ErrFoodNotFound = errors.New("food not found in USDA database")

// dataTypes restricts search results to the preferred data-quality tiers.
var dataTypes = []string{"Foundation", "SR Legacy", "Branded"}

// Nutrition is the parsed per-100g nutrient breakdown for one food.
type Nutrition struct {
	FoodName    string            `json:"food_name"`
	Calories    float64           `json:"calories_per_100g"`
	ProteinG    float64           `json:"protein_g"`
	CarbsG      float64           `json:"carbs_g"`
	FatG        float64           `json:"fat_g"`
	FiberG      float64           `json:"fiber_g"`
	SodiumMg    float64           `json:"sodium_mg"`
	PotassiumMg float64           `json:"potassium_mg"`
	KeyVitamins map[string]string `json:"key_vitamins"`
	KeyMinerals map[string]string `json:"key_minerals"`
}

// Client communicates with the FoodData Central API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client with the given API key.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{},
	}
}

// NewClientWithBaseURL creates a client pointing at a custom base URL (for testing).
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	c := NewClient(apiKey)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// searchResponse mirrors the JSON returned by GET /foods/search.
type searchResponse struct {
	Foods []struct {
		FDCID       int64  `json:"fdcId"`
		Description string `json:"description"`
	} `json:"foods"`
}

// foodDetail mirrors the JSON returned by GET /food/{id}.
type foodDetail struct {
	Description   string `json:"description"`
	FoodNutrients []struct {
		Nutrient struct {
			Name     string `json:"name"`
			UnitName string `json:"unitName"`
		} `json:"nutrient"`
		Amount float64 `json:"amount"`
	} `json:"foodNutrients"`
}

// FetchNutrition resolves a free-text food name to its nutrient breakdown.
// Returns ErrFoodNotFound when the search has no candidates; any transport or
// decode failure is returned wrapped so callers can degrade to a placeholder.
func (c *Client) FetchNutrition(ctx context.Context, foodName string) (Nutrition, error) {
	fdcID, err := c.search(ctx, foodName)
	if err != nil {
		return Nutrition{}, err
	}
	return c.detail(ctx, fdcID, foodName)
}

// search requests exactly one best match constrained to the preferred data tiers.
func (c *Client) search(ctx context.Context, query string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("query", query)
	for _, dt := range dataTypes {
		params.Add("dataType", dt)
	}
	params.Set("pageSize", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/foods/search?"+params.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("creating search request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("food search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("food search: unexpected status %d", resp.StatusCode)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("decoding search response: %w", err)
	}

	if len(result.Foods) == 0 {
		return 0, ErrFoodNotFound
	}
	return result.Foods[0].FDCID, nil
}

// detail fetches the nutrient list for an FDC ID and parses the key nutrients.
func (c *Client) detail(ctx context.Context, fdcID int64, fallbackName string) (Nutrition, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	reqURL := fmt.Sprintf("%s/food/%d?api_key=%s", c.baseURL, fdcID, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Nutrition{}, fmt.Errorf("creating detail request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Nutrition{}, fmt.Errorf("food detail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Nutrition{}, fmt.Errorf("food detail: unexpected status %d", resp.StatusCode)
	}

	var detail foodDetail
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		return Nutrition{}, fmt.Errorf("decoding detail response: %w", err)
	}

	n := Nutrition{
		FoodName:    detail.Description,
		KeyVitamins: make(map[string]string),
		KeyMinerals: make(map[string]string),
	}
	if n.FoodName == "" {
		n.FoodName = fallbackName
	}

	for _, fn := range detail.FoodNutrients {
		name := strings.ToLower(fn.Nutrient.Name)
		unit := fn.Nutrient.UnitName
		amount := round1(fn.Amount)

		switch {
		case strings.Contains(name, "energy") && unit == "KCAL":
			n.Calories = amount
		case strings.Contains(name, "protein"):
			n.ProteinG = amount
		case strings.Contains(name, "carbohydrate, by difference"):
			n.CarbsG = amount
		case strings.Contains(name, "total lipid (fat)"):
			n.FatG = amount
		case strings.Contains(name, "fiber, total dietary"):
			n.FiberG = amount
		case strings.Contains(name, "sodium, na"):
			n.SodiumMg = amount
		case strings.Contains(name, "potassium, k"):
			n.PotassiumMg = amount
		case strings.Contains(name, "vitamin c"):
			n.KeyVitamins["Vitamin C"] = formatAmount(amount, unit)
		case strings.Contains(name, "vitamin a") && strings.Contains(strings.ToLower(unit), "iu"):
			n.KeyVitamins["Vitamin A"] = formatAmount(amount, unit)
		case strings.Contains(name, "calcium, ca"):
			n.KeyMinerals["Calcium"] = formatAmount(amount, unit)
		case strings.Contains(name, "iron, fe"):
			n.KeyMinerals["Iron"] = formatAmount(amount, unit)
		}
	}

	return n, nil
}

func formatAmount(amount float64, unit string) string {
	return fmt.Sprintf("%.1f %s", amount, unit)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
