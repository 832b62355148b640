package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Namespace identifies one of the two independent cache key spaces.
type Namespace string

const (
	NamespaceFood Namespace = "food_nutrition"
	NamespaceDrug Namespace = "drug_guidance"
)

// CacheEntry wraps a serialized record with its capture timestamp. The store
// never judges freshness; callers compare CachedAt against their namespace TTL.
type CacheEntry struct {
	Key      string
	Data     []byte
	CachedAt time.Time
}

// Age returns how long ago the entry was written, relative to now.
func (e CacheEntry) Age(now time.Time) time.Duration {
	return now.Sub(e.CachedAt)
}

// Plan is one generated diet plan kept for history.
type Plan struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	Diagnosis     string    `json:"diagnosis"`
	Medications   string    `json:"medications"`
	BMI           float64   `json:"bmi"`
	BMR           int       `json:"bmr"`
	DailyCalories int       `json:"daily_calories"`
	PlanText      string    `json:"plan_text"`
	HighRisk      bool      `json:"high_risk"`
}
