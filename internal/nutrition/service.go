// Package nutrition orchestrates the reference-data enrichment pipeline:
// cache lookup, fetch-or-fallback against the USDA and RxNorm services,
// guidance fusion, and cache write-back.
package nutrition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/wickedtornado/diet-planning/internal/fusion"
	"github.com/wickedtornado/diet-planning/internal/knowledge"
	"github.com/wickedtornado/diet-planning/internal/rxnorm"
	"github.com/wickedtornado/diet-planning/internal/storage"
	"github.com/wickedtornado/diet-planning/internal/usda"
)

// Validity windows per cache namespace. Drug guidance changes far less often
// than the branded-food portion of FoodData Central.
const (
	FoodTTL = 30 * 24 * time.Hour
	DrugTTL = 90 * 24 * time.Hour
)

// FoodFetcher is the USDA client surface the service needs.
type FoodFetcher interface {
	FetchNutrition(ctx context.Context, foodName string) (usda.Nutrition, error)
}

// DrugFetcher is the RxNorm client surface the service needs.
type DrugFetcher interface {
	FindRxCUI(ctx context.Context, drugName string) (string, error)
	Interactions(ctx context.Context, rxcui string) ([]rxnorm.Interaction, error)
}

// Clock abstracts time for TTL testing.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Service is the explicit context object for all reference-data operations.
// Constructed once at startup; safe for concurrent use.
type Service struct {
	store *storage.Store
	foods FoodFetcher
	drugs DrugFetcher
	clock Clock

	// Collapses concurrent fetches for the same cold key into one upstream
	// call; all waiters share the winner's record.
	group singleflight.Group
}

// NewService wires the service to its store and upstream clients.
func NewService(store *storage.Store, foods FoodFetcher, drugs DrugFetcher) *Service {
	return &Service{store: store, foods: foods, drugs: drugs, clock: realClock{}}
}

// NewServiceWithClock creates a Service with a custom clock (for testing).
func NewServiceWithClock(store *storage.Store, foods FoodFetcher, drugs DrugFetcher, clock Clock) *Service {
	return &Service{store: store, foods: foods, drugs: drugs, clock: clock}
}

// FoodSummary returns the nutrition record for a food name, consulting the
// cache first (30-day validity) and falling back to a placeholder record on
// any fetch failure. It never returns an error: a single food lookup failure
// must not abort the enrichment pipeline.
func (s *Service) FoodSummary(ctx context.Context, foodName string) FoodRecord {
	key := storage.NormalizeKey(foodName)

	if rec, ok := cachedRecord[FoodRecord](s, storage.NamespaceFood, key, FoodTTL); ok {
		return rec
	}

	v, _, _ := s.group.Do("food:"+key, func() (any, error) {
		rec, cacheable := s.fetchFood(ctx, foodName)
		if cacheable {
			s.writeBack(storage.NamespaceFood, key, rec)
		}
		return rec, nil
	})
	return v.(FoodRecord)
}

// fetchFood performs the live lookup. The second return value reports whether
// the record should be cached: definitive results (live data, not-found) are
// cached, transient transport failures are not, so the next request retries.
func (s *Service) fetchFood(ctx context.Context, foodName string) (FoodRecord, bool) {
	n, err := s.foods.FetchNutrition(ctx, foodName)
	switch {
	case err == nil:
		return FoodRecord{Nutrition: n, USDAVerified: true}, true
	case errors.Is(err, usda.ErrFoodNotFound):
		return placeholderFood(foodName, "Food not found in USDA database"), true
	default:
		slog.Warn("food fetch failed", "food", foodName, "error", err)
		return placeholderFood(foodName, fmt.Sprintf("Nutrition data unavailable: %v", err)), false
	}
}

func placeholderFood(foodName, reason string) FoodRecord {
	return FoodRecord{
		Nutrition: usda.Nutrition{
			FoodName:    foodName,
			KeyVitamins: map[string]string{},
			KeyMinerals: map[string]string{},
		},
		Err: reason,
	}
}

// DrugGuidance returns the drug-food guidance record for a medication,
// consulting the cache first (90-day validity). The fallback chain guarantees
// some guidance is always produced: RxNorm interactions when available,
// otherwise the built-in knowledge base, otherwise generic advice. It never
// returns an error.
func (s *Service) DrugGuidance(ctx context.Context, medication string) GuidanceRecord {
	key := storage.NormalizeKey(medication)

	if rec, ok := cachedRecord[GuidanceRecord](s, storage.NamespaceDrug, key, DrugTTL); ok {
		return rec
	}

	v, _, _ := s.group.Do("drug:"+key, func() (any, error) {
		rec, cacheable := s.fetchGuidance(ctx, medication)
		if cacheable {
			s.writeBack(storage.NamespaceDrug, key, rec)
		}
		return rec, nil
	})
	return v.(GuidanceRecord)
}

// fetchGuidance runs the two-step RxNorm lookup with explicit fallbacks at
// each step. Every exit path yields a usable record. Transport failures on
// the identifier lookup mark the record with an error reason (so diagnostics
// can see the outage) and are not cached; definitive results are cached.
func (s *Service) fetchGuidance(ctx context.Context, medication string) (GuidanceRecord, bool) {
	rxcui, err := s.drugs.FindRxCUI(ctx, medication)
	if err != nil {
		if errors.Is(err, rxnorm.ErrDrugNotFound) {
			return s.builtInGuidance(medication), true
		}
		slog.Warn("rxcui lookup failed, using built-in guidance", "medication", medication, "error", err)
		rec := s.builtInGuidance(medication)
		rec.Err = fmt.Sprintf("Drug interaction data unavailable: %v", err)
		return rec, false
	}

	interactions, err := s.drugs.Interactions(ctx, rxcui)
	if err != nil {
		// The drug exists; only the interaction feed is down. The curated
		// guidance is still definitive enough to cache.
		slog.Warn("interaction lookup failed, using built-in guidance", "medication", medication, "error", err)
		return s.builtInGuidance(medication), true
	}

	g := fusion.Fuse(medication, interactions)
	return GuidanceRecord{
		Medication:     medication,
		RxNormFound:    true,
		Restrictions:   g.Restrictions,
		Timing:         g.Timing,
		Considerations: g.Considerations,
	}, true
}

// builtInGuidance builds the fallback record from the curated table (or the
// generic triple), merged with the evidence-based supplement exactly like the
// live path.
func (s *Service) builtInGuidance(medication string) GuidanceRecord {
	_, base, ok := knowledge.Lookup(medication)
	if !ok {
		base = knowledge.Generic()
	}

	g := fusion.Merge(base, fusion.Fuse(medication, nil))
	return GuidanceRecord{
		Medication:     medication,
		RxNormFound:    false,
		BuiltIn:        true,
		Restrictions:   g.Restrictions,
		Timing:         g.Timing,
		Considerations: g.Considerations,
	}
}

// cachedRecord returns a decoded cache entry when present and fresh. Entries
// older than the TTL are left in place; the caller's write-back overwrites
// them. Undecodable entries are treated as misses.
func cachedRecord[T any](s *Service, ns storage.Namespace, key string, ttl time.Duration) (T, bool) {
	var rec T
	entry, err := s.store.GetCacheEntry(ns, key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			slog.Warn("cache read failed", "namespace", ns, "key", key, "error", err)
		}
		return rec, false
	}
	if entry.Age(s.clock.Now()) >= ttl {
		return rec, false
	}
	if err := json.Unmarshal(entry.Data, &rec); err != nil {
		slog.Warn("cache entry undecodable, refetching", "namespace", ns, "key", key, "error", err)
		return rec, false
	}
	return rec, true
}

// writeBack persists a record. Write failures are logged, not propagated: a
// degraded cache must not fail a request that already has its answer.
func (s *Service) writeBack(ns storage.Namespace, key string, rec any) {
	data, err := json.Marshal(rec)
	if err != nil {
		slog.Warn("cache marshal failed", "namespace", ns, "key", key, "error", err)
		return
	}
	if err := s.store.PutCacheEntry(ns, key, data); err != nil {
		slog.Warn("cache write failed", "namespace", ns, "key", key, "error", err)
	}
}

// TestConnections probes both upstream services through the full
// cache-or-fetch pipeline using canonical known-good lookups. Both probes run
// concurrently; neither can fail the other, and the function never errors.
func (s *Service) TestConnections(ctx context.Context) Diagnostics {
	var d Diagnostics

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rec := s.FoodSummary(ctx, "apple")
		if rec.Err != "" {
			d.USDA = ServiceStatus{Status: "error", Message: rec.Err}
		} else {
			d.USDA = ServiceStatus{Status: "success", Message: "USDA API working"}
		}
		return nil
	})
	g.Go(func() error {
		rec := s.DrugGuidance(ctx, "aspirin")
		if rec.Err != "" {
			d.RxNorm = ServiceStatus{Status: "error", Message: rec.Err}
		} else {
			d.RxNorm = ServiceStatus{Status: "success", Message: "RxNorm API working"}
		}
		return nil
	})
	g.Wait()

	return d
}
