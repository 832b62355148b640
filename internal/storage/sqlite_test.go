package storage

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestMigrationsIdempotent runs Open twice on the same database and verifies
// the schema_version count stays correct (migration not re-applied).
func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}

	v1, err := s1.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	s1.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer s2.Close()

	v2, err := s2.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}

	if len(v1) != len(v2) {
		t.Errorf("migration count changed: %d -> %d", len(v1), len(v2))
	}
}

func TestCacheRoundtrip(t *testing.T) {
	s := openTestStore(t)

	for _, ns := range []Namespace{NamespaceFood, NamespaceDrug} {
		t.Run(string(ns), func(t *testing.T) {
			if err := s.PutCacheEntry(ns, "Apple ", []byte(`{"a":1}`)); err != nil {
				t.Fatalf("PutCacheEntry: %v", err)
			}

			entry, err := s.GetCacheEntry(ns, "apple")
			if err != nil {
				t.Fatalf("GetCacheEntry: %v", err)
			}
			if string(entry.Data) != `{"a":1}` {
				t.Errorf("data = %s, want %s", entry.Data, `{"a":1}`)
			}
			if entry.Key != "apple" {
				t.Errorf("key = %q, want %q", entry.Key, "apple")
			}
			if age := entry.Age(time.Now()); age < 0 || age > 5*time.Second {
				t.Errorf("age = %v, want near zero", age)
			}
		})
	}
}

func TestCacheMiss(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.GetCacheEntry(NamespaceFood, "nothere"); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// TestCacheUpsert verifies last-writer-wins: never more than one entry per key.
func TestCacheUpsert(t *testing.T) {
	s := openTestStore(t)

	if err := s.PutCacheEntry(NamespaceDrug, "metformin", []byte("old")); err != nil {
		t.Fatalf("first put: %v", err)
	}
	if err := s.PutCacheEntry(NamespaceDrug, "METFORMIN", []byte("new")); err != nil {
		t.Fatalf("second put: %v", err)
	}

	entry, err := s.GetCacheEntry(NamespaceDrug, "metformin")
	if err != nil {
		t.Fatalf("GetCacheEntry: %v", err)
	}
	if string(entry.Data) != "new" {
		t.Errorf("data = %s, want new", entry.Data)
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM drug_guidance").Scan(&count); err != nil {
		t.Fatalf("count query: %v", err)
	}
	if count != 1 {
		t.Errorf("row count = %d, want 1", count)
	}
}

// TestNamespacesIndependent verifies keys do not collide across namespaces.
func TestNamespacesIndependent(t *testing.T) {
	s := openTestStore(t)

	if err := s.PutCacheEntry(NamespaceFood, "apple", []byte("food")); err != nil {
		t.Fatalf("put food: %v", err)
	}
	if _, err := s.GetCacheEntry(NamespaceDrug, "apple"); err != ErrNotFound {
		t.Errorf("drug namespace err = %v, want ErrNotFound", err)
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	s := openTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("food-%d", n%4)
			if err := s.PutCacheEntry(NamespaceFood, key, []byte("x")); err != nil {
				t.Errorf("put %s: %v", key, err)
				return
			}
			if _, err := s.GetCacheEntry(NamespaceFood, key); err != nil {
				t.Errorf("get %s: %v", key, err)
			}
		}(i)
	}
	wg.Wait()
}

func TestPlanHistory(t *testing.T) {
	s := openTestStore(t)

	p := Plan{
		ID:            "plan-1",
		CreatedAt:     time.Now().UTC(),
		Diagnosis:     "type 2 diabetes",
		Medications:   "metformin",
		BMI:           27.4,
		BMR:           1620,
		DailyCalories: 2100,
		PlanText:      "CLINICAL ASSESSMENT: ...",
		HighRisk:      false,
	}
	if err := s.SavePlan(p); err != nil {
		t.Fatalf("SavePlan: %v", err)
	}

	got, err := s.GetPlan("plan-1")
	if err != nil {
		t.Fatalf("GetPlan: %v", err)
	}
	if got.Diagnosis != p.Diagnosis || got.DailyCalories != p.DailyCalories {
		t.Errorf("got %+v, want %+v", got, p)
	}

	list, err := s.ListPlans(10)
	if err != nil {
		t.Fatalf("ListPlans: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("list length = %d, want 1", len(list))
	}

	if _, err := s.GetPlan("missing"); err != ErrNotFound {
		t.Errorf("GetPlan(missing) err = %v, want ErrNotFound", err)
	}
}
