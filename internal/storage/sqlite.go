package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database holding the nutrition/drug reference cache
// and the generated plan history.
type Store struct {
	db *sql.DB

	// Serializes compound cache read and write sections across request
	// threads. Fetches to the upstream services happen outside this lock.
	mu sync.Mutex
}

// Open opens (or creates) a SQLite database in dataDir and runs pending migrations.
// Pass ":memory:" as dataDir for an in-memory database (used by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "nutrition_cache.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	// Set busy timeout so concurrent access waits briefly instead of failing immediately.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate reads embedded SQL migration files and applies any that haven't been run yet.
func (s *Store) migrate() error {
	// Ensure schema_version table exists (bootstrap).
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort by filename to guarantee ascending order.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		// Check if already applied.
		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// AppliedMigrations returns the list of applied migration versions in ascending order.
func (s *Store) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// --- Reference-data cache ---

// tableFor maps a namespace to its table and column names. Each namespace has
// an independent key space and table.
func tableFor(ns Namespace) (table, keyCol, dataCol string, err error) {
	switch ns {
	case NamespaceFood:
		return "food_nutrition", "food_name", "nutrition_data", nil
	case NamespaceDrug:
		return "drug_guidance", "drug_name", "guidance_data", nil
	default:
		return "", "", "", fmt.Errorf("unknown cache namespace %q", ns)
	}
}

// NormalizeKey lowercases and trims a cache key. All cache operations apply it,
// so "Metformin " and "metformin" address the same entry.
func NormalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// GetCacheEntry returns the entry for the normalized key, or ErrNotFound.
// Freshness is not evaluated here; callers compare CachedAt against their TTL.
func (s *Store) GetCacheEntry(ns Namespace, key string) (CacheEntry, error) {
	table, keyCol, dataCol, err := tableFor(ns)
	if err != nil {
		return CacheEntry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	norm := NormalizeKey(key)
	var data []byte
	var cachedAt string
	query := fmt.Sprintf("SELECT %s, cached_at FROM %s WHERE %s = ?", dataCol, table, keyCol)
	err = s.db.QueryRow(query, norm).Scan(&data, &cachedAt)
	if err == sql.ErrNoRows {
		return CacheEntry{}, ErrNotFound
	}
	if err != nil {
		return CacheEntry{}, fmt.Errorf("reading %s cache for %q: %w", ns, norm, err)
	}

	t, err := time.Parse(time.RFC3339, cachedAt)
	if err != nil {
		return CacheEntry{}, fmt.Errorf("parsing cached_at for %q: %w", norm, err)
	}
	return CacheEntry{Key: norm, Data: data, CachedAt: t}, nil
}

// PutCacheEntry upserts the entry for the normalized key, stamping the current
// time. At most one entry exists per key per namespace.
func (s *Store) PutCacheEntry(ns Namespace, key string, data []byte) error {
	return s.putCacheEntryAt(ns, key, data, time.Now().UTC())
}

func (s *Store) putCacheEntryAt(ns Namespace, key string, data []byte, at time.Time) error {
	table, keyCol, dataCol, err := tableFor(ns)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	norm := NormalizeKey(key)
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, cached_at) VALUES (?, ?, ?)
		ON CONFLICT(%s) DO UPDATE SET %s = excluded.%s, cached_at = excluded.cached_at`,
		table, keyCol, dataCol, keyCol, dataCol, dataCol)
	if _, err := s.db.Exec(query, norm, data, at.Format(time.RFC3339)); err != nil {
		return fmt.Errorf("writing %s cache for %q: %w", ns, norm, err)
	}
	return nil
}

// --- Plan history ---

func (s *Store) SavePlan(p Plan) error {
	_, err := s.db.Exec(`
		INSERT INTO plans (id, created_at, diagnosis, medications, bmi, bmr, daily_calories, plan_text, high_risk)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.CreatedAt.UTC().Format(time.RFC3339), p.Diagnosis, p.Medications,
		p.BMI, p.BMR, p.DailyCalories, p.PlanText, p.HighRisk,
	)
	return err
}

func (s *Store) GetPlan(id string) (Plan, error) {
	var p Plan
	var createdAt string
	err := s.db.QueryRow(`
		SELECT id, created_at, diagnosis, medications, bmi, bmr, daily_calories, plan_text, high_risk
		FROM plans WHERE id = ?`, id,
	).Scan(&p.ID, &createdAt, &p.Diagnosis, &p.Medications, &p.BMI, &p.BMR, &p.DailyCalories, &p.PlanText, &p.HighRisk)
	if err == sql.ErrNoRows {
		return Plan{}, ErrNotFound
	}
	if err != nil {
		return Plan{}, err
	}
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return Plan{}, fmt.Errorf("parsing created_at: %w", err)
	}
	p.CreatedAt = t
	return p, nil
}

func (s *Store) ListPlans(limit int) ([]Plan, error) {
	rows, err := s.db.Query(`
		SELECT id, created_at, diagnosis, medications, bmi, bmr, daily_calories, plan_text, high_risk
		FROM plans ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Plan
	for rows.Next() {
		var p Plan
		var createdAt string
		if err := rows.Scan(&p.ID, &createdAt, &p.Diagnosis, &p.Medications, &p.BMI, &p.BMR, &p.DailyCalories, &p.PlanText, &p.HighRisk); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		p.CreatedAt = t
		results = append(results, p)
	}
	return results, rows.Err()
}
