package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"vigil-hq/vigil/pkg/policy/ast"
)

// SQLiteBackend persists policy rules in SQLite using the pure-Go driver.
// Suitable for single-instance deployments; the registry serializes
// writes, so a single connection is enough.
type SQLiteBackend struct {
	db        *sql.DB
	dbPath    string
	mu        sync.Mutex
	closeOnce sync.Once
}

// SQLiteBackendConfig configures the SQLite backend.
type SQLiteBackendConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

const rulesSchema = `
CREATE TABLE IF NOT EXISTS policy_rules (
	code       TEXT PRIMARY KEY,
	version    INTEGER NOT NULL,
	status     TEXT NOT NULL,
	severity   TEXT NOT NULL,
	document   TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_policy_rules_status ON policy_rules(status);
`

// NewSQLiteBackend opens (or creates) a rule database at dbPath.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	return NewSQLiteBackendWithConfig(SQLiteBackendConfig{
		DBPath:      dbPath,
		BusyTimeout: 5 * time.Second,
	})
}

// NewSQLiteBackendWithConfig opens a rule database with custom configuration.
func NewSQLiteBackendWithConfig(cfg SQLiteBackendConfig) (*SQLiteBackend, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.DBPath, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(rulesSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteBackend{db: db, dbPath: cfg.DBPath}, nil
}

// SaveRule upserts one rule document.
func (b *SQLiteBackend) SaveRule(ctx context.Context, rule *ast.PolicyRule) error {
	doc, err := json.Marshal(rule)
	if err != nil {
		return fmt.Errorf("failed to marshal rule %q: %w", rule.Code, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	_, err = b.db.ExecContext(ctx, `
		INSERT INTO policy_rules (code, version, status, severity, document, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			version    = excluded.version,
			status     = excluded.status,
			severity   = excluded.severity,
			document   = excluded.document,
			updated_at = excluded.updated_at
	`, rule.Code, rule.Version, string(rule.Status), string(rule.Severity), string(doc),
		rule.UpdatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save rule %q: %w", rule.Code, err)
	}

	return nil
}

// LoadRules returns every persisted rule.
func (b *SQLiteBackend) LoadRules(ctx context.Context) ([]*ast.PolicyRule, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rows, err := b.db.QueryContext(ctx, `SELECT document FROM policy_rules ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer rows.Close()

	var rules []*ast.PolicyRule
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan rule row: %w", err)
		}

		var rule ast.PolicyRule
		if err := json.Unmarshal([]byte(doc), &rule); err != nil {
			return nil, fmt.Errorf("failed to unmarshal rule document: %w", err)
		}
		rules = append(rules, &rule)
	}

	return rules, rows.Err()
}

// Close closes the database.
func (b *SQLiteBackend) Close() error {
	var err error
	b.closeOnce.Do(func() {
		err = b.db.Close()
	})
	return err
}

var _ Backend = (*SQLiteBackend)(nil)
