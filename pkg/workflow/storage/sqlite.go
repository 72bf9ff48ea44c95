package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"vigil-hq/vigil/pkg/workflow"
)

// SQLiteConfig contains configuration for the SQLite case store.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/cases.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStore implements workflow.CaseStore on SQLite.
type SQLiteStore struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

var _ workflow.CaseStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens the database, applies the schema, and enables
// WAL mode if configured.
func NewSQLiteStore(config *SQLiteConfig) (*SQLiteStore, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}

	logger := slog.Default().With("component", "workflow.storage.sqlite")

	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, fmt.Errorf("open case database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLiteStore{db: db, config: config, logger: logger}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite case store initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
		"max_open_conns", config.MaxOpenConns,
	)
	return s, nil
}

func (s *SQLiteStore) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return fmt.Errorf("enable wal: %w", err)
		}
	}
	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		return fmt.Errorf("set busy_timeout: %w", err)
	}
	if _, err := s.db.Exec(Schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO schema_version (version) VALUES (?)", SchemaVersion)
	if err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return nil
}

// CreateCase inserts a new case row.
func (s *SQLiteStore) CreateCase(ctx context.Context, c *workflow.RemediationCase) error {
	document, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal case %s: %w", c.CaseNumber, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cases (case_number, vendor_id, case_type, status, severity,
			priority, sla_deadline, version, created_at, updated_at, document)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.CaseNumber, c.VendorID, string(c.Type), string(c.Status),
		string(c.Severity), string(c.Priority), c.SLADeadline.UTC(),
		c.Version, c.CreatedAt.UTC(), c.UpdatedAt.UTC(), string(document))
	if err != nil {
		if isUniqueViolation(err) {
			return workflow.ErrDuplicateCase
		}
		return fmt.Errorf("insert case %s: %w", c.CaseNumber, err)
	}
	return nil
}

// UpdateCase rewrites the case row if and only if the stored version
// still matches c.Version. The stored row and c both move to the next
// version on success.
func (s *SQLiteStore) UpdateCase(ctx context.Context, c *workflow.RemediationCase) error {
	next := *c
	next.Version = c.Version + 1
	document, err := json.Marshal(&next)
	if err != nil {
		return fmt.Errorf("marshal case %s: %w", c.CaseNumber, err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE cases
		SET vendor_id = ?, case_type = ?, status = ?, severity = ?,
			priority = ?, sla_deadline = ?, version = ?, updated_at = ?,
			document = ?
		WHERE case_number = ? AND version = ?`,
		c.VendorID, string(c.Type), string(c.Status), string(c.Severity),
		string(c.Priority), c.SLADeadline.UTC(), next.Version,
		c.UpdatedAt.UTC(), string(document),
		c.CaseNumber, c.Version)
	if err != nil {
		return fmt.Errorf("update case %s: %w", c.CaseNumber, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update case %s: %w", c.CaseNumber, err)
	}
	if affected == 0 {
		var stored int
		row := s.db.QueryRowContext(ctx,
			"SELECT version FROM cases WHERE case_number = ?", c.CaseNumber)
		if scanErr := row.Scan(&stored); scanErr != nil {
			if errors.Is(scanErr, sql.ErrNoRows) {
				return &workflow.NotFoundError{CaseNumber: c.CaseNumber}
			}
			return fmt.Errorf("update case %s: %w", c.CaseNumber, scanErr)
		}
		return &workflow.ConflictError{
			CaseNumber: c.CaseNumber,
			Expected:   stored,
			Got:        c.Version,
		}
	}
	c.Version = next.Version
	return nil
}

// GetCase loads the case document by number.
func (s *SQLiteStore) GetCase(ctx context.Context, caseNumber string) (*workflow.RemediationCase, error) {
	var document string
	row := s.db.QueryRowContext(ctx,
		"SELECT document FROM cases WHERE case_number = ?", caseNumber)
	if err := row.Scan(&document); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &workflow.NotFoundError{CaseNumber: caseNumber}
		}
		return nil, fmt.Errorf("load case %s: %w", caseNumber, err)
	}

	var c workflow.RemediationCase
	if err := json.Unmarshal([]byte(document), &c); err != nil {
		return nil, fmt.Errorf("unmarshal case %s: %w", caseNumber, err)
	}
	return &c, nil
}

// ListCases queries cases matching the filter, ordered by creation
// time. The scalar columns drive the query; documents are decoded for
// the matching rows only.
func (s *SQLiteStore) ListCases(ctx context.Context, filter workflow.CaseFilter) ([]*workflow.RemediationCase, error) {
	query := "SELECT document FROM cases"
	var clauses []string
	var args []any

	if filter.VendorID != "" {
		clauses = append(clauses, "vendor_id = ?")
		args = append(args, filter.VendorID)
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, string(st))
		}
		clauses = append(clauses, "status IN ("+strings.Join(placeholders, ", ")+")")
	}
	if filter.OverdueAt != nil {
		clauses = append(clauses, "sla_deadline < ?")
		args = append(args, filter.OverdueAt.UTC())
		clauses = append(clauses, "status NOT IN (?, ?, ?)")
		args = append(args,
			string(workflow.CaseResolved),
			string(workflow.CaseClosed),
			string(workflow.CaseCancelled))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at ASC, case_number ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	var out []*workflow.RemediationCase
	for rows.Next() {
		var document string
		if err := rows.Scan(&document); err != nil {
			return nil, fmt.Errorf("list cases: %w", err)
		}
		var c workflow.RemediationCase
		if err := json.Unmarshal([]byte(document), &c); err != nil {
			return nil, fmt.Errorf("list cases: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// Close shuts down the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
