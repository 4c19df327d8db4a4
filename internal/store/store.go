// Package store persists survey accumulators, accounts and cached analyses.
package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx as "pgx"
	"github.com/jaajung-kjs/kepco-survey/internal/contract"
	"github.com/jaajung-kjs/kepco-survey/schema"
	_ "modernc.org/sqlite" // Register modernc as "sqlite"
)

// Table names.
const (
	departmentsTable       = "survey_departments"
	departmentCellsTable   = "survey_department_cells"
	organizationCellsTable = "survey_organization_cells"
	usersTable             = "survey_users"
	sessionsTable          = "survey_sessions"
	textResponsesTable     = "survey_text_responses"
	analysesTable          = "survey_ai_analyses"
)

// allTables lists every table in drop order.
var allTables = []string{
	analysesTable,
	textResponsesTable,
	sessionsTable,
	usersTable,
	organizationCellsTable,
	departmentCellsTable,
	departmentsTable,
}

// SurveyStoreImpl implements contract.SurveyStore over database/sql.
type SurveyStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
	now     func() time.Time
}

var _ contract.SurveyStore = &SurveyStoreImpl{} // Compile-time check

// NewSurveyStore opens the backend, verifies the connection and applies pending migrations.
// NoneBackend yields an in-memory store that lives as long as the process.
func NewSurveyStore(backend schema.DatabaseBackend, connStr string) (contract.SurveyStore, error) {
	if backend == schema.NoneBackend {
		return NewMemoryStore(), nil
	}

	db, err := openDB(backend, connStr)
	if err != nil {
		return nil, err
	}

	// Ping to verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		var connDetail string
		switch backend {
		case schema.MySQLBackend:
			connDetail = "Check that MySQL is running and the connection string is correct. Ensure user/password are valid."
		case schema.PostgreSQLBackend:
			connDetail = "Check that PostgreSQL is running and the connection string is correct. Ensure user/password are valid."
		default:
			connDetail = "Verify the database file is readable and writable."
		}
		return nil, fmt.Errorf("failed to connect to %s database: %w. %s", backend, err, connDetail)
	}

	if err := migrateOnOpen(db, backend, connStr); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate survey tables: %w", err)
	}

	return &SurveyStoreImpl{db: db, backend: backend, now: time.Now}, nil
}

// openDB opens a handle for the backend without touching the network.
func openDB(backend schema.DatabaseBackend, connStr string) (*sql.DB, error) {
	switch backend {
	case schema.SQLiteBackend:
		dbPath := connStr
		if dbPath == "" {
			dbPath = contract.GetDBFilePath()
		}
		db, err := sql.Open("sqlite", dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database at %q: %w. Check that the directory is writable", dbPath, err)
		}
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)
		return db, nil

	case schema.MySQLBackend:
		dsn, err := mysqlDSN(connStr, false)
		if err != nil {
			return nil, err
		}
		db, err := sql.Open("mysql", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open MySQL database: %w. Check connection string format: user:password@tcp(host:port)/dbname", err)
		}
		return db, nil

	case schema.PostgreSQLBackend:
		db, err := sql.Open("pgx", connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open PostgreSQL database: %w. Check connection string format: host=... dbname=...", err)
		}
		return db, nil

	default:
		return nil, fmt.Errorf("unsupported backend: %s", backend)
	}
}

// mysqlDSN enables time parsing, and multi-statement execution for migrations.
func mysqlDSN(connStr string, multiStatements bool) (string, error) {
	cfg, err := mysqldriver.ParseDSN(connStr)
	if err != nil {
		return "", fmt.Errorf("invalid MySQL connection string: %w", err)
	}
	cfg.ParseTime = true
	cfg.MultiStatements = multiStatements
	return cfg.FormatDSN(), nil
}

// Close closes the underlying connection.
func (s *SurveyStoreImpl) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// q quotes the table name and rewrites ? placeholders for the backend.
func (s *SurveyStoreImpl) q(query string, tables ...string) string {
	quoted := make([]any, len(tables))
	for i, t := range tables {
		quoted[i] = quoteTableName(t, s.backend)
	}
	return rebind(s.backend, fmt.Sprintf(query, quoted...))
}

// quoteTableName quotes a table name for the backend.
func quoteTableName(name string, backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return "`" + name + "`"
	default:
		return `"` + name + `"`
	}
}

// rebind turns ? placeholders into $n for PostgreSQL.
func rebind(backend schema.DatabaseBackend, query string) string {
	if backend != schema.PostgreSQLBackend {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// formatTime converts a time.Time to the appropriate format for the backend.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	switch backend {
	case schema.SQLiteBackend:
		return t.UTC().Format(time.RFC3339Nano)
	default:
		return t.UTC()
	}
}

// dbTime scans a timestamp stored natively or as RFC3339 text.
type dbTime struct {
	Time  time.Time
	Valid bool
}

// Scan implements sql.Scanner.
func (t *dbTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time, t.Valid = time.Time{}, false
		return nil
	case time.Time:
		t.Time, t.Valid = v, true
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
}

func (t *dbTime) parse(s string) error {
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	t.Time, t.Valid = parsed, true
	return nil
}

// Ptr returns nil for NULL.
func (t dbTime) Ptr() *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
