package store

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	"github.com/jaajung-kjs/kepco-survey/internal/contract"
	"github.com/jaajung-kjs/kepco-survey/schema"
)

// SurveyStoreManager holds the process-wide survey store.
type SurveyStoreManager struct {
	sync.RWMutex // Protects the store pointer during initialization
	survey       contract.SurveyStore
}

var _ contract.StoreManager = &SurveyStoreManager{} // Compile-time check

// GetSurveyStore returns the configured store, or nil before InitStores.
func (mgr *SurveyStoreManager) GetSurveyStore() contract.SurveyStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.survey
}

// Global Manager instance for main logic.
var (
	Manager   = &SurveyStoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// InitStores initializes the global manager with the configured backend.
func InitStores(backend schema.DatabaseBackend, connStr string) error {
	var initErr error

	initOnce.Do(func() {
		surveyStore, err := NewSurveyStore(backend, connStr)
		if err != nil {
			initErr = fmt.Errorf("failed to initialize survey store: %w", err)
			return
		}

		Manager.Lock()
		defer Manager.Unlock()
		Manager.survey = surveyStore
	})

	return initErr
}

// CloseStores should be called on application shutdown.
func CloseStores() { // called in main defer
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.survey != nil {
			_ = Manager.survey.Close()
		}
	})
}

// ClearStore removes all survey data for the specified backend.
// For SQLite, it deletes the database file.
// For SQL backends (MySQL/PostgreSQL), it drops the survey tables and the migration table.
// For NoneBackend, it does nothing.
func ClearStore(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		if dbFilePath == "" {
			return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
		}
		// Remove the file; ignore if it doesn't exist
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
		}
		return nil

	case schema.MySQLBackend:
		return clearSQLTables("mysql", backend, connStr)

	case schema.PostgreSQLBackend:
		return clearSQLTables("pgx", backend, connStr)

	case schema.NoneBackend:
		return nil

	default:
		return fmt.Errorf("unsupported backend for clearing: %s", backend)
	}
}

// clearSQLTables connects to the SQL database and drops every survey table.
func clearSQLTables(driverName string, backend schema.DatabaseBackend, connStr string) error {
	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", driverName, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping %s database: %w", driverName, err)
	}

	for _, table := range append(allTables, "schema_migrations") {
		query := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteTableName(table, backend))
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}

	return nil
}
