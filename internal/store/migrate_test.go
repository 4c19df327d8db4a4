package store

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jaajung-kjs/kepco-survey/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateStore_NoneBackend(t *testing.T) {
	err := MigrateStore(schema.NoneBackend, "", -1)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "migrations are not supported for NoneBackend")
}

func TestMigrateStore_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test_migration.db")

	// Run migration to latest version (should go to version 1)
	require.NoError(t, MigrateStore(schema.SQLiteBackend, dbPath, -1))
	_, err := os.Stat(dbPath)
	assert.NoError(t, err)

	// Run migration again (should be a no-op)
	assert.NoError(t, MigrateStore(schema.SQLiteBackend, dbPath, -1))

	// Rollback to version 0 and back up
	assert.NoError(t, MigrateStore(schema.SQLiteBackend, dbPath, 0))
	assert.NoError(t, MigrateStore(schema.SQLiteBackend, dbPath, 1))

	s, err := NewSurveyStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	accs, err := s.ListDepartmentAccumulators(context.Background())
	require.NoError(t, err)
	assert.Len(t, accs, len(schema.AllDepartments), "departments are seeded by the migration")
}

func TestApplyMigrationsReportsOutcome(t *testing.T) {
	db, err := openDB(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	m, err := newMigrator(db, schema.SQLiteBackend)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, applyMigrations(m, -1, &out))
	assert.Contains(t, out.String(), "Successfully migrated from version 0 to version 1")

	out.Reset()
	require.NoError(t, applyMigrations(m, -1, &out))
	assert.Contains(t, out.String(), "No migration needed")

	version, dirty, err := schemaVersion(db, schema.SQLiteBackend)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}
