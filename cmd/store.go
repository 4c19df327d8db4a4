package cmd

import (
	"fmt"
	"os"

	"github.com/jaajung-kjs/kepco-survey/internal/contract"
	"github.com/jaajung-kjs/kepco-survey/internal/store"
	"github.com/jaajung-kjs/kepco-survey/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// storeBackendSetup reads only the store settings, without opening the store.
// Clear and migrate must work on databases that are missing or outdated.
func storeBackendSetup(_ *cobra.Command, _ []string) error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	backend := schema.DatabaseBackend(viper.GetString("store-backend"))
	connStr := viper.GetString("store-db-connect")
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}
	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr
	return nil
}

// storeCmd focused on store management.
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the survey database",
	Long: `Inspect, migrate or wipe the survey database.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (in-memory)

Subcommands:
  status  - Show connection, schema version and row counts
  migrate - Apply or roll back schema migrations
  clear   - Remove all survey data`,
}

var storeStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Display store statistics and connection details",
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := surveyStore().GetStatus(rootCtx)
		if err != nil {
			contract.LogFatal("Failed to get store status", err)
		}
		store.PrintStoreStatus(os.Stdout, status)
	},
}

var storeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all survey data",
	Long: `Delete every answer, account, session and cached report.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the survey tables and the migration table`,
	PreRunE: storeBackendSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := store.ClearStore(cfg.StoreBackend, contract.GetDBFilePath(), cfg.StoreDBConnect); err != nil {
			contract.LogFatal("Failed to clear store", err)
		}
		fmt.Println("Store cleared successfully.")
	},
}

var storeMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run schema migrations",
	Long: `Migrate the survey schema to the latest or a specific version.

Examples:
  # Migrate to latest
  kepco-survey store migrate

  # Roll back everything
  kepco-survey store migrate --target-version 0`,
	PreRunE: storeBackendSetup,
	Run: func(_ *cobra.Command, _ []string) {
		target := viper.GetInt("target-version")
		if err := store.MigrateStore(cfg.StoreBackend, cfg.StoreDBConnect, target); err != nil {
			contract.LogFatal("Failed to migrate store", err)
		}
	},
}
