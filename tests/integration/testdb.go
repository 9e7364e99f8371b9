// Package integration runs the application stack against a real PostgreSQL
// started with testcontainers. The tests are skipped with -short.
package integration

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/poinmhs/backend/internal/infrastructure/config"
	"github.com/poinmhs/backend/internal/infrastructure/migration"
	"github.com/poinmhs/backend/internal/infrastructure/persistence"
	"github.com/poinmhs/backend/migrations"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

const (
	testDBName     = "poin_test"
	testDBUser     = "postgres"
	testDBPassword = "admin123"
)

var (
	// Shared container for all tests in the package
	sharedContainer   testcontainers.Container
	sharedContainerMu sync.Mutex
	sharedDBConfig    config.DatabaseConfig
)

// TestDB is a migrated database opened through the production constructor
type TestDB struct {
	*persistence.Database
	t *testing.T
}

// NewTestDB returns a connection to the shared, migrated container. Tables
// are truncated so every test starts empty.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test needs Docker; skipped with -short")
	}

	sharedContainerMu.Lock()
	defer sharedContainerMu.Unlock()

	ctx := context.Background()
	if sharedContainer == nil {
		container, err := tcpostgres.Run(ctx,
			"postgres:16-alpine",
			tcpostgres.WithDatabase(testDBName),
			tcpostgres.WithUsername(testDBUser),
			tcpostgres.WithPassword(testDBPassword),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second)),
		)
		require.NoError(t, err, "Failed to start PostgreSQL container")

		host, err := container.Host(ctx)
		require.NoError(t, err)
		port, err := container.MappedPort(ctx, "5432/tcp")
		require.NoError(t, err)
		portNum, err := strconv.Atoi(port.Port())
		require.NoError(t, err)

		sharedContainer = container
		sharedDBConfig = config.DatabaseConfig{
			Host:            host,
			Port:            portNum,
			User:            testDBUser,
			Password:        testDBPassword,
			DBName:          testDBName,
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5,
		}

		db := openDatabase(t)
		runMigrations(t, db)
		_ = db.Close()
	}

	tdb := &TestDB{Database: openDatabase(t), t: t}
	tdb.CleanTables()
	t.Cleanup(func() {
		_ = tdb.Close()
	})
	return tdb
}

func openDatabase(t *testing.T) *persistence.Database {
	t.Helper()
	cfg := sharedDBConfig
	db, err := persistence.NewDatabase(&cfg, zap.NewNop(), 0)
	require.NoError(t, err, "Failed to connect to database")
	return db
}

// runMigrations applies the embedded schema, the same files cmd/migrate uses
func runMigrations(t *testing.T, db *persistence.Database) {
	t.Helper()
	sqlDB, err := db.DB.DB()
	require.NoError(t, err)

	m, err := migration.New(sqlDB, migrations.FS, zap.NewNop())
	require.NoError(t, err, "Failed to create migrator")
	require.NoError(t, m.Up(), "Failed to run migrations")
}

// CleanTables truncates every application table
func (tdb *TestDB) CleanTables() {
	tdb.t.Helper()

	var tables []string
	err := tdb.DB.Raw(`
		SELECT tablename FROM pg_tables
		WHERE schemaname = 'public'
		AND tablename != 'schema_migrations'
	`).Scan(&tables).Error
	require.NoError(tdb.t, err, "Failed to get table names")

	for _, table := range tables {
		err := tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error
		require.NoError(tdb.t, err, "Failed to truncate table %s", table)
	}
}

// CleanupSharedContainer terminates the shared container. Called from TestMain.
func CleanupSharedContainer() {
	sharedContainerMu.Lock()
	defer sharedContainerMu.Unlock()

	if sharedContainer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = sharedContainer.Terminate(ctx)
		sharedContainer = nil
	}
}
