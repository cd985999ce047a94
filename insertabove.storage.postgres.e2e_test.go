//go:build integration

package insertabove

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupPostgresContainer starts an ephemeral PostgreSQL and returns its DSN.
func setupPostgresContainer(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15",
		postgres.WithDatabase("insertabove_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")
	return connStr
}

func TestPostgres_E2E_Contract(t *testing.T) {
	connStr := setupPostgresContainer(t)

	storage, err := NewPostgresStorage(PostgresConfig{
		ConnectionString: connStr,
		AutoMigrate:      true,
		QueryTimeout:     30 * time.Second,
	})
	require.NoError(t, err)

	runStorageContract(t, storage, true)
}

func TestPostgres_E2E_Migrations(t *testing.T) {
	connStr := setupPostgresContainer(t)
	ctx := context.Background()

	storage, err := NewPostgresStorage(PostgresConfig{
		ConnectionString: connStr,
		TablePrefix:      "site_",
	})
	require.NoError(t, err)
	defer storage.Close()

	version, err := storage.CurrentSchemaVersion(ctx)
	require.Error(t, err, "migrations table should not exist before migrating")
	assert.Equal(t, 0, version)

	require.NoError(t, storage.RunMigrations(ctx))
	require.NoError(t, storage.RunMigrations(ctx))

	version, err = storage.CurrentSchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	require.NoError(t, storage.Save(ctx, &StoredTemplate{Name: "a.html", Source: "a"}))
	names, err := storage.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.html"}, names)
}

func TestPostgres_E2E_Driver(t *testing.T) {
	connStr := setupPostgresContainer(t)
	ctx := context.Background()

	storage, err := OpenStorage(StorageDriverNamePostgres, connStr)
	require.NoError(t, err)
	defer storage.Close()

	engine := newTestEngine(t, WithStorage(storage), WithMediaPrefix(false))
	require.NoError(t, engine.RegisterTemplate(ctx, "base.html", testBaseTemplate))
	require.NoError(t, engine.RegisterTemplate(ctx, "page.html", testPageTemplate))

	out, err := engine.Render(ctx, "page.html", nil)
	require.NoError(t, err)
	assert.Equal(t, "<head><script type='text/javascript' src='js/page.js'></script></head><body>Hello</body>", out)
}
