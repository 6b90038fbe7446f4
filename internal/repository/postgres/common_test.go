package postgres

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relaygate/relaygate/internal/config"
	"github.com/relaygate/relaygate/internal/pkg/database"
)

// testConfig reads the integration database from POSTGRES_TEST_* variables
func testConfig() config.PostgresConfig {
	cfg := config.PostgresConfig{
		Host:     os.Getenv("POSTGRES_TEST_HOST"),
		Port:     5432,
		User:     os.Getenv("POSTGRES_TEST_USER"),
		Password: os.Getenv("POSTGRES_TEST_PASS"),
		Database: os.Getenv("POSTGRES_TEST_DB"),
		SSLMode:  "disable",
		MaxConns: 5,
		MinConns: 1,
	}
	if cfg.Database == "" {
		cfg.Database = "test_relaygate"
	}
	if cfg.User == "" {
		cfg.User = "postgres"
	}
	return cfg
}

// newTestRepository connects to the integration database, ensures the schema
// and returns a repository plus a target name private to the calling test.
// Records under that target are removed before and after the test. The test
// is skipped when POSTGRES_TEST_HOST is unset or the server is unreachable.
func newTestRepository(t *testing.T) (*RecordRepository, string) {
	t.Helper()
	if os.Getenv("POSTGRES_TEST_HOST") == "" {
		t.Skip("Skipping integration test: POSTGRES_TEST_HOST not set")
	}

	ctx := context.Background()
	db, err := database.NewPostgres(ctx, testConfig())
	if err != nil {
		t.Skipf("Skipping integration test: failed to connect to PostgreSQL: %v", err)
	}

	repo := NewRecordRepository(db)
	require.NoError(t, repo.EnsureSchema(ctx))

	target := "test_" + strings.ToLower(strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()))
	purge := func() {
		_, _ = db.Pool.Exec(ctx, "DELETE FROM records WHERE target = $1", target)
	}
	purge()
	t.Cleanup(func() {
		purge()
		db.Close()
	})

	return repo, target
}
