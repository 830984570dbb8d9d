//go:build integration

package repositories

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/BradenHooton/interplink/internal/database"
	"github.com/BradenHooton/interplink/internal/models"
	"github.com/BradenHooton/interplink/migrations"
	"github.com/BradenHooton/interplink/pkg/auth"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDatabase starts a Postgres container, applies the embedded
// migrations and returns a DB handle. The container is removed on cleanup.
func setupTestDatabase(t *testing.T) *database.DB {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("interplink"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, pool.Ping(ctx))

	db := database.FromPool(pool, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, database.RunMigrations(ctx, db, migrations.FS))

	return db
}

func ptr[T any](v T) *T { return &v }

// seedInterpreter provisions an interpreter whose credential holds a temp
// password and a login token
func seedInterpreter(t *testing.T, repo *InterpreterRepository, email, tempPassword, token string, expiry time.Time) *models.InterpreterAccount {
	t.Helper()

	hash, err := auth.HashPassword(tempPassword)
	require.NoError(t, err)

	account, err := repo.CreateInterpreter(context.Background(),
		&models.User{Email: email, Name: "Ana Souza", Role: models.RoleInterpreter},
		&models.InterpreterProfile{
			FirstName:       "Ana",
			LastName:        "Souza",
			Status:          models.InterpreterStatusActive,
			IsVerified:      true,
			Languages:       []string{"pt-BR", "es"},
			Specializations: []string{"medical", "legal, court"},
		},
		&models.Credential{
			TempPasswordHash: &hash,
			LoginToken:       ptr(token),
			TokenExpiry:      ptr(expiry),
			FirstLogin:       true,
		},
	)
	require.NoError(t, err)
	return account
}
