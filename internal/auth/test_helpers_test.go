package auth

import (
	"context"
	"io"
	"log/slog"

	"github.com/BradenHooton/interplink/internal/models"
)

type mockUserFetcher struct {
	GetByIDFunc func(ctx context.Context, id string) (*models.User, error)
}

func (m *mockUserFetcher) GetByID(ctx context.Context, id string) (*models.User, error) {
	return m.GetByIDFunc(ctx, id)
}

type mockRevocationChecker struct {
	IsSessionRevokedFunc func(ctx context.Context, jti string) (bool, error)
}

func (m *mockRevocationChecker) IsSessionRevoked(ctx context.Context, jti string) (bool, error) {
	return m.IsSessionRevokedFunc(ctx, jti)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
