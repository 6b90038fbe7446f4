// Package bootstrap builds the collaborators shared by the relaygate binaries
// from configuration.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/relaygate/relaygate/internal/auth"
	"github.com/relaygate/relaygate/internal/config"
	"github.com/relaygate/relaygate/internal/pkg/circuitbreaker"
	"github.com/relaygate/relaygate/internal/pkg/database"
	"github.com/relaygate/relaygate/internal/repository"
	"github.com/relaygate/relaygate/internal/repository/memory"
	pgrepo "github.com/relaygate/relaygate/internal/repository/postgres"
)

// Store is an opened record store and the connection behind it
type Store struct {
	*repository.GuardedStore
	postgres *database.PostgresDB
}

// Close releases the underlying connection, if any
func (s *Store) Close() {
	if s.postgres != nil {
		s.postgres.Close()
	}
}

// OpenStore opens the configured record store behind a circuit breaker
func OpenStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Store, error) {
	breaker := circuitbreaker.DefaultConfig("")

	switch cfg.Storage.Driver {
	case config.StorageMemory:
		return &Store{
			GuardedStore: repository.NewGuardedStore(memory.NewStore(), config.StorageMemory, breaker, logger),
		}, nil

	case config.StoragePostgres:
		db, err := database.NewPostgres(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
		}
		repo := pgrepo.NewRecordRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return &Store{
			GuardedStore: repository.NewGuardedStore(repo, config.StoragePostgres, breaker, logger),
			postgres:     db,
		}, nil
	}

	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

// TokenValidator builds the bearer token validator for the configured mode.
// A non-nil cache memoises JWT validations.
func TokenValidator(cfg config.AuthConfig, cache auth.Cache, logger *zap.Logger) auth.TokenValidator {
	if cfg.TokenMode != config.TokenModeJWT {
		return auth.StaticTokenValidator{}
	}

	var validator auth.TokenValidator = auth.NewJWTValidator(cfg.JWTSecret, cfg.JWTIssuer)
	if cache != nil {
		validator = auth.NewCachedValidator(validator, cache, logger)
	}
	return validator
}

// Resolver builds the authorization header resolver
func Resolver(cfg config.AuthConfig, cache auth.Cache, logger *zap.Logger) *auth.Resolver {
	return auth.NewResolver(
		TokenValidator(cfg, cache, logger),
		auth.NewStaticCredentials(cfg.AdminUsername, cfg.AdminPassword),
	)
}
