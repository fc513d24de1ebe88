package repositories

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"zoomhook/internal/platform/config"
	"zoomhook/internal/platform/database"
)

// Storage is the credential store selected by configuration.
type Storage struct {
	Credentials CredentialStore
	// DB is nil when credentials are kept in memory.
	DB *sql.DB
}

func (s *Storage) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// OpenStorage returns the SQLite store when a DSN is configured and the
// in-memory store otherwise.
func OpenStorage(ctx context.Context, cfg config.StorageConfig) (*Storage, error) {
	if cfg.CredentialsDSN == "" {
		log.Info().Msg("using in-memory credential store")
		return &Storage{Credentials: NewMemoryCredentialStore()}, nil
	}

	sealer, err := NewSealer(cfg.EncryptionKey)
	if err != nil {
		return nil, err
	}

	db, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if _, err := database.Migrate(ctx, db, database.DirectionUp); err != nil {
			_ = db.Close()
			return nil, errors.Wrap(err, "failed to migrate credentials db")
		}
	}

	log.Info().Msg("using sqlite credential store")
	return &Storage{Credentials: NewCredentialRepository(db, sealer), DB: db}, nil
}
