package database

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"zoomhook/internal/platform/config"
)

// Open connects to the credential database named by cfg.CredentialsDSN.
func Open(ctx context.Context, cfg config.StorageConfig) (*sql.DB, error) {
	dsn := cfg.CredentialsDSN
	if dsn == "" {
		return nil, errors.New("credentials dsn is empty")
	}
	// bare file: paths are opened as plain filenames
	if strings.HasPrefix(dsn, "file:") && !strings.Contains(dsn, "?") {
		dsn = strings.TrimPrefix(dsn, "file:")
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open credentials db")
	}

	maxConns := cfg.MaxConnections
	if maxConns <= 0 {
		maxConns = 1
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to ping credentials db")
	}

	return db, nil
}
