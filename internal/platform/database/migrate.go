package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

type migration struct {
	version string
	up      string
	down    string
}

func loadMigrations() ([]migration, error) {
	entries, err := fs.ReadDir(migrationFiles, "migrations")
	if err != nil {
		return nil, err
	}

	byVersion := make(map[string]*migration)
	for _, entry := range entries {
		name := entry.Name()
		var version, direction string
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			version, direction = strings.TrimSuffix(name, ".up.sql"), DirectionUp
		case strings.HasSuffix(name, ".down.sql"):
			version, direction = strings.TrimSuffix(name, ".down.sql"), DirectionDown
		default:
			continue
		}

		content, err := fs.ReadFile(migrationFiles, "migrations/"+name)
		if err != nil {
			return nil, err
		}

		m, ok := byVersion[version]
		if !ok {
			m = &migration{version: version}
			byVersion[version] = m
		}
		if direction == DirectionUp {
			m.up = string(content)
		} else {
			m.down = string(content)
		}
	}

	migrations := make([]migration, 0, len(byVersion))
	for _, m := range byVersion {
		migrations = append(migrations, *m)
	}
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].version < migrations[j].version })
	return migrations, nil
}

// Migrate applies (up) or rolls back (down) the embedded schema. Applied
// versions are tracked in schema_migrations.
func Migrate(ctx context.Context, db *sql.DB, direction string) (int, error) {
	if direction != DirectionUp && direction != DirectionDown {
		return 0, fmt.Errorf("invalid migration direction %q", direction)
	}

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at INTEGER NOT NULL
		)`); err != nil {
		return 0, errors.Wrap(err, "failed to create schema_migrations")
	}

	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return 0, err
	}

	migrations, err := loadMigrations()
	if err != nil {
		return 0, errors.Wrap(err, "failed to load migrations")
	}
	if direction == DirectionDown {
		sort.Slice(migrations, func(i, j int) bool { return migrations[i].version > migrations[j].version })
	}

	count := 0
	for _, m := range migrations {
		if (direction == DirectionUp) == applied[m.version] {
			continue
		}
		if err := apply(ctx, db, m, direction); err != nil {
			return count, err
		}
		log.Info().Str("version", m.version).Str("direction", direction).Msg("applied migration")
		count++
	}
	return count, nil
}

func appliedVersions(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read schema_migrations")
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func apply(ctx context.Context, db *sql.DB, m migration, direction string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	script := m.up
	if direction == DirectionDown {
		script = m.down
	}
	if _, err := tx.ExecContext(ctx, script); err != nil {
		return errors.Wrapf(err, "failed to execute migration %s %s", m.version, direction)
	}

	if direction == DirectionUp {
		_, err = tx.ExecContext(ctx, `INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`, m.version, time.Now().Unix())
	} else {
		_, err = tx.ExecContext(ctx, `DELETE FROM schema_migrations WHERE version = ?`, m.version)
	}
	if err != nil {
		return errors.Wrapf(err, "failed to record migration %s", m.version)
	}

	return tx.Commit()
}
