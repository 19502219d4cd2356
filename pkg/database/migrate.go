package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migration directions accepted by Migrate.
const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

// Migrate applies the embedded migrations in direction. Being already at the target version is not an error.
func Migrate(dsn, direction string, logger *zap.Logger) error {
	if dsn == "" {
		return errors.New("database dsn is empty; set DATABASE_URL or DB_*")
	}
	if direction != DirectionUp && direction != DirectionDown {
		return fmt.Errorf("direction must be up or down, got %q", direction)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrate source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, dsn)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if direction == DirectionUp {
		err = m.Up()
	} else {
		err = m.Down()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate %s: %w", direction, err)
	}
	if logger != nil {
		version, dirty, _ := m.Version()
		logger.Info("migrations applied", zap.String("direction", direction), zap.Uint("version", version), zap.Bool("dirty", dirty))
	}
	return nil
}
