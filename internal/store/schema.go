package store

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"pazaauto.id/internal/migrate"
	"pazaauto.id/internal/obs"
)

//go:embed schema
var schemaFS embed.FS

// Migrations returns a migration manager over the embedded schema for the
// store's driver.
func (d *DB) Migrations() (*migrate.Manager, error) {
	dir := "schema/sqlite"
	if d.driver == DriverPostgres {
		dir = "schema/postgres"
	}
	migrations, err := fs.Sub(schemaFS, dir)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", dir, err)
	}
	seeds, err := fs.Sub(schemaFS, "schema/seeds")
	if err != nil {
		return nil, fmt.Errorf("schema seeds: %w", err)
	}
	return migrate.NewManager(d.x.DB, d.driver, migrations,
		migrate.WithSeeds(seeds),
		migrate.WithClock(d.now),
	), nil
}

// Bootstrap applies pending migrations and seeds.
func (d *DB) Bootstrap(ctx context.Context) error {
	mgr, err := d.Migrations()
	if err != nil {
		return err
	}
	applied, err := mgr.Up(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap schema: %w", err)
	}
	seeded, err := mgr.Seed(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap seeds: %w", err)
	}
	if len(applied)+len(seeded) > 0 {
		obs.Logger().Info("schema bootstrapped", "driver", d.driver,
			"migrations", applied, "seeds", seeded)
	}
	return nil
}
