package migrations

import (
	"embed"

	"github.com/aleister1102/pagewatch/internal/common"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
)

//go:embed *.sql
var migrationsFS embed.FS

// Run applies every pending migration.
func Run(dbx *sqlx.DB) error {
	d, err := iofs.New(migrationsFS, ".")
	if err != nil {
		return common.WrapError(err, "error creating migrations source")
	}
	i, err := sqlite.WithInstance(dbx.DB, &sqlite.Config{})
	if err != nil {
		return common.WrapError(err, "error creating sqlite instance for migration")
	}
	migrator, err := migrate.NewWithInstance("iofs", d, "sqlite", i)
	if err != nil {
		return common.WrapError(err, "error creating migrator")
	}
	if err := migrator.Up(); err != nil && err != migrate.ErrNoChange {
		return common.WrapError(err, "error migrating")
	}
	return nil
}
