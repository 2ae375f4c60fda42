package migrations

import "github.com/uptrace/bun/migrate"

// Migrations holds the schema history for the postgres store.
var Migrations = migrate.NewMigrations()
