// Package database provides SQLite connectivity for the feeder.
//
// The feeder keeps a small amount of state across restarts (the Home
// Assistant auto-discovery flag among it) in a single SQLite file opened
// in WAL mode with a one-connection pool.
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.Source()); err != nil {
//	    log.Fatal(err)
//	}
//
// Migrations are additive: each file pair
// YYYYMMDD_HHMMSS_description.up.sql / .down.sql is applied once and
// recorded in schema_migrations.
package database
