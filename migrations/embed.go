// Package migrations embeds the feeder's SQL migration files.
package migrations

import (
	"embed"

	"github.com/nerrad567/gray-logic-feeder/internal/infrastructure/database"
)

//go:embed *.sql
var files embed.FS

// Source returns the embedded migrations.
func Source() database.Source {
	return database.Source{FS: files, Dir: "."}
}
