// Package migrations ships the ProjectHub schema inside the binary.
// Import it for its side effect of registering both file sets with the
// database package. SQLite files use the up/down naming of the built-in
// runner; PostgreSQL files carry goose annotations.
package migrations

import (
	"embed"

	"github.com/nerrad567/projecthub/internal/infrastructure/database"
)

//go:embed sqlite/*.sql
var sqliteFS embed.FS

//go:embed postgres/*.sql
var postgresFS embed.FS

func init() {
	database.MigrationsFS = sqliteFS
	database.MigrationsDir = "sqlite"

	database.PostgresMigrationsFS = postgresFS
	database.PostgresMigrationsDir = "postgres"
}
