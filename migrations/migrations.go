package migrations

import "embed"

// FS contiene los archivos SQL versionados que aplica db.Migrate.
//
//go:embed *.sql
var FS embed.FS
