// Package migrations embeds SQL migration files.
package migrations

import "embed"

// FS contains the postgres schema migrations, applied in version order at
// startup. Formato de archivo: {version}_{name}.sql (ej: 0001_identity.sql).
//
//go:embed *.sql
var FS embed.FS
