// Package migrations embeds the SQL schema for each supported database.
package migrations

import "embed"

// FS holds the migration files under sqlite/ and postgres/.
//
//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
