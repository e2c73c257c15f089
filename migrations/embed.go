// Package migrations embeds the accessory cache schema into the binary.
package migrations

import "embed"

// FS holds every migration file; pass it to database.DB.Migrate.
//
//go:embed *.sql
var FS embed.FS
