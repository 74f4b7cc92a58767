// Package migrations embeds the goose SQL migrations for the postgres schema.
package migrations

import "embed"

// FS holds every migration file; goose reads it with the directory ".".
//
//go:embed *.sql
var FS embed.FS
