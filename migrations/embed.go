// Package migrations holds the PostgreSQL schema as golang-migrate SQL files.
package migrations

import "embed"

// FS contains every *.sql migration, embedded into the binary
//
//go:embed *.sql
var FS embed.FS
