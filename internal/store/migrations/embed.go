// Package migrations contains the embedded SQL migrations for the store.
package migrations

import "embed"

// FS holds the versioned up/down migration files.
//
//go:embed *.sql
var FS embed.FS
