// Package migrations holds the SQL schema for the SQL state stores.
package migrations

import "embed"

// FS embeds the SQLite migration files, applied in filename order.
//
//go:embed *.sql
var FS embed.FS
