// Package migrations embeds the SQL migrations for the sqlite blob store.
package migrations

import "embed"

// FS holds the migration files, applied in lexical order.
//
//go:embed *.sql
var FS embed.FS
