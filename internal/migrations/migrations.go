// Package migrations embeds the schema migrations for the sqlite document store.
package migrations

import "embed"

// FS holds the goose migration scripts.
//
//go:embed *.sql
var FS embed.FS
