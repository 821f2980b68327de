// Package migrations embeds the SQL schema for the local SQLite store and the
// Postgres document store.
package migrations

import "embed"

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
