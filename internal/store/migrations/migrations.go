//go:build !sqlite_fts5

// Package migrations embeds the SQL migration files for the message store.
//
// The FTS5 migration needs go-sqlite3 compiled with the sqlite_fts5
// build tag, so the default build embeds only the base schema. Build
// with -tags sqlite_fts5 to get the full-text index.
package migrations

import "embed"

//go:embed 000001_init.up.sql 000001_init.down.sql
var FS embed.FS

// Latest is the highest migration version this build applies.
const Latest = 1
