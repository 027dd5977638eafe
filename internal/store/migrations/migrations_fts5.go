//go:build sqlite_fts5

package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

// Latest is the highest migration version this build applies.
const Latest = 2
