// Package migrations holds the embedded PostgreSQL schema migrations.
package migrations

import (
	"embed"
)

//go:embed *.sql
var FS embed.FS
