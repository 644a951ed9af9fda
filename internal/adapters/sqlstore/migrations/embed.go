// Package migrations embeds the goose SQL migrations of the ledger schema,
// one directory per dialect.
package migrations

import "embed"

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
