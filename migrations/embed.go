// Package migrations embeds the schema migrations for each supported store.
package migrations

import "embed"

// FS holds postgres/*.sql and sqlite/*.sql in golang-migrate naming
// (NNNNNN_name.up.sql / .down.sql).
//
//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS
