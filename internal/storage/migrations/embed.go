// Package migrations applies the embedded schema files to the configured
// stores at startup.
package migrations

import "embed"

//go:embed postgres/*.sql
var PostgresFS embed.FS

//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
