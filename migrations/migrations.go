// Package migrations embeds the SQL applied by database.RunMigrations at
// startup when the order log lives in PostgreSQL.
package migrations

import "embed"

//go:embed *.up.sql
var FS embed.FS
