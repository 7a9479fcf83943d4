// Package migrations embeds the SQL schema so the binary can migrate without
// a migrations directory on disk.
//
// The statements stay within the subset shared by Postgres and SQLite: ids are
// generated by the application, timestamps default to CURRENT_TIMESTAMP.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
