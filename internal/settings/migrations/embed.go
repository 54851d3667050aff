// Package migrations holds the embedded SQL migrations for the settings
// database.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
