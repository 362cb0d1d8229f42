package store

import "embed"

// migrationFS embeds the goose migration set applied at pool-open time,
// grounded on bc-dunia-mcpdrill's schemas/embed.go embed-at-compile-time
// pattern.
//
//go:embed migrations/*.sql
var migrationFS embed.FS
