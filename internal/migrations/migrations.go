// Package migrations embeds the goose SQL migrations
// that are applied at startup.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
