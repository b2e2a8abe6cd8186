// Package migrations embeds the identity schema for golang-migrate.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
