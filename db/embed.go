// Package db embeds the SQL migration files shipped with the binary.
package db

import "embed"

// Migrations holds the numbered migration files under migrations/. They are
// applied in lexical order and must stay idempotent (IF NOT EXISTS).
//
//go:embed migrations/*.sql
var Migrations embed.FS
