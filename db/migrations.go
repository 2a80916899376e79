package db

import "embed"

// Migrations holds the schema files applied at startup, in name order.
//
//go:embed migrations/*.up.sql
var Migrations embed.FS
