package repo

import _ "embed"

// PostgresSchema creates the history table for the PostgreSQL ledger.
//
//go:embed schema/postgres.sql
var PostgresSchema string

//go:embed schema/sqlite.sql
var sqliteSchema string

// sqliteSchemaVersion is stored in PRAGMA user_version.
const sqliteSchemaVersion = 1
