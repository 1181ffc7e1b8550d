package table

import "embed"

// Migrations схема хранилища таблиц: migrations/postgres и migrations/sqlite
//
//go:embed migrations
var Migrations embed.FS

// MigrationsDir каталог миграций для диалекта goose
func MigrationsDir(dialect string) string {
	if dialect == "sqlite3" || dialect == "sqlite" {
		return "migrations/sqlite"
	}
	return "migrations/postgres"
}
