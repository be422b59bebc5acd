package database

import "fmt"

// Close closes the underlying connection pool.
func Close() {
	if DB == nil {
		return
	}
	if sqlDB, err := DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// Ping verifies the database connection is alive.
func Ping() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// TableExists checks whether a table is present in the public schema.
func TableExists(name string) (bool, error) {
	var exists bool
	err := DB.Raw(
		"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = ?)",
		name,
	).Scan(&exists).Error
	return exists, err
}

// GetTableCount returns the row count of a table.
func GetTableCount(name string) (int64, error) {
	var count int64
	err := DB.Raw(fmt.Sprintf("SELECT COUNT(*) FROM %q", name)).Scan(&count).Error
	return count, err
}

// RunFullMigration applies the raw SQL migrations followed by the GORM
// auto-migration for the given models.
func RunFullMigration(migrationsDir string, models ...interface{}) error {
	if err := ApplyRawMigrations(migrationsDir); err != nil {
		return err
	}
	return DB.AutoMigrate(models...)
}

// DropAllTables drops every table in the public schema. Used by the migrate
// CLI's reset command only.
func DropAllTables() error {
	return DB.Exec(`
		DO $$ DECLARE r RECORD;
		BEGIN
			FOR r IN (SELECT tablename FROM pg_tables WHERE schemaname = 'public') LOOP
				EXECUTE 'DROP TABLE IF EXISTS ' || quote_ident(r.tablename) || ' CASCADE';
			END LOOP;
		END $$;
	`).Error
}
