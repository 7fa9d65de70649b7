package db

import (
	"os"
	"path/filepath"
	"testing"
)

const testMigrationsDir = "migrations"

// setupTestDB opens a fresh database in a temp directory. No migrations
// are applied; tests that need the schema run MigrateUp themselves.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test DB: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

func TestNewDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pitch.db")

	db, err := NewDB(path)
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("database file should exist after NewDB: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Errorf("Ping failed on freshly opened DB: %v", err)
	}
}

func TestNewDB_InvalidPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "nested", "pitch.db")

	if _, err := NewDB(path); err == nil {
		t.Error("expected error when parent directory does not exist")
	}
}

func TestMigrateUp(t *testing.T) {
	db := setupTestDB(t)

	if err := db.MigrateUp(testMigrationsDir); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}

	version, dirty, err := db.MigrateVersion(testMigrationsDir)
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 2 {
		t.Errorf("expected version 2, got %d", version)
	}
	if dirty {
		t.Error("database should not be dirty after successful migration")
	}

	var tableExists bool
	err = db.QueryRow(`
		SELECT COUNT(*) > 0
		FROM sqlite_master
		WHERE type='table' AND name='analyses'
	`).Scan(&tableExists)
	if err != nil {
		t.Fatalf("failed to check analyses table: %v", err)
	}
	if !tableExists {
		t.Error("analyses table should exist after migration")
	}

	// The percentile columns come from the second migration.
	for _, col := range []string{"speed_p50_kmh", "speed_p85_kmh", "speed_p95_kmh"} {
		var hasCol bool
		err = db.QueryRow(`
			SELECT COUNT(*) > 0
			FROM pragma_table_info('analyses')
			WHERE name = ?
		`, col).Scan(&hasCol)
		if err != nil {
			t.Fatalf("failed to check column %s: %v", col, err)
		}
		if !hasCol {
			t.Errorf("column %s should exist after migration", col)
		}
	}
}

func TestMigrateUp_Idempotency(t *testing.T) {
	db := setupTestDB(t)

	if err := db.MigrateUp(testMigrationsDir); err != nil {
		t.Fatalf("first MigrateUp failed: %v", err)
	}
	if err := db.MigrateUp(testMigrationsDir); err != nil {
		t.Fatalf("second MigrateUp failed: %v", err)
	}

	version, _, err := db.MigrateVersion(testMigrationsDir)
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 2 {
		t.Errorf("expected version 2 after idempotent up, got %d", version)
	}
}

func TestMigrateUp_MissingDir(t *testing.T) {
	db := setupTestDB(t)

	if err := db.MigrateUp(filepath.Join(t.TempDir(), "no-such-migrations")); err == nil {
		t.Error("expected error for missing migrations directory")
	}
}

func TestMigrateUp_InsertRow(t *testing.T) {
	db := setupTestDB(t)

	if err := db.MigrateUp(testMigrationsDir); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}

	_, err := db.Exec(`
		INSERT INTO analyses (analysis_uuid, source_name, success, speed_kmh, fps, interval_speeds)
		VALUES (?, ?, ?, ?, ?, ?)
	`, "test-uuid-1", "pitch.mp4", 1, 112.5, 30.0, "[31.25]")
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	var (
		uuid     string
		speedKMH float64
		success  int
	)
	err = db.QueryRow(`
		SELECT analysis_uuid, speed_kmh, success FROM analyses WHERE analysis_uuid = ?
	`, "test-uuid-1").Scan(&uuid, &speedKMH, &success)
	if err != nil {
		t.Fatalf("select failed: %v", err)
	}

	if uuid != "test-uuid-1" {
		t.Errorf("expected uuid test-uuid-1, got %s", uuid)
	}
	if speedKMH != 112.5 {
		t.Errorf("expected speed 112.5, got %v", speedKMH)
	}
	if success != 1 {
		t.Errorf("expected success=1, got %d", success)
	}
}

func TestMigrateDown(t *testing.T) {
	db := setupTestDB(t)

	if err := db.MigrateUp(testMigrationsDir); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}

	// Roll back the percentile columns only.
	if err := db.MigrateDown(testMigrationsDir); err != nil {
		t.Fatalf("MigrateDown failed: %v", err)
	}

	version, dirty, err := db.MigrateVersion(testMigrationsDir)
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 1 {
		t.Errorf("expected version 1 after down migration, got %d", version)
	}
	if dirty {
		t.Error("database should not be dirty after successful down migration")
	}

	var hasCol bool
	err = db.QueryRow(`
		SELECT COUNT(*) > 0
		FROM pragma_table_info('analyses')
		WHERE name='speed_p50_kmh'
	`).Scan(&hasCol)
	if err != nil {
		t.Fatalf("failed to check speed_p50_kmh column: %v", err)
	}
	if hasCol {
		t.Error("speed_p50_kmh should not exist after rolling back second migration")
	}

	var tableExists bool
	err = db.QueryRow(`
		SELECT COUNT(*) > 0
		FROM sqlite_master
		WHERE type='table' AND name='analyses'
	`).Scan(&tableExists)
	if err != nil {
		t.Fatalf("failed to check analyses table: %v", err)
	}
	if !tableExists {
		t.Error("analyses table should still exist after rolling back only second migration")
	}
}

func TestMigrateDown_AtVersionZero(t *testing.T) {
	db := setupTestDB(t)

	if err := db.MigrateUp(testMigrationsDir); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}

	// 2 -> 1 -> 0
	if err := db.MigrateDown(testMigrationsDir); err != nil {
		t.Fatalf("first MigrateDown failed: %v", err)
	}
	if err := db.MigrateDown(testMigrationsDir); err != nil {
		t.Fatalf("second MigrateDown failed: %v", err)
	}

	version, _, err := db.MigrateVersion(testMigrationsDir)
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 0 {
		t.Errorf("expected version 0 after rolling back all, got %d", version)
	}

	var tableExists bool
	err = db.QueryRow(`
		SELECT COUNT(*) > 0
		FROM sqlite_master
		WHERE type='table' AND name='analyses'
	`).Scan(&tableExists)
	if err != nil {
		t.Fatalf("failed to check analyses table: %v", err)
	}
	if tableExists {
		t.Error("analyses table should not exist after rolling back all migrations")
	}

	// No migration left to roll back.
	if err := db.MigrateDown(testMigrationsDir); err == nil {
		t.Error("MigrateDown at version 0 should error")
	}
}

func TestMigrateVersion_Fresh(t *testing.T) {
	db := setupTestDB(t)

	version, dirty, err := db.MigrateVersion(testMigrationsDir)
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 0 {
		t.Errorf("expected version 0 before migrations, got %d", version)
	}
	if dirty {
		t.Error("database should not be dirty before any migrations")
	}
}
