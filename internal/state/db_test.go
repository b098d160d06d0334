package state

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// setupTestDB opens and migrates a database in a temp directory.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func countRows(t *testing.T, db *DB, query string, args ...any) int {
	t.Helper()
	var n int
	if err := db.queryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("count %q: %v", query, err)
	}
	return n
}

func TestOpen_CreatesDatabaseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".parley", "nested", "state.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if db.Path() != path {
		t.Errorf("Path() = %q, want %q", db.Path(), path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	// Nothing can be created under /proc
	if _, err := Open("/proc/nonexistent/state.db"); err == nil {
		t.Error("expected error opening db at invalid path")
	}
}

func TestClose_StopsQueries(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := db.ListConversations(0); err == nil {
		t.Error("expected error listing conversations after Close")
	}
}

func TestMigrate_CreatesTranscriptTables(t *testing.T) {
	db := setupTestDB(t)

	for _, table := range []string{"schema_version", "conversations", "results"} {
		if n := countRows(t, db, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table); n != 1 {
			t.Errorf("table %s missing", table)
		}
	}

	// category is part of the results table from the start
	if n := countRows(t, db, "SELECT COUNT(*) FROM pragma_table_info('results') WHERE name='category'"); n != 1 {
		t.Error("results.category column missing")
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := setupTestDB(t)

	for i := 0; i < 2; i++ {
		if err := db.Migrate(); err != nil {
			t.Fatalf("Migrate (run %d) failed: %v", i+2, err)
		}
	}

	if n := countRows(t, db, "SELECT COUNT(*) FROM schema_version"); n != SchemaVersion {
		t.Errorf("schema_version rows = %d, want %d", n, SchemaVersion)
	}
	if v := countRows(t, db, "SELECT MAX(version) FROM schema_version"); v != SchemaVersion {
		t.Errorf("schema version = %d, want %d", v, SchemaVersion)
	}
}

func TestMigrate_RejectsNewerSchema(t *testing.T) {
	db := setupTestDB(t)

	err := db.inTx(func(tx *sql.Tx) error {
		_, err := tx.Exec("INSERT INTO schema_version (version, applied_at) VALUES (?, ?)",
			SchemaVersion+1, formatTime(time.Now()))
		return err
	})
	if err != nil {
		t.Fatalf("insert future version: %v", err)
	}

	if err := db.Migrate(); err == nil {
		t.Error("expected Migrate to refuse a newer schema")
	}
}

func TestOpen_ForeignKeysOnEveryConnection(t *testing.T) {
	db := setupTestDB(t)

	// Holding a result set open forces the next query onto a second
	// pooled connection.
	rows, err := db.query("SELECT id FROM conversations")
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	defer rows.Close()

	if fk := countRows(t, db, "PRAGMA foreign_keys"); fk != 1 {
		t.Errorf("foreign_keys = %d on second connection, want 1", fk)
	}
}

func TestPurgeOlderThan_CascadesToResults(t *testing.T) {
	db := setupTestDB(t)

	old := time.Now().Add(-48 * time.Hour)
	for i, id := range []string{"old-1", "old-2"} {
		if err := db.Record("old", testResult(id, "eski istek", old.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("Record(%s) failed: %v", id, err)
		}
	}
	if err := db.Record("new", testResult("new-1", "yeni istek", time.Now())); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	n, err := db.PurgeOlderThan(24 * time.Hour)
	if err != nil {
		t.Fatalf("PurgeOlderThan failed: %v", err)
	}
	if n != 1 {
		t.Errorf("purged = %d, want 1", n)
	}

	if got := countRows(t, db, "SELECT COUNT(*) FROM results WHERE conversation_id = ?", "old"); got != 0 {
		t.Errorf("results left for purged conversation = %d, want 0", got)
	}
	if rec, err := db.GetResult("old-1"); err != nil || rec != nil {
		t.Errorf("GetResult(old-1) = %v, %v; want nil, nil", rec, err)
	}

	convs, err := db.ListConversations(0)
	if err != nil {
		t.Fatalf("ListConversations failed: %v", err)
	}
	if len(convs) != 1 || convs[0].ID != "new" {
		t.Errorf("conversations after purge = %+v, want only new", convs)
	}
	results, err := db.ListResults("new", 0)
	if err != nil {
		t.Fatalf("ListResults failed: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("results for new = %d, want 1", len(results))
	}
}

func TestPurgeOlderThan_NothingOld(t *testing.T) {
	db := setupTestDB(t)
	if err := db.Record("conv", testResult("r1", "istek", time.Now())); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	n, err := db.PurgeOlderThan(time.Hour)
	if err != nil {
		t.Fatalf("PurgeOlderThan failed: %v", err)
	}
	if n != 0 {
		t.Errorf("purged = %d, want 0", n)
	}
	if got := countRows(t, db, "SELECT COUNT(*) FROM results"); got != 1 {
		t.Errorf("results = %d, want 1", got)
	}
}

func TestRecord_StoresCategoryColumn(t *testing.T) {
	db := setupTestDB(t)
	if err := db.Record("conv", testResult("r1", "tum gorevleri listele", time.Now())); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	if n := countRows(t, db, "SELECT COUNT(*) FROM results WHERE category = ?", "query"); n != 1 {
		t.Errorf("results with category query = %d, want 1", n)
	}
}

func TestProjectDBPath(t *testing.T) {
	if got, want := ProjectDBPath("/my/project"), "/my/project/.parley/state.db"; got != want {
		t.Errorf("ProjectDBPath() = %q, want %q", got, want)
	}
}

func TestTimeFormatSortsAsText(t *testing.T) {
	earlier := time.Date(2024, 5, 1, 9, 59, 59, 0, time.FixedZone("TRT", 3*3600))
	later := time.Date(2024, 5, 1, 7, 0, 0, 0, time.UTC)

	if a, b := formatTime(earlier), formatTime(later); a >= b {
		t.Errorf("formatTime(%v) = %q should sort before %q", earlier, a, b)
	}

	parsed, err := parseTime(formatTime(earlier))
	if err != nil {
		t.Fatalf("parseTime failed: %v", err)
	}
	if !parsed.Equal(earlier) {
		t.Errorf("parsed = %v, want %v", parsed, earlier)
	}
}
