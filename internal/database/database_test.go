package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"merlin-playlist/internal/metrics"
)

func setupTestDB(t testing.TB) (*Database, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	return db, dbPath
}

func TestNewDatabase(t *testing.T) {
	db, dbPath := setupTestDB(t)

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
	if err := db.db.PingContext(context.Background()); err != nil {
		t.Errorf("Database ping failed: %v", err)
	}

	var mode string
	if err := db.db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("PRAGMA failed: %v", err)
	}
	if mode != "wal" {
		t.Errorf("Expected WAL journal mode, got %s", mode)
	}
}

func TestNewDatabaseMissingDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "missing", "test.db")

	if _, err := New(context.Background(), dbPath); err == nil {
		t.Error("Expected error for missing directory")
	}
}

func TestNewDatabaseReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	db, err := New(ctx, dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.SetMetadata(ctx, "k", "v"); err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	db, err = New(ctx, dbPath)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer db.Close()
	if v, err := db.GetMetadata(ctx, "k"); err != nil || v != "v" {
		t.Errorf("Expected persisted value, got %q %v", v, err)
	}
}

func TestRecordQuery(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status string
	}{
		{"success", nil, "success"},
		{"failure", errors.New("test error"), "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := metrics.DBQueryTotal.WithLabelValues("test_record_query", tt.status)
			before := testutil.ToFloat64(counter)

			recordQuery("test_record_query", time.Now(), tt.err)

			if got := testutil.ToFloat64(counter) - before; got != 1 {
				t.Errorf("Expected counter to increase by 1, got %v", got)
			}
		})
	}
}

func TestUpdateDBMetrics(t *testing.T) {
	db, dbPath := setupTestDB(t)

	db.UpdateDBMetrics()

	info, err := os.Stat(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if got := testutil.ToFloat64(metrics.DBSizeBytes.WithLabelValues("main")); got != float64(info.Size()) {
		t.Errorf("Expected main size %d, got %v", info.Size(), got)
	}
}

func TestVacuum(t *testing.T) {
	db, _ := setupTestDB(t)

	if err := db.Vacuum(context.Background()); err != nil {
		t.Errorf("Vacuum failed: %v", err)
	}
}

func TestPing(t *testing.T) {
	db, _ := setupTestDB(t)

	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}
