package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMetadata(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.GetMetadata(ctx, "nonexistent"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("Expected sql.ErrNoRows, got %v", err)
	}

	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"simple", "k1", "v1"},
		{"overwrite", "k1", "v2"},
		{"empty value", "k2", ""},
		{"special characters", "k3", "é ♪ ' \" ; DROP TABLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := db.SetMetadata(ctx, tt.key, tt.value); err != nil {
				t.Fatalf("SetMetadata failed: %v", err)
			}
			got, err := db.GetMetadata(ctx, tt.key)
			if err != nil {
				t.Fatalf("GetMetadata failed: %v", err)
			}
			if got != tt.value {
				t.Errorf("Expected %q, got %q", tt.value, got)
			}
		})
	}
}

func TestMetadataConcurrency(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("key%d", i)
			if err := db.SetMetadata(ctx, key, key); err != nil {
				t.Errorf("SetMetadata failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 10; i++ {
		key := fmt.Sprintf("key%d", i)
		if v, err := db.GetMetadata(ctx, key); err != nil || v != key {
			t.Errorf("Expected %q, got %q %v", key, v, err)
		}
	}
}

func TestLastExport(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	got, err := db.GetLastExport(ctx)
	if err != nil || !got.IsZero() {
		t.Fatalf("Expected zero time, got %v %v", got, err)
	}

	now := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	if err := db.SetLastExport(ctx, now); err != nil {
		t.Fatalf("SetLastExport failed: %v", err)
	}
	got, err = db.GetLastExport(ctx)
	if err != nil || !got.Equal(now) {
		t.Errorf("Expected %v, got %v %v", now, got, err)
	}

	if err := db.SetLastExport(ctx, time.Time{}); err != nil {
		t.Fatal(err)
	}
	if got, _ := db.GetLastExport(ctx); !got.IsZero() {
		t.Errorf("Expected cleared time, got %v", got)
	}
}
