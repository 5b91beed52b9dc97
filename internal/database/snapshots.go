package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"merlin-playlist/internal/logging"
	"merlin-playlist/internal/playlist"
)

// MaxSnapshotName bounds snapshot names in bytes.
const MaxSnapshotName = 100

var (
	// ErrSnapshotNotFound is returned when no snapshot has the given name.
	ErrSnapshotNotFound = errors.New("snapshot not found")
	// ErrInvalidSnapshotName is returned for empty, oversized or non UTF-8 names.
	ErrInvalidSnapshotName = errors.New("invalid snapshot name")
)

// SnapshotInfo describes a stored snapshot without its records.
type SnapshotInfo struct {
	Name      string    `json:"name"`
	Items     int       `json:"items"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func validateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || trimmed != name || len(name) > MaxSnapshotName || !utf8.ValidString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidSnapshotName, name)
	}
	return nil
}

// SaveSnapshot stores items under name, replacing any snapshot with the same
// name while keeping its creation time.
func (d *Database) SaveSnapshot(ctx context.Context, name string, items []playlist.Item) error {
	if err := validateName(name); err != nil {
		return err
	}

	start := time.Now()
	var err error
	defer func() { recordQuery("save_snapshot", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	err = d.inTx(ctx, func(tx *sql.Tx) error {
		var id int64
		err := tx.QueryRowContext(ctx, `
			INSERT INTO snapshots (name, item_count) VALUES (?, ?)
			ON CONFLICT(name) DO UPDATE SET
				item_count = excluded.item_count,
				updated_at = strftime('%s', 'now')
			RETURNING id
		`, name, len(items)).Scan(&id)
		if err != nil {
			return fmt.Errorf("failed to upsert snapshot: %w", err)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM snapshot_items WHERE snapshot_id = ?", id); err != nil {
			return fmt.Errorf("failed to clear snapshot items: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO snapshot_items (snapshot_id, position, item_id, parent_id, item_order,
				nb_children, fav_order, type, limit_time, add_time, uuid, title, imagepath, soundpath)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := stmt.Close(); closeErr != nil {
				logging.Warn("failed to close statement: %v", closeErr)
			}
		}()

		for pos, it := range items {
			if _, err := stmt.ExecContext(ctx, id, pos, it.ID, it.ParentID, it.Order,
				it.NbChildren, it.FavOrder, it.Type, it.LimitTime, it.AddTime,
				it.UUID, it.Title, it.ImagePath, it.SoundPath); err != nil {
				return fmt.Errorf("failed to insert item %d: %w", it.ID, err)
			}
		}
		return nil
	})
	if err == nil {
		logging.Info("Saved snapshot %q with %d items", name, len(items))
	}
	return err
}

// LoadSnapshot returns the records of the named snapshot in stored order.
func (d *Database) LoadSnapshot(ctx context.Context, name string) ([]playlist.Item, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("load_snapshot", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var id int64
	err = d.db.QueryRowContext(ctx, "SELECT id FROM snapshots WHERE name = ?", name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, name)
	}
	if err != nil {
		return nil, err
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT item_id, parent_id, item_order, nb_children, fav_order, type,
			limit_time, add_time, uuid, title, imagepath, soundpath
		FROM snapshot_items WHERE snapshot_id = ? ORDER BY position
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			logging.Warn("failed to close rows: %v", closeErr)
		}
	}()

	var items []playlist.Item
	for rows.Next() {
		var it playlist.Item
		if err = rows.Scan(&it.ID, &it.ParentID, &it.Order, &it.NbChildren, &it.FavOrder, &it.Type,
			&it.LimitTime, &it.AddTime, &it.UUID, &it.Title, &it.ImagePath, &it.SoundPath); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	err = rows.Err()
	return items, err
}

// ListSnapshots returns every snapshot, most recently updated first.
func (d *Database) ListSnapshots(ctx context.Context) ([]SnapshotInfo, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_snapshots", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT name, item_count, created_at, updated_at
		FROM snapshots ORDER BY updated_at DESC, name
	`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			logging.Warn("failed to close rows: %v", closeErr)
		}
	}()

	snapshots := []SnapshotInfo{}
	for rows.Next() {
		var info SnapshotInfo
		var created, updated int64
		if err = rows.Scan(&info.Name, &info.Items, &created, &updated); err != nil {
			return nil, err
		}
		info.CreatedAt = time.Unix(created, 0)
		info.UpdatedAt = time.Unix(updated, 0)
		snapshots = append(snapshots, info)
	}
	err = rows.Err()
	return snapshots, err
}

// CountSnapshots returns the number of stored snapshots.
func (d *Database) CountSnapshots(ctx context.Context) (int, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("count_snapshots", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var n int
	err = d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM snapshots").Scan(&n)
	return n, err
}

// DeleteSnapshot removes the named snapshot and its records.
func (d *Database) DeleteSnapshot(ctx context.Context, name string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_snapshot", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	err = d.inTx(ctx, func(tx *sql.Tx) error {
		var id int64
		if err := tx.QueryRowContext(ctx, "SELECT id FROM snapshots WHERE name = ?", name).Scan(&id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: %s", ErrSnapshotNotFound, name)
			}
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM snapshot_items WHERE snapshot_id = ?", id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "DELETE FROM snapshots WHERE id = ?", id)
		return err
	})
	if err == nil {
		logging.Info("Deleted snapshot %q", name)
	}
	return err
}
