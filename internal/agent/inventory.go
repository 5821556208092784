// Package agent implements the unattended display client: it keeps a local
// photo directory converged with the server catalog.
package agent

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/framelight/framelight/internal/pkg/database"
)

const inventorySchema = `
CREATE TABLE IF NOT EXISTS photo_hashes (
    hash            TEXT PRIMARY KEY,
    filename        TEXT NOT NULL,
    photo_id        INTEGER NOT NULL,
    size_bytes      INTEGER NOT NULL DEFAULT 0,
    width           INTEGER NOT NULL DEFAULT 0,
    height          INTEGER NOT NULL DEFAULT 0,
    is_portrait     BOOLEAN NOT NULL DEFAULT 0,
    paired_photo_id INTEGER
);

CREATE TABLE IF NOT EXISTS state (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// Entry is one locally held photo. Orientation and pairing come from the
// server's plan, never from file content: the display process reads them
// here to lay out portrait pairs side by side.
type Entry struct {
	Hash          string        `db:"hash"`
	Filename      string        `db:"filename"`
	PhotoID       int64         `db:"photo_id"`
	SizeBytes     int64         `db:"size_bytes"`
	Width         int           `db:"width"`
	Height        int           `db:"height"`
	IsPortrait    bool          `db:"is_portrait"`
	PairedPhotoID sql.NullInt64 `db:"paired_photo_id"`
}

// Inventory is the agent's local database: which photos it holds, keyed by
// content hash, plus a small key/value state table (client id, staged
// update versions).
type Inventory struct {
	db *sqlx.DB
}

func OpenInventory(path string) (*Inventory, error) {
	db, err := database.NewSQLite(path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(inventorySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate inventory: %w", err)
	}
	return &Inventory{db: db}, nil
}

func (inv *Inventory) Close() error {
	return inv.db.Close()
}

// ClientID returns the stable client identity, generating and persisting
// one on first use.
func (inv *Inventory) ClientID(ctx context.Context) (string, error) {
	id, err := inv.GetState(ctx, "client_id")
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}

	id = uuid.NewString()
	if err := inv.SetState(ctx, "client_id", id); err != nil {
		return "", err
	}
	return id, nil
}

// Hashes returns every content hash the agent currently holds.
func (inv *Inventory) Hashes(ctx context.Context) ([]string, error) {
	var hashes []string
	err := inv.db.SelectContext(ctx, &hashes, `SELECT hash FROM photo_hashes ORDER BY hash`)
	return hashes, err
}

// Entries returns the full local inventory.
func (inv *Inventory) Entries(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	err := inv.db.SelectContext(ctx, &entries, `SELECT * FROM photo_hashes ORDER BY filename`)
	return entries, err
}

// GetByHash returns the entry for one hash, or nil when absent.
func (inv *Inventory) GetByHash(ctx context.Context, hash string) (*Entry, error) {
	var e Entry
	err := inv.db.GetContext(ctx, &e, `SELECT * FROM photo_hashes WHERE hash = ?`, hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// Upsert records a downloaded photo.
func (inv *Inventory) Upsert(ctx context.Context, e *Entry) error {
	_, err := inv.db.ExecContext(ctx, `
		INSERT INTO photo_hashes (hash, filename, photo_id, size_bytes, width, height, is_portrait, paired_photo_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET
			filename = excluded.filename,
			photo_id = excluded.photo_id,
			size_bytes = excluded.size_bytes,
			width = excluded.width,
			height = excluded.height,
			is_portrait = excluded.is_portrait,
			paired_photo_id = excluded.paired_photo_id
	`, e.Hash, e.Filename, e.PhotoID, e.SizeBytes, e.Width, e.Height, e.IsPortrait, e.PairedPhotoID)
	return err
}

// Delete forgets a hash. Removing the file is the caller's job.
func (inv *Inventory) Delete(ctx context.Context, hash string) error {
	_, err := inv.db.ExecContext(ctx, `DELETE FROM photo_hashes WHERE hash = ?`, hash)
	return err
}

// GetState reads a state value, returning "" when unset.
func (inv *Inventory) GetState(ctx context.Context, key string) (string, error) {
	var value string
	err := inv.db.GetContext(ctx, &value, `SELECT value FROM state WHERE key = ?`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

// SetState writes a state value.
func (inv *Inventory) SetState(ctx context.Context, key, value string) error {
	_, err := inv.db.ExecContext(ctx, `
		INSERT INTO state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}
