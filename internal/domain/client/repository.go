package client

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// Repository persists client sync records.
type Repository interface {
	Upsert(ctx context.Context, rec *Record) error
	Get(ctx context.Context, clientID string) (*Record, error)
	List(ctx context.Context) ([]Record, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// Upsert records a sync contact. first_seen is set once and never updated;
// empty version strings keep whatever was reported before.
func (r *repository) Upsert(ctx context.Context, rec *Record) error {
	if rec.LastSync.IsZero() {
		rec.LastSync = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO clients (client_id, last_sync, display_version, sync_version, last_addr, first_seen)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(client_id) DO UPDATE SET
			last_sync = excluded.last_sync,
			display_version = CASE WHEN excluded.display_version != '' THEN excluded.display_version ELSE clients.display_version END,
			sync_version = CASE WHEN excluded.sync_version != '' THEN excluded.sync_version ELSE clients.sync_version END,
			last_addr = excluded.last_addr
	`, rec.ClientID, rec.LastSync, rec.DisplayVersion, rec.SyncVersion, rec.LastAddr, rec.LastSync)
	return err
}

func (r *repository) Get(ctx context.Context, clientID string) (*Record, error) {
	var rec Record
	err := r.db.GetContext(ctx, &rec, `SELECT * FROM clients WHERE client_id = ?`, clientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (r *repository) List(ctx context.Context) ([]Record, error) {
	var recs []Record
	err := r.db.SelectContext(ctx, &recs, `SELECT * FROM clients ORDER BY last_sync DESC`)
	return recs, err
}
