package database

import "github.com/jmoiron/sqlx"

// catalogSchema is the server-side catalog: the authoritative photo table
// plus per-client sync bookkeeping. paired_photo_id is a symmetric
// self-reference maintained by the pairing engine; active=0 is a soft delete.
const catalogSchema = `
CREATE TABLE IF NOT EXISTS photos (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	stored_filename TEXT NOT NULL UNIQUE,
	original_filename TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	upload_date TIMESTAMP NOT NULL,
	last_modified TIMESTAMP NOT NULL,
	size_bytes INTEGER NOT NULL,
	width INTEGER NOT NULL,
	height INTEGER NOT NULL,
	is_portrait BOOLEAN NOT NULL,
	paired_photo_id INTEGER,
	active BOOLEAN NOT NULL DEFAULT 1,
	FOREIGN KEY (paired_photo_id) REFERENCES photos (id)
);

CREATE INDEX IF NOT EXISTS idx_photos_hash ON photos (content_hash);
CREATE INDEX IF NOT EXISTS idx_portrait_photos ON photos (is_portrait, active);
CREATE INDEX IF NOT EXISTS idx_photo_pairs ON photos (paired_photo_id, active);

CREATE TABLE IF NOT EXISTS clients (
	client_id TEXT PRIMARY KEY,
	last_sync TIMESTAMP NOT NULL,
	display_version TEXT NOT NULL DEFAULT '',
	sync_version TEXT NOT NULL DEFAULT '',
	last_addr TEXT NOT NULL DEFAULT '',
	first_seen TIMESTAMP NOT NULL
);
`

// MigrateCatalog creates the server catalog tables if they do not exist.
func MigrateCatalog(db *sqlx.DB) error {
	_, err := db.Exec(catalogSchema)
	return err
}
