package photo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// SortMode selects the canonical display ordering of the active catalog.
type SortMode string

const (
	SortSequential SortMode = "sequential"
	SortRandom     SortMode = "random"
	SortNewest     SortMode = "newest"
	SortOldest     SortMode = "oldest"
)

// Repository defines catalog data access. Pairing and soft-delete methods
// are transactional: the symmetric paired_photo_id invariant is never
// observable half-applied.
type Repository interface {
	Create(ctx context.Context, p *Photo) error
	GetByID(ctx context.Context, id int64) (*Photo, error)
	GetActiveByID(ctx context.Context, id int64) (*Photo, error)
	GetActiveByHash(ctx context.Context, hash string) (*Photo, error)
	GetByStoredFilename(ctx context.Context, name string) (*Photo, error)
	KnownHashes(ctx context.Context) (map[string]bool, error)
	ListActive(ctx context.Context, mode SortMode) ([]Photo, error)
	TryPair(ctx context.Context, photoID int64) (int64, error)
	Unpair(ctx context.Context, photoID int64) error
	ManualPair(ctx context.Context, idA, idB int64) error
	SoftDelete(ctx context.Context, id int64) error
	Stats(ctx context.Context) (*Stats, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates the catalog repository.
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Create inserts a new catalog row. The duplicate check and the insert run
// in one transaction, so two concurrent identical uploads cannot both land
// as active rows with the same hash.
func (r *repository) Create(ctx context.Context, p *Photo) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		var existing int64
		err := tx.GetContext(ctx, &existing,
			`SELECT id FROM photos WHERE content_hash = ? AND active = 1 LIMIT 1`, p.ContentHash)
		if err == nil {
			return ErrDuplicatePhoto
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		query := `
			INSERT INTO photos (
				stored_filename, original_filename, content_hash,
				upload_date, last_modified, size_bytes,
				width, height, is_portrait, active
			)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
		`
		res, err := tx.ExecContext(ctx, query,
			p.StoredFilename,
			p.OriginalFilename,
			p.ContentHash,
			p.UploadDate,
			p.LastModified,
			p.SizeBytes,
			p.Width,
			p.Height,
			p.IsPortrait,
		)
		if err != nil {
			return fmt.Errorf("insert photo: %w", err)
		}

		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("photo insert id: %w", err)
		}
		p.ID = id
		p.Active = true
		return nil
	})
}

func (r *repository) getWhere(ctx context.Context, where string, args ...interface{}) (*Photo, error) {
	var p Photo
	err := r.db.GetContext(ctx, &p, `SELECT * FROM photos WHERE `+where, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Photo, error) {
	return r.getWhere(ctx, `id = ?`, id)
}

func (r *repository) GetActiveByID(ctx context.Context, id int64) (*Photo, error) {
	return r.getWhere(ctx, `id = ? AND active = 1`, id)
}

func (r *repository) GetActiveByHash(ctx context.Context, hash string) (*Photo, error) {
	return r.getWhere(ctx, `content_hash = ? AND active = 1`, hash)
}

func (r *repository) GetByStoredFilename(ctx context.Context, name string) (*Photo, error) {
	return r.getWhere(ctx, `stored_filename = ?`, name)
}

// KnownHashes returns every content hash the catalog has ever seen,
// including soft-deleted photos. The boot scan uses it to avoid
// resurrecting a deleted photo from its file.
func (r *repository) KnownHashes(ctx context.Context) (map[string]bool, error) {
	var hashes []string
	if err := r.db.SelectContext(ctx, &hashes, `SELECT content_hash FROM photos`); err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(hashes))
	for _, h := range hashes {
		set[h] = true
	}
	return set, nil
}

func (r *repository) ListActive(ctx context.Context, mode SortMode) ([]Photo, error) {
	var order string
	switch mode {
	case SortRandom:
		order = "RANDOM()"
	case SortNewest:
		order = "upload_date DESC, id DESC"
	case SortOldest:
		order = "upload_date ASC, id ASC"
	default: // sequential
		order = "stored_filename ASC"
	}

	var photos []Photo
	err := r.db.SelectContext(ctx, &photos, `SELECT * FROM photos WHERE active = 1 ORDER BY `+order)
	return photos, err
}

// TryPair pairs photoID with the most recently uploaded active portrait
// photo that is currently unpaired. Returns the partner id, or 0 when no
// candidate exists (which is not an error). Both sides are updated in one
// transaction.
func (r *repository) TryPair(ctx context.Context, photoID int64) (int64, error) {
	var partnerID int64
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		var p Photo
		if err := tx.GetContext(ctx, &p, `SELECT * FROM photos WHERE id = ?`, photoID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrPhotoNotFound
			}
			return err
		}
		if !p.IsPortrait || !p.Active {
			return ErrNotPortrait
		}
		if p.PairedPhotoID.Valid {
			// Already paired; leave it alone.
			partnerID = p.PairedPhotoID.Int64
			return nil
		}

		var candidate int64
		err := tx.GetContext(ctx, &candidate, `
			SELECT id FROM photos
			WHERE is_portrait = 1
			  AND active = 1
			  AND paired_photo_id IS NULL
			  AND id != ?
			ORDER BY upload_date DESC, id DESC
			LIMIT 1
		`, photoID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil // staying unpaired is fine
			}
			return err
		}

		if err := pairInTx(ctx, tx, photoID, candidate); err != nil {
			return err
		}
		partnerID = candidate
		return nil
	})
	return partnerID, err
}

// Unpair clears the pairing on photoID and its partner. Idempotent: an
// already-unpaired photo is a no-op.
func (r *repository) Unpair(ctx context.Context, photoID int64) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		return unpairInTx(ctx, tx, photoID)
	})
}

// ManualPair is the admin override: both photos are unpaired first (any
// existing pairings are silently discarded), then paired with each other.
// Orientation is enforced here too; pairing a landscape photo would corrupt
// the side-by-side layout no matter who asked for it.
func (r *repository) ManualPair(ctx context.Context, idA, idB int64) error {
	if idA == idB {
		return ErrSelfPair
	}
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, id := range []int64{idA, idB} {
			var p Photo
			if err := tx.GetContext(ctx, &p, `SELECT * FROM photos WHERE id = ? AND active = 1`, id); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return ErrPhotoNotFound
				}
				return err
			}
			if !p.IsPortrait {
				return ErrNotPortrait
			}
		}

		if err := unpairInTx(ctx, tx, idA); err != nil {
			return err
		}
		if err := unpairInTx(ctx, tx, idB); err != nil {
			return err
		}
		return pairInTx(ctx, tx, idA, idB)
	})
}

// SoftDelete unpairs the photo and marks it inactive in one transaction, so
// no active photo is ever left pointing at an inactive partner. Deleting an
// already-inactive photo is rejected with ErrPhotoNotFound.
func (r *repository) SoftDelete(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := unpairInTx(ctx, tx, id); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE photos SET active = 0, last_modified = ? WHERE id = ? AND active = 1`,
			time.Now(), id)
		if err != nil {
			return err
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrPhotoNotFound
		}
		return nil
	})
}

func (r *repository) Stats(ctx context.Context) (*Stats, error) {
	var s Stats

	if err := r.db.GetContext(ctx, &s.ActivePhotos,
		`SELECT COUNT(*) FROM photos WHERE active = 1`); err != nil {
		return nil, err
	}
	if err := r.db.GetContext(ctx, &s.PortraitPhotos,
		`SELECT COUNT(*) FROM photos WHERE active = 1 AND is_portrait = 1`); err != nil {
		return nil, err
	}
	if err := r.db.GetContext(ctx, &s.PairedPhotos,
		`SELECT COUNT(*) FROM photos WHERE active = 1 AND paired_photo_id IS NOT NULL`); err != nil {
		return nil, err
	}
	if err := r.db.GetContext(ctx, &s.TotalSizeBytes,
		`SELECT COALESCE(SUM(size_bytes), 0) FROM photos WHERE active = 1`); err != nil {
		return nil, err
	}
	if err := r.db.SelectContext(ctx, &s.RecentUploads, `
		SELECT date(upload_date) AS day, COUNT(*) AS count
		FROM photos
		WHERE active = 1 AND upload_date >= date('now', '-7 days')
		GROUP BY day
		ORDER BY day DESC
	`); err != nil {
		return nil, err
	}

	return &s, nil
}

func pairInTx(ctx context.Context, tx *sqlx.Tx, idA, idB int64) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE photos SET paired_photo_id = ? WHERE id = ?`, idB, idA); err != nil {
		return fmt.Errorf("pair %d -> %d: %w", idA, idB, err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE photos SET paired_photo_id = ? WHERE id = ?`, idA, idB); err != nil {
		return fmt.Errorf("pair %d -> %d: %w", idB, idA, err)
	}
	return nil
}

func unpairInTx(ctx context.Context, tx *sqlx.Tx, photoID int64) error {
	var paired sql.NullInt64
	err := tx.GetContext(ctx, &paired,
		`SELECT paired_photo_id FROM photos WHERE id = ?`, photoID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return err
	}
	if !paired.Valid {
		return nil
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE photos SET paired_photo_id = NULL WHERE id IN (?, ?)`,
		photoID, paired.Int64)
	if err != nil {
		return fmt.Errorf("unpair %d: %w", photoID, err)
	}
	return nil
}
