package photo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/framelight/framelight/internal/domain/events"
	"github.com/framelight/framelight/internal/domain/settings"
	"github.com/framelight/framelight/internal/pkg/hash"
	"github.com/framelight/framelight/internal/pkg/imaging"
	"github.com/framelight/framelight/internal/pkg/storage"
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tif":  true,
	".tiff": true,
}

// Service implements catalog operations on top of the repository and the
// photo file store.
type Service struct {
	repo     Repository
	store    storage.Storage
	settings *settings.Store
	hub      *events.Hub
}

func NewService(repo Repository, store storage.Storage, st *settings.Store, hub *events.Hub) *Service {
	return &Service{repo: repo, store: store, settings: st, hub: hub}
}

// Ingest admits one photo into the catalog: hash, dimension probe, file
// write, catalog row, and an automatic pairing attempt for portraits.
// A photo whose hash matches an existing active photo is rejected with
// ErrDuplicatePhoto regardless of its filename.
func (s *Service) Ingest(ctx context.Context, originalName string, r io.Reader) (*Photo, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExtensions[ext] {
		return nil, ErrInvalidType
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	digest, err := hash.Reader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("hash upload: %w", err)
	}

	existing, err := s.repo.GetActiveByHash(ctx, digest)
	if err != nil {
		return nil, fmt.Errorf("duplicate check: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicatePhoto
	}

	info, err := imaging.Probe(bytes.NewReader(data))
	if err != nil {
		return nil, ErrInvalidImage
	}

	now := time.Now()
	stored := storedFilename(now, originalName)

	if _, err := s.store.Save(ctx, stored, bytes.NewReader(data), contentTypeFor(ext)); err != nil {
		return nil, fmt.Errorf("store photo: %w", err)
	}

	p := &Photo{
		StoredFilename:   stored,
		OriginalFilename: filepath.Base(originalName),
		ContentHash:      digest,
		UploadDate:       now,
		LastModified:     now,
		SizeBytes:        int64(len(data)),
		Width:            info.Width,
		Height:           info.Height,
		IsPortrait:       info.IsPortrait,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		// A concurrent identical upload can win the race past the check
		// above; Create's transaction catches it.
		if errors.Is(err, ErrDuplicatePhoto) {
			return nil, ErrDuplicatePhoto
		}
		// The file is now an orphan; the boot scan will reclaim it.
		return nil, fmt.Errorf("catalog insert: %w", err)
	}

	if p.IsPortrait && s.settings.Snapshot().EnablePortraitPairs {
		partner, err := s.repo.TryPair(ctx, p.ID)
		if err != nil {
			log.Warn().Err(err).Int64("photo_id", p.ID).Msg("auto-pair failed")
		} else if partner != 0 {
			p.PairedPhotoID.Int64 = partner
			p.PairedPhotoID.Valid = true
			log.Info().Int64("photo_id", p.ID).Int64("partner_id", partner).Msg("portraits paired")
		}
	}

	s.hub.Publish("photo_uploaded", map[string]interface{}{
		"id":       p.ID,
		"filename": p.StoredFilename,
	})
	return p, nil
}

// Delete soft-deletes a photo. The file stays on disk so clients that have
// not synced yet can still be told to remove it by hash; only the catalog
// row is deactivated.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.hub.Publish("photo_deleted", map[string]interface{}{"id": id})
	return nil
}

// Pair is the admin override pairing two portrait photos.
func (s *Service) Pair(ctx context.Context, idA, idB int64) error {
	if err := s.repo.ManualPair(ctx, idA, idB); err != nil {
		return err
	}
	s.hub.Publish("photos_paired", map[string]interface{}{"ids": []int64{idA, idB}})
	return nil
}

// Unpair breaks a pairing. No-op when the photo has no partner.
func (s *Service) Unpair(ctx context.Context, id int64) error {
	if err := s.repo.Unpair(ctx, id); err != nil {
		return err
	}
	s.hub.Publish("photo_unpaired", map[string]interface{}{"id": id})
	return nil
}

// List returns active photos in the given order.
func (s *Service) List(ctx context.Context, mode SortMode) ([]Photo, error) {
	return s.repo.ListActive(ctx, mode)
}

// Get returns an active photo by id.
func (s *Service) Get(ctx context.Context, id int64) (*Photo, error) {
	p, err := s.repo.GetActiveByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPhotoNotFound
	}
	return p, nil
}

// Open returns the stored file for a photo.
func (s *Service) Open(ctx context.Context, p *Photo) (io.ReadCloser, error) {
	return s.store.Open(ctx, p.StoredFilename)
}

// Stats returns catalog statistics for the dashboard.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx)
}

// storedFilename builds the canonical on-disk name. The timestamp prefix
// keeps sequential sort equal to upload order and avoids collisions between
// uploads that share an original name.
func storedFilename(t time.Time, original string) string {
	base := filepath.Base(original)
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return fmt.Sprintf("%s_%s", t.Format("20060102_150405"), b.String())
}

func contentTypeFor(ext string) string {
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".bmp":
		return "image/bmp"
	case ".webp":
		return "image/webp"
	case ".tif", ".tiff":
		return "image/tiff"
	default:
		return "application/octet-stream"
	}
}
