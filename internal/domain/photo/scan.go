package photo

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/framelight/framelight/internal/pkg/hash"
	"github.com/framelight/framelight/internal/pkg/imaging"
)

// ScanStorage reconciles the photo store with the catalog at boot. Files
// already recorded under their stored filename are skipped; files whose
// content hash is known under any name are skipped too, so a soft-deleted
// photo is never resurrected by its leftover file. Everything else is
// registered as a new catalog row. Corrupt files are logged and left in
// place for an operator to inspect.
func (s *Service) ScanStorage(ctx context.Context) error {
	names, err := s.store.List(ctx)
	if err != nil {
		return err
	}

	known, err := s.repo.KnownHashes(ctx)
	if err != nil {
		return err
	}

	var added, skipped int
	for _, name := range names {
		existing, err := s.repo.GetByStoredFilename(ctx, name)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}

		rc, err := s.store.Open(ctx, name)
		if err != nil {
			log.Warn().Err(err).Str("file", name).Msg("scan: cannot open file")
			skipped++
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			log.Warn().Err(err).Str("file", name).Msg("scan: cannot read file")
			skipped++
			continue
		}

		digest, err := hash.Reader(bytes.NewReader(data))
		if err != nil {
			log.Warn().Err(err).Str("file", name).Msg("scan: cannot hash file")
			skipped++
			continue
		}
		if known[digest] {
			skipped++
			continue
		}

		info, err := imaging.Probe(bytes.NewReader(data))
		if err != nil {
			log.Warn().Err(err).Str("file", name).Msg("scan: not a decodable image")
			skipped++
			continue
		}

		now := time.Now()
		p := &Photo{
			StoredFilename:   name,
			OriginalFilename: name,
			ContentHash:      digest,
			UploadDate:       now,
			LastModified:     now,
			SizeBytes:        int64(len(data)),
			Width:            info.Width,
			Height:           info.Height,
			IsPortrait:       info.IsPortrait,
		}
		if err := s.repo.Create(ctx, p); err != nil {
			log.Error().Err(err).Str("file", name).Msg("scan: catalog insert failed")
			skipped++
			continue
		}
		known[digest] = true
		added++
	}

	if added > 0 || skipped > 0 {
		log.Info().Int("added", added).Int("skipped", skipped).Msg("storage scan complete")
	}
	return nil
}
