package agent

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/framelight/framelight/internal/domain/settings"
	syncapi "github.com/framelight/framelight/internal/domain/sync"
	"github.com/framelight/framelight/internal/pkg/hash"
	"github.com/framelight/framelight/internal/pkg/imaging"
)

// Component versions this agent reports to the server. Set at build time.
var (
	SyncAgentVersion = "dev"
	DisplayVersion   = ""
)

// Config configures one agent instance.
type Config struct {
	ServerURL     string
	DataDir       string
	FallbackDelay time.Duration
}

// Agent keeps the local photo directory converged with the server catalog.
// One Cycle is one full pass: fetch config, post inventory, apply the plan,
// sweep orphans, check for software updates.
type Agent struct {
	cfg    Config
	client *Client
	inv    *Inventory
	fs     afero.Fs
	clock  clockwork.Clock
	guard  DisplayGuard

	lastInterval time.Duration
}

func New(cfg Config, client *Client, inv *Inventory, fs afero.Fs, clock clockwork.Clock, guard DisplayGuard) *Agent {
	if cfg.FallbackDelay <= 0 {
		cfg.FallbackDelay = time.Minute
	}
	if guard == nil {
		guard = NopGuard{}
	}
	return &Agent{
		cfg:          cfg,
		client:       client,
		inv:          inv,
		fs:           fs,
		clock:        clock,
		guard:        guard,
		lastInterval: 5 * time.Minute,
	}
}

func (a *Agent) photosDir() string {
	return filepath.Join(a.cfg.DataDir, "photos")
}

// Run cycles until the context is cancelled. A failed cycle retries after
// the fallback delay instead of the configured interval.
func (a *Agent) Run(ctx context.Context) error {
	for {
		wait := a.lastInterval
		if err := a.Cycle(ctx); err != nil {
			log.Error().Err(err).Msg("sync cycle failed")
			wait = a.cfg.FallbackDelay
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-a.clock.After(wait):
		}
	}
}

// Cycle performs one full pass. Per-photo failures are logged and skipped;
// only failures that make the whole pass meaningless (no server plan, no
// local inventory) are returned.
func (a *Agent) Cycle(ctx context.Context) error {
	if err := a.fs.MkdirAll(a.photosDir(), 0o755); err != nil {
		return fmt.Errorf("create photos dir: %w", err)
	}

	// Config is advisory: a failed fetch degrades to the last known
	// interval rather than aborting the cycle.
	if cfg, err := a.client.FetchConfig(ctx); err != nil {
		log.Warn().Err(err).Msg("config fetch failed, keeping last interval")
	} else {
		a.applyConfig(cfg)
	}

	clientID, err := a.inv.ClientID(ctx)
	if err != nil {
		return fmt.Errorf("client id: %w", err)
	}
	hashes, err := a.inv.Hashes(ctx)
	if err != nil {
		return fmt.Errorf("read inventory: %w", err)
	}

	plan, err := a.client.Sync(ctx, &syncapi.SyncRequest{
		ClientID:   clientID,
		FileHashes: hashes,
		ClientVersions: map[string]string{
			"sync-agent": SyncAgentVersion,
			"display":    DisplayVersion,
		},
	})
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}

	downloaded := a.applyDownloads(ctx, plan.ToDownload)
	deleted := a.applyDeletes(ctx, plan.ToDelete)

	if err := a.writePlaylist(ctx, plan.DisplayOrder); err != nil {
		log.Warn().Err(err).Msg("playlist write failed")
	}

	a.sweepOrphans(ctx)
	a.checkUpdates(ctx)

	if downloaded > 0 || deleted > 0 {
		log.Info().Int("downloaded", downloaded).Int("deleted", deleted).Msg("cycle applied")
	}
	return nil
}

func (a *Agent) applyConfig(cfg *settings.Settings) {
	if cfg.SyncInterval > 0 {
		a.lastInterval = time.Duration(cfg.SyncInterval) * time.Second
	}
}

// applyDownloads fetches each missing photo to a temp file, verifying the
// announced content hash before the rename makes it visible. A mismatch is
// a failed transfer, never a catalog entry.
func (a *Agent) applyDownloads(ctx context.Context, items []syncapi.DownloadItem) int {
	var ok int
	for _, item := range items {
		if err := a.downloadOne(ctx, item); err != nil {
			log.Warn().Err(err).Int64("photo_id", item.ID).Str("file", item.Filename).Msg("download failed")
			continue
		}
		ok++
	}
	return ok
}

// localFilename derives the on-disk name from the server photo id, so the
// name survives server-side renames of the original.
func localFilename(item syncapi.DownloadItem) string {
	ext := strings.ToLower(filepath.Ext(item.Filename))
	if ext == "" {
		ext = ".jpg"
	}
	return fmt.Sprintf("photo_%d%s", item.ID, ext)
}

func (a *Agent) downloadOne(ctx context.Context, item syncapi.DownloadItem) error {
	rc, err := a.client.FetchPhoto(ctx, item.ID)
	if err != nil {
		return err
	}
	defer rc.Close()

	name := localFilename(item)
	partPath := filepath.Join(a.photosDir(), name+".part")
	f, err := a.fs.Create(partPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	digest, err := hash.Reader(io.TeeReader(rc, f))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		a.fs.Remove(partPath)
		return fmt.Errorf("write photo: %w", err)
	}

	if digest != item.Hash {
		a.fs.Remove(partPath)
		return fmt.Errorf("hash mismatch: got %s, announced %s", digest, item.Hash)
	}

	// A correct hash proves the transfer, not the content. The image must
	// also decode before it can go in front of the display.
	info, err := a.probePart(partPath)
	if err != nil {
		a.fs.Remove(partPath)
		return fmt.Errorf("undecodable image: %w", err)
	}
	if info.IsPortrait != item.IsPortrait {
		log.Warn().Int64("photo_id", item.ID).
			Bool("announced", item.IsPortrait).Bool("probed", info.IsPortrait).
			Msg("orientation disagrees with plan")
	}

	finalPath := filepath.Join(a.photosDir(), name)
	if err := a.fs.Rename(partPath, finalPath); err != nil {
		a.fs.Remove(partPath)
		return fmt.Errorf("finalize photo: %w", err)
	}

	entry := &Entry{
		Hash:       item.Hash,
		Filename:   name,
		PhotoID:    item.ID,
		SizeBytes:  item.Size,
		Width:      info.Width,
		Height:     info.Height,
		IsPortrait: item.IsPortrait,
	}
	if item.PairedPhotoID != nil {
		entry.PairedPhotoID = sql.NullInt64{Int64: *item.PairedPhotoID, Valid: true}
	}
	return a.inv.Upsert(ctx, entry)
}

func (a *Agent) probePart(path string) (imaging.Info, error) {
	f, err := a.fs.Open(path)
	if err != nil {
		return imaging.Info{}, err
	}
	defer f.Close()
	return imaging.Probe(f)
}

// applyDeletes removes stale photos. A photo the display is showing right
// now is deferred; the stale hash stays in the inventory, so the server
// reissues the delete next cycle.
func (a *Agent) applyDeletes(ctx context.Context, hashes []string) int {
	var ok int
	for _, h := range hashes {
		entry, err := a.inv.GetByHash(ctx, h)
		if err != nil {
			log.Warn().Err(err).Str("hash", h).Msg("delete lookup failed")
			continue
		}
		if entry == nil {
			continue
		}
		if a.guard.InUse(entry.Filename) {
			log.Info().Str("file", entry.Filename).Msg("delete deferred, photo on screen")
			continue
		}

		path := filepath.Join(a.photosDir(), entry.Filename)
		if err := a.fs.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("file", entry.Filename).Msg("delete failed")
			continue
		}
		if err := a.inv.Delete(ctx, h); err != nil {
			log.Warn().Err(err).Str("hash", h).Msg("inventory delete failed")
			continue
		}
		ok++
	}
	return ok
}

// writePlaylist persists the server's display order as an ordered list of
// local filenames for the display process. Only photos actually on disk
// are listed; a photo whose download just failed is skipped until it lands.
func (a *Agent) writePlaylist(ctx context.Context, order map[string]int) error {
	entries, err := a.inv.Entries(ctx)
	if err != nil {
		return err
	}

	byHash := make(map[string]string, len(entries))
	for _, e := range entries {
		byHash[e.Hash] = e.Filename
	}

	type slot struct {
		pos      int
		filename string
	}
	slots := make([]slot, 0, len(order))
	for h, pos := range order {
		if name, ok := byHash[h]; ok {
			slots = append(slots, slot{pos: pos, filename: name})
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].pos < slots[j].pos })

	playlist := make([]string, len(slots))
	for i, s := range slots {
		playlist[i] = s.filename
	}

	data, err := json.MarshalIndent(playlist, "", "  ")
	if err != nil {
		return err
	}
	return afero.WriteFile(a.fs, filepath.Join(a.cfg.DataDir, "playlist.json"), data, 0o644)
}

// sweepOrphans removes files in the photo directory the inventory does not
// know about, including leftover temp files from interrupted downloads.
func (a *Agent) sweepOrphans(ctx context.Context) {
	entries, err := a.inv.Entries(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("orphan sweep: inventory read failed")
		return
	}
	known := make(map[string]bool, len(entries))
	for _, e := range entries {
		known[e.Filename] = true
	}

	infos, err := afero.ReadDir(a.fs, a.photosDir())
	if err != nil {
		log.Warn().Err(err).Msg("orphan sweep: dir read failed")
		return
	}

	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		name := info.Name()
		if known[name] || a.guard.InUse(name) {
			continue
		}
		if err := a.fs.Remove(filepath.Join(a.photosDir(), name)); err != nil {
			log.Warn().Err(err).Str("file", name).Msg("orphan sweep: remove failed")
			continue
		}
		if strings.HasSuffix(name, ".part") {
			log.Debug().Str("file", name).Msg("removed interrupted download")
		} else {
			log.Info().Str("file", name).Msg("removed orphan file")
		}
	}
}
