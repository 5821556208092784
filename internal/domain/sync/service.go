package sync

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/framelight/framelight/internal/domain/client"
	"github.com/framelight/framelight/internal/domain/events"
	"github.com/framelight/framelight/internal/domain/photo"
	"github.com/framelight/framelight/internal/domain/settings"
)

// Service computes reconciliation plans against the active catalog.
type Service struct {
	photos   photo.Repository
	clients  client.Repository
	presence *client.Presence
	settings *settings.Store
	hub      *events.Hub
}

func NewService(photos photo.Repository, clients client.Repository, presence *client.Presence, st *settings.Store, hub *events.Hub) *Service {
	return &Service{photos: photos, clients: clients, presence: presence, settings: st, hub: hub}
}

// Reconcile diffs the client's reported hashes against the active catalog.
// The plan is a pure function of the catalog and the request (random sort
// excepted, where only set membership is stable): a client that applies it
// and syncs again gets an empty plan. Client bookkeeping is best effort and
// never fails the sync.
func (s *Service) Reconcile(ctx context.Context, req *SyncRequest, remoteAddr string) (*SyncResponse, error) {
	mode := photo.SortMode(s.settings.Snapshot().SortMode)
	active, err := s.photos.ListActive(ctx, mode)
	if err != nil {
		return nil, err
	}

	has := make(map[string]bool, len(req.FileHashes))
	for _, h := range req.FileHashes {
		has[h] = true
	}

	resp := &SyncResponse{
		ToDownload:   []DownloadItem{},
		ToDelete:     []string{},
		DisplayOrder: make(map[string]int, len(active)),
	}

	activeHashes := make(map[string]bool, len(active))
	for i := range active {
		p := &active[i]
		activeHashes[p.ContentHash] = true
		resp.DisplayOrder[p.ContentHash] = i
		if !has[p.ContentHash] {
			resp.ToDownload = append(resp.ToDownload, DownloadItem{
				ID:               p.ID,
				Filename:         p.StoredFilename,
				Hash:             p.ContentHash,
				Size:             p.SizeBytes,
				IsPortrait:       p.IsPortrait,
				PairedPhotoID:    p.PairedID(),
				OriginalFilename: p.OriginalFilename,
				UploadDate:       p.UploadDate,
			})
		}
	}

	for _, h := range req.FileHashes {
		if !activeHashes[h] {
			resp.ToDelete = append(resp.ToDelete, h)
		}
	}

	s.recordContact(ctx, req, remoteAddr)

	if len(resp.ToDownload) > 0 || len(resp.ToDelete) > 0 {
		s.hub.Publish("client_synced", map[string]interface{}{
			"client_id":   req.ClientID,
			"to_download": len(resp.ToDownload),
			"to_delete":   len(resp.ToDelete),
		})
	}
	return resp, nil
}

func (s *Service) recordContact(ctx context.Context, req *SyncRequest, remoteAddr string) {
	rec := &client.Record{
		ClientID:       req.ClientID,
		DisplayVersion: req.ClientVersions["display"],
		SyncVersion:    req.ClientVersions["sync-agent"],
		LastAddr:       remoteAddr,
	}
	if err := s.clients.Upsert(ctx, rec); err != nil {
		log.Warn().Err(err).Str("client_id", req.ClientID).Msg("client bookkeeping failed")
	}
	s.presence.Touch(ctx, req.ClientID)
}
