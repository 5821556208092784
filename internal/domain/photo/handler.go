package photo

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/framelight/framelight/internal/pkg/imaging"
	"github.com/framelight/framelight/internal/pkg/response"
	"github.com/framelight/framelight/internal/pkg/validator"
)

// Handler exposes catalog operations over HTTP.
type Handler struct {
	service     *Service
	maxUploadMB int64
}

func NewHandler(service *Service, maxUploadMB int64) *Handler {
	return &Handler{service: service, maxUploadMB: maxUploadMB}
}

// Upload handles multipart uploads on the "photos" field. Each file
// succeeds or fails independently; the response lists both.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	limit := h.maxUploadMB << 20
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		response.BadRequest(w, "Invalid multipart request")
		return
	}

	files := r.MultipartForm.File["photos"]
	if len(files) == 0 {
		response.BadRequest(w, "No files in 'photos' field")
		return
	}

	result := UploadResult{Items: make([]UploadItem, 0, len(files))}
	for _, fh := range files {
		item := UploadItem{Filename: fh.Filename}

		f, err := fh.Open()
		if err != nil {
			item.Error = "cannot read file"
			result.Failed++
			result.Items = append(result.Items, item)
			continue
		}

		p, err := h.service.Ingest(r.Context(), fh.Filename, f)
		f.Close()
		if err != nil {
			item.Error = uploadErrorMessage(err)
			result.Failed++
			log.Warn().Err(err).Str("filename", fh.Filename).Msg("upload rejected")
		} else {
			item.ID = p.ID
			result.Uploaded++
		}
		result.Items = append(result.Items, item)
	}

	status := http.StatusCreated
	if result.Uploaded == 0 {
		status = http.StatusBadRequest
	}
	response.JSON(w, status, result)
}

func uploadErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrDuplicatePhoto):
		return "identical photo already in the catalog"
	case errors.Is(err, ErrInvalidType):
		return "unsupported file type"
	case errors.Is(err, ErrInvalidImage):
		return "file is not a decodable image"
	default:
		return "upload failed"
	}
}

// List handles GET /api/admin/photos.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	mode := SortMode(r.URL.Query().Get("sort"))
	if mode == "" {
		mode = SortSequential
	}

	photos, err := h.service.List(r.Context(), mode)
	if err != nil {
		log.Error().Err(err).Msg("list photos")
		response.InternalError(w)
		return
	}
	response.OK(w, toResponses(photos))
}

// GetFile streams the stored photo bytes. Used by both the dashboard and
// the display clients, so the body is the raw image, not JSON.
func (h *Handler) GetFile(w http.ResponseWriter, r *http.Request) {
	p, ok := h.photoFromPath(w, r)
	if !ok {
		return
	}

	rc, err := h.service.Open(r.Context(), p)
	if err != nil {
		log.Error().Err(err).Int64("photo_id", p.ID).Msg("open photo file")
		response.InternalError(w)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentTypeFor(strings.ToLower(filepath.Ext(p.StoredFilename))))
	w.Header().Set("Content-Length", strconv.FormatInt(p.SizeBytes, 10))
	if _, err := io.Copy(w, rc); err != nil {
		log.Warn().Err(err).Int64("photo_id", p.ID).Msg("photo stream interrupted")
	}
}

// Thumbnail serves a 300x400 JPEG preview for the dashboard grid.
func (h *Handler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	p, ok := h.photoFromPath(w, r)
	if !ok {
		return
	}

	rc, err := h.service.Open(r.Context(), p)
	if err != nil {
		log.Error().Err(err).Int64("photo_id", p.ID).Msg("open photo file")
		response.InternalError(w)
		return
	}
	defer rc.Close()

	thumb, err := imaging.Thumbnail(rc, 300, 400)
	if err != nil {
		log.Error().Err(err).Int64("photo_id", p.ID).Msg("render thumbnail")
		response.InternalError(w)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "max-age=3600")
	w.Write(thumb)
}

// Delete handles DELETE /api/admin/photos/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idFromPath(r)
	if err != nil {
		response.BadRequest(w, "Invalid photo id")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrPhotoNotFound) {
			response.NotFound(w, "Photo not found")
			return
		}
		log.Error().Err(err).Int64("photo_id", id).Msg("delete photo")
		response.InternalError(w)
		return
	}
	response.NoContent(w)
}

// Pair handles POST /api/admin/photos/{id}/pair.
func (h *Handler) Pair(w http.ResponseWriter, r *http.Request) {
	id, err := idFromPath(r)
	if err != nil {
		response.BadRequest(w, "Invalid photo id")
		return
	}

	var req PairRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	if err := h.service.Pair(r.Context(), id, req.PartnerID); err != nil {
		switch {
		case errors.Is(err, ErrPhotoNotFound):
			response.NotFound(w, "Photo not found")
		case errors.Is(err, ErrNotPortrait):
			response.Conflict(w, "Only portrait photos can be paired")
		case errors.Is(err, ErrSelfPair):
			response.BadRequest(w, "Cannot pair a photo with itself")
		default:
			log.Error().Err(err).Int64("photo_id", id).Msg("pair photos")
			response.InternalError(w)
		}
		return
	}
	response.OK(w, map[string]interface{}{"paired": []int64{id, req.PartnerID}})
}

// Unpair handles POST /api/admin/photos/{id}/unpair.
func (h *Handler) Unpair(w http.ResponseWriter, r *http.Request) {
	id, err := idFromPath(r)
	if err != nil {
		response.BadRequest(w, "Invalid photo id")
		return
	}

	if err := h.service.Unpair(r.Context(), id); err != nil {
		log.Error().Err(err).Int64("photo_id", id).Msg("unpair photo")
		response.InternalError(w)
		return
	}
	response.NoContent(w)
}

// Stats handles GET /api/admin/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("catalog stats")
		response.InternalError(w)
		return
	}
	response.OK(w, stats)
}

func (h *Handler) photoFromPath(w http.ResponseWriter, r *http.Request) (*Photo, bool) {
	id, err := idFromPath(r)
	if err != nil {
		response.BadRequest(w, "Invalid photo id")
		return nil, false
	}

	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrPhotoNotFound) {
			response.NotFound(w, "Photo not found")
			return nil, false
		}
		log.Error().Err(err).Int64("photo_id", id).Msg("load photo")
		response.InternalError(w)
		return nil, false
	}
	return p, true
}

func idFromPath(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("bad id %q", raw)
	}
	return id, nil
}
