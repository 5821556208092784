package photo

import "time"

// PhotoResponse is the admin-facing catalog entry.
type PhotoResponse struct {
	ID               int64     `json:"id"`
	Filename         string    `json:"filename"`
	OriginalFilename string    `json:"original_filename"`
	Hash             string    `json:"hash"`
	Size             int64     `json:"size"`
	Width            int       `json:"width"`
	Height           int       `json:"height"`
	IsPortrait       bool      `json:"is_portrait"`
	PairedPhotoID    *int64    `json:"paired_photo_id"`
	UploadDate       time.Time `json:"upload_date"`
}

// PairRequest asks to pair the path photo with partner_id.
type PairRequest struct {
	PartnerID int64 `json:"partner_id" validate:"required"`
}

// UploadItem reports the fate of one file in a multi-file upload.
type UploadItem struct {
	Filename string `json:"filename"`
	ID       int64  `json:"id,omitempty"`
	Error    string `json:"error,omitempty"`
}

// UploadResult summarizes a multi-file upload.
type UploadResult struct {
	Uploaded int          `json:"uploaded"`
	Failed   int          `json:"failed"`
	Items    []UploadItem `json:"items"`
}

func toResponse(p *Photo) PhotoResponse {
	return PhotoResponse{
		ID:               p.ID,
		Filename:         p.StoredFilename,
		OriginalFilename: p.OriginalFilename,
		Hash:             p.ContentHash,
		Size:             p.SizeBytes,
		Width:            p.Width,
		Height:           p.Height,
		IsPortrait:       p.IsPortrait,
		PairedPhotoID:    p.PairedID(),
		UploadDate:       p.UploadDate,
	}
}

func toResponses(photos []Photo) []PhotoResponse {
	out := make([]PhotoResponse, len(photos))
	for i := range photos {
		out[i] = toResponse(&photos[i])
	}
	return out
}
