package photo

import (
	"database/sql"
	"time"
)

// Photo is the authoritative server-side record of one photo. The content
// hash is computed once at ingest and never changes; it is the identity used
// by client sync. active=false is a soft delete: hidden from clients,
// retained in the catalog and in storage.
type Photo struct {
	ID               int64         `db:"id"`
	StoredFilename   string        `db:"stored_filename"`
	OriginalFilename string        `db:"original_filename"`
	ContentHash      string        `db:"content_hash"`
	UploadDate       time.Time     `db:"upload_date"`
	LastModified     time.Time     `db:"last_modified"`
	SizeBytes        int64         `db:"size_bytes"`
	Width            int           `db:"width"`
	Height           int           `db:"height"`
	IsPortrait       bool          `db:"is_portrait"`
	PairedPhotoID    sql.NullInt64 `db:"paired_photo_id"`
	Active           bool          `db:"active"`
}

// PairedID returns the partner photo id, or nil when unpaired.
func (p *Photo) PairedID() *int64 {
	if !p.PairedPhotoID.Valid {
		return nil
	}
	id := p.PairedPhotoID.Int64
	return &id
}

// Stats summarizes the active catalog for the admin dashboard.
type Stats struct {
	ActivePhotos   int         `json:"active_photos"`
	PortraitPhotos int         `json:"portrait_photos"`
	PairedPhotos   int         `json:"paired_photos"`
	TotalSizeBytes int64       `json:"total_size_bytes"`
	RecentUploads  []DayUpload `json:"recent_uploads"`
}

// DayUpload is one day's upload count.
type DayUpload struct {
	Day   string `db:"day" json:"day"`
	Count int    `db:"count" json:"count"`
}
