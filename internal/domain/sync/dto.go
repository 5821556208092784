// Package sync implements the catalog reconciliation protocol spoken by
// display clients.
package sync

import "time"

// SyncRequest is what a client reports: who it is, which photo hashes it
// holds, and optionally the component versions it is running.
type SyncRequest struct {
	ClientID       string            `json:"client_id" validate:"required"`
	FileHashes     []string          `json:"file_hashes"`
	ClientVersions map[string]string `json:"client_versions"`
}

// DownloadItem describes one photo the client is missing.
type DownloadItem struct {
	ID               int64     `json:"id"`
	Filename         string    `json:"filename"`
	Hash             string    `json:"hash"`
	Size             int64     `json:"size"`
	IsPortrait       bool      `json:"is_portrait"`
	PairedPhotoID    *int64    `json:"paired_photo_id"`
	OriginalFilename string    `json:"original_filename"`
	UploadDate       time.Time `json:"upload_date"`
}

// SyncResponse is the reconciliation plan. DisplayOrder maps every active
// photo hash to its position in the canonical display sequence, covering
// both photos the client has and photos it is about to download.
type SyncResponse struct {
	ToDownload   []DownloadItem `json:"to_download"`
	ToDelete     []string       `json:"to_delete"`
	DisplayOrder map[string]int `json:"display_order"`
}
