package client

import "time"

// Record tracks one display client's sync history. Clients self-identify
// with a stable id; rows are created on first contact.
type Record struct {
	ClientID       string    `db:"client_id" json:"client_id"`
	LastSync       time.Time `db:"last_sync" json:"last_sync"`
	DisplayVersion string    `db:"display_version" json:"display_version"`
	SyncVersion    string    `db:"sync_version" json:"sync_version"`
	LastAddr       string    `db:"last_addr" json:"last_addr"`
	FirstSeen      time.Time `db:"first_seen" json:"first_seen"`
}

// Status is a record decorated with liveness for the dashboard.
type Status struct {
	Record
	Online bool `json:"online"`
}
