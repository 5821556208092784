// Package settings holds the mutable display configuration shared by the
// admin UI, the reconciliation algorithm, and every display client.
package settings

// Settings are the display parameters served to clients and consulted by
// reconciliation. Bounds mirror what the admin form accepts.
type Settings struct {
	MattingMode         string  `json:"matting_mode" validate:"required,matting_mode"`
	DisplayTime         float64 `json:"display_time" validate:"gte=5,lte=300"`
	TransitionSpeed     float64 `json:"transition_speed" validate:"gte=1,lte=30"`
	EnablePortraitPairs bool    `json:"enable_portrait_pairs"`
	PortraitGap         int     `json:"portrait_gap" validate:"gte=0,lte=100"`
	SortMode            string  `json:"sort_mode" validate:"required,sort_mode"`
	SyncInterval        int     `json:"sync_interval" validate:"gte=30,lte=86400"`
}

// Snapshot is an immutable copy of the settings at a point in time.
// Reconciliation receives a snapshot, never the live store, so a concurrent
// admin update cannot change sort mode mid-diff.
type Snapshot struct {
	Settings
	Version uint64 `json:"-"`
}

// Defaults returns the settings used until an admin saves their own.
func Defaults() Settings {
	return Settings{
		MattingMode:         "white",
		DisplayTime:         15,
		TransitionSpeed:     10,
		EnablePortraitPairs: true,
		PortraitGap:         20,
		SortMode:            "random",
		SyncInterval:        300,
	}
}
