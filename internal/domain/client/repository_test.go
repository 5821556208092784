package client

import (
	"context"
	"testing"
	"time"

	"github.com/framelight/framelight/internal/pkg/database"
)

func newTestRepo(t *testing.T) Repository {
	t.Helper()
	db, err := database.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.MigrateCatalog(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewRepository(db)
}

func TestUpsertCreatesThenUpdates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	err := repo.Upsert(ctx, &Record{
		ClientID:       "frame-livingroom",
		LastSync:       first,
		DisplayVersion: "1.2.0",
		SyncVersion:    "1.0.0",
		LastAddr:       "10.0.0.5",
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	later := first.Add(time.Hour)
	err = repo.Upsert(ctx, &Record{
		ClientID: "frame-livingroom",
		LastSync: later,
		LastAddr: "10.0.0.9",
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	rec, err := repo.Get(ctx, "frame-livingroom")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec == nil {
		t.Fatal("record missing")
	}
	if !rec.LastSync.Equal(later) {
		t.Errorf("last_sync = %v, want %v", rec.LastSync, later)
	}
	if rec.LastAddr != "10.0.0.9" {
		t.Errorf("last_addr = %q, want updated address", rec.LastAddr)
	}
	// Versions were omitted on the second sync; the reported ones stick.
	if rec.DisplayVersion != "1.2.0" || rec.SyncVersion != "1.0.0" {
		t.Errorf("versions = %q/%q, want preserved", rec.DisplayVersion, rec.SyncVersion)
	}
	if !rec.FirstSeen.Equal(first) {
		t.Errorf("first_seen = %v, want original %v", rec.FirstSeen, first)
	}
}

func TestGetUnknownClient(t *testing.T) {
	repo := newTestRepo(t)
	rec, err := repo.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec != nil {
		t.Fatalf("got %+v, want nil", rec)
	}
}

func TestListOrdersByLastSync(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		err := repo.Upsert(ctx, &Record{ClientID: id, LastSync: base.Add(time.Duration(i) * time.Hour)})
		if err != nil {
			t.Fatalf("upsert %s: %v", id, err)
		}
	}

	recs, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}
	if recs[0].ClientID != "c" || recs[2].ClientID != "a" {
		t.Errorf("order = %s,%s,%s, want most recent first", recs[0].ClientID, recs[1].ClientID, recs[2].ClientID)
	}
}
