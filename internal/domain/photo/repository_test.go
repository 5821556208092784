package photo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/framelight/framelight/internal/pkg/database"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.MigrateCatalog(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func insertPhoto(t *testing.T, repo Repository, name string, portrait bool, uploaded time.Time) *Photo {
	t.Helper()
	p := &Photo{
		StoredFilename:   name,
		OriginalFilename: name,
		ContentHash:      fmt.Sprintf("hash-%s", name),
		UploadDate:       uploaded,
		LastModified:     uploaded,
		SizeBytes:        1024,
		Width:            800,
		Height:           600,
		IsPortrait:       portrait,
	}
	if portrait {
		p.Width, p.Height = 600, 800
	}
	if err := repo.Create(context.Background(), p); err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	return p
}

func TestCreateRejectsDuplicateActiveHash(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first := &Photo{
		StoredFilename: "one.jpg", OriginalFilename: "one.jpg",
		ContentHash: "same-hash", UploadDate: base, LastModified: base,
		SizeBytes: 10, Width: 800, Height: 600,
	}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("first create: %v", err)
	}

	// Same content under a different name while the first row is active.
	dup := &Photo{
		StoredFilename: "two.jpg", OriginalFilename: "two.jpg",
		ContentHash: "same-hash", UploadDate: base, LastModified: base,
		SizeBytes: 10, Width: 800, Height: 600,
	}
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrDuplicatePhoto) {
		t.Fatalf("err = %v, want ErrDuplicatePhoto", err)
	}

	// Once the original is soft-deleted the content may return.
	if err := repo.SoftDelete(ctx, first.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if err := repo.Create(ctx, dup); err != nil {
		t.Fatalf("create after delete: %v", err)
	}
}

func TestTryPairSymmetry(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := insertPhoto(t, repo, "a.jpg", true, base)
	b := insertPhoto(t, repo, "b.jpg", true, base.Add(time.Minute))

	partner, err := repo.TryPair(ctx, b.ID)
	if err != nil {
		t.Fatalf("TryPair: %v", err)
	}
	if partner != a.ID {
		t.Fatalf("partner = %d, want %d", partner, a.ID)
	}

	gotA, _ := repo.GetByID(ctx, a.ID)
	gotB, _ := repo.GetByID(ctx, b.ID)
	if !gotA.PairedPhotoID.Valid || gotA.PairedPhotoID.Int64 != b.ID {
		t.Errorf("a.paired = %+v, want %d", gotA.PairedPhotoID, b.ID)
	}
	if !gotB.PairedPhotoID.Valid || gotB.PairedPhotoID.Int64 != a.ID {
		t.Errorf("b.paired = %+v, want %d", gotB.PairedPhotoID, a.ID)
	}
}

func TestTryPairPicksMostRecentUnpaired(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	insertPhoto(t, repo, "old.jpg", true, base)
	mid := insertPhoto(t, repo, "mid.jpg", true, base.Add(time.Hour))
	newest := insertPhoto(t, repo, "new.jpg", true, base.Add(2*time.Hour))

	partner, err := repo.TryPair(ctx, newest.ID)
	if err != nil {
		t.Fatalf("TryPair: %v", err)
	}
	if partner != mid.ID {
		t.Fatalf("partner = %d, want most recent unpaired %d", partner, mid.ID)
	}
}

func TestTryPairNoCandidate(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	insertPhoto(t, repo, "land.jpg", false, base)
	solo := insertPhoto(t, repo, "solo.jpg", true, base.Add(time.Minute))

	partner, err := repo.TryPair(ctx, solo.ID)
	if err != nil {
		t.Fatalf("TryPair: %v", err)
	}
	if partner != 0 {
		t.Fatalf("partner = %d, want none", partner)
	}

	got, _ := repo.GetByID(ctx, solo.ID)
	if got.PairedPhotoID.Valid {
		t.Fatalf("solo photo unexpectedly paired to %d", got.PairedPhotoID.Int64)
	}
}

func TestUnpairIdempotent(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := insertPhoto(t, repo, "a.jpg", true, base)
	b := insertPhoto(t, repo, "b.jpg", true, base.Add(time.Minute))
	if _, err := repo.TryPair(ctx, b.ID); err != nil {
		t.Fatalf("TryPair: %v", err)
	}

	if err := repo.Unpair(ctx, a.ID); err != nil {
		t.Fatalf("Unpair: %v", err)
	}
	// Second unpair of an already-unpaired photo must succeed.
	if err := repo.Unpair(ctx, a.ID); err != nil {
		t.Fatalf("Unpair again: %v", err)
	}

	gotB, _ := repo.GetByID(ctx, b.ID)
	if gotB.PairedPhotoID.Valid {
		t.Fatalf("partner still paired after unpair")
	}
}

func TestManualPair(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("rejects landscape", func(t *testing.T) {
		land := insertPhoto(t, repo, "land.jpg", false, base)
		port := insertPhoto(t, repo, "port.jpg", true, base)
		if err := repo.ManualPair(ctx, land.ID, port.ID); !errors.Is(err, ErrNotPortrait) {
			t.Fatalf("err = %v, want ErrNotPortrait", err)
		}
	})

	t.Run("rejects self", func(t *testing.T) {
		p := insertPhoto(t, repo, "self.jpg", true, base)
		if err := repo.ManualPair(ctx, p.ID, p.ID); !errors.Is(err, ErrSelfPair) {
			t.Fatalf("err = %v, want ErrSelfPair", err)
		}
	})

	t.Run("rejects missing", func(t *testing.T) {
		p := insertPhoto(t, repo, "alone.jpg", true, base)
		if err := repo.ManualPair(ctx, p.ID, 99999); !errors.Is(err, ErrPhotoNotFound) {
			t.Fatalf("err = %v, want ErrPhotoNotFound", err)
		}
	})

	t.Run("breaks existing pairings", func(t *testing.T) {
		a := insertPhoto(t, repo, "pa.jpg", true, base)
		b := insertPhoto(t, repo, "pb.jpg", true, base)
		c := insertPhoto(t, repo, "pc.jpg", true, base)
		if err := repo.ManualPair(ctx, a.ID, b.ID); err != nil {
			t.Fatalf("pair a-b: %v", err)
		}
		if err := repo.ManualPair(ctx, a.ID, c.ID); err != nil {
			t.Fatalf("pair a-c: %v", err)
		}

		gotA, _ := repo.GetByID(ctx, a.ID)
		gotB, _ := repo.GetByID(ctx, b.ID)
		gotC, _ := repo.GetByID(ctx, c.ID)
		if !gotA.PairedPhotoID.Valid || gotA.PairedPhotoID.Int64 != c.ID {
			t.Errorf("a paired to %+v, want %d", gotA.PairedPhotoID, c.ID)
		}
		if gotB.PairedPhotoID.Valid {
			t.Errorf("b still paired to %d after repair", gotB.PairedPhotoID.Int64)
		}
		if !gotC.PairedPhotoID.Valid || gotC.PairedPhotoID.Int64 != a.ID {
			t.Errorf("c paired to %+v, want %d", gotC.PairedPhotoID, a.ID)
		}
	})
}

func TestSoftDelete(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	a := insertPhoto(t, repo, "a.jpg", true, base)
	b := insertPhoto(t, repo, "b.jpg", true, base.Add(time.Minute))
	if _, err := repo.TryPair(ctx, b.ID); err != nil {
		t.Fatalf("TryPair: %v", err)
	}

	if err := repo.SoftDelete(ctx, a.ID); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}

	gotA, _ := repo.GetByID(ctx, a.ID)
	if gotA.Active {
		t.Fatalf("photo still active after delete")
	}
	if gotA.PairedPhotoID.Valid {
		t.Fatalf("deleted photo still paired")
	}

	// The surviving partner must not point at an inactive photo.
	gotB, _ := repo.GetByID(ctx, b.ID)
	if gotB.PairedPhotoID.Valid {
		t.Fatalf("partner still paired to deleted photo")
	}
	if !gotB.Active {
		t.Fatalf("partner deactivated by someone else's delete")
	}

	// Deleting again is an error, not a silent no-op.
	if err := repo.SoftDelete(ctx, a.ID); !errors.Is(err, ErrPhotoNotFound) {
		t.Fatalf("second delete err = %v, want ErrPhotoNotFound", err)
	}
}

func TestListActiveOrdering(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Stored names deliberately out of upload order.
	c := insertPhoto(t, repo, "c.jpg", false, base)
	a := insertPhoto(t, repo, "a.jpg", false, base.Add(time.Hour))
	bPhoto := insertPhoto(t, repo, "b.jpg", false, base.Add(2*time.Hour))
	deleted := insertPhoto(t, repo, "d.jpg", false, base.Add(3*time.Hour))
	if err := repo.SoftDelete(ctx, deleted.ID); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}

	cases := []struct {
		mode SortMode
		want []int64
	}{
		{SortSequential, []int64{a.ID, bPhoto.ID, c.ID}},
		{SortNewest, []int64{bPhoto.ID, a.ID, c.ID}},
		{SortOldest, []int64{c.ID, a.ID, bPhoto.ID}},
	}
	for _, tc := range cases {
		t.Run(string(tc.mode), func(t *testing.T) {
			photos, err := repo.ListActive(ctx, tc.mode)
			if err != nil {
				t.Fatalf("ListActive: %v", err)
			}
			if len(photos) != len(tc.want) {
				t.Fatalf("got %d photos, want %d", len(photos), len(tc.want))
			}
			for i, want := range tc.want {
				if photos[i].ID != want {
					t.Errorf("pos %d: id = %d, want %d", i, photos[i].ID, want)
				}
			}
		})
	}

	t.Run("random returns same set", func(t *testing.T) {
		photos, err := repo.ListActive(ctx, SortRandom)
		if err != nil {
			t.Fatalf("ListActive: %v", err)
		}
		ids := map[int64]bool{}
		for _, p := range photos {
			ids[p.ID] = true
		}
		for _, want := range []int64{a.ID, bPhoto.ID, c.ID} {
			if !ids[want] {
				t.Errorf("id %d missing from random order", want)
			}
		}
		if ids[deleted.ID] {
			t.Errorf("deleted photo present in listing")
		}
	})
}

func TestKnownHashesIncludesDeleted(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	p := insertPhoto(t, repo, "gone.jpg", false, base)
	if err := repo.SoftDelete(ctx, p.ID); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}

	hashes, err := repo.KnownHashes(ctx)
	if err != nil {
		t.Fatalf("KnownHashes: %v", err)
	}
	if !hashes[p.ContentHash] {
		t.Fatalf("deleted photo hash missing from known set")
	}
}
