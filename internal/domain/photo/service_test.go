package photo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"sort"
	"sync"
	"testing"

	"github.com/spf13/afero"

	"github.com/framelight/framelight/internal/domain/settings"
	"github.com/framelight/framelight/internal/pkg/database"
)

// memStorage is an in-memory Storage for service tests.
type memStorage struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{files: map[string][]byte{}}
}

func (m *memStorage) Save(_ context.Context, key string, r io.Reader, _ string) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[key] = data
	return int64(len(data)), nil
}

func (m *memStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[key]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, key)
	return nil
}

func (m *memStorage) List(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.files))
	for k := range m.files {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// jpegBytes renders a solid-color JPEG. A unique color per call keeps the
// content hashes distinct.
func jpegBytes(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func newTestService(t *testing.T, pairingEnabled bool) (*Service, *memStorage) {
	t.Helper()
	db, err := database.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.MigrateCatalog(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	store, err := settings.NewStore(afero.NewMemMapFs(), "settings.json")
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	cfg := settings.Defaults()
	cfg.EnablePortraitPairs = pairingEnabled
	if _, _, err := store.Update(cfg); err != nil {
		t.Fatalf("settings update: %v", err)
	}

	ms := newMemStorage()
	return NewService(NewRepository(db), ms, store, nil), ms
}

func TestIngest(t *testing.T) {
	svc, _ := newTestService(t, true)
	ctx := context.Background()

	data := jpegBytes(t, 400, 300, color.RGBA{R: 200, A: 255})
	p, err := svc.Ingest(ctx, "holiday.jpg", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if p.ID == 0 {
		t.Error("no id assigned")
	}
	if p.IsPortrait {
		t.Error("400x300 classified as portrait")
	}
	if p.Width != 400 || p.Height != 300 {
		t.Errorf("dims = %dx%d", p.Width, p.Height)
	}
	if p.OriginalFilename != "holiday.jpg" {
		t.Errorf("original filename = %q", p.OriginalFilename)
	}

	// The stored file is retrievable and byte-identical.
	rc, err := svc.Open(ctx, p)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	stored, _ := io.ReadAll(rc)
	rc.Close()
	if !bytes.Equal(stored, data) {
		t.Error("stored bytes differ from upload")
	}
}

func TestIngestRejectsDuplicateContent(t *testing.T) {
	svc, _ := newTestService(t, true)
	ctx := context.Background()

	data := jpegBytes(t, 400, 300, color.RGBA{G: 120, A: 255})
	if _, err := svc.Ingest(ctx, "first.jpg", bytes.NewReader(data)); err != nil {
		t.Fatalf("first ingest: %v", err)
	}

	// Same bytes under a different name is the same photo.
	_, err := svc.Ingest(ctx, "renamed.jpg", bytes.NewReader(data))
	if !errors.Is(err, ErrDuplicatePhoto) {
		t.Fatalf("err = %v, want ErrDuplicatePhoto", err)
	}
}

func TestIngestRejectsBadInput(t *testing.T) {
	svc, _ := newTestService(t, true)
	ctx := context.Background()

	if _, err := svc.Ingest(ctx, "notes.txt", bytes.NewReader([]byte("hello"))); !errors.Is(err, ErrInvalidType) {
		t.Errorf("txt err = %v, want ErrInvalidType", err)
	}
	if _, err := svc.Ingest(ctx, "fake.jpg", bytes.NewReader([]byte("not a jpeg"))); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("garbage err = %v, want ErrInvalidImage", err)
	}
}

func TestIngestPairsSequentialPortraits(t *testing.T) {
	svc, _ := newTestService(t, true)
	ctx := context.Background()

	a, err := svc.Ingest(ctx, "p1.jpg", bytes.NewReader(jpegBytes(t, 300, 400, color.RGBA{B: 90, A: 255})))
	if err != nil {
		t.Fatalf("first portrait: %v", err)
	}
	b, err := svc.Ingest(ctx, "p2.jpg", bytes.NewReader(jpegBytes(t, 300, 400, color.RGBA{B: 180, A: 255})))
	if err != nil {
		t.Fatalf("second portrait: %v", err)
	}

	gotA, err := svc.Get(ctx, a.ID)
	if err != nil {
		t.Fatalf("get a: %v", err)
	}
	gotB, err := svc.Get(ctx, b.ID)
	if err != nil {
		t.Fatalf("get b: %v", err)
	}
	if gotA.PairedID() == nil || *gotA.PairedID() != b.ID {
		t.Errorf("a paired to %v, want %d", gotA.PairedID(), b.ID)
	}
	if gotB.PairedID() == nil || *gotB.PairedID() != a.ID {
		t.Errorf("b paired to %v, want %d", gotB.PairedID(), a.ID)
	}
}

func TestIngestSkipsPairingWhenDisabled(t *testing.T) {
	svc, _ := newTestService(t, false)
	ctx := context.Background()

	a, _ := svc.Ingest(ctx, "p1.jpg", bytes.NewReader(jpegBytes(t, 300, 400, color.RGBA{R: 40, A: 255})))
	b, _ := svc.Ingest(ctx, "p2.jpg", bytes.NewReader(jpegBytes(t, 300, 400, color.RGBA{R: 80, A: 255})))

	gotA, _ := svc.Get(ctx, a.ID)
	gotB, _ := svc.Get(ctx, b.ID)
	if gotA.PairedID() != nil || gotB.PairedID() != nil {
		t.Error("portraits paired despite pairing disabled")
	}
}

func TestScanStorageRegistersUnknownFiles(t *testing.T) {
	svc, ms := newTestService(t, false)
	ctx := context.Background()

	known, err := svc.Ingest(ctx, "known.jpg", bytes.NewReader(jpegBytes(t, 400, 300, color.RGBA{R: 10, A: 255})))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if err := svc.Delete(ctx, known.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	// Drop two files straight into storage: one new, one corrupt.
	ms.Save(ctx, "dropped.jpg", bytes.NewReader(jpegBytes(t, 500, 200, color.RGBA{G: 10, A: 255})), "")
	ms.Save(ctx, "corrupt.jpg", bytes.NewReader([]byte("garbage")), "")

	if err := svc.ScanStorage(ctx); err != nil {
		t.Fatalf("scan: %v", err)
	}

	active, err := svc.List(ctx, SortSequential)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("active = %d photos, want just the dropped file", len(active))
	}
	if active[0].StoredFilename != "dropped.jpg" {
		t.Errorf("registered %q", active[0].StoredFilename)
	}

	// The soft-deleted photo's file is known by hash and must not come back.
	for _, p := range active {
		if p.ContentHash == known.ContentHash {
			t.Error("soft-deleted photo resurrected by scan")
		}
	}
}
