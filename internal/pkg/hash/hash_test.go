package hash

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func TestReaderMatchesBytes(t *testing.T) {
	payloads := [][]byte{
		nil,
		[]byte("a"),
		bytes.Repeat([]byte{0xAB}, chunkSize-1),
		bytes.Repeat([]byte{0xCD}, chunkSize*3+7),
	}

	for _, p := range payloads {
		got, err := Reader(bytes.NewReader(p))
		if err != nil {
			t.Fatalf("Reader: %v", err)
		}
		if want := Bytes(p); got != want {
			t.Errorf("digest mismatch for %d bytes: got %s want %s", len(p), got, want)
		}
	}
}

func TestReaderEmpty(t *testing.T) {
	got, err := Reader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Reader: %v", err)
	}
	// Well-known SHA-256 of the empty string.
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got != want {
		t.Errorf("got %s want %s", got, want)
	}
}

func TestFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/photos/a.jpg", []byte("not really a jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := File(fs, "/photos/a.jpg")
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if want := Bytes([]byte("not really a jpeg")); got != want {
		t.Errorf("got %s want %s", got, want)
	}

	if _, err := File(fs, "/photos/missing.jpg"); err == nil {
		t.Error("expected error for missing file")
	}
}
