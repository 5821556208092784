// Package release serves client software updates: a version manifest and
// the artifact per component.
package release

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

var ErrUnknownComponent = errors.New("unknown component")

// Components the update channel will ever serve. Anything else in the
// releases directory is ignored.
var components = map[string]string{
	"display":    "display.tar.gz",
	"sync-agent": "sync-agent.tar.gz",
}

// Service reads the releases directory: a manifest.json mapping component
// names to versions, plus one artifact file per component.
type Service struct {
	fs  afero.Fs
	dir string
}

func NewService(fs afero.Fs, dir string) *Service {
	return &Service{fs: fs, dir: dir}
}

// Versions returns the current manifest. A missing manifest means nothing
// is published yet; clients treat an empty map as "no updates".
func (s *Service) Versions() (map[string]string, error) {
	data, err := afero.ReadFile(s.fs, filepath.Join(s.dir, "manifest.json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var manifest map[string]string
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	for name := range manifest {
		if _, ok := components[name]; !ok {
			delete(manifest, name)
		}
	}
	return manifest, nil
}

// Artifact opens the release archive for a component.
func (s *Service) Artifact(name string) (io.ReadCloser, int64, error) {
	filename, ok := components[name]
	if !ok {
		return nil, 0, ErrUnknownComponent
	}

	path := filepath.Join(s.dir, filename)
	info, err := s.fs.Stat(path)
	if err != nil {
		return nil, 0, fmt.Errorf("stat artifact: %w", err)
	}
	f, err := s.fs.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open artifact: %w", err)
	}
	return f, info.Size(), nil
}
