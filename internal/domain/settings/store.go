package settings

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"github.com/framelight/framelight/internal/pkg/validator"
)

// Store persists settings as a JSON file and hands out versioned snapshots.
// Readers never see a partially applied update.
type Store struct {
	fs   afero.Fs
	path string

	mu      sync.RWMutex
	current Snapshot
}

// NewStore loads settings from path, writing defaults if the file does not
// exist. A malformed file is replaced with defaults rather than refusing to
// start; the previous contents are unrecoverable anyway.
func NewStore(fs afero.Fs, path string) (*Store, error) {
	s := &Store{fs: fs, path: path}

	ok, err := afero.Exists(fs, path)
	if err != nil {
		return nil, fmt.Errorf("stat settings file: %w", err)
	}

	cfg := Defaults()
	if ok {
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			return nil, fmt.Errorf("read settings file: %w", err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil || validator.Validate(&cfg) != nil {
			cfg = Defaults()
		}
	}

	s.current = Snapshot{Settings: cfg, Version: 1}
	if err := s.persist(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// Snapshot returns the current settings copy with its version.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update validates and persists new settings, bumping the version. Invalid
// values are rejected at this boundary and never reach reconciliation.
func (s *Store) Update(cfg Settings) (Snapshot, map[string]string, error) {
	if errs := validator.Validate(&cfg); errs != nil {
		return Snapshot{}, errs, ErrInvalidSettings
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist(cfg); err != nil {
		return Snapshot{}, nil, err
	}

	s.current = Snapshot{Settings: cfg, Version: s.current.Version + 1}
	return s.current, nil, nil
}

func (s *Store) persist(cfg Settings) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create settings directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := afero.WriteFile(s.fs, s.path, data, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	return nil
}
