package agent

import (
	"strings"

	"github.com/spf13/afero"
)

// DisplayGuard tells the agent which file the display process is showing
// right now, so the sweep never deletes it mid-render. Deferred deletions
// are retried on the next cycle.
type DisplayGuard interface {
	InUse(filename string) bool
}

// NopGuard never defers; used when no display process runs alongside.
type NopGuard struct{}

func (NopGuard) InUse(string) bool { return false }

// MarkerGuard reads the marker file the display process rewrites whenever
// it advances to the next photo. A missing or unreadable marker means
// nothing is protected.
type MarkerGuard struct {
	fs   afero.Fs
	path string
}

func NewMarkerGuard(fs afero.Fs, path string) *MarkerGuard {
	return &MarkerGuard{fs: fs, path: path}
}

func (g *MarkerGuard) InUse(filename string) bool {
	data, err := afero.ReadFile(g.fs, g.path)
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(data)) == filename
}
