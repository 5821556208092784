package agent

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/framelight/framelight/internal/pkg/hash"
)

// checkUpdates compares the server's release manifest against the versions
// already staged locally and downloads anything newer. Installation is left
// to the host's supervisor; the agent only stages archives under
// DataDir/updates and records what it staged.
func (a *Agent) checkUpdates(ctx context.Context) {
	manifest, err := a.client.FetchVersions(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("update check failed")
		return
	}

	for component, version := range manifest {
		staged, err := a.inv.GetState(ctx, "staged_"+component)
		if err != nil {
			log.Warn().Err(err).Str("component", component).Msg("staged version lookup failed")
			continue
		}
		if staged == version {
			continue
		}

		if err := a.stageUpdate(ctx, component, version); err != nil {
			log.Warn().Err(err).Str("component", component).Str("version", version).Msg("update staging failed")
			continue
		}
		log.Info().Str("component", component).Str("version", version).Msg("update staged")
	}
}

func (a *Agent) stageUpdate(ctx context.Context, component, version string) error {
	rc, err := a.client.FetchArtifact(ctx, component)
	if err != nil {
		return err
	}
	defer rc.Close()

	dir := filepath.Join(a.cfg.DataDir, "updates")
	if err := a.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create updates dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s-%s.tar.gz", component, version))
	partPath := path + ".part"
	f, err := a.fs.Create(partPath)
	if err != nil {
		return fmt.Errorf("create staging file: %w", err)
	}

	digest, err := hash.Reader(io.TeeReader(rc, f))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		a.fs.Remove(partPath)
		return fmt.Errorf("write artifact: %w", err)
	}

	if err := a.fs.Rename(partPath, path); err != nil {
		a.fs.Remove(partPath)
		return fmt.Errorf("finalize artifact: %w", err)
	}

	if err := a.inv.SetState(ctx, "staged_"+component, version); err != nil {
		return err
	}
	return a.inv.SetState(ctx, "staged_"+component+"_sha256", digest)
}
