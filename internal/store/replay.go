package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/bandwalk/internal/ir"
)

// ErrDigestMismatch is returned by VerifyRun when a run's stored events no
// longer hash to its recorded trace digest.
var ErrDigestMismatch = errors.New("trace digest mismatch")

// TraceDigest recomputes the digest of a run's stored events.
func (s *Store) TraceDigest(ctx context.Context, runID string) (string, error) {
	events, err := s.ReadEvents(ctx, runID)
	if err != nil {
		return "", fmt.Errorf("trace digest %s: %w", runID, err)
	}
	digest, err := ir.TraceDigest(events)
	if err != nil {
		return "", fmt.Errorf("trace digest %s: %w", runID, err)
	}
	return digest, nil
}

// VerifyRun checks that a stored run is intact: its event count matches
// and its events hash to the recorded digest. It does not re-traverse; the
// engine's replay compares a fresh traversal against this stored trace.
func (s *Store) VerifyRun(ctx context.Context, runID string) error {
	run, err := s.ReadRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("verify run %s: %w", runID, err)
	}
	events, err := s.ReadEvents(ctx, runID)
	if err != nil {
		return fmt.Errorf("verify run %s: %w", runID, err)
	}
	if len(events) != run.EventCount {
		return fmt.Errorf("verify run %s: %d events stored, %d recorded: %w",
			runID, len(events), run.EventCount, ErrDigestMismatch)
	}
	digest, err := ir.TraceDigest(events)
	if err != nil {
		return fmt.Errorf("verify run %s: %w", runID, err)
	}
	if digest != run.TraceDigest {
		return fmt.Errorf("verify run %s: stored %s, computed %s: %w",
			runID, run.TraceDigest, digest, ErrDigestMismatch)
	}
	return nil
}
