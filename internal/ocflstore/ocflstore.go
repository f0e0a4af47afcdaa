// Package ocflstore removes objects from an OCFL storage root through the rocfl CLI.
package ocflstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/brown-library/bdr-scripts/pkg/logger"
)

// Store runs rocfl commands against one storage root.
type Store struct {
	rocflPath string
	root      string
}

// NewStore creates a store. rocflPath is the rocfl binary, resolved on PATH if bare.
func NewStore(rocflPath, root string) *Store {
	return &Store{rocflPath: rocflPath, root: root}
}

// Root returns the storage root.
func (s *Store) Root() string { return s.root }

func (s *Store) command(ctx context.Context, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, s.rocflPath, args...)
	cmd.Dir = s.root
	return cmd
}

// Exists reports whether the object id is present in the storage root.
// Only rocfl's "not found" failure means absent; any other failure is an error.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	cmd := s.command(ctx, "ls", id)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err == nil {
		return true, nil
	}
	msg := strings.TrimSpace(stderr.String())
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil && isNotFound(msg) {
		return false, nil
	}
	if msg != "" {
		return false, fmt.Errorf("running %s ls %s: %w: %s", s.rocflPath, id, err, msg)
	}
	return false, fmt.Errorf("running %s ls %s: %w", s.rocflPath, id, err)
}

func isNotFound(stderr string) bool {
	return strings.Contains(strings.ToLower(stderr), "not found")
}

// PurgeCommand renders the purge command line for logs.
func (s *Store) PurgeCommand(id string) string {
	return fmt.Sprintf("%s purge %s --force", s.rocflPath, id)
}

// Purge permanently removes the object id.
func (s *Store) Purge(ctx context.Context, id string) error {
	cmd := s.command(ctx, "purge", id, "--force")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("purging %s: %w: %s", id, err, msg)
		}
		return fmt.Errorf("purging %s: %w", id, err)
	}
	return nil
}

// Status is what happened to one id.
type Status string

const (
	StatusPurged  Status = "purged"
	StatusDryRun  Status = "dry_run"
	StatusMissing Status = "missing"
	StatusFailed  Status = "failed"
)

// Outcome is the result for one id.
type Outcome struct {
	ID     string
	Status Status
	Err    error
}

// Purger purges a list of ids, one at a time.
type Purger struct {
	store *Store
}

// NewPurger creates a purger over store.
func NewPurger(store *Store) *Purger {
	return &Purger{store: store}
}

// Run purges each id that exists. With dryRun set, it only logs the command it would run.
// Failures are reported per id and do not stop the run; cancellation does.
func (p *Purger) Run(ctx context.Context, ids []string, dryRun bool) []Outcome {
	outcomes := make([]Outcome, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			outcomes = append(outcomes, Outcome{ID: id, Status: StatusFailed, Err: err})
			continue
		}
		logger.Info("Processing %s", id)
		outcomes = append(outcomes, p.one(ctx, id, dryRun))
	}
	return outcomes
}

func (p *Purger) one(ctx context.Context, id string, dryRun bool) Outcome {
	exists, err := p.store.Exists(ctx, id)
	if err != nil {
		logger.Error("Checking %s: %v", id, err)
		return Outcome{ID: id, Status: StatusFailed, Err: err}
	}
	if !exists {
		logger.Info("No OCFL object found for %s in %s", id, p.store.Root())
		return Outcome{ID: id, Status: StatusMissing}
	}
	if dryRun {
		logger.Info("DRY RUN: %s", p.store.PurgeCommand(id))
		return Outcome{ID: id, Status: StatusDryRun}
	}
	if err := p.store.Purge(ctx, id); err != nil {
		logger.Error("%v", err)
		return Outcome{ID: id, Status: StatusFailed, Err: err}
	}
	logger.Info("Purged %s from %s", id, p.store.Root())
	return Outcome{ID: id, Status: StatusPurged}
}

// Tally counts outcomes by status.
func Tally(outcomes []Outcome) map[Status]int {
	counts := map[Status]int{}
	for _, o := range outcomes {
		counts[o.Status]++
	}
	return counts
}

// SplitIDs splits a comma-separated list, trimming whitespace and dropping empties.
func SplitIDs(list string) []string {
	var ids []string
	for _, part := range strings.Split(list, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
