// Package ledger tracks which orgs and items have been processed, using marker files on disk.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/brown-library/bdr-scripts/pkg/logger"
	"github.com/brown-library/bdr-scripts/pkg/utils"
	"github.com/brown-library/bdr-scripts/pkg/version"
)

const (
	// TimestampLayout is the layout of the timestamp field in every marker.
	TimestampLayout = "2006-01-02 15:04:05"

	lockFileName   = ".update-mods.lock"
	updatedSuffix  = "_updated.json"
	problemSuffix  = "_problem.json"
	itemKind       = "item"
	wholeOrgKind   = "whole_org"
	successMessage = "all_good"
	orgMessage     = "org_processed"
)

// ErrLocked is returned by Lock when another run holds the tracker directory.
var ErrLocked = errors.New("tracker directory is locked by another run")

// Ledger reads and writes completion markers under a tracker root.
type Ledger struct {
	root  string
	runID string
	now   func() time.Time
}

// OrgSummary is the per-org tally stored in the org marker.
type OrgSummary struct {
	Items      int
	Updated    int
	Skipped    int
	Problems   int
	MissingPID int
}

// New creates a ledger rooted at root.
func New(root string) *Ledger {
	return &Ledger{root: root, runID: uuid.NewString(), now: time.Now}
}

// Root returns the tracker root.
func (l *Ledger) Root() string { return l.root }

// RunID identifies this process's writes in the markers.
func (l *Ledger) RunID() string { return l.runID }

// shardDir returns <root>/<id[0:4]>/<id[4:8]>.
func (l *Ledger) shardDir(id string) string {
	first, second := id, ""
	if len(id) >= 4 {
		first = id[:4]
		second = id[4:min(len(id), 8)]
	}
	return filepath.Join(l.root, first, second)
}

// OrgMarkerPath returns the success marker path for an org.
func (l *Ledger) OrgMarkerPath(org string) string {
	return filepath.Join(l.shardDir(org), org+"__"+wholeOrgKind+updatedSuffix)
}

// ItemMarkerPath returns the success marker path for an item.
func (l *Ledger) ItemMarkerPath(item string) string {
	return filepath.Join(l.shardDir(item), item+"__"+itemKind+updatedSuffix)
}

// ProblemPath maps a success marker path to its problem marker path.
func ProblemPath(markerPath string) string {
	return strings.TrimSuffix(markerPath, updatedSuffix) + problemSuffix
}

// IsComplete reports whether a marker exists at path.
func IsComplete(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// ItemDone reports whether item has a success marker.
func (l *Ledger) ItemDone(item string) bool {
	return IsComplete(l.ItemMarkerPath(item))
}

// OrgDone reports whether org has a success marker.
func (l *Ledger) OrgDone(org string) bool {
	return IsComplete(l.OrgMarkerPath(org))
}

// RecordItemResult writes the success marker for item when err is nil,
// and the problem marker carrying err's text otherwise.
func (l *Ledger) RecordItemResult(item string, err error) error {
	path := l.ItemMarkerPath(item)
	body := map[string]any{
		"timestamp": l.timestamp(),
		"run_id":    l.runID,
		"agent":     version.Identifier(),
	}
	if err != nil {
		path = ProblemPath(path)
		body["err"] = err.Error()
	} else {
		body["message"] = successMessage
	}
	if werr := l.write(path, body); werr != nil {
		return fmt.Errorf("recording result for %s: %w", item, werr)
	}
	logger.Debug("Wrote marker %s", path)
	return nil
}

// RecordOrgResult writes the org success marker with the run's tally.
func (l *Ledger) RecordOrgResult(org string, summary OrgSummary) error {
	path := l.OrgMarkerPath(org)
	body := map[string]any{
		"message":     orgMessage,
		"timestamp":   l.timestamp(),
		"run_id":      l.runID,
		"agent":       version.Identifier(),
		"items":       summary.Items,
		"updated":     summary.Updated,
		"skipped":     summary.Skipped,
		"problems":    summary.Problems,
		"missing_pid": summary.MissingPID,
	}
	if err := l.write(path, body); err != nil {
		return fmt.Errorf("recording result for org %s: %w", org, err)
	}
	logger.Debug("Wrote marker %s", path)
	return nil
}

// Lock takes an exclusive, non-blocking lock on the tracker root.
// It returns ErrLocked if another process holds it.
func (l *Ledger) Lock() (func(), error) {
	if err := os.MkdirAll(l.root, 0o755); err != nil {
		return nil, fmt.Errorf("creating tracker root: %w", err)
	}
	fl := flock.New(filepath.Join(l.root, lockFileName))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking tracker root: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLocked, l.root)
	}
	return func() {
		if err := fl.Unlock(); err != nil {
			logger.Warn("Failed to release tracker lock: %v", err)
		}
	}, nil
}

func (l *Ledger) timestamp() string {
	return l.now().Format(TimestampLayout)
}

// write marshals body with sorted keys and writes it atomically.
func (l *Ledger) write(path string, body map[string]any) error {
	data, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding marker: %w", err)
	}
	return utils.WriteFileAtomic(path, append(data, '\n'), 0o644)
}
