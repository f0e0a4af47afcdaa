// Package reconcile merges local MODS paths with catalog PIDs into a worklist.
package reconcile

import (
	"sort"
	"strings"

	"github.com/brown-library/bdr-scripts/internal/catalog"
	"github.com/brown-library/bdr-scripts/internal/scanner"
	"github.com/brown-library/bdr-scripts/pkg/logger"
)

// ItemRecord is one local MODS file and, when the catalog knows it, its PID.
type ItemRecord struct {
	ID        string
	LocalPath string
	PID       string
}

// HasPID reports whether the catalog supplied a PID for this item.
func (r ItemRecord) HasPID() bool {
	return r.PID != ""
}

// Worklist is the merged set of items for one run.
type Worklist struct {
	// Records are sorted by ID.
	Records []ItemRecord
	// MissingPIDs lists local IDs the catalog returned no PID for, sorted.
	MissingPIDs []string
	// Unmatched counts catalog docs with no local file.
	Unmatched int
	// Duplicates lists IDs the catalog returned more than once with different PIDs.
	Duplicates []string
}

// ReportEntry is the JSON form of an ItemRecord.
type ReportEntry struct {
	Path string `json:"path"`
	PID  string `json:"pid,omitempty"`
}

// docKey picks the identifier a catalog doc is matched on.
func docKey(d catalog.Doc) string {
	if id := d.LocalID(); id != "" {
		return id
	}
	return d.ID()
}

// Merge attaches catalog PIDs to the scanned paths.
func Merge(paths scanner.PathMap, docs []catalog.Doc) Worklist {
	pids := make(map[string]string, len(docs))
	var wl Worklist
	dupes := map[string]bool{}
	for _, d := range docs {
		key := strings.TrimSpace(docKey(d))
		if key == "" || d.PID == "" {
			continue
		}
		if _, ok := paths.Paths[key]; !ok {
			wl.Unmatched++
			continue
		}
		if prev, ok := pids[key]; ok && prev != d.PID {
			logger.Warn("catalog returned two PIDs for %s: %s and %s; keeping %s", key, prev, d.PID, prev)
			dupes[key] = true
			continue
		}
		pids[key] = d.PID
	}

	for _, id := range paths.IDs() {
		rec := ItemRecord{ID: id, LocalPath: paths.Paths[id], PID: pids[id]}
		if !rec.HasPID() {
			wl.MissingPIDs = append(wl.MissingPIDs, id)
		}
		wl.Records = append(wl.Records, rec)
	}
	for id := range dupes {
		wl.Duplicates = append(wl.Duplicates, id)
	}
	sort.Strings(wl.Duplicates)

	if len(wl.MissingPIDs) > 0 {
		logger.Warn("%d local files have no PID in the catalog: %s", len(wl.MissingPIDs), strings.Join(wl.MissingPIDs, ", "))
	}
	if wl.Unmatched > 0 {
		logger.Info("%d catalog docs have no local MODS file", wl.Unmatched)
	}
	return wl
}

// Report returns the worklist keyed by item ID.
func (wl Worklist) Report() map[string]ReportEntry {
	out := make(map[string]ReportEntry, len(wl.Records))
	for _, r := range wl.Records {
		out[r.ID] = ReportEntry{Path: r.LocalPath, PID: r.PID}
	}
	return out
}

// WithPID returns only the records that carry a PID.
func (wl Worklist) WithPID() []ItemRecord {
	var out []ItemRecord
	for _, r := range wl.Records {
		if r.HasPID() {
			out = append(out, r)
		}
	}
	return out
}
