// Package scanner discovers locally staged MODS files and derives their identifiers.
package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/brown-library/bdr-scripts/pkg/logger"
)

// modsSuffix is the naming suffix of every metadata file.
const modsSuffix = "mods.xml"

// ErrInvalidOrgID is returned for organization identifiers of the wrong shape.
var ErrInvalidOrgID = errors.New("invalid org identifier")

// Collision records two files that resolved to the same identifier.
type Collision struct {
	ID      string
	Kept    string
	Dropped string
}

// PathMap maps item identifiers to local MODS file paths.
type PathMap struct {
	Paths      map[string]string
	Collisions []Collision
}

// IDs returns the identifiers in lexicographic order.
func (m PathMap) IDs() []string {
	ids := make([]string, 0, len(m.Paths))
	for id := range m.Paths {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of identifiers found.
func (m PathMap) Len() int { return len(m.Paths) }

// ValidateOrgID checks that org is an eight character identifier such as HH123456.
func ValidateOrgID(org string) error {
	if len(org) != 8 || strings.ContainsAny(org, "/\\. _") {
		return fmt.Errorf("%w: %q (expected 8 characters, e.g. HH123456)", ErrInvalidOrgID, org)
	}
	return nil
}

// ParseID returns the identifier encoded in a MODS file name.
// "HH123456.mods.xml" gives "HH123456" and "HH123456_0001.ocr.mods.xml" gives "HH123456_0001".
func ParseID(path string) string {
	name := filepath.Base(path)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	id, _, _ := strings.Cut(stem, ".")
	return id
}

// Scan walks root and returns the MODS files whose names contain org.
func Scan(root, org string) (PathMap, error) {
	return scan(root, func(name string) bool {
		return strings.Contains(name, org)
	})
}

// ScanAll walks root and returns every MODS file found.
func ScanAll(root string) (PathMap, error) {
	return scan(root, func(string) bool { return true })
}

func scan(root string, keep func(name string) bool) (PathMap, error) {
	result := PathMap{Paths: map[string]string{}}

	// WalkDir visits entries in lexical order, so "later" is stable across platforms.
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if !strings.HasSuffix(name, modsSuffix) || !keep(name) {
			return nil
		}

		id := ParseID(path)
		if prev, ok := result.Paths[id]; ok {
			logger.Warn("identifier collision for %s: %s replaces %s", id, path, prev)
			result.Collisions = append(result.Collisions, Collision{ID: id, Kept: path, Dropped: prev})
		}
		result.Paths[id] = path
		return nil
	})
	if err != nil {
		return PathMap{}, fmt.Errorf("scanning %q: %w", root, err)
	}

	logger.Debug("found %d mods files under %s", len(result.Paths), root)
	return result, nil
}
