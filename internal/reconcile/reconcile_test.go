package reconcile

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brown-library/bdr-scripts/internal/catalog"
	"github.com/brown-library/bdr-scripts/internal/scanner"
)

func pathMap(m map[string]string) scanner.PathMap {
	return scanner.PathMap{Paths: m}
}

func TestMergeAttachesPID(t *testing.T) {
	paths := pathMap(map[string]string{"HH1__0001": "/mods/HH1__0001.mods.xml"})
	docs := []catalog.Doc{{Identifier: []string{"HH1__0001"}, PID: "bdr:abc"}}

	wl := Merge(paths, docs)
	require.Len(t, wl.Records, 1)
	rec := wl.Records[0]
	assert.Equal(t, "HH1__0001", rec.ID)
	assert.Equal(t, "/mods/HH1__0001.mods.xml", rec.LocalPath)
	assert.Equal(t, "bdr:abc", rec.PID)
	assert.True(t, rec.HasPID())
	assert.Empty(t, wl.MissingPIDs)
	assert.Zero(t, wl.Unmatched)
}

func TestMergePrefersLocalIDField(t *testing.T) {
	paths := pathMap(map[string]string{"HH123456_0001": "p1"})
	docs := []catalog.Doc{{LocalIDs: []string{"HH123456_0001"}, Identifier: []string{"something-else"}, PID: "bdr:1"}}

	wl := Merge(paths, docs)
	require.Len(t, wl.Records, 1)
	assert.Equal(t, "bdr:1", wl.Records[0].PID)
}

func TestMergeReportsMissingPIDs(t *testing.T) {
	paths := pathMap(map[string]string{
		"HH123456_0003": "p3",
		"HH123456_0001": "p1",
		"HH123456_0002": "p2",
	})
	docs := []catalog.Doc{
		{LocalIDs: []string{"HH123456_0002"}, PID: "bdr:2"},
		{LocalIDs: []string{"HH123456_9999"}, PID: "bdr:9"},
		{LocalIDs: []string{"HH123456_0003"}},
	}

	wl := Merge(paths, docs)
	require.Len(t, wl.Records, 3)
	assert.Equal(t, []string{"HH123456_0001", "HH123456_0002", "HH123456_0003"},
		[]string{wl.Records[0].ID, wl.Records[1].ID, wl.Records[2].ID})
	assert.Equal(t, []string{"HH123456_0001", "HH123456_0003"}, wl.MissingPIDs)
	assert.False(t, wl.Records[0].HasPID())
	assert.Equal(t, "", wl.Records[0].PID)
	assert.Equal(t, 1, wl.Unmatched)

	withPID := wl.WithPID()
	require.Len(t, withPID, 1)
	assert.Equal(t, "HH123456_0002", withPID[0].ID)
}

func TestMergeConflictingPIDsKeepsFirst(t *testing.T) {
	paths := pathMap(map[string]string{"HH123456": "p"})
	docs := []catalog.Doc{
		{LocalIDs: []string{"HH123456"}, PID: "bdr:first"},
		{LocalIDs: []string{"HH123456"}, PID: "bdr:second"},
		{LocalIDs: []string{"HH123456"}, PID: "bdr:first"},
	}

	wl := Merge(paths, docs)
	assert.Equal(t, "bdr:first", wl.Records[0].PID)
	assert.Equal(t, []string{"HH123456"}, wl.Duplicates)
}

func TestReport(t *testing.T) {
	paths := pathMap(map[string]string{"HH1__0001": "p1", "HH1__0002": "p2"})
	docs := []catalog.Doc{{Identifier: []string{"HH1__0001"}, PID: "bdr:abc"}}

	data, err := json.Marshal(Merge(paths, docs).Report())
	require.NoError(t, err)
	assert.JSONEq(t, `{"HH1__0001":{"path":"p1","pid":"bdr:abc"},"HH1__0002":{"path":"p2"}}`, string(data))
}

func TestMergeEmpty(t *testing.T) {
	wl := Merge(pathMap(nil), nil)
	assert.Empty(t, wl.Records)
	assert.Empty(t, wl.MissingPIDs)
	assert.Empty(t, wl.Report())
}
