package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brown-library/bdr-scripts/internal/ocflstore"
)

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"HH123456", "HH654321"}, splitList(" HH123456 ,HH654321,,HH123456"))
	assert.Empty(t, splitList(""))
}

func TestRequireFlags(t *testing.T) {
	var a, b string
	c := &cobra.Command{Use: "x"}
	c.Flags().StringVar(&a, "alpha", "", "")
	c.Flags().StringVar(&b, "beta", "", "")
	var stderr bytes.Buffer
	c.SetErr(&stderr)
	require.NoError(t, c.Flags().Set("alpha", "set"))

	err := requireFlags(c, "alpha", "beta")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--beta")
	assert.NotContains(t, err.Error(), "--alpha")
	assert.Contains(t, stderr.String(), "Usage:")

	require.NoError(t, c.Flags().Set("beta", "set"))
	assert.NoError(t, requireFlags(c, "alpha", "beta"))
}

func TestRequireDir(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, requireDir("mods_dir", dir))

	file := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	assert.ErrorContains(t, requireDir("tracker_dir", file), "not a directory")
	assert.Error(t, requireDir("tracker_dir", filepath.Join(dir, "missing")))
}

func TestWriteLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orgs.txt")
	require.NoError(t, writeLines(path, []string{"HH000001", "HH000002"}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "HH000001\nHH000002\n", string(data))

	require.NoError(t, writeLines(path, nil))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"Collection", "Items"}, [][]string{{"Hall-Hoag", "120"}, {"Theses"}}, 1)
	assert.Contains(t, out, "│ COLLECTION │ ITEMS │")
	assert.Contains(t, out, "│ Hall-Hoag  │   120 │")
	assert.Contains(t, out, "│ Theses     │       │")
	assert.Equal(t, "", renderTable(nil, nil))
}

func TestReportOutcomes(t *testing.T) {
	var buf bytes.Buffer
	err := reportOutcomes(&buf, []ocflstore.Outcome{
		{ID: "bdr:1", Status: ocflstore.StatusPurged},
		{ID: "bdr:2", Status: ocflstore.StatusMissing},
		{ID: "bdr:3", Status: ocflstore.StatusFailed, Err: errors.New("boom")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bdr:3: boom")
	assert.True(t, strings.Contains(buf.String(), "purged"))
	assert.True(t, strings.Contains(buf.String(), "missing"))

	buf.Reset()
	assert.NoError(t, reportOutcomes(&buf, []ocflstore.Outcome{{ID: "bdr:1", Status: ocflstore.StatusDryRun}}))
}

func TestSubcommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range RootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"update-mods", "collections", "orgs", "gather-paths", "part-of-pids", "save-mods", "validate-mods", "purge-ocfl", "delete", "version"} {
		assert.True(t, names[want], want)
	}
}

func TestRequireConfirmation(t *testing.T) {
	orig := confirm
	t.Cleanup(func() { confirm = orig })

	confirm = func(string, string) (bool, error) { return true, nil }
	assert.NoError(t, requireConfirmation("Purge?", "3 objects"))

	confirm = func(string, string) (bool, error) { return false, nil }
	assert.ErrorIs(t, requireConfirmation("Purge?", "3 objects"), errDeclined)

	confirm = func(string, string) (bool, error) { return false, errors.New("no tty") }
	err := requireConfirmation("Purge?", "3 objects")
	require.Error(t, err)
	assert.NotErrorIs(t, err, errDeclined)
}
