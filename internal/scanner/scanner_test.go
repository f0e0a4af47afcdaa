package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, root string, rel string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("<mods/>"), 0o644))
	return path
}

func TestParseID(t *testing.T) {
	cases := map[string]string{
		"/path/to/HH123456.mods.xml":         "HH123456",
		"/path/to/HH123456_0001.mods.xml":    "HH123456_0001",
		"HH123456_0001.ocr.mods.xml":         "HH123456_0001",
		"/deep/a/b/HH654321_0042.mods.xml":   "HH654321_0042",
		"relative/HH000001.display.mods.xml": "HH000001",
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseID(in), in)
	}
}

func TestParseIDRoundTrip(t *testing.T) {
	for _, id := range []string{"HH123456", "HH123456_0001", "HH999999_1234"} {
		assert.Equal(t, id, ParseID(filepath.Join("/x", id+".mods.xml")))
		assert.Equal(t, id, ParseID(filepath.Join("/x", id+".qualifier.mods.xml")))
	}
}

func TestValidateOrgID(t *testing.T) {
	assert.NoError(t, ValidateOrgID("HH123456"))
	assert.ErrorIs(t, ValidateOrgID("HH12345"), ErrInvalidOrgID)
	assert.ErrorIs(t, ValidateOrgID("HH123456_0001"), ErrInvalidOrgID)
	assert.ErrorIs(t, ValidateOrgID("../../..x"), ErrInvalidOrgID)
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	org := touch(t, root, "HH12/HH123456.mods.xml")
	item1 := touch(t, root, "HH12/items/HH123456_0001.mods.xml")
	item2 := touch(t, root, "other/HH123456_0002.mods.xml")
	touch(t, root, "HH65/HH654321.mods.xml")
	touch(t, root, "HH12/HH123456_0003.jpg")
	touch(t, root, "HH12/HH123456_0004.xml")

	got, err := Scan(root, "HH123456")
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"HH123456":      org,
		"HH123456_0001": item1,
		"HH123456_0002": item2,
	}, got.Paths)
	assert.Equal(t, []string{"HH123456", "HH123456_0001", "HH123456_0002"}, got.IDs())
	assert.Empty(t, got.Collisions)
}

func TestScanCollisionKeepsLaterPath(t *testing.T) {
	root := t.TempDir()
	first := touch(t, root, "a/HH123456_0001.mods.xml")
	second := touch(t, root, "b/HH123456_0001.display.mods.xml")

	got, err := Scan(root, "HH123456")
	require.NoError(t, err)

	assert.Equal(t, second, got.Paths["HH123456_0001"])
	require.Len(t, got.Collisions, 1)
	assert.Equal(t, Collision{ID: "HH123456_0001", Kept: second, Dropped: first}, got.Collisions[0])
}

func TestScanAll(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "HH123456.mods.xml")
	touch(t, root, "x/HH654321_0001.mods.xml")

	got, err := ScanAll(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"HH123456", "HH654321_0001"}, got.IDs())
}

func TestScanMissingRoot(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "nope"), "HH123456")
	assert.Error(t, err)
}
