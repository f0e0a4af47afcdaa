package ledger

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedLedger(t *testing.T) *Ledger {
	t.Helper()
	l := New(t.TempDir())
	l.now = func() time.Time { return time.Date(2024, 3, 5, 14, 7, 9, 0, time.Local) }
	return l
}

func readMarker(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestMarkerPathsAreSharded(t *testing.T) {
	l := New("/tracker")
	for _, org := range []string{"HH123456", "HH000001", "ABCDEFGH"} {
		p := l.OrgMarkerPath(org)
		rel, err := filepath.Rel("/tracker", p)
		require.NoError(t, err)
		parts := strings.Split(rel, string(filepath.Separator))
		require.Len(t, parts, 3)
		assert.Equal(t, org[0:4], parts[0])
		assert.Equal(t, org[4:8], parts[1])
		assert.Contains(t, parts[2], org)
	}

	assert.Equal(t, filepath.Join("/tracker", "HH12", "3456", "HH123456__whole_org_updated.json"), l.OrgMarkerPath("HH123456"))
	assert.Equal(t, filepath.Join("/tracker", "HH12", "3456", "HH123456_0001__item_updated.json"), l.ItemMarkerPath("HH123456_0001"))
}

func TestProblemPath(t *testing.T) {
	assert.Equal(t, "/t/HH12/3456/HH123456_0001__item_problem.json", ProblemPath("/t/HH12/3456/HH123456_0001__item_updated.json"))
	assert.Equal(t, "/t/HH12/3456/HH123456__whole_org_problem.json", ProblemPath("/t/HH12/3456/HH123456__whole_org_updated.json"))
}

func TestRecordItemSuccess(t *testing.T) {
	l := fixedLedger(t)
	require.False(t, l.ItemDone("HH123456_0001"))

	require.NoError(t, l.RecordItemResult("HH123456_0001", nil))

	assert.True(t, l.ItemDone("HH123456_0001"))
	assert.False(t, IsComplete(ProblemPath(l.ItemMarkerPath("HH123456_0001"))))
	m := readMarker(t, l.ItemMarkerPath("HH123456_0001"))
	assert.Equal(t, "all_good", m["message"])
	assert.Equal(t, "2024-03-05 14:07:09", m["timestamp"])
	assert.Equal(t, l.RunID(), m["run_id"])
	assert.NotContains(t, m, "err")
}

func TestRecordItemProblem(t *testing.T) {
	l := fixedLedger(t)

	require.NoError(t, l.RecordItemResult("HH123456_0002", errors.New("api said no")))

	assert.False(t, l.ItemDone("HH123456_0002"))
	problem := ProblemPath(l.ItemMarkerPath("HH123456_0002"))
	require.True(t, IsComplete(problem))
	m := readMarker(t, problem)
	assert.Equal(t, "api said no", m["err"])
	assert.NotContains(t, m, "message")

	// A later success does not need the problem marker removed.
	require.NoError(t, l.RecordItemResult("HH123456_0002", nil))
	assert.True(t, l.ItemDone("HH123456_0002"))
	assert.True(t, IsComplete(problem))
}

func TestMarkerKeysSortedAndIndented(t *testing.T) {
	l := fixedLedger(t)
	require.NoError(t, l.RecordItemResult("HH123456", nil))

	data, err := os.ReadFile(l.ItemMarkerPath("HH123456"))
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.HasPrefix(text, "{\n  \"agent\""))
	assert.Less(t, strings.Index(text, `"agent"`), strings.Index(text, `"message"`))
	assert.Less(t, strings.Index(text, `"message"`), strings.Index(text, `"run_id"`))
	assert.Less(t, strings.Index(text, `"run_id"`), strings.Index(text, `"timestamp"`))
}

func TestRecordOrgResult(t *testing.T) {
	l := fixedLedger(t)
	require.False(t, l.OrgDone("HH123456"))

	require.NoError(t, l.RecordOrgResult("HH123456", OrgSummary{Items: 4, Updated: 2, Skipped: 1, Problems: 1, MissingPID: 1}))

	assert.True(t, l.OrgDone("HH123456"))
	m := readMarker(t, l.OrgMarkerPath("HH123456"))
	assert.Equal(t, "org_processed", m["message"])
	assert.EqualValues(t, 4, m["items"])
	assert.EqualValues(t, 2, m["updated"])
	assert.EqualValues(t, 1, m["missing_pid"])
}

func TestCrashBeforeRenameIsNotComplete(t *testing.T) {
	l := fixedLedger(t)
	marker := l.ItemMarkerPath("HH123456_0003")

	// Simulate a crash: the shard directory and a half-written temp file exist,
	// but the rename never happened.
	require.NoError(t, os.MkdirAll(filepath.Dir(marker), 0o755))
	tmp := filepath.Join(filepath.Dir(marker), "."+filepath.Base(marker)+".123456.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte(`{"message": "all_`), 0o644))

	assert.False(t, IsComplete(marker))
	assert.False(t, l.ItemDone("HH123456_0003"))

	require.NoError(t, l.RecordItemResult("HH123456_0003", nil))
	assert.True(t, l.ItemDone("HH123456_0003"))
}

func TestIsCompleteIgnoresDirectories(t *testing.T) {
	l := fixedLedger(t)
	marker := l.ItemMarkerPath("HH123456_0004")
	require.NoError(t, os.MkdirAll(marker, 0o755))
	assert.False(t, IsComplete(marker))
}

func TestLock(t *testing.T) {
	root := t.TempDir()

	unlock, err := New(root).Lock()
	require.NoError(t, err)

	_, err = New(root).Lock()
	require.ErrorIs(t, err, ErrLocked)

	unlock()

	unlock2, err := New(root).Lock()
	require.NoError(t, err)
	unlock2()
}
