package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) (*Registry, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "function_registry.json")
	r, err := Open(path, nil)
	require.NoError(t, err)
	return r, path
}

func TestOpen_MissingFile(t *testing.T) {
	r, path := openTemp(t)
	assert.Equal(t, 0, r.Len())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "file is only created on mutation")
}

func TestAddSummonEdit(t *testing.T) {
	r, path := openTemp(t)

	id, err := r.Add("G1", "Greeter", "print('hi')", []string{"io"})
	require.NoError(t, err)
	assert.Equal(t, "G1", id)

	fn, err := r.Summon("G1")
	require.NoError(t, err)
	assert.Equal(t, "Greeter", fn.Title)
	assert.Equal(t, []string{"io"}, fn.Traits)
	assert.True(t, fn.Editable)
	assert.False(t, fn.CreatedAt.IsZero())

	require.NoError(t, r.Edit("G1", "print('hello')"))

	reopened, err := Open(path, nil)
	require.NoError(t, err)
	fn, err = reopened.Summon("G1")
	require.NoError(t, err)
	assert.Equal(t, "print('hello')", fn.Code)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Contains(t, doc["G1"], "createdAt")
	assert.Contains(t, string(raw), "\n  \"G1\"")
}

func TestAdd_GeneratesID(t *testing.T) {
	r, _ := openTemp(t)
	id, err := r.Add("", "Anon", "x", nil)
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	assert.NoError(t, err)

	fn, err := r.Summon(id)
	require.NoError(t, err)
	assert.Equal(t, []string{}, fn.Traits)
}

func TestAdd_Invalid(t *testing.T) {
	r, _ := openTemp(t)
	_, err := r.Add("G1", "", "x", nil)
	assert.Error(t, err)
	assert.Equal(t, 0, r.Len())
}

func TestSummonAndEdit_Missing(t *testing.T) {
	r, _ := openTemp(t)
	_, err := r.Summon("nope")
	assert.ErrorIs(t, err, ErrFunctionNotFound)
	assert.ErrorIs(t, r.Edit("nope", "x"), ErrFunctionNotFound)
}

func TestEdit_Locked(t *testing.T) {
	r, _ := openTemp(t)
	_, err := r.Add("G1", "Greeter", "x", nil)
	require.NoError(t, err)
	require.NoError(t, r.Lock("G1"))

	assert.ErrorIs(t, r.Edit("G1", "y"), ErrNotEditable)
	fn, _ := r.Summon("G1")
	assert.Equal(t, "x", fn.Code)
}

func TestList(t *testing.T) {
	r, _ := openTemp(t)
	for _, id := range []string{"b", "a", "c"} {
		_, err := r.Add(id, "title-"+id, "code", nil)
		require.NoError(t, err)
	}
	assert.Equal(t, []Summary{
		{SegmentID: "a", Title: "title-a"},
		{SegmentID: "b", Title: "title-b"},
		{SegmentID: "c", Title: "title-c"},
	}, r.List())
}

func TestOpen_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := Open(path, nil)
	assert.Error(t, err)
}

func TestOpen_NaiveTimestamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "function_registry.json")
	legacy := `{
  "G1": {
    "title": "Greet",
    "code": "print('hi')",
    "traits": ["io"],
    "createdAt": "2024-05-01T12:00:00.123456",
    "editable": true
  },
  "G2": {
    "title": "Wave",
    "code": "wave()",
    "traits": [],
    "createdAt": "2024-05-02T08:30:00",
    "editable": false
  }
}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	r, err := Open(path, nil)
	require.NoError(t, err)
	require.Equal(t, 2, r.Len())

	fn, err := r.Summon("G1")
	require.NoError(t, err)
	want := time.Date(2024, 5, 1, 12, 0, 0, 123456000, time.UTC)
	assert.True(t, want.Equal(fn.CreatedAt.Time), "got %v", fn.CreatedAt)
	assert.Equal(t, time.UTC, fn.CreatedAt.Location())

	fn, err = r.Summon("G2")
	require.NoError(t, err)
	assert.True(t, time.Date(2024, 5, 2, 8, 30, 0, 0, time.UTC).Equal(fn.CreatedAt.Time))
	assert.False(t, fn.Editable)

	// rewriting keeps the entry readable and switches it to RFC 3339
	require.NoError(t, r.Edit("G1", "print('hello')"))
	reopened, err := Open(path, nil)
	require.NoError(t, err)
	fn, err = reopened.Summon("G1")
	require.NoError(t, err)
	assert.True(t, want.Equal(fn.CreatedAt.Time))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"2024-05-01T12:00:00.123456Z"`)
}

func TestOpen_BadTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "function_registry.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"G1":{"title":"x","code":"x","createdAt":"yesterday"}}`), 0o644))
	_, err := Open(path, nil)
	assert.ErrorContains(t, err, "unrecognised timestamp")
}

func TestFailedSaveLeavesRegistryUnchanged(t *testing.T) {
	r, path := openTemp(t)
	_, err := r.Add("G1", "Greeter", "x", nil)
	require.NoError(t, err)

	r.path = filepath.Join(t.TempDir(), "missing", "function_registry.json")

	_, err = r.Add("G2", "Other", "y", nil)
	require.Error(t, err)
	assert.Equal(t, 1, r.Len())
	_, err = r.Summon("G2")
	assert.ErrorIs(t, err, ErrFunctionNotFound)

	require.Error(t, r.Edit("G1", "changed"))
	require.Error(t, r.Lock("G1"))
	fn, err := r.Summon("G1")
	require.NoError(t, err)
	assert.Equal(t, "x", fn.Code)
	assert.True(t, fn.Editable)

	r.path = path
	reopened, err := Open(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, reopened.Len())
}
