package artifact

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatilho/internal/report"
)

func newTestStore(t *testing.T) *FSStore {
	t.Helper()
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestFSStorePutGetRoundTrip(t *testing.T) {
	store := newTestStore(t)
	files := []report.File{
		{Name: "EURUSD_1m.csv", Body: []byte("Open_Time,Open\n")},
		{Name: "GBPUSD_1m.csv", Body: []byte("Open_Time,Open\n")},
	}
	require.NoError(t, store.Put("extrator_polygon_20240102_100000.zip", files))

	data, err := store.Get("extrator_polygon_20240102_100000.zip")
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "EURUSD_1m.csv", zr.File[0].Name)

	rc, err := zr.File[0].Open()
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, files[0].Body, body)
}

func TestFSStoreListNewestFirst(t *testing.T) {
	store := newTestStore(t)
	files := []report.File{{Name: "a.csv", Body: []byte("x")}}
	require.NoError(t, store.Put("first.zip", files))
	require.NoError(t, store.Put("second.zip", files))
	// mtime resolution on some filesystems is coarse; force distinct stamps
	now := time.Now()
	require.NoError(t, os.Chtimes(filepath.Join(store.dir, "first.zip"), now.Add(-time.Minute), now.Add(-time.Minute)))
	require.NoError(t, os.Chtimes(filepath.Join(store.dir, "second.zip"), now, now))

	names, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"second.zip", "first.zip"}, names)
}

func TestFSStoreListIgnoresNonZip(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(store.dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, store.Put("report.zip", []report.File{{Name: "a.csv", Body: []byte("x")}}))

	names, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"report.zip"}, names)
}

func TestFSStoreGetMissing(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Get("nope.zip")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFSStoreRejectsTraversalNames(t *testing.T) {
	store := newTestStore(t)
	secret := filepath.Join(filepath.Dir(store.dir), "secret.zip")
	require.NoError(t, os.WriteFile(secret, []byte("top"), 0o644))

	for _, name := range []string{
		"../secret.zip",
		"..\\secret.zip",
		"/etc/passwd.zip",
		"sub/secret.zip",
		".hidden.zip",
		"report.csv",
		"",
	} {
		_, err := store.Get(name)
		assert.ErrorIs(t, err, ErrNotFound, "name %q", name)
		assert.Error(t, store.Put(name, []report.File{{Name: "a", Body: []byte("x")}}), "name %q", name)
	}
}

func TestFSStorePutRequiresFiles(t *testing.T) {
	store := newTestStore(t)
	assert.Error(t, store.Put("empty.zip", nil))
}
