package storage

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smilyorg/timeship/apperr"
	"github.com/smilyorg/timeship/locator"
)

func newTestFacade(t *testing.T) (*Facade, string) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "readme.txt"), []byte("hello world"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0o755))

	f, err := NewLocalFacade("local", root)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })

	return f, root
}

func TestFacadeListSortsNothingButEnriches(t *testing.T) {
	f, _ := newTestFacade(t)

	nodes, err := f.List(locator.Locator{Storage: "local"})
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	byName := map[string]Node{}
	for _, n := range nodes {
		byName[n.Basename] = n
	}

	require.Equal(t, "dir", byName["sub"].Type)
	require.Equal(t, "file", byName["readme.txt"].Type)
	require.Equal(t, "txt", byName["readme.txt"].Extension)
	require.NotEmpty(t, byName["readme.txt"].MimeType)
}

func TestFacadeStat(t *testing.T) {
	f, _ := newTestFacade(t)

	node, err := f.Stat(locator.Locator{Storage: "local", RelPath: "readme.txt"})
	require.NoError(t, err)
	require.Equal(t, "file", node.Type)
	require.Equal(t, int64(len("hello world")), node.Size)
}

func TestFacadeReadStream(t *testing.T) {
	f, _ := newTestFacade(t)

	rc, mimeType, size, err := f.ReadStream(locator.Locator{Storage: "local", RelPath: "readme.txt"})
	require.NoError(t, err)
	defer rc.Close()

	require.NotEmpty(t, mimeType)
	require.Equal(t, int64(len("hello world")), size)

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "hello world", string(data))
}

func TestFacadeReadStreamRejectsDirectory(t *testing.T) {
	f, _ := newTestFacade(t)

	_, _, _, err := f.ReadStream(locator.Locator{Storage: "local", RelPath: "sub"})
	require.Error(t, err)
	require.Equal(t, apperr.InvalidPath, apperr.KindOf(err))
}

func TestFacadeListHidesZFSSidecar(t *testing.T) {
	f, root := newTestFacade(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".zfs", "snapshot", "daily"), 0o755))

	nodes, err := f.List(locator.Locator{Storage: "local"})
	require.NoError(t, err)

	for _, n := range nodes {
		require.NotEqual(t, ".zfs", n.Basename)
	}
	require.Len(t, nodes, 2)
}

func TestFacadeTotalSizeExcludesZFSSidecar(t *testing.T) {
	f, root := newTestFacade(t)

	withoutSidecar, err := f.TotalSize(locator.Locator{Storage: "local"})
	require.NoError(t, err)

	snapDir := filepath.Join(root, ".zfs", "snapshot", "daily")
	require.NoError(t, os.MkdirAll(snapDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(snapDir, "readme.txt"), []byte("hello world"), 0o644))

	withSidecar, err := f.TotalSize(locator.Locator{Storage: "local"})
	require.NoError(t, err)
	require.Equal(t, withoutSidecar, withSidecar)
}

func TestFacadeSnapshotsEmptyWithoutSidecar(t *testing.T) {
	f, _ := newTestFacade(t)

	descriptors, err := f.Snapshots(locator.Locator{Storage: "local"})
	require.NoError(t, err)
	require.Empty(t, descriptors)
}

func TestRegistryLookupAndDefault(t *testing.T) {
	f, _ := newTestFacade(t)
	r := NewRegistry()
	r.Register(f)

	require.Equal(t, "local", r.Default())
	require.Equal(t, []string{"local"}, r.Names())

	got, err := r.Get("local")
	require.NoError(t, err)
	require.Same(t, f, got)

	_, err = r.Get("missing")
	require.Error(t, err)
	require.Equal(t, apperr.StorageNotFound, apperr.KindOf(err))
}
