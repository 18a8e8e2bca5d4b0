package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "a.txt"), []byte("live"), 0o644))

	sidecar := filepath.Join(root, ".zfs", "snapshot")
	require.NoError(t, os.MkdirAll(sidecar, 0o755))

	for _, name := range []string{"2024-01-01_00-00-00", "2025-11-09_14-30-45"} {
		snapDocs := filepath.Join(sidecar, name, "docs")
		require.NoError(t, os.MkdirAll(snapDocs, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(snapDocs, "a.txt"), []byte(name), 0o644))
	}

	return root
}

func TestEngineListOrdersDescending(t *testing.T) {
	root := newTestTree(t)
	e := NewEngine(root, nil)

	descriptors, err := e.List("docs")
	require.NoError(t, err)
	require.Len(t, descriptors, 2)
	require.Equal(t, "zfs:2025-11-09_14-30-45", descriptors[0].ID)
	require.Equal(t, "zfs:2024-01-01_00-00-00", descriptors[1].ID)
	require.Greater(t, descriptors[0].Timestamp, descriptors[1].Timestamp)
}

func TestEngineListNoSidecarIsEmptyNotError(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0o755))

	e := NewEngine(root, nil)
	descriptors, err := e.List("docs")
	require.NoError(t, err)
	require.Empty(t, descriptors)
}

func TestEngineOpenRootScopesIntoSnapshot(t *testing.T) {
	root := newTestTree(t)
	e := NewEngine(root, nil)

	gw, sub, err := e.OpenRoot("docs", "zfs:2025-11-09_14-30-45")
	require.NoError(t, err)
	defer gw.Close()
	require.Equal(t, "docs", sub)

	f, err := gw.Open(filepath.Join(sub, "a.txt"))
	require.NoError(t, err)
	defer f.Close()

	buf := make([]byte, 64)
	n, _ := f.Read(buf)
	require.Equal(t, "2025-11-09_14-30-45", string(buf[:n]))
}

func TestEngineOpenRootRejectsMalformedID(t *testing.T) {
	root := newTestTree(t)
	e := NewEngine(root, nil)

	_, _, err := e.OpenRoot("docs", "bogus")
	require.Error(t, err)
}

func TestEngineOpenRootUnknownSnapshot(t *testing.T) {
	root := newTestTree(t)
	e := NewEngine(root, nil)

	_, _, err := e.OpenRoot("docs", "zfs:does-not-exist")
	require.Error(t, err)
}

func TestParseTimestampFallsBackToModTime(t *testing.T) {
	root := t.TempDir()
	sidecar := filepath.Join(root, ".zfs", "snapshot", "weird-name")
	require.NoError(t, os.MkdirAll(sidecar, 0o755))

	e := NewEngine(root, nil)
	descriptors, err := e.List("")
	require.NoError(t, err)
	require.Len(t, descriptors, 1)
	require.Equal(t, "weird-name", descriptors[0].Name)
	require.NotZero(t, descriptors[0].Timestamp)
}
