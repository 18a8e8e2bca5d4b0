// Package snapshot implements Timeship's Snapshot Engine: discovering ZFS
// ".zfs/snapshot" sidecars above a path, enumerating and timestamping the
// snapshots found there, and opening a snapshot-scoped Rooted FS Gateway.
//
// The discovery walk, the ordered regex/layout timestamp table, and the
// snapshot id format ("zfs:<name>") are grounded directly on
// original_source/api/internal/adapter/local/zfs.go, the prior Go
// implementation this behavior was distilled from.
package snapshot

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/smilyorg/timeship/apperr"
	"github.com/smilyorg/timeship/rootfs"
)

// SidecarDir is the top-level directory name ZFS reserves for its control
// directory. Real ZFS never returns it from readdir; it's only reachable by
// naming it directly, which is why storage listings filter it out too.
const SidecarDir = ".zfs"

// idPrefix is the snapshot backend tag used in every descriptor's ID and
// in the wire "type" field. Only ZFS sidecars are discovered today; the
// prefix keeps the id format extensible to other backends later.
const idPrefix = "zfs"

// Descriptor describes one point-in-time snapshot of a node.
type Descriptor struct {
	ID        string
	Kind      string
	Timestamp int64
	Name      string
	Size      int64
	Metadata  map[string]string
}

// TimePattern pairs a regex (whose first capturing group isolates the
// date/time portion of a snapshot name) with the Go time layout used to
// parse it. Patterns are tried in order; the first match wins.
type TimePattern struct {
	Regex  *regexp.Regexp
	Layout string
}

// DefaultTimePatterns returns the recognized snapshot-name timestamp
// patterns, most specific first so "2025-11-09_14-30-45" isn't truncated
// to the minute by a broader rule tried earlier.
func DefaultTimePatterns() []TimePattern {
	return []TimePattern{
		{regexp.MustCompile(`(\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2})`), "2006-01-02_15-04-05"},
		{regexp.MustCompile(`(\d{8}_\d{6})`), "20060102_150405"},
		{regexp.MustCompile(`(\d{4}-\d{2}-\d{2}_\d{2}-\d{2})`), "2006-01-02_15-04"},
		{regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`), "2006-01-02"},
	}
}

// Engine discovers and enumerates snapshot sidecars beneath a single
// storage root and opens snapshot-scoped gateways into them.
type Engine struct {
	root     string
	patterns []TimePattern
}

// NewEngine builds an Engine rooted at root, the same absolute directory
// the storage's primary Rooted FS Gateway was opened on. patterns may be
// nil, in which case DefaultTimePatterns is used.
func NewEngine(root string, patterns []TimePattern) *Engine {
	if len(patterns) == 0 {
		patterns = DefaultTimePatterns()
	}
	return &Engine{root: root, patterns: patterns}
}

// discover walks upward from <root>/<relPath> looking for a ".zfs/snapshot"
// directory, never above root. It returns "" with no error if none is
// found anywhere up to and including root; "no snapshots" is not a
// failure.
func (e *Engine) discover(relPath string) (string, error) {
	current := filepath.Join(e.root, relPath)
	boundary := filepath.Clean(e.root)

	for {
		candidate := filepath.Join(current, ".zfs", "snapshot")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}

		if current == boundary {
			return "", nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", nil
		}
		current = parent
	}
}

func (e *Engine) parseTimestamp(name string) (int64, bool) {
	for _, p := range e.patterns {
		m := p.Regex.FindStringSubmatch(name)
		if len(m) < 2 {
			continue
		}
		t, err := time.Parse(p.Layout, m[1])
		if err == nil {
			return t.Unix(), true
		}
	}
	return 0, false
}

// List enumerates the snapshots visible for relPath, sorted by descending
// timestamp (stable by discovery order for ties). An empty, nil-error
// result means no sidecar applies to relPath.
func (e *Engine) List(relPath string) ([]Descriptor, error) {
	sidecar, err := e.discover(relPath)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "discovering snapshot sidecar")
	}
	if sidecar == "" {
		return []Descriptor{}, nil
	}

	entries, err := os.ReadDir(sidecar)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "reading snapshot sidecar")
	}

	descriptors := make([]Descriptor, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		ts, ok := e.parseTimestamp(entry.Name())
		if !ok {
			info, err := entry.Info()
			if err != nil {
				continue
			}
			ts = info.ModTime().Unix()
		}

		descriptors = append(descriptors, Descriptor{
			ID:        idPrefix + ":" + entry.Name(),
			Kind:      idPrefix,
			Timestamp: ts,
			Name:      entry.Name(),
			Size:      -1,
			Metadata:  map[string]string{"zfs_root": sidecar},
		})
	}

	sort.SliceStable(descriptors, func(i, j int) bool {
		return descriptors[i].Timestamp > descriptors[j].Timestamp
	})

	return descriptors, nil
}

// snapshotName extracts the sidecar subdirectory name from a snapshot id
// of the form "zfs:<name>".
func snapshotName(id string) (string, error) {
	prefix, name, found := strings.Cut(id, ":")
	if !found || prefix != idPrefix || name == "" {
		return "", apperr.New(apperr.InvalidSnapshot, "malformed snapshot id %q", id)
	}
	return name, nil
}

// OpenRoot resolves snapshotID against relPath's sidecar and opens it as a
// new Rooted FS Gateway. It returns that gateway together with the
// snapshot-relative subpath: the portion of relPath below the
// snapshot-bearing ancestor. The caller owns the returned gateway and MUST
// close it once the request completes.
func (e *Engine) OpenRoot(relPath, snapshotID string) (*rootfs.Gateway, string, error) {
	name, err := snapshotName(snapshotID)
	if err != nil {
		return nil, "", err
	}

	sidecar, err := e.discover(relPath)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.Internal, err, "discovering snapshot sidecar")
	}
	if sidecar == "" {
		return nil, "", apperr.New(apperr.NotFound, "no snapshots apply to %q", relPath)
	}

	snapshotRoot := filepath.Join(sidecar, name)
	if _, err := os.Stat(snapshotRoot); err != nil {
		if os.IsNotExist(err) {
			return nil, "", apperr.New(apperr.NotFound, "snapshot %q not found", snapshotID)
		}
		return nil, "", apperr.Wrap(apperr.Internal, err, "statting snapshot root")
	}

	gw, err := rootfs.Open(snapshotRoot)
	if err != nil {
		return nil, "", err
	}

	// The ancestor that hosts the sidecar is <sidecar>/../.., i.e. the
	// directory containing ".zfs". relPath below that ancestor is the
	// subpath the caller should resolve against the new gateway.
	ancestor := filepath.Dir(filepath.Dir(sidecar))
	absRelPath := filepath.Join(e.root, relPath)
	sub, err := filepath.Rel(ancestor, absRelPath)
	if err != nil || strings.HasPrefix(sub, "..") {
		gw.Close()
		return nil, "", apperr.New(apperr.Internal, "could not compute snapshot-relative subpath for %q", relPath)
	}
	if sub == "." {
		sub = ""
	}

	return gw, sub, nil
}
