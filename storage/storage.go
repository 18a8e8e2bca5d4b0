// Package storage implements Timeship's Storage Facade and Registry: a
// uniform capability surface over one or more named roots, each backed by
// a Rooted FS Gateway and, for local ZFS-capable roots, a Snapshot Engine.
//
// The capability set and node shape descend from
// original_source/api/internal/storage.Storage's marker interface and its
// FileNode, trimmed to the fields Timeship's read-only node model needs.
package storage

import (
	"io"
	"net/http"
	"path"
	"sort"
	"strings"

	"github.com/smilyorg/timeship/apperr"
	"github.com/smilyorg/timeship/locator"
	"github.com/smilyorg/timeship/rootfs"
	"github.com/smilyorg/timeship/snapshot"
)

// sniffLen matches the minimum buffer http.DetectContentType inspects.
const sniffLen = 512

// Node is one filesystem entry, enriched with the fields the listing and
// node endpoints serialize.
type Node struct {
	Path         string
	Type         string // "file" or "dir"
	Basename     string
	Extension    string
	Size         int64
	LastModified int64
	MimeType     string
}

// newNode builds a Node from a relative path and FileInfo, sniffing the
// media type from gw for every entry that is not a directory.
func newNode(gw *rootfs.Gateway, relPath string, info rootfs.FileInfo) Node {
	n := Node{
		Path:         relPath,
		Basename:     info.Name(),
		Size:         info.Size(),
		LastModified: info.ModTime().Unix(),
	}

	if info.IsDir() {
		n.Type = "dir"
		n.Size = 0
		return n
	}

	n.Type = "file"
	n.Extension = extensionOf(info.Name())

	buf := make([]byte, sniffLen)
	nread, err := gw.ReadHead(relPath, buf)
	if err == nil {
		n.MimeType = http.DetectContentType(buf[:nread])
	}

	return n
}

// extensionOf returns the run of characters after the final "." in name,
// or "" if name has no extension.
func extensionOf(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 || idx == len(name)-1 {
		return ""
	}
	return name[idx+1:]
}

// Facade presents a single named storage's capability surface, hiding
// whether a given call targets the live tree or a snapshot.
type Facade struct {
	name      string
	kind      string
	gateway   *rootfs.Gateway
	snapshots *snapshot.Engine
	caps      Capability
}

// NewLocalFacade opens root as a Rooted FS Gateway and pairs it with a
// Snapshot Engine over the same root, matching
// original_source/api/internal/adapter/local's combination of a plain
// directory adapter with a ZFS sidecar adapter.
func NewLocalFacade(name, root string) (*Facade, error) {
	gw, err := rootfs.Open(root)
	if err != nil {
		return nil, err
	}

	return &Facade{
		name:      name,
		kind:      "local",
		gateway:   gw,
		snapshots: snapshot.NewEngine(root, nil),
		caps:      CapList | CapRead | CapStat | CapSnapshotList,
	}, nil
}

// Name returns the storage's registered name.
func (f *Facade) Name() string { return f.name }

// Kind returns the storage's backend tag, e.g. "local".
func (f *Facade) Kind() string { return f.kind }

// Capabilities returns the storage's advertised capability set.
func (f *Facade) Capabilities() Capability { return f.caps }

// Close releases the facade's primary root handle.
func (f *Facade) Close() error {
	return f.gateway.Close()
}

// resolve picks the gateway and gateway-relative path a locator should be
// served from: the facade's own root handle for a live locator, or a
// freshly opened snapshot-scoped gateway for one naming a snapshot. The
// returned release func MUST be deferred by the caller; it is a no-op for
// the live case and closes the snapshot gateway otherwise.
func (f *Facade) resolve(l locator.Locator) (*rootfs.Gateway, string, func(), error) {
	if l.Snapshot == "" {
		return f.gateway, l.FSPath(), func() {}, nil
	}

	gw, sub, err := f.snapshots.OpenRoot(l.RelPath, l.Snapshot)
	if err != nil {
		return nil, "", nil, err
	}
	if sub == "" {
		sub = "."
	}
	return gw, sub, func() { gw.Close() }, nil
}

// List returns the enriched immediate children of l.
func (f *Facade) List(l locator.Locator) ([]Node, error) {
	if !f.caps.Has(CapList) {
		return nil, apperr.New(apperr.NotSupported, "storage %q does not support listing", f.name)
	}

	gw, gwPath, release, err := f.resolve(l)
	if err != nil {
		return nil, err
	}
	defer release()

	entries, err := gw.Readdir(gwPath)
	if err != nil {
		return nil, err
	}

	nodes := make([]Node, 0, len(entries))
	for _, info := range entries {
		// ZFS itself never returns ".zfs" from readdir; it's only
		// reachable by naming it directly. Listings mirror that so the
		// snapshot sidecar never appears as a browsable entry.
		if info.Name() == snapshot.SidecarDir {
			continue
		}
		childRel := path.Join(gwPath, info.Name())
		nodes = append(nodes, newNode(gw, childRel, info))
	}

	return nodes, nil
}

// Stat returns the enriched Node describing l itself.
func (f *Facade) Stat(l locator.Locator) (Node, error) {
	if !f.caps.Has(CapStat) {
		return Node{}, apperr.New(apperr.NotSupported, "storage %q does not support stat", f.name)
	}

	gw, gwPath, release, err := f.resolve(l)
	if err != nil {
		return Node{}, err
	}
	defer release()

	info, err := gw.Stat(gwPath)
	if err != nil {
		return Node{}, err
	}

	return newNode(gw, gwPath, info), nil
}

// streamReader wraps a rootfs.File and the release func for the gateway it
// came from, so that closing the stream also releases any snapshot-scoped
// gateway opened to serve it.
type streamReader struct {
	rootfs.File
	release func()
}

func (s *streamReader) Close() error {
	err := s.File.Close()
	s.release()
	return err
}

// ReadStream opens l for reading, returning the byte source, its sniffed
// media type, and its size. The caller MUST close the returned stream.
func (f *Facade) ReadStream(l locator.Locator) (io.ReadCloser, string, int64, error) {
	if !f.caps.Has(CapRead) {
		return nil, "", 0, apperr.New(apperr.NotSupported, "storage %q does not support reading", f.name)
	}

	gw, gwPath, release, err := f.resolve(l)
	if err != nil {
		return nil, "", 0, err
	}

	info, err := gw.Stat(gwPath)
	if err != nil {
		release()
		return nil, "", 0, err
	}
	if info.IsDir() {
		release()
		return nil, "", 0, apperr.New(apperr.InvalidPath, "%q is a directory", l.RelPath)
	}

	buf := make([]byte, sniffLen)
	n, err := gw.ReadHead(gwPath, buf)
	if err != nil {
		release()
		return nil, "", 0, err
	}
	mimeType := http.DetectContentType(buf[:n])

	file, err := gw.Open(gwPath)
	if err != nil {
		release()
		return nil, "", 0, err
	}

	return &streamReader{File: file, release: release}, mimeType, info.Size(), nil
}

// Snapshots returns the descending-by-timestamp list of snapshots
// applying to l.
func (f *Facade) Snapshots(l locator.Locator) ([]snapshot.Descriptor, error) {
	if !f.caps.Has(CapSnapshotList) {
		return nil, apperr.New(apperr.NotSupported, "storage %q does not support snapshots", f.name)
	}
	return f.snapshots.List(l.FSPath())
}

// Registry is the named collection of configured storages, each exclusively
// owning its primary root handle for the registry's lifetime.
type Registry struct {
	order    []string
	storages map[string]*Facade
	defName  string
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{storages: map[string]*Facade{}}
}

// Register adds f to the registry. The first storage registered becomes
// the default.
func (r *Registry) Register(f *Facade) {
	r.order = append(r.order, f.Name())
	r.storages[f.Name()] = f
	if r.defName == "" {
		r.defName = f.Name()
	}
}

// Get looks up a storage by name.
func (r *Registry) Get(name string) (*Facade, error) {
	f, ok := r.storages[name]
	if !ok {
		return nil, apperr.New(apperr.StorageNotFound, "storage %q is not registered", name)
	}
	return f, nil
}

// Default returns the default storage's name, or "" if none are registered.
func (r *Registry) Default() string {
	return r.defName
}

// Names returns every registered storage name, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.storages))
	for name := range r.storages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Facades returns every registered Facade, sorted by name.
func (r *Registry) Facades() []*Facade {
	names := r.Names()
	facades := make([]*Facade, 0, len(names))
	for _, name := range names {
		facades = append(facades, r.storages[name])
	}
	return facades
}

// Close closes every registered storage's root handle in reverse
// registration order.
func (r *Registry) Close() error {
	var firstErr error
	for i := len(r.order) - 1; i >= 0; i-- {
		if err := r.storages[r.order[i]].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
