package rootfs

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/smilyorg/timeship/apperr"
)

// Gateway is a Rooted FS Gateway: every relative open is expressed against
// a single long-lived *os.Root pinned at construction, the same primitive
// original_source/api/internal/adapter/local/local.go uses
// (os.OpenRoot/root.Open/root.Stat). os.Root refuses to resolve outside the
// directory it was opened on, on every supported platform, giving a
// "beneath this directory" boundary enforced by the OS itself instead of a
// lexical check-then-open that could race.
//
// A Gateway is single-assignment: its root is fixed for the lifetime of the
// value, so it needs no locking to be shared across concurrent requests.
type Gateway struct {
	root *os.Root
}

// Open pins root as the gateway's boundary. root must exist and be a
// directory.
func Open(root string) (*Gateway, error) {
	r, err := os.OpenRoot(root)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "opening root failed")
	}
	return &Gateway{root: r}, nil
}

// Close releases the root handle.
func (g *Gateway) Close() error {
	return g.root.Close()
}

// Name returns the filesystem path the gateway was opened on. It exists
// for internal callers that need a real OS path to hand to a library that
// walks a directory tree itself (e.g. a parallel recursive walker); it
// MUST NOT be surfaced in any client-facing error or response.
func (g *Gateway) Name() string {
	return g.root.Name()
}

// resolve maps the empty relpath to "." (the storage root) and rejects
// anything that isn't lexically confined to the root before ever asking
// the OS to resolve it.
func resolve(relPath string) (string, error) {
	if relPath == "" {
		relPath = "."
	}
	if !filepath.IsLocal(relPath) {
		return "", apperr.New(apperr.Escape, "path escapes the storage root")
	}
	return relPath, nil
}

func classify(err error, relPath string) error {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return apperr.Wrap(apperr.NotFound, err, "%s", relPath)
	case errors.Is(err, os.ErrPermission):
		return apperr.Wrap(apperr.PermissionDenied, err, "%s", relPath)
	case errors.Is(err, os.ErrInvalid):
		return apperr.Wrap(apperr.Escape, err, "%s", relPath)
	default:
		return apperr.Wrap(apperr.Internal, err, "%s", relPath)
	}
}

type rootedFile struct {
	name string
	f    *os.File
}

func (f *rootedFile) Name() string { return f.name }
func (f *rootedFile) Read(p []byte) (int, error) { return f.f.Read(p) }
func (f *rootedFile) Close() error { return f.f.Close() }

func (f *rootedFile) Stat() (FileInfo, error) {
	info, err := f.f.Stat()
	if err != nil {
		return nil, classify(err, f.name)
	}
	return osFileInfo{info}, nil
}

type osFileInfo struct {
	fs.FileInfo
}

// Open opens relPath for reading. The caller MUST Close it on every exit
// path.
func (g *Gateway) Open(relPath string) (File, error) {
	p, err := resolve(relPath)
	if err != nil {
		return nil, err
	}

	f, err := g.root.Open(p)
	if err != nil {
		return nil, classify(err, relPath)
	}

	return &rootedFile{name: relPath, f: f}, nil
}

// Stat returns FileInfo for relPath without opening it for reading.
func (g *Gateway) Stat(relPath string) (FileInfo, error) {
	p, err := resolve(relPath)
	if err != nil {
		return nil, err
	}

	info, err := g.root.Stat(p)
	if err != nil {
		return nil, classify(err, relPath)
	}

	return osFileInfo{info}, nil
}

// Readdir returns FileInfo for every immediate child of relPath, sorted by
// name for determinism at this layer (the listing pipeline re-sorts on
// top of this, but a stable base order keeps tests reproducible).
func (g *Gateway) Readdir(relPath string) ([]FileInfo, error) {
	p, err := resolve(relPath)
	if err != nil {
		return nil, err
	}

	f, err := g.root.Open(p)
	if err != nil {
		return nil, classify(err, relPath)
	}
	defer f.Close()

	entries, err := f.ReadDir(-1)
	if err != nil {
		return nil, classify(err, relPath)
	}

	infos := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			// Entry disappeared between ReadDir and Info; skip it rather
			// than fail the whole listing.
			continue
		}
		infos = append(infos, osFileInfo{info})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name() < infos[j].Name() })

	return infos, nil
}

// ReadHead reads up to len(buf) bytes from the start of the file at
// relPath, returning the number of bytes actually read. Used by the
// listing pipeline for content sniffing.
func (g *Gateway) ReadHead(relPath string, buf []byte) (int, error) {
	f, err := g.Open(relPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return n, classify(err, relPath)
	}
	return n, nil
}
