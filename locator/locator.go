// Package locator implements Timeship's Path Model: turning an HTTP route
// plus query string into a Locator and back.
//
// A Locator is modelled as a url.URL the way original_source's
// api/internal/storage package models a FileNode.Path: scheme carries the
// storage name, Path carries the relpath, and the "snapshot" query
// parameter rides on the same value so a single per-request struct carries
// everything the storage layer needs.
package locator

import (
	"net/url"
	"path"
	"strings"

	"github.com/smilyorg/timeship/apperr"
)

// Locator names a node and, optionally, a snapshot in which to observe it.
type Locator struct {
	Storage  string
	RelPath  string
	Snapshot string
}

// Parse builds a Locator from route components. storage is the path
// segment naming the storage; rawPath is the URL-decoded remainder of the
// route (the wildcard tail); snapshot is the raw value of the "snapshot"
// query parameter, or "".
func Parse(storage, rawPath, snapshot string) (Locator, error) {
	if storage == "" {
		return Locator{}, apperr.New(apperr.InvalidStorage, "storage name is empty")
	}

	relPath, err := Normalize(rawPath)
	if err != nil {
		return Locator{}, err
	}

	return Locator{
		Storage:  storage,
		RelPath:  relPath,
		Snapshot: snapshot,
	}, nil
}

// Normalize strips a leading slash, collapses duplicate slashes, and
// rejects "." / ".." segments, embedded NULs, and absolute components.
// An empty result means the storage root and is returned as "".
func Normalize(rawPath string) (string, error) {
	if strings.ContainsRune(rawPath, 0) {
		return "", apperr.New(apperr.InvalidPath, "path contains a NUL byte")
	}

	p := strings.TrimPrefix(rawPath, "/")
	if p == "" || p == "." {
		return "", nil
	}

	// Reject ".." segments against the raw, uncleaned path: path.Clean
	// resolves "a/../../etc" down to "etc" by design (it never lets a
	// cleaned path climb above a leading "/"), which would silently turn
	// a traversal attempt into a harmless-looking sibling lookup instead
	// of surfacing it. Checking before Clean is what lets us report it as
	// an escape rather than resolve it "for" the caller.
	for _, seg := range strings.Split(p, "/") {
		if seg == "." {
			return "", apperr.New(apperr.InvalidPath, "path contains a \".\" segment: %q", rawPath)
		}
		if seg == ".." {
			// A ".." segment is the same failure the Rooted FS Gateway
			// reports as Escape, not a merely malformed path: both mean
			// "this would leave the root", and a traversal attempt must
			// come back as a plain 404 rather than confirm anything
			// about what lies outside.
			return "", apperr.New(apperr.Escape, "path escapes the storage root: %q", rawPath)
		}
	}

	cleaned := path.Clean("/" + p)
	cleaned = strings.TrimPrefix(cleaned, "/")

	if cleaned == "." || cleaned == "" {
		return "", nil
	}

	return cleaned, nil
}

// FSPath returns the path as it should be handed to the rooted filesystem
// gateway, which treats "" as invalid and requires "." for the root.
func (l Locator) FSPath() string {
	if l.RelPath == "" {
		return "."
	}
	return l.RelPath
}

// String renders the wire form "<storage>://<relpath>[?snapshot=<id>]".
func (l Locator) String() string {
	u := url.URL{Scheme: l.Storage, Path: "/" + l.RelPath}
	if l.Snapshot != "" {
		q := url.Values{}
		q.Set("snapshot", l.Snapshot)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// Compose returns a child Locator naming basename as a direct child of l.
// The snapshot query is dropped: a listing response emits child locators
// without re-asserting it, since the client already carries the snapshot
// alongside the parent request.
func (l Locator) Compose(basename string) Locator {
	return Locator{
		Storage: l.Storage,
		RelPath: path.Join(l.RelPath, basename),
	}
}

// Basename returns the last path segment, or "" for the storage root.
func (l Locator) Basename() string {
	if l.RelPath == "" {
		return ""
	}
	return path.Base(l.RelPath)
}
