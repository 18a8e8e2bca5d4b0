// Package listing implements Timeship's Listing Pipeline: turning a
// Storage Facade's enriched children into the sorted, filtered, optionally
// size-totalled Directory listing response.
//
// Sort and filter semantics are grounded on
// original_source/api/internal/api/nodes.go's serveDirectoryListing:
// directories-before-files then basename-ascending sort, followed by
// type/filter/search filtering that never reorders.
package listing

import (
	"sort"
	"strings"

	"github.com/smilyorg/timeship/locator"
	"github.com/smilyorg/timeship/storage"
)

// Node is one entry in a directory listing, shaped for JSON serialization.
type Node struct {
	Path         string `json:"path"`
	Type         string `json:"type"`
	Basename     string `json:"basename"`
	Extension    string `json:"extension"`
	FileSize     int64  `json:"file_size"`
	LastModified int64  `json:"last_modified"`
	MimeType     string `json:"mime_type,omitempty"`
}

// Result is a directory listing response.
type Result struct {
	Dirname   string   `json:"dirname"`
	ReadOnly  bool     `json:"read_only"`
	Storages  []string `json:"storages"`
	Files     []Node   `json:"files"`
	TotalSize *int64   `json:"total_size,omitempty"`
}

// Options are the query-string controlled parameters of a listing request.
type Options struct {
	Type          string // "file", "dir", or ""
	Filter        string // substring pattern; asterisks are stripped
	Search        string // case-insensitive substring
	WithTotalSize bool
}

// Build produces a Result for l against facade, listing every registered
// storage's name in the response's Storages field.
func Build(facade *storage.Facade, l locator.Locator, storageNames []string, opts Options) (Result, error) {
	nodes, err := facade.List(l)
	if err != nil {
		return Result{}, err
	}

	sortNodes(nodes)
	nodes = filterNodes(nodes, opts)

	files := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		files = append(files, toWire(n))
	}

	result := Result{
		Dirname:  l.RelPath,
		ReadOnly: true,
		Storages: storageNames,
		Files:    files,
	}

	if opts.WithTotalSize {
		total, err := facade.TotalSize(l)
		if err != nil {
			return Result{}, err
		}
		result.TotalSize = &total
	}

	return result, nil
}

// ToWireNode converts a storage.Node into its JSON wire shape. Exposed
// for the node metadata endpoint, which serializes a single Node outside
// of a listing Result.
func ToWireNode(n storage.Node) Node {
	return toWire(n)
}

func toWire(n storage.Node) Node {
	return Node{
		Path:         n.Path,
		Type:         n.Type,
		Basename:     n.Basename,
		Extension:    n.Extension,
		FileSize:     n.Size,
		LastModified: n.LastModified,
		MimeType:     n.MimeType,
	}
}

// sortNodes orders dirs before files, then by basename ascending. The sort
// is stable so ties among equal basenames (which can't occur within one
// directory, but callers relying on determinism still benefit) keep
// discovery order.
func sortNodes(nodes []storage.Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Type != nodes[j].Type {
			return nodes[i].Type == "dir"
		}
		return nodes[i].Basename < nodes[j].Basename
	})
}

// filterNodes applies type/filter/search in sequence without reordering.
func filterNodes(nodes []storage.Node, opts Options) []storage.Node {
	out := nodes

	if opts.Type != "" {
		out = keep(out, func(n storage.Node) bool { return n.Type == opts.Type })
	}

	if opts.Filter != "" {
		pattern := strings.ReplaceAll(opts.Filter, "*", "")
		out = keep(out, func(n storage.Node) bool { return strings.Contains(n.Basename, pattern) })
	}

	if opts.Search != "" {
		query := strings.ToLower(opts.Search)
		out = keep(out, func(n storage.Node) bool {
			return strings.Contains(strings.ToLower(n.Basename), query)
		})
	}

	return out
}

func keep(nodes []storage.Node, pred func(storage.Node) bool) []storage.Node {
	filtered := make([]storage.Node, 0, len(nodes))
	for _, n := range nodes {
		if pred(n) {
			filtered = append(filtered, n)
		}
	}
	return filtered
}
