package httpd

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/smilyorg/timeship/apperr"
	"github.com/smilyorg/timeship/httpd/api"
	"github.com/smilyorg/timeship/listing"
	"github.com/smilyorg/timeship/locator"
	"github.com/smilyorg/timeship/storage"
)

func (s *Server) handleStorages(c echo.Context) error {
	facades := s.registry.Facades()

	infos := make([]api.StorageInfo, 0, len(facades))
	for _, f := range facades {
		infos = append(infos, api.StorageInfo{
			Name:         f.Name(),
			Type:         f.Kind(),
			ReadOnly:     true,
			Capabilities: f.Capabilities().Strings(),
		})
	}

	return c.JSON(http.StatusOK, api.StoragesList{Storages: infos})
}

func (s *Server) resolveLocator(c echo.Context) (locator.Locator, *storage.Facade, error) {
	l, err := locator.Parse(c.Param("storage"), c.Param("*"), c.QueryParam("snapshot"))
	if err != nil {
		return locator.Locator{}, nil, err
	}

	facade, err := s.registry.Get(l.Storage)
	if err != nil {
		return locator.Locator{}, nil, err
	}

	return l, facade, nil
}

// handleNode implements the content-negotiated node endpoint: a listing
// for a directory, and for a file either its metadata (Accept:
// application/json) or its raw bytes (any other Accept).
func (s *Server) handleNode(c echo.Context) error {
	l, facade, err := s.resolveLocator(c)
	if err != nil {
		return err
	}

	node, err := facade.Stat(l)
	if err != nil {
		return err
	}

	if node.Type == "dir" {
		opts, err := parseListingOptions(c)
		if err != nil {
			return err
		}

		result, err := listing.Build(facade, l, s.registry.Names(), opts)
		if err != nil {
			return err
		}

		return c.JSON(http.StatusOK, result)
	}

	if strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON) {
		return c.JSON(http.StatusOK, listing.ToWireNode(node))
	}

	return streamFile(c, facade, l, node)
}

func streamFile(c echo.Context, facade *storage.Facade, l locator.Locator, node storage.Node) error {
	rc, mimeType, size, err := facade.ReadStream(l)
	if err != nil {
		return err
	}
	defer rc.Close()

	c.Response().Header().Set(echo.HeaderContentType, mimeType)
	c.Response().Header().Set(echo.HeaderContentLength, strconv.FormatInt(size, 10))

	if c.QueryParam("download") == "true" {
		c.Response().Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", node.Basename))
	}

	c.Response().WriteHeader(http.StatusOK)

	// Once bytes are written, a copy error can't be turned into an error
	// envelope; the partial response is the observable failure.
	_, err = io.Copy(c.Response(), rc)
	return err
}

// listingQuery binds the node listing endpoint's query string, with
// go-playground/validator enforcing the "type" enum before any storage
// call is made.
type listingQuery struct {
	Type   string `query:"type" validate:"omitempty,oneof=file dir"`
	Filter string `query:"filter"`
	Search string `query:"search"`
	Fields string `query:"fields"`
}

func parseListingOptions(c echo.Context) (listing.Options, error) {
	var q listingQuery
	if err := c.Bind(&q); err != nil {
		return listing.Options{}, apperr.Wrap(apperr.InvalidParameter, err, "malformed query string")
	}
	if err := c.Validate(&q); err != nil {
		return listing.Options{}, apperr.New(apperr.InvalidParameter, "type must be \"file\" or \"dir\", got %q", q.Type)
	}

	return listing.Options{
		Type:          q.Type,
		Filter:        q.Filter,
		Search:        q.Search,
		WithTotalSize: strings.Contains(q.Fields, "(total_size)"),
	}, nil
}

func (s *Server) handleSnapshots(c echo.Context) error {
	l, facade, err := s.resolveLocator(c)
	if err != nil {
		return err
	}

	descriptors, err := facade.Snapshots(l)
	if err != nil {
		return err
	}

	limit, offset, err := parsePagination(c)
	if err != nil {
		return err
	}

	descriptors = paginate(descriptors, limit, offset)

	snapshots := make([]api.Snapshot, 0, len(descriptors))
	for _, d := range descriptors {
		wire := api.Snapshot{
			ID:        d.ID,
			Type:      d.Kind,
			Timestamp: d.Timestamp,
			Name:      d.Name,
			Metadata:  d.Metadata,
		}
		if d.Size >= 0 {
			size := d.Size
			wire.Size = &size
		}
		snapshots = append(snapshots, wire)
	}

	return c.JSON(http.StatusOK, api.SnapshotList{
		Storage:   l.Storage,
		Path:      l.RelPath,
		Snapshots: snapshots,
	})
}

func parsePagination(c echo.Context) (limit, offset int, err error) {
	limit, offset = 1000, 0

	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return 0, 0, apperr.New(apperr.InvalidParameter, "limit must be a non-negative integer, got %q", raw)
		}
	}

	if raw := c.QueryParam("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return 0, 0, apperr.New(apperr.InvalidParameter, "offset must be a non-negative integer, got %q", raw)
		}
	}

	return limit, offset, nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit < len(items) {
		items = items[:limit]
	}
	return items
}
