package apperr

import "net/http"

// HTTPStatus maps a Kind to the status code the HTTP surface reports for
// it. Escape collapses to the same 404 as NotFound, since surfacing
// anything more specific would confirm to a caller that a path outside
// the root exists; a traversal attempt must come back as a plain 404.
// PermissionDenied gets the conventional 403, since an unreadable
// in-bounds file is not information worth hiding.
func (k Kind) HTTPStatus() int {
	switch k {
	case InvalidPath, InvalidSnapshot, InvalidParameter, InvalidStorage:
		return http.StatusBadRequest
	case StorageNotFound, NotFound, Escape:
		return http.StatusNotFound
	case PermissionDenied:
		return http.StatusForbidden
	case NotSupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
