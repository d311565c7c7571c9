package handlers

import (
	"net/http"

	"github.com/linesmerrill/relief-portal-api/apperrors"
	"github.com/linesmerrill/relief-portal-api/jurisdiction"
)

// Locations exported for testing purposes
type Locations struct {
	Directory jurisdiction.Directory
}

// LocationsHandler returns the district to sub-district directory, or the
// sub-districts of one district when ?district= is given
func (l Locations) LocationsHandler(w http.ResponseWriter, r *http.Request) {
	district := r.URL.Query().Get("district")
	if district == "" {
		writeJSON(w, http.StatusOK, l.Directory)
		return
	}
	subs, ok := l.Directory[district]
	if !ok {
		writeError(w, apperrors.Newf(apperrors.NotFound, "unknown district: %s", district))
		return
	}
	writeJSON(w, http.StatusOK, subs)
}
