package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/linesmerrill/relief-portal-api/apperrors"
	"github.com/linesmerrill/relief-portal-api/config"
	"github.com/linesmerrill/relief-portal-api/models"
)

// maxJSONBody caps JSON request bodies
const maxJSONBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	b, err := json.Marshal(models.Response{Success: true, Data: data})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	b, _ := json.Marshal(models.Response{Success: true, Message: message})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

// writeError converts err into the error envelope. Unclassified errors are
// logged and answered with a generic 500.
func writeError(w http.ResponseWriter, err error) {
	config.ErrorStatus(apperrors.Message(err), apperrors.HTTPStatus(err), w, err)
}

// decodeJSON reads the request body into v and validates it
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		return apperrors.Wrap(err, apperrors.ValidationError, "failed to decode request")
	}
	return validate.Struct(v)
}

// pageParams reads the limit and page query parameters. Missing or malformed
// values fall back to the database defaults.
func pageParams(r *http.Request) (limit, page int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	return limit, page
}
