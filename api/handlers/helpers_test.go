package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/relief-portal-api/api"
	"github.com/linesmerrill/relief-portal-api/models"
	"github.com/linesmerrill/relief-portal-api/storage"
)

var fixedNow = time.Date(2024, 8, 5, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func readEnvelope(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var e envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &e), rr.Body.String())
	return e
}

func readData(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	e := readEnvelope(t, rr)
	require.True(t, e.Success, rr.Body.String())
	require.NoError(t, json.Unmarshal(e.Data, v))
}

func jsonRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	var b []byte
	switch v := body.(type) {
	case nil:
	case string:
		b = []byte(v)
	default:
		var err error
		b, err = json.Marshal(v)
		require.NoError(t, err)
	}
	req, err := http.NewRequest(method, target, bytes.NewReader(b))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func asActor(req *http.Request, actor models.Actor) *http.Request {
	return req.WithContext(api.WithSession(req.Context(), actor, nil))
}

func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// formFile is a file part of a multipart request
type formFile struct {
	field, name, content string
}

func multipartRequest(t *testing.T, target string, fields map[string]string, files ...formFile) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		w, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req, err := http.NewRequest("POST", target, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// fakeUploader keeps uploads in memory and fails for the file named failOn
type fakeUploader struct {
	uploaded []storage.Object
	deleted  []string
	failOn   string
}

func (f *fakeUploader) Upload(_ context.Context, folder string, file storage.File) (storage.Object, error) {
	if file.Name == f.failOn {
		return storage.Object{}, errors.New("mocked-error")
	}
	id := folder + "/" + strings.TrimSuffix(file.Name, ".pdf")
	obj := storage.Object{URL: "https://cdn.example.org/" + id, PublicID: id}
	f.uploaded = append(f.uploaded, obj)
	return obj, nil
}

func (f *fakeUploader) Delete(_ context.Context, publicID string) error {
	f.deleted = append(f.deleted, publicID)
	return nil
}

func officer(district, subDistrict string) models.Actor {
	return models.Actor{ID: newID(), Role: models.RoleOfficer, District: district, SubDistrict: subDistrict, ProfileCompleted: true}
}

func admin() models.Actor {
	return models.Actor{ID: newID(), Role: models.RoleAdmin, ProfileCompleted: true}
}

func newID() primitive.ObjectID { return primitive.NewObjectID() }
