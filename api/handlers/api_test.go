package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/relief-portal-api/config"
	"github.com/linesmerrill/relief-portal-api/models"
)

var a = App{Config: config.Config{JWTSecret: "test-secret", SessionTTL: time.Hour}}

func executeRequest(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	a.Router.ServeHTTP(rr, req)
	return rr
}

func checkResponseCode(t *testing.T, expected, actual int) {
	if expected != actual {
		t.Errorf("Expected response code %d. Got %d\n", expected, actual)
	}
}

func tokenFor(t *testing.T, role string) string {
	token, _, err := a.Sessions.Issue(models.User{ID: primitive.NewObjectID(), Email: role + "@example.org", Role: role, ProfileCompleted: true})
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func TestUnknownRoute(t *testing.T) {
	a.Router = a.New()
	req, _ := http.NewRequest("GET", "/asdf", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusNotFound, response.Code)
}

func TestHealthCheckRoute(t *testing.T) {
	a.Router = a.New()
	req, _ := http.NewRequest("GET", "/health", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusOK, response.Code)

	if !strings.Contains(response.Body.String(), "alive") {
		t.Errorf("Expected 'alive' in the reponse. Got '%s'", response.Body.String())
	}
	if response.Header().Get("X-Request-ID") == "" {
		t.Errorf("Expected an X-Request-ID header")
	}
}

func TestLocationsRouteIsPublic(t *testing.T) {
	a.Router = a.New()
	req, _ := http.NewRequest("GET", "/api/locations?district=Sylhet", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusOK, response.Code)
	if !strings.Contains(response.Body.String(), "Sunamganj") {
		t.Errorf("Expected Sylhet's sub-districts. Got '%s'", response.Body.String())
	}
}

func TestProtectedRouteWithoutSession(t *testing.T) {
	a.Router = a.New()
	for _, path := range []string{"/api/funds", "/api/funds/applications", "/api/users/profile", "/api/auth/session"} {
		req, _ := http.NewRequest("GET", path, nil)
		response := executeRequest(req)

		checkResponseCode(t, http.StatusUnauthorized, response.Code)

		var m models.ErrorResponse
		_ = json.Unmarshal(response.Body.Bytes(), &m)
		if m.Success || m.Error != "please login first" {
			t.Errorf("%s: unexpected body '%s'", path, response.Body.String())
		}
	}
}

func TestInvalidToken(t *testing.T) {
	a.Router = a.New()
	req, _ := http.NewRequest("GET", "/api/funds", nil)
	req.Header.Add("Authorization", "Bearer asdfasdf")
	response := executeRequest(req)

	checkResponseCode(t, http.StatusUnauthorized, response.Code)
}

func TestRoleGuards(t *testing.T) {
	a.Router = a.New()
	cases := []struct {
		method, path, role string
	}{
		{"GET", "/api/users", models.RoleDonor},
		{"GET", "/api/users/uno", models.RoleOfficer},
		{"GET", "/api/nominees", models.RoleDonor},
		{"GET", "/api/nominees/profile", models.RoleOfficer},
		{"PUT", "/api/victims/VIC-2024-000001/verify", models.RoleNominee},
		{"GET", "/api/admin/reported-donations", models.RoleOfficer},
		{"PUT", "/api/articles/ART-2024-001", models.RoleDonor},
		{"PUT", "/api/gallery/66b0c1f2a1b2c3d4e5f60718", models.RoleOfficer},
	}
	for _, c := range cases {
		req, _ := http.NewRequest(c.method, c.path, nil)
		req.Header.Add("Authorization", "Bearer "+tokenFor(t, c.role))
		response := executeRequest(req)

		if response.Code != http.StatusForbidden {
			t.Errorf("%s %s as %s: expected 403, got %d", c.method, c.path, c.role, response.Code)
		}
	}
}

func TestAdminMetricsRoute(t *testing.T) {
	a.Router = a.New()
	req, _ := http.NewRequest("GET", "/health", nil)
	executeRequest(req)

	req, _ = http.NewRequest("GET", "/api/admin/metrics", nil)
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: tokenFor(t, models.RoleAdmin)})
	response := executeRequest(req)

	checkResponseCode(t, http.StatusOK, response.Code)
	if !strings.Contains(response.Body.String(), `"route":"/health"`) {
		t.Errorf("Expected the health route in the metrics. Got '%s'", response.Body.String())
	}
}
