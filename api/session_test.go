package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/relief-portal-api/api"
	"github.com/linesmerrill/relief-portal-api/apperrors"
	"github.com/linesmerrill/relief-portal-api/models"
)

func officer() models.User {
	return models.User{
		ID:               primitive.NewObjectID(),
		Email:            "uno_dhaka_savar@uno.gov.bd",
		Role:             models.RoleOfficer,
		District:         "Dhaka",
		SubDistrict:      "Savar",
		ProfileCompleted: true,
	}
}

func TestSessionRoundTrip(t *testing.T) {
	sm := api.NewSessionManager(context.Background(), "secret", time.Hour, false)
	u := officer()

	token, exp, err := sm.Issue(u)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	claims, err := sm.Parse(req, token)
	require.NoError(t, err)

	actor, err := claims.Actor()
	require.NoError(t, err)
	assert.Equal(t, u.Actor(), actor)
}

func TestSessionRejectsForeignSignature(t *testing.T) {
	issuer := api.NewSessionManager(context.Background(), "one", time.Hour, false)
	verifier := api.NewSessionManager(context.Background(), "two", time.Hour, false)

	token, _, err := issuer.Issue(officer())
	require.NoError(t, err)

	_, err = verifier.Parse(httptest.NewRequest(http.MethodGet, "/", nil), token)
	assert.True(t, apperrors.Is(err, apperrors.Unauthenticated))
}

func TestSessionRejectsExpired(t *testing.T) {
	sm := api.NewSessionManager(context.Background(), "secret", time.Hour, false)
	u := officer()
	claims := api.Claims{
		Email: u.Email,
		Role:  u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "expired",
			Subject:   u.ID.Hex(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = sm.Parse(httptest.NewRequest(http.MethodGet, "/", nil), token)
	assert.True(t, apperrors.Is(err, apperrors.Unauthenticated))
}

func TestSessionRequiresExpiry(t *testing.T) {
	sm := api.NewSessionManager(context.Background(), "secret", time.Hour, false)
	claims := api.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: primitive.NewObjectID().Hex()}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = sm.Parse(httptest.NewRequest(http.MethodGet, "/", nil), token)
	assert.True(t, apperrors.Is(err, apperrors.Unauthenticated))
}

func TestSessionRevoke(t *testing.T) {
	sm := api.NewSessionManager(context.Background(), "secret", time.Hour, false)
	token, _, err := sm.Issue(officer())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	claims, err := sm.Parse(req, token)
	require.NoError(t, err)
	require.NoError(t, sm.Revoke(req, claims))

	_, err = sm.Parse(req, token)
	assert.True(t, apperrors.Is(err, apperrors.Unauthenticated))
	assert.Equal(t, "session has been logged out", apperrors.Message(err))
}

func TestSessionCookies(t *testing.T) {
	sm := api.NewSessionManager(context.Background(), "secret", time.Hour, true)
	rr := httptest.NewRecorder()
	sm.SetCookie(rr, "tok", time.Now().Add(time.Hour))

	res := rr.Result()
	require.Len(t, res.Cookies(), 1)
	c := res.Cookies()[0]
	assert.Equal(t, api.CookieName, c.Name)
	assert.Equal(t, "tok", c.Value)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)

	rr = httptest.NewRecorder()
	sm.ClearCookie(rr)
	assert.Equal(t, -1, rr.Result().Cookies()[0].MaxAge)
}
