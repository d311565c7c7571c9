package handlers

import (
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/linesmerrill/relief-portal-api/api"
	"github.com/linesmerrill/relief-portal-api/apperrors"
	"github.com/linesmerrill/relief-portal-api/databases"
	"github.com/linesmerrill/relief-portal-api/models"
)

// Auth exported for testing purposes
type Auth struct {
	DB       databases.UserDatabase
	Sessions *api.SessionManager
}

// LoginRequest is the body of a login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SessionResponse is returned whenever a session token is issued
type SessionResponse struct {
	User      models.User `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

var errBadCredentials = apperrors.New(apperrors.Unauthenticated, "invalid email or password")

// LoginHandler checks the credentials and starts a session
func (a Auth) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := a.DB.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			writeError(w, errBadCredentials)
			return
		}
		writeError(w, err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		writeError(w, errBadCredentials)
		return
	}
	if user.Status == models.UserInactive {
		writeError(w, apperrors.New(apperrors.Unauthenticated, "your account is inactive"))
		return
	}

	now := time.Now().UTC()
	if _, err := a.DB.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": bson.M{"lastLogin": now}}); err != nil {
		zap.S().Warnw("failed to update last login", "user", user.ID.Hex(), "error", err)
	}
	user.LastLogin = &now

	a.startSession(w, *user)
}

// startSession issues a token for u, sets the cookie and writes the session response
func (a Auth) startSession(w http.ResponseWriter, u models.User) {
	token, exp, err := a.Sessions.Issue(u)
	if err != nil {
		writeError(w, err)
		return
	}
	a.Sessions.SetCookie(w, token, exp)
	writeJSON(w, http.StatusOK, SessionResponse{User: u, Token: token, ExpiresAt: exp})
}

// LogoutHandler revokes the current session token
func (a Auth) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if claims := api.ClaimsFrom(r.Context()); claims != nil {
		if err := a.Sessions.Revoke(r, claims); err != nil {
			writeError(w, errors.Wrap(err, "revoke session"))
			return
		}
	}
	a.Sessions.ClearCookie(w)
	writeMessage(w, http.StatusOK, "logged out")
}

// SessionHandler returns the actor of the current session
func (a Auth) SessionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.ActorFrom(r.Context()))
}
