package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shaj13/go-guardian/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/relief-portal-api/apperrors"
	"github.com/linesmerrill/relief-portal-api/models"
)

// CookieName is the cookie carrying the session token
const CookieName = "auth_token"

// Claims is the payload of a session token. The actor's jurisdiction and
// profile state are embedded so authorization does not need a user lookup.
type Claims struct {
	Email            string `json:"email"`
	Role             string `json:"role"`
	District         string `json:"district,omitempty"`
	SubDistrict      string `json:"subDistrict,omitempty"`
	ProfileCompleted bool   `json:"profileCompleted"`
	jwt.RegisteredClaims
}

// Actor returns the identity the claims describe
func (c *Claims) Actor() (models.Actor, error) {
	id, err := primitive.ObjectIDFromHex(c.Subject)
	if err != nil {
		return models.Actor{}, errors.Wrap(err, "token subject")
	}
	return models.Actor{
		ID:               id,
		Email:            c.Email,
		Role:             c.Role,
		District:         c.District,
		SubDistrict:      c.SubDistrict,
		ProfileCompleted: c.ProfileCompleted,
	}, nil
}

// SessionManager issues, parses and revokes HS256 session tokens. Revoked
// token ids are kept in a FIFO cache for as long as a token can live.
type SessionManager struct {
	secret  []byte
	ttl     time.Duration
	secure  bool
	revoked store.Cache
	now     func() time.Time

	users  Accounts
	active store.Cache
}

// DefaultSessionTTL is used when no positive ttl is configured
const DefaultSessionTTL = 7 * 24 * time.Hour

// NewSessionManager creates a session manager signing with secret
func NewSessionManager(ctx context.Context, secret string, ttl time.Duration, secureCookies bool) *SessionManager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionManager{
		secret:  []byte(secret),
		ttl:     ttl,
		secure:  secureCookies,
		revoked: store.NewFIFO(ctx, ttl),
		now:     time.Now,
	}
}

// TTL is how long issued tokens stay valid
func (s *SessionManager) TTL() time.Duration {
	return s.ttl
}

// Issue signs a new token for u and returns it with its expiry
func (s *SessionManager) Issue(u models.User) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	claims := Claims{
		Email:            u.Email,
		Role:             u.Role,
		District:         u.District,
		SubDistrict:      u.SubDistrict,
		ProfileCompleted: u.ProfileCompleted,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   u.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "sign session token")
	}
	return token, exp, nil
}

// Parse validates token and returns its claims. Expired, tampered and revoked
// tokens are Unauthenticated.
func (s *SessionManager) Parse(r *http.Request, token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.Unauthenticated, "invalid or expired session")
	}
	if _, ok, _ := s.revoked.Load(claims.ID, r); ok {
		return nil, apperrors.New(apperrors.Unauthenticated, "session has been logged out")
	}
	return claims, nil
}

// AccountCheckTTL is how long an account found active is trusted before it
// is looked up again
const AccountCheckTTL = time.Minute

// Accounts is the part of the users collection sessions are checked against
type Accounts interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.User, error)
}

// CheckAccounts makes every authenticated request confirm that the account
// behind the token still exists and is active. A deactivated account loses
// access within AccountCheckTTL instead of when its token expires.
func (s *SessionManager) CheckAccounts(ctx context.Context, users Accounts) *SessionManager {
	s.users = users
	s.active = store.NewFIFO(ctx, AccountCheckTTL)
	return s
}

func (s *SessionManager) checkAccount(r *http.Request, claims *Claims) error {
	if s.users == nil {
		return nil
	}
	if _, ok, _ := s.active.Load(claims.Subject, r); ok {
		return nil
	}
	id, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return apperrors.Wrap(err, apperrors.Unauthenticated, "invalid session")
	}

	ctx, cancel := WithQueryTimeout(r.Context())
	defer cancel()

	user, err := s.users.FindOne(ctx, bson.M{"_id": id})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperrors.Wrap(err, apperrors.Unauthenticated, "account no longer exists")
	}
	if err != nil {
		return errors.Wrap(err, "check session account")
	}
	if user.Status == models.UserInactive {
		return apperrors.New(apperrors.Unauthenticated, "your account is inactive")
	}
	return s.active.Store(claims.Subject, true, r)
}

// Revoke invalidates the token with the given claims
func (s *SessionManager) Revoke(r *http.Request, claims *Claims) error {
	return s.revoked.Store(claims.ID, true, r)
}

// SetCookie stores token in the session cookie
func (s *SessionManager) SetCookie(w http.ResponseWriter, token string, exp time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		MaxAge:   int(exp.Sub(s.now()).Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie removes the session cookie
func (s *SessionManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// tokenFromRequest reads the session cookie, falling back to a bearer token
func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}
