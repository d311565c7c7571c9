package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/linesmerrill/relief-portal-api/apperrors"
	"github.com/linesmerrill/relief-portal-api/config"
)

func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	zap.S().Debugw("request rejected", "url", r.URL.Path, "error", err)
	config.ErrorStatus(apperrors.Message(err), apperrors.HTTPStatus(err), w, err)
}

// authenticate resolves the session on r. A request without a token yields
// zero claims and no error. Tokens of inactive accounts are rejected when
// accounts are checked.
func (s *SessionManager) authenticate(r *http.Request) (*Claims, error) {
	token := tokenFromRequest(r)
	if token == "" {
		return nil, nil
	}
	claims, err := s.Parse(r, token)
	if err != nil {
		return nil, err
	}
	if err := s.checkAccount(r, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// Middleware requires a valid session and puts the actor into the request context
func (s *SessionManager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.authenticate(r)
		if err == nil && claims == nil {
			err = apperrors.New(apperrors.Unauthenticated, "please login first")
		}
		if err != nil {
			writeAuthError(w, r, err)
			return
		}
		actor, err := claims.Actor()
		if err != nil {
			writeAuthError(w, r, apperrors.Wrap(err, apperrors.Unauthenticated, "invalid session"))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), actor, claims)))
	})
}

// Optional attaches the actor when a valid session is present and lets the
// request through anonymously otherwise.
func (s *SessionManager) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.authenticate(r)
		if err != nil || claims == nil {
			next.ServeHTTP(w, r)
			return
		}
		actor, err := claims.Actor()
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), actor, claims)))
	})
}

// RequireRole wraps next in Middleware and only admits the given roles
func (s *SessionManager) RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return s.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !ActorFrom(r.Context()).Is(roles...) {
				writeAuthError(w, r, apperrors.New(apperrors.Unauthorized, "you are not allowed to do this"))
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}
