package api

import (
	"context"
	"time"

	"github.com/linesmerrill/relief-portal-api/models"
)

// QueryTimeout is the default timeout for database queries
const QueryTimeout = 10 * time.Second

// WithQueryTimeout creates a context with query timeout
func WithQueryTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, QueryTimeout)
}

type sessionKey struct{}

type session struct {
	actor  models.Actor
	claims *Claims
}

// WithSession stores the authenticated actor and its token claims in ctx
func WithSession(ctx context.Context, actor models.Actor, claims *Claims) context.Context {
	return context.WithValue(ctx, sessionKey{}, session{actor: actor, claims: claims})
}

// ActorFrom returns the actor of the request, the zero Actor when anonymous
func ActorFrom(ctx context.Context) models.Actor {
	s, _ := ctx.Value(sessionKey{}).(session)
	return s.actor
}

// ClaimsFrom returns the token claims of the request, nil when anonymous
func ClaimsFrom(ctx context.Context) *Claims {
	s, _ := ctx.Value(sessionKey{}).(session)
	return s.claims
}

type requestIDKey struct{}

// RequestIDFrom returns the id assigned to the request by RequestLogger
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
