package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		Unauthenticated:        http.StatusUnauthorized,
		Unauthorized:           http.StatusForbidden,
		ForbiddenJurisdiction:  http.StatusForbidden,
		NotFound:               http.StatusNotFound,
		InvalidStateTransition: http.StatusBadRequest,
		PrerequisiteNotMet:     http.StatusBadRequest,
		ValidationError:        http.StatusBadRequest,
		IncompleteProfile:      http.StatusBadRequest,
		Conflict:               http.StatusConflict,
		Internal:               http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, HTTPStatus(New(kind, "x")), kind.String())
	}
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := pkgerrors.Wrap(New(ForbiddenJurisdiction, "outside your area"), "verify victim")
	err = fmt.Errorf("handler: %w", err)

	assert.Equal(t, ForbiddenJurisdiction, KindOf(err))
	assert.True(t, Is(err, ForbiddenJurisdiction))
	assert.False(t, Is(err, NotFound))
	assert.Equal(t, "outside your area", Message(err))
}

func TestMessageHidesInternalErrors(t *testing.T) {
	assert.Equal(t, "internal server error", Message(errors.New("mongo: connection refused")))
	assert.Equal(t, "internal server error", Message(Wrap(errors.New("x"), Internal, "db exploded")))
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("cause")
	err := Wrap(cause, NotFound, "victim not found")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "victim not found: cause", err.Error())
}
