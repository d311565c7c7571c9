// Package verification implements the two-stage review shared by victims and
// nominees: an officer of the record's jurisdiction reviews it first, then an
// admin confirms or rejects the officer's approval.
package verification

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/linesmerrill/relief-portal-api/apperrors"
	"github.com/linesmerrill/relief-portal-api/jurisdiction"
	"github.com/linesmerrill/relief-portal-api/models"
)

// Decisions a reviewer can take
const (
	Approve = "approve"
	Reject  = "reject"
)

// Decision is a reviewer's verdict on a record
type Decision struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
	Reason   string `json:"reason"`
}

// Target is the part of a record the state machine needs to decide on it
type Target struct {
	District    string
	SubDistrict string
	Status      string
}

// Store loads and conditionally updates records of one collection
type Store interface {
	// Kind names the record type in error messages, e.g. "victim"
	Kind() string
	Load(ctx context.Context, id primitive.ObjectID) (Target, error)
	// Apply sets fields on the record only if its status still equals expected.
	// It reports whether a record was updated.
	Apply(ctx context.Context, id primitive.ObjectID, expected string, set bson.M) (bool, error)
	StatusField() string
}

// Machine applies reviewer decisions
type Machine struct {
	Now func() time.Time
}

// New creates a Machine using the wall clock
func New() *Machine {
	return &Machine{Now: func() time.Time { return time.Now().UTC() }}
}

// Decide applies d to the record id on behalf of actor. Officers may only act on
// pending records of their own jurisdiction, for approvals and rejections alike.
// Admins may only act on records an officer has already approved.
func (m *Machine) Decide(ctx context.Context, s Store, id primitive.ObjectID, actor models.Actor, d Decision) (string, error) {
	if err := validate(d); err != nil {
		return "", err
	}
	if !actor.Is(models.RoleOfficer, models.RoleAdmin) {
		return "", apperrors.Newf(apperrors.Unauthorized, "only officers and admins can verify a %s", s.Kind())
	}

	target, err := s.Load(ctx, id)
	if err != nil {
		return "", err
	}

	var (
		expected  string
		next      string
		reviewKey string
	)
	switch actor.Role {
	case models.RoleOfficer:
		if actor.District == "" || actor.SubDistrict == "" {
			return "", apperrors.New(apperrors.IncompleteProfile, "officer account has no assigned area")
		}
		if !jurisdiction.Same(target.District, target.SubDistrict, actor.District, actor.SubDistrict) {
			return "", apperrors.Newf(apperrors.ForbiddenJurisdiction, "you can only verify a %s in your assigned area", s.Kind())
		}
		if target.Status != models.StatusPending {
			return "", apperrors.Newf(apperrors.InvalidStateTransition, "%s is %s, only pending records can be reviewed by an officer", s.Kind(), target.Status)
		}
		expected, next, reviewKey = models.StatusPending, models.StatusOfficerVerified, "unoVerification"
	case models.RoleAdmin:
		if target.Status != models.StatusOfficerVerified {
			return "", apperrors.Newf(apperrors.PrerequisiteNotMet, "%s must be verified by an officer first", s.Kind())
		}
		expected, next, reviewKey = models.StatusOfficerVerified, models.StatusAdminVerified, "adminVerification"
	}

	now := m.Now()
	review := models.Review{Status: models.ReviewVerified, VerifiedBy: &actor.ID, VerifiedAt: &now}
	if d.Decision == Reject {
		next = models.StatusRejected
		review.Status = models.ReviewRejected
		review.RejectionReason = strings.TrimSpace(d.Reason)
	}

	ok, err := s.Apply(ctx, id, expected, bson.M{
		s.StatusField(): next,
		reviewKey:       review,
		"updatedAt":     now,
	})
	if err != nil {
		return "", err
	}
	if !ok {
		return "", apperrors.Newf(apperrors.InvalidStateTransition, "%s was reviewed by someone else in the meantime", s.Kind())
	}

	zap.S().Infow("verification decision",
		"kind", s.Kind(),
		"id", id.Hex(),
		"actor", actor.ID.Hex(),
		"role", actor.Role,
		"from", expected,
		"to", next,
	)
	return next, nil
}

func validate(d Decision) error {
	switch d.Decision {
	case Approve:
		return nil
	case Reject:
		if strings.TrimSpace(d.Reason) == "" {
			return apperrors.New(apperrors.ValidationError, "a reason is required to reject")
		}
		return nil
	default:
		return apperrors.New(apperrors.ValidationError, "decision must be approve or reject")
	}
}
