// Package moderation implements the single-stage admin gate for community
// articles and gallery images.
package moderation

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/relief-portal-api/apperrors"
	"github.com/linesmerrill/relief-portal-api/databases"
	"github.com/linesmerrill/relief-portal-api/models"
)

// Service moderates articles and gallery items
type Service struct {
	Articles databases.ArticleDatabase
	Gallery  databases.GalleryDatabase
	Counters databases.CounterDatabase
	Now      func() time.Time
}

// ModerateInput is an admin's decision on a submission
type ModerateInput struct {
	Status string `json:"status" validate:"required"`
	Reason string `json:"reason"`
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// visibleStatus resolves the status filter of a listing. Admins get what they
// asked for, everyone else only approved submissions.
func visibleStatus(actor models.Actor, requested string) (string, bool) {
	if actor.Is(models.RoleAdmin) {
		return requested, requested != ""
	}
	return models.ModerationApproved, true
}

func requireAdmin(actor models.Actor) error {
	if actor.Anonymous() {
		return apperrors.New(apperrors.Unauthenticated, "please login first")
	}
	if !actor.Is(models.RoleAdmin) {
		return apperrors.New(apperrors.Unauthorized, "only admins can moderate submissions")
	}
	return nil
}

// transition moves a submission out of pending with a conditional update, so
// two admins deciding at once cannot both win.
func transition(ctx context.Context, update func(ctx context.Context, filter, update interface{}) (*mongo.UpdateResult, error), id primitive.ObjectID, set bson.M) error {
	res, err := update(ctx, bson.M{"_id": id, "status": models.ModerationPending}, bson.M{"$set": set})
	if err != nil {
		return errors.Wrap(err, "moderate submission")
	}
	if res.MatchedCount == 0 {
		return apperrors.New(apperrors.InvalidStateTransition, "submission was already moderated")
	}
	return nil
}

func normalize(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}
