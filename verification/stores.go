package verification

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/relief-portal-api/apperrors"
	"github.com/linesmerrill/relief-portal-api/databases"
)

// VictimStore exposes the victims collection to the state machine
type VictimStore struct {
	DB databases.VictimDatabase
}

// Kind implements Store
func (VictimStore) Kind() string { return "victim" }

// StatusField implements Store
func (VictimStore) StatusField() string { return "verificationStatus" }

// Load implements Store
func (s VictimStore) Load(ctx context.Context, id primitive.ObjectID) (Target, error) {
	v, err := s.DB.FindOne(ctx, bson.M{"_id": id})
	if err != nil {
		return Target{}, notFound(err, "victim not found")
	}
	return Target{District: v.District, SubDistrict: v.SubDistrict, Status: v.VerificationStatus}, nil
}

// Apply implements Store
func (s VictimStore) Apply(ctx context.Context, id primitive.ObjectID, expected string, set bson.M) (bool, error) {
	return apply(ctx, s.DB.UpdateOne, id, s.StatusField(), expected, set)
}

// NomineeStore exposes the nominees collection to the state machine
type NomineeStore struct {
	DB databases.NomineeDatabase
}

// Kind implements Store
func (NomineeStore) Kind() string { return "nominee" }

// StatusField implements Store
func (NomineeStore) StatusField() string { return "status" }

// Load implements Store
func (s NomineeStore) Load(ctx context.Context, id primitive.ObjectID) (Target, error) {
	n, err := s.DB.FindOne(ctx, bson.M{"_id": id})
	if err != nil {
		return Target{}, notFound(err, "nominee not found")
	}
	return Target{District: n.District, SubDistrict: n.SubDistrict, Status: n.Status}, nil
}

// Apply implements Store
func (s NomineeStore) Apply(ctx context.Context, id primitive.ObjectID, expected string, set bson.M) (bool, error) {
	return apply(ctx, s.DB.UpdateOne, id, s.StatusField(), expected, set)
}

type updateFunc func(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)

func apply(ctx context.Context, update updateFunc, id primitive.ObjectID, statusField, expected string, set bson.M) (bool, error) {
	res, err := update(ctx, bson.M{"_id": id, statusField: expected}, bson.M{"$set": set})
	if err != nil {
		return false, errors.Wrap(err, "apply verification decision")
	}
	return res.MatchedCount == 1, nil
}

func notFound(err error, msg string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperrors.Wrap(err, apperrors.NotFound, msg)
	}
	return err
}
