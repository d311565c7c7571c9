package databases

// go generate: mockery --name NomineeDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/relief-portal-api/models"
)

const nomineeName = "nominees"

// NomineeDatabase contains the methods to use with the nominees collection
type NomineeDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Nominee, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Nominee, error)
	InsertOne(ctx context.Context, doc models.Nominee) error
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	CountDocuments(ctx context.Context, filter interface{}) (int64, error)
	FindByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Nominee, error)
}

type nomineeDatabase struct {
	store[models.Nominee]
}

// NewNomineeDatabase initializes a new instance of nominee database with the provided db connection
func NewNomineeDatabase(db DatabaseHelper) NomineeDatabase {
	return &nomineeDatabase{store[models.Nominee]{db: db, name: nomineeName}}
}

// FindByUserID returns the nominee profile owned by the given user
func (n *nomineeDatabase) FindByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Nominee, error) {
	return n.FindOne(ctx, bson.M{"userId": userID})
}
