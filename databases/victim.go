package databases

// go generate: mockery --name VictimDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/relief-portal-api/models"
)

const victimName = "victims"

// VictimDatabase contains the methods to use with the victims collection
type VictimDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Victim, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Victim, error)
	InsertOne(ctx context.Context, doc models.Victim) error
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	CountDocuments(ctx context.Context, filter interface{}) (int64, error)
	FindByIDOrCode(ctx context.Context, idOrCode string) (*models.Victim, error)
}

type victimDatabase struct {
	store[models.Victim]
}

// NewVictimDatabase initializes a new instance of victim database with the provided db connection
func NewVictimDatabase(db DatabaseHelper) VictimDatabase {
	return &victimDatabase{store[models.Victim]{db: db, name: victimName}}
}

// FindByIDOrCode resolves a victim by its native id or by its VIC code
func (v *victimDatabase) FindByIDOrCode(ctx context.Context, idOrCode string) (*models.Victim, error) {
	if oid, err := primitive.ObjectIDFromHex(idOrCode); err == nil {
		return v.FindOne(ctx, bson.M{"_id": oid})
	}
	return v.FindOne(ctx, bson.M{"victimId": idOrCode})
}
