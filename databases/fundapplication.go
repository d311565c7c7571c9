package databases

// go generate: mockery --name FundApplicationDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/relief-portal-api/models"
)

const fundApplicationName = "fundApplications"

// FundApplicationDatabase contains the methods to use with the fundApplications collection
type FundApplicationDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.FundApplication, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.FundApplication, error)
	InsertOne(ctx context.Context, doc models.FundApplication) error
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	CountDocuments(ctx context.Context, filter interface{}) (int64, error)
}

type fundApplicationDatabase struct {
	store[models.FundApplication]
}

// NewFundApplicationDatabase initializes a new instance of fundApplication database with the provided db connection
func NewFundApplicationDatabase(db DatabaseHelper) FundApplicationDatabase {
	return &fundApplicationDatabase{store[models.FundApplication]{db: db, name: fundApplicationName}}
}
