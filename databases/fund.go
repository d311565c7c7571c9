package databases

// go generate: mockery --name FundDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/relief-portal-api/models"
)

const fundName = "funds"

// FundDatabase contains the methods to use with the funds collection
type FundDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Fund, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Fund, error)
	InsertOne(ctx context.Context, doc models.Fund) error
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	CountDocuments(ctx context.Context, filter interface{}) (int64, error)
}

type fundDatabase struct {
	store[models.Fund]
}

// NewFundDatabase initializes a new instance of fund database with the provided db connection
func NewFundDatabase(db DatabaseHelper) FundDatabase {
	return &fundDatabase{store[models.Fund]{db: db, name: fundName}}
}
