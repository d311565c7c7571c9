package databases

// go generate: mockery --name FundTransactionDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/relief-portal-api/models"
)

const fundTransactionName = "fundTransactions"

// FundTransactionDatabase contains the methods to use with the fundTransactions
// collection. Transactions are immutable once inserted.
type FundTransactionDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.FundTransaction, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.FundTransaction, error)
	InsertOne(ctx context.Context, doc models.FundTransaction) error
	CountDocuments(ctx context.Context, filter interface{}) (int64, error)
}

type fundTransactionDatabase struct {
	store[models.FundTransaction]
}

// NewFundTransactionDatabase initializes a new instance of fundTransaction database with the provided db connection
func NewFundTransactionDatabase(db DatabaseHelper) FundTransactionDatabase {
	return &fundTransactionDatabase{store[models.FundTransaction]{db: db, name: fundTransactionName}}
}
