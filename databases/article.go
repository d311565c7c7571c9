package databases

// go generate: mockery --name ArticleDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/relief-portal-api/models"
)

const articleName = "articles"

// ArticleDatabase contains the methods to use with the articles collection
type ArticleDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Article, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Article, error)
	InsertOne(ctx context.Context, doc models.Article) error
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	CountDocuments(ctx context.Context, filter interface{}) (int64, error)
}

type articleDatabase struct {
	store[models.Article]
}

// NewArticleDatabase initializes a new instance of article database with the provided db connection
func NewArticleDatabase(db DatabaseHelper) ArticleDatabase {
	return &articleDatabase{store[models.Article]{db: db, name: articleName}}
}
