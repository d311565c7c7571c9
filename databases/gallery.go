package databases

// go generate: mockery --name GalleryDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/relief-portal-api/models"
)

const galleryName = "gallery"

// GalleryDatabase contains the methods to use with the gallery collection
type GalleryDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.GalleryItem, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.GalleryItem, error)
	InsertOne(ctx context.Context, doc models.GalleryItem) error
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	CountDocuments(ctx context.Context, filter interface{}) (int64, error)
}

type galleryDatabase struct {
	store[models.GalleryItem]
}

// NewGalleryDatabase initializes a new instance of gallery database with the provided db connection
func NewGalleryDatabase(db DatabaseHelper) GalleryDatabase {
	return &galleryDatabase{store[models.GalleryItem]{db: db, name: galleryName}}
}
