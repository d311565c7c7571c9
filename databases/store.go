package databases

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// store implements the operations every typed collection shares. The typed
// databases embed it and add what is specific to their collection.
type store[T any] struct {
	db   DatabaseHelper
	name string
}

func (s store[T]) coll() CollectionHelper {
	return s.db.Collection(s.name)
}

// FindOne decodes the first document matching filter. A missing document is
// reported as mongo.ErrNoDocuments.
func (s store[T]) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*T, error) {
	var doc T
	if err := s.coll().FindOne(ctx, filter, opts...).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, err
		}
		return nil, errors.Wrapf(err, "find one in %s", s.name)
	}
	return &doc, nil
}

func (s store[T]) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]T, error) {
	cur, err := s.coll().Find(ctx, filter, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "find in %s", s.name)
	}
	defer cur.Close(ctx)

	docs := []T{}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrapf(err, "decode %s", s.name)
	}
	return docs, nil
}

func (s store[T]) InsertOne(ctx context.Context, doc T) error {
	if _, err := s.coll().InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return err
		}
		return errors.Wrapf(err, "insert into %s", s.name)
	}
	return nil
}

func (s store[T]) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	res, err := s.coll().UpdateOne(ctx, filter, update, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "update %s", s.name)
	}
	return res, nil
}

func (s store[T]) CountDocuments(ctx context.Context, filter interface{}) (int64, error) {
	n, err := s.coll().CountDocuments(ctx, filter)
	if err != nil {
		return 0, errors.Wrapf(err, "count %s", s.name)
	}
	return n, nil
}
