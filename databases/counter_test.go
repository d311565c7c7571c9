package databases_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/linesmerrill/relief-portal-api/databases"
	"github.com/linesmerrill/relief-portal-api/databases/mocks"
)

func TestCounterDatabase_Next(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	srHelper := &mocks.SingleResultHelper{}

	srHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		// the decode target is an unexported struct, fill its Seq field
		v := reflect.ValueOf(args.Get(0)).Elem()
		v.FieldByName("Seq").SetInt(42)
	})
	collectionHelper.On("FindOneAndUpdate", mock.Anything,
		bson.M{"_id": "victim-2024"},
		bson.M{"$inc": bson.M{"seq": 1}},
		mock.Anything).Return(srHelper)
	dbHelper.On("Collection", "counters").Return(collectionHelper)

	n, err := databases.NewCounterDatabase(dbHelper).Next(context.Background(), "victim-2024")
	assert.NoError(t, err)
	assert.Equal(t, int64(42), n)
}

func TestCounterDatabase_NextError(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	srHelper := &mocks.SingleResultHelper{}

	srHelper.On("Decode", mock.Anything).Return(errors.New("mocked-error"))
	collectionHelper.On("FindOneAndUpdate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(srHelper)
	dbHelper.On("Collection", "counters").Return(collectionHelper)

	_, err := databases.NewCounterDatabase(dbHelper).Next(context.Background(), "article-2024")
	assert.EqualError(t, err, "increment counter article-2024: mocked-error")
}
