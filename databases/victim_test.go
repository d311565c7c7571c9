package databases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/relief-portal-api/databases"
	"github.com/linesmerrill/relief-portal-api/databases/mocks"
	"github.com/linesmerrill/relief-portal-api/models"
)

func TestVictimDatabase_FindOne(t *testing.T) {
	// define variables for interfaces
	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper
	var srHelperErr databases.SingleResultHelper
	var srHelperCorrect databases.SingleResultHelper

	// set interfaces implementation to mocked structures
	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}
	srHelperErr = &mocks.SingleResultHelper{}
	srHelperCorrect = &mocks.SingleResultHelper{}

	srHelperErr.(*mocks.SingleResultHelper).
		On("Decode", mock.Anything).
		Return(errors.New("mocked-error"))

	srHelperCorrect.(*mocks.SingleResultHelper).
		On("Decode", mock.Anything).
		Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*models.Victim)
		arg.VictimID = "VIC-2024-000001"
	})

	collectionHelper.(*mocks.CollectionHelper).
		On("FindOne", context.Background(), bson.M{"error": true}).
		Return(srHelperErr)

	collectionHelper.(*mocks.CollectionHelper).
		On("FindOne", context.Background(), bson.M{"error": false}).
		Return(srHelperCorrect)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "victims").Return(collectionHelper)

	victimDba := databases.NewVictimDatabase(dbHelper)

	victim, err := victimDba.FindOne(context.Background(), bson.M{"error": true})
	assert.Nil(t, victim)
	assert.EqualError(t, err, "find one in victims: mocked-error")

	victim, err = victimDba.FindOne(context.Background(), bson.M{"error": false})
	assert.NoError(t, err)
	assert.Equal(t, "VIC-2024-000001", victim.VictimID)
}

func TestVictimDatabase_FindOneNoDocumentsIsNotWrapped(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	srHelper := &mocks.SingleResultHelper{}

	srHelper.On("Decode", mock.Anything).Return(mongo.ErrNoDocuments)
	collectionHelper.On("FindOne", mock.Anything, mock.Anything).Return(srHelper)
	dbHelper.On("Collection", "victims").Return(collectionHelper)

	_, err := databases.NewVictimDatabase(dbHelper).FindOne(context.Background(), bson.M{})
	assert.Equal(t, mongo.ErrNoDocuments, err)
}

func TestVictimDatabase_FindByIDOrCode(t *testing.T) {
	oid := primitive.NewObjectID()

	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	srHelper := &mocks.SingleResultHelper{}

	srHelper.On("Decode", mock.Anything).Return(nil)
	collectionHelper.On("FindOne", mock.Anything, bson.M{"_id": oid}).Return(srHelper).Once()
	collectionHelper.On("FindOne", mock.Anything, bson.M{"victimId": "VIC-2024-000007"}).Return(srHelper).Once()
	dbHelper.On("Collection", "victims").Return(collectionHelper)

	victimDba := databases.NewVictimDatabase(dbHelper)

	_, err := victimDba.FindByIDOrCode(context.Background(), oid.Hex())
	assert.NoError(t, err)
	_, err = victimDba.FindByIDOrCode(context.Background(), "VIC-2024-000007")
	assert.NoError(t, err)

	collectionHelper.AssertExpectations(t)
}

func TestVictimDatabase_Find(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	cursor := &mocks.CursorHelper{}

	cursor.On("All", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(1).(*[]models.Victim)
		*arg = append(*arg, models.Victim{FullName: "Rahim"}, models.Victim{FullName: "Karim"})
	})
	cursor.On("Close", mock.Anything).Return(nil)
	collectionHelper.On("Find", mock.Anything, bson.M{"verificationStatus": "admin-verified"}).Return(cursor, nil)
	dbHelper.On("Collection", "victims").Return(collectionHelper)

	victims, err := databases.NewVictimDatabase(dbHelper).Find(context.Background(), bson.M{"verificationStatus": "admin-verified"})
	assert.NoError(t, err)
	assert.Len(t, victims, 2)
	cursor.AssertCalled(t, "Close", mock.Anything)
}

func TestVictimDatabase_FindEmptyIsNotNil(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	cursor := &mocks.CursorHelper{}

	cursor.On("All", mock.Anything, mock.Anything).Return(nil)
	cursor.On("Close", mock.Anything).Return(nil)
	collectionHelper.On("Find", mock.Anything, mock.Anything).Return(cursor, nil)
	dbHelper.On("Collection", "victims").Return(collectionHelper)

	victims, err := databases.NewVictimDatabase(dbHelper).Find(context.Background(), bson.M{})
	assert.NoError(t, err)
	assert.NotNil(t, victims)
	assert.Empty(t, victims)
}

func TestVictimDatabase_UpdateOne(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	collectionHelper.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil)
	dbHelper.On("Collection", "victims").Return(collectionHelper)

	res, err := databases.NewVictimDatabase(dbHelper).UpdateOne(context.Background(), bson.M{}, bson.M{"$set": bson.M{"x": 1}})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), res.MatchedCount)
}
