package databases

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func keys(fields ...string) bson.D {
	d := bson.D{}
	for _, f := range fields {
		d = append(d, bson.E{Key: f, Value: 1})
	}
	return d
}

func unique(fields ...string) mongo.IndexModel {
	return mongo.IndexModel{Keys: keys(fields...), Options: options.Index().SetUnique(true)}
}

func index(fields ...string) mongo.IndexModel {
	return mongo.IndexModel{Keys: keys(fields...)}
}

// officerArea allows one officer account per sub-district
func officerArea() mongo.IndexModel {
	return mongo.IndexModel{
		Keys: keys("district", "subDistrict"),
		Options: options.Index().
			SetUnique(true).
			SetName("officer_area").
			SetPartialFilterExpression(bson.M{"role": "officer"}),
	}
}

var collectionIndexes = map[string][]mongo.IndexModel{
	userName: {
		unique("email"),
		unique("username"),
		index("role", "district", "subDistrict"),
		officerArea(),
	},
	victimName: {
		unique("victimId"),
		unique("nationalId"),
		index("district", "subDistrict", "verificationStatus"),
	},
	nomineeName: {
		unique("userId"),
		index("district", "subDistrict", "status"),
	},
	fundApplicationName: {
		index("fundId", "status"),
		index("nomineeId"),
	},
	fundTransactionName: {
		unique("applicationId"),
		index("victimId", "status"),
	},
	articleName: {
		unique("articleId"),
		index("status"),
	},
	galleryName: {
		index("status"),
	},
}

// EnsureIndexes creates the indexes the application relies on. The unique
// index on fundTransactions.applicationId guarantees one transaction per
// application.
func EnsureIndexes(ctx context.Context, db DatabaseHelper) error {
	for name, idx := range collectionIndexes {
		if err := db.Collection(name).CreateIndexes(ctx, idx); err != nil {
			return errors.Wrapf(err, "create indexes on %s", name)
		}
	}
	return nil
}
