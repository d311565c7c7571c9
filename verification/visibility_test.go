package verification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/relief-portal-api/models"
)

func TestFilter_Officer(t *testing.T) {
	a := officer("Dhaka", "Gazipur")

	assert.Equal(t, bson.M{"district": "Dhaka", "subDistrict": "Gazipur", "verificationStatus": "uno-verified"},
		Filter(a, "verified", "verificationStatus"))
	assert.Equal(t, bson.M{"district": "Dhaka", "subDistrict": "Gazipur", "status": "pending"},
		Filter(a, "pending", "status"))
	assert.Equal(t, bson.M{"district": "Dhaka", "subDistrict": "Gazipur"},
		Filter(a, "all", "status"))
}

func TestFilter_Admin(t *testing.T) {
	a := admin()

	assert.Equal(t, bson.M{"verificationStatus": "uno-verified", "adminVerification.status": "pending"},
		Filter(a, "uno-verified", "verificationStatus"))
	// "verified" means the same tab for admins as for officers
	assert.Equal(t, bson.M{"verificationStatus": "uno-verified", "adminVerification.status": "pending"},
		Filter(a, "verified", "verificationStatus"))
	assert.Equal(t, bson.M{"status": "uno-verified", "adminVerification.status": "pending"},
		Filter(a, "verified", "status"))
	assert.Equal(t, bson.M{"verificationStatus": "rejected"}, Filter(a, "rejected", "verificationStatus"))
	assert.Equal(t, bson.M{}, Filter(a, "", "verificationStatus"))
}

func TestFilter_PublicOnlySeesAdminVerified(t *testing.T) {
	for _, a := range []models.Actor{{}, {ID: primitive.NewObjectID(), Role: models.RoleDonor}} {
		for _, requested := range []string{"", "pending", "rejected", "uno-verified"} {
			assert.Equal(t, bson.M{"verificationStatus": "admin-verified"}, Filter(a, requested, "verificationStatus"))
		}
	}
}

func TestCanView(t *testing.T) {
	pending := Target{District: "Dhaka", SubDistrict: "Gazipur", Status: models.StatusPending}
	verified := Target{District: "Dhaka", SubDistrict: "Gazipur", Status: models.StatusAdminVerified}

	assert.True(t, CanView(admin(), pending))
	assert.True(t, CanView(officer("Dhaka", "Gazipur"), pending))
	assert.False(t, CanView(officer("Khulna", "Bagerhat"), pending))
	assert.True(t, CanView(officer("Khulna", "Bagerhat"), verified))
	assert.False(t, CanView(models.Actor{}, pending))
	assert.True(t, CanView(models.Actor{}, verified))
}
