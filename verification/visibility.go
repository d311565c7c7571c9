package verification

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/linesmerrill/relief-portal-api/jurisdiction"
	"github.com/linesmerrill/relief-portal-api/models"
)

// StatusAll asks for records in every status
const StatusAll = "all"

// Filter builds the query for a listing requested by actor. Officers only see
// their own jurisdiction and admins see everything; everyone else only sees
// admin-verified records whatever they asked for.
func Filter(actor models.Actor, requested, statusField string) bson.M {
	// the dashboards' "verified" tab means verified by the officer
	if requested == models.ReviewVerified {
		requested = models.StatusOfficerVerified
	}
	switch {
	case actor.Is(models.RoleOfficer):
		f := bson.M{"district": actor.District, "subDistrict": actor.SubDistrict}
		switch requested {
		case "", StatusAll:
		default:
			f[statusField] = requested
		}
		return f
	case actor.Is(models.RoleAdmin):
		switch requested {
		case "", StatusAll:
			return bson.M{}
		case models.StatusOfficerVerified:
			// awaiting admin review
			return bson.M{statusField: models.StatusOfficerVerified, "adminVerification.status": models.ReviewPending}
		default:
			return bson.M{statusField: requested}
		}
	default:
		return bson.M{statusField: models.StatusAdminVerified}
	}
}

// CanView reports whether actor may see a single record, using the same rules as Filter
func CanView(actor models.Actor, t Target) bool {
	switch {
	case actor.Is(models.RoleAdmin):
		return true
	case actor.Is(models.RoleOfficer) && jurisdiction.Same(t.District, t.SubDistrict, actor.District, actor.SubDistrict):
		return true
	default:
		return t.Status == models.StatusAdminVerified
	}
}
