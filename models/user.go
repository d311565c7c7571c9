package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles a user account can hold
const (
	RoleDonor    = "donor"
	RoleAdmin    = "admin"
	RoleOfficer  = "officer"
	RoleNominee  = "nominee"
	RoleReporter = "reporter" // reserved, no flow assigns it
)

// Account statuses
const (
	UserActive   = "active"
	UserInactive = "inactive"
)

// User holds the structure for the users collection in mongo
type User struct {
	ID               primitive.ObjectID `json:"_id" bson:"_id"`
	Username         string             `json:"username" bson:"username"`
	Email            string             `json:"email" bson:"email"`
	Password         string             `json:"-" bson:"password"`
	Role             string             `json:"role" bson:"role"`
	FullName         string             `json:"fullName" bson:"fullName"`
	ProfileCompleted bool               `json:"profileCompleted" bson:"profileCompleted"`
	ProfileImage     string             `json:"profileImage,omitempty" bson:"profileImage,omitempty"`
	Phone            string             `json:"phone,omitempty" bson:"phone,omitempty"`
	Address          string             `json:"address,omitempty" bson:"address,omitempty"`
	NID              string             `json:"nid,omitempty" bson:"nid,omitempty"`
	District         string             `json:"district,omitempty" bson:"district,omitempty"`
	SubDistrict      string             `json:"subDistrict,omitempty" bson:"subDistrict,omitempty"`
	Status           string             `json:"status" bson:"status"`
	LastLogin        *time.Time         `json:"lastLogin,omitempty" bson:"lastLogin,omitempty"`
	CreatedAt        time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// Actor returns the session identity of the user
func (u User) Actor() Actor {
	return Actor{
		ID:               u.ID,
		Email:            u.Email,
		Role:             u.Role,
		District:         u.District,
		SubDistrict:      u.SubDistrict,
		ProfileCompleted: u.ProfileCompleted,
	}
}

// Actor is the identity a request acts as. The zero value is an anonymous caller.
type Actor struct {
	ID               primitive.ObjectID `json:"id"`
	Email            string             `json:"email"`
	Role             string             `json:"role"`
	District         string             `json:"district,omitempty"`
	SubDistrict      string             `json:"subDistrict,omitempty"`
	ProfileCompleted bool               `json:"profileCompleted"`
}

// Anonymous reports whether the actor carries no session
func (a Actor) Anonymous() bool {
	return a.ID.IsZero()
}

// Is reports whether the actor holds one of the given roles
func (a Actor) Is(roles ...string) bool {
	if a.Anonymous() {
		return false
	}
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}
