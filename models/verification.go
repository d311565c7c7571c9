package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Record-level verification statuses shared by victims and nominees
const (
	StatusPending         = "pending"
	StatusOfficerVerified = "uno-verified"
	StatusAdminVerified   = "admin-verified"
	StatusRejected        = "rejected"
)

// Review statuses of a single verification stage
const (
	ReviewPending  = "pending"
	ReviewVerified = "verified"
	ReviewRejected = "rejected"
)

// Review is the outcome of one verification stage (officer or admin)
type Review struct {
	Status          string              `json:"status" bson:"status"`
	VerifiedBy      *primitive.ObjectID `json:"verifiedBy,omitempty" bson:"verifiedBy,omitempty"`
	VerifiedAt      *time.Time          `json:"verifiedAt,omitempty" bson:"verifiedAt,omitempty"`
	RejectionReason string              `json:"rejectionReason,omitempty" bson:"rejectionReason,omitempty"`
}

// PendingReview is the initial state of both stages
func PendingReview() Review {
	return Review{Status: ReviewPending}
}

// Document is a name/type/url triple pointing at an uploaded file
type Document struct {
	Name string `json:"name" bson:"name"`
	Type string `json:"type" bson:"type"`
	URL  string `json:"url" bson:"url"`
}
