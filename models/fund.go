package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Fund application statuses
const (
	ApplicationPending  = "pending"
	ApplicationApproved = "approved"
	ApplicationRejected = "rejected"
	ApplicationReceived = "received"
	ApplicationReported = "reported"
)

// Fund holds the structure for the funds collection in mongo. PledgedAmount never
// changes after creation; Amount is the balance still available for approvals.
type Fund struct {
	ID            primitive.ObjectID `json:"_id" bson:"_id"`
	DonorID       primitive.ObjectID `json:"donorId" bson:"donorId"`
	DonorName     string             `json:"donorName" bson:"donorName"`
	Title         string             `json:"title" bson:"title"`
	PledgedAmount Money              `json:"pledgedAmount" bson:"pledgedAmount"`
	Amount        Money              `json:"amount" bson:"amount"`
	Description   string             `json:"description" bson:"description"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// FundApplication is a nominee's request against a fund
type FundApplication struct {
	ID              primitive.ObjectID  `json:"_id" bson:"_id"`
	FundID          primitive.ObjectID  `json:"fundId" bson:"fundId"`
	NomineeID       primitive.ObjectID  `json:"nomineeId" bson:"nomineeId"`
	VictimID        primitive.ObjectID  `json:"victimId" bson:"victimId"`
	RequestedAmount Money               `json:"requestedAmount" bson:"requestedAmount"`
	Note            string              `json:"note,omitempty" bson:"note,omitempty"`
	Status          string              `json:"status" bson:"status"`
	NomineeSnapshot NomineeSnapshot     `json:"nomineeSnapshot" bson:"nomineeSnapshot"`
	VictimSnapshot  VictimSnapshot      `json:"victimSnapshot" bson:"victimSnapshot"`
	TransactionID   *primitive.ObjectID `json:"transactionId,omitempty" bson:"transactionId,omitempty"`
	DecidedAt       *time.Time          `json:"decidedAt,omitempty" bson:"decidedAt,omitempty"`
	CreatedAt       time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// NomineeSnapshot is a copy of the nominee taken when the application was created
type NomineeSnapshot struct {
	Name         string      `json:"name" bson:"name"`
	Email        string      `json:"email" bson:"email"`
	Phone        string      `json:"phone" bson:"phone"`
	NID          string      `json:"nid" bson:"nid"`
	Relationship string      `json:"relationship" bson:"relationship"`
	BankDetails  BankDetails `json:"bankDetails" bson:"bankDetails"`
}

// VictimSnapshot is a copy of the victim taken when the application was created
type VictimSnapshot struct {
	VictimID    string `json:"victimId" bson:"victimId"`
	FullName    string `json:"fullName" bson:"fullName"`
	Status      string `json:"status" bson:"status"`
	District    string `json:"district" bson:"district"`
	SubDistrict string `json:"subDistrict" bson:"subDistrict"`
}

// FundTransaction is the settled outcome of an approved application. At most
// one exists per application.
type FundTransaction struct {
	ID            primitive.ObjectID `json:"_id" bson:"_id"`
	FundID        primitive.ObjectID `json:"fundId" bson:"fundId"`
	ApplicationID primitive.ObjectID `json:"applicationId" bson:"applicationId"`
	NomineeID     primitive.ObjectID `json:"nomineeId" bson:"nomineeId"`
	VictimID      primitive.ObjectID `json:"victimId" bson:"victimId"`
	Amount        Money              `json:"amount" bson:"amount"`
	Status        string             `json:"status" bson:"status"`
	Note          string             `json:"note,omitempty" bson:"note,omitempty"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
}

// FinancialSupport is the derived view of what a victim has received
type FinancialSupport struct {
	VictimID      string            `json:"victimId"`
	TotalReceived Money             `json:"totalReceived"`
	Transactions  []FundTransaction `json:"transactions"`
}
