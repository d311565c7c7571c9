package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Nominee holds the structure for the nominees collection in mongo. A nominee is
// the legal representative of a victim and the receiver of fund disbursements.
type Nominee struct {
	ID                primitive.ObjectID `json:"_id" bson:"_id"`
	UserID            primitive.ObjectID `json:"userId" bson:"userId"`
	VictimID          primitive.ObjectID `json:"victimId" bson:"victimId"`
	VictimCode        string             `json:"victimCode" bson:"victimCode"`
	Name              string             `json:"name" bson:"name"`
	NID               string             `json:"nid" bson:"nid"`
	ProfileImage      string             `json:"profileImage,omitempty" bson:"profileImage,omitempty"`
	Phone             string             `json:"phone" bson:"phone"`
	Email             string             `json:"email" bson:"email"`
	Address           string             `json:"address,omitempty" bson:"address,omitempty"`
	Relationship      string             `json:"relationship" bson:"relationship"`
	BankDetails       BankDetails        `json:"bankDetails" bson:"bankDetails"`
	Documents         []Document         `json:"documents" bson:"documents"`
	District          string             `json:"district" bson:"district"`
	SubDistrict       string             `json:"subDistrict" bson:"subDistrict"`
	Status            string             `json:"status" bson:"status"`
	UnoVerification   Review             `json:"unoVerification" bson:"unoVerification"`
	AdminVerification Review             `json:"adminVerification" bson:"adminVerification"`
	AssignedUno       *AssignedUno       `json:"assignedUno,omitempty" bson:"assignedUno,omitempty"`
	CreatedAt         time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// BankDetails is where approved disbursements are paid to
type BankDetails struct {
	FullName        string `json:"fullName" bson:"fullName" validate:"required"`
	AccountNo       string `json:"accountNo" bson:"accountNo" validate:"required"`
	BranchName      string `json:"branchName" bson:"branchName" validate:"required"`
	MobileProvider  string `json:"mobileProvider,omitempty" bson:"mobileProvider,omitempty"`
	MobileAccountNo string `json:"mobileAccountNo,omitempty" bson:"mobileAccountNo,omitempty"`
}

// AssignedUno snapshots the officer responsible for a nominee when it was submitted
type AssignedUno struct {
	UnoID       primitive.ObjectID `json:"unoId" bson:"unoId"`
	District    string             `json:"district" bson:"district"`
	SubDistrict string             `json:"subDistrict" bson:"subDistrict"`
}
