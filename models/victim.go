package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Victim holds the structure for the victims collection in mongo
type Victim struct {
	ID                  primitive.ObjectID `json:"_id" bson:"_id"`
	VictimID            string             `json:"victimId" bson:"victimId"`
	FullName            string             `json:"fullName" bson:"fullName"`
	Age                 int                `json:"age" bson:"age"`
	Gender              string             `json:"gender" bson:"gender"`
	DateOfBirth         time.Time          `json:"dateOfBirth" bson:"dateOfBirth"`
	NationalID          string             `json:"nationalId" bson:"nationalId"`
	District            string             `json:"district" bson:"district"`
	SubDistrict         string             `json:"subDistrict" bson:"subDistrict"`
	Address             string             `json:"address" bson:"address"`
	FamilyMembers       int                `json:"familyMembers" bson:"familyMembers"`
	FatherName          string             `json:"fatherName" bson:"fatherName"`
	MotherName          string             `json:"motherName" bson:"motherName"`
	EconomicCondition   string             `json:"economicCondition" bson:"economicCondition"`
	Profession          string             `json:"profession" bson:"profession"`
	InstitutionName     string             `json:"institutionName,omitempty" bson:"institutionName,omitempty"`
	Status              string             `json:"status" bson:"status"`
	CauseOfDeath        string             `json:"causeOfDeath,omitempty" bson:"causeOfDeath,omitempty"`
	CauseOfInjury       string             `json:"causeOfInjury,omitempty" bson:"causeOfInjury,omitempty"`
	IncidentPlace       string             `json:"incidentPlace" bson:"incidentPlace"`
	Description         string             `json:"description" bson:"description"`
	Image               string             `json:"image,omitempty" bson:"image,omitempty"`
	SupportingDocuments []Document         `json:"supportingDocuments" bson:"supportingDocuments"`
	VerificationStatus  string             `json:"verificationStatus" bson:"verificationStatus"`
	UnoVerification     Review             `json:"unoVerification" bson:"unoVerification"`
	AdminVerification   Review             `json:"adminVerification" bson:"adminVerification"`
	Applicant           Applicant          `json:"applicant" bson:"applicant"`
	CreatedAt           time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt           time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// Applicant is the contact information of whoever reported the victim
type Applicant struct {
	FullName     string `json:"fullName" bson:"fullName" validate:"required"`
	ID           string `json:"id" bson:"id" validate:"required"`
	Email        string `json:"email" bson:"email" validate:"required,email"`
	Phone        string `json:"phone" bson:"phone" validate:"required,phone"`
	Relationship string `json:"relationship" bson:"relationship" validate:"required"`
}

// Victim condition values
const (
	VictimDeceased = "deceased"
	VictimInjured  = "injured"
	VictimMissing  = "missing"
)
