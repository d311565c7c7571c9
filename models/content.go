package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Article categories
const (
	CategoryNews   = "news"
	CategoryStory  = "story"
	CategoryReport = "report"
	CategoryOther  = "other"
)

// Moderation statuses. Gallery items use ModerationDeclined where articles use
// ModerationRejected.
const (
	ModerationPending  = "pending"
	ModerationApproved = "approved"
	ModerationRejected = "rejected"
	ModerationDeclined = "declined"
)

// Article holds the structure for the articles collection in mongo
type Article struct {
	ID              primitive.ObjectID `json:"_id" bson:"_id"`
	ArticleID       string             `json:"articleId" bson:"articleId"`
	Title           string             `json:"title" bson:"title"`
	Content         string             `json:"content" bson:"content"`
	Author          Author             `json:"author" bson:"author"`
	Category        string             `json:"category" bson:"category"`
	Tags            []string           `json:"tags" bson:"tags"`
	Images          []ArticleImage     `json:"images" bson:"images"`
	Status          string             `json:"status" bson:"status"`
	RejectionReason string             `json:"rejectionReason,omitempty" bson:"rejectionReason,omitempty"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// Author is the contact of whoever submitted an article
type Author struct {
	Name         string `json:"name" bson:"name" validate:"required"`
	Email        string `json:"email" bson:"email" validate:"required,email"`
	Phone        string `json:"phone,omitempty" bson:"phone,omitempty"`
	Organization string `json:"organization,omitempty" bson:"organization,omitempty"`
}

// ArticleImage is an image attached to an article
type ArticleImage struct {
	URL     string `json:"url" bson:"url" validate:"required,url"`
	Caption string `json:"caption,omitempty" bson:"caption,omitempty"`
}

// GalleryItem holds the structure for the gallery collection in mongo
type GalleryItem struct {
	ID            primitive.ObjectID `json:"_id" bson:"_id"`
	Caption       string             `json:"caption" bson:"caption"`
	Src           string             `json:"src" bson:"src"`
	Photographer  string             `json:"photographer,omitempty" bson:"photographer,omitempty"`
	Source        string             `json:"source,omitempty" bson:"source,omitempty"`
	UploaderName  string             `json:"uploaderName" bson:"uploaderName"`
	UploaderEmail string             `json:"uploaderEmail" bson:"uploaderEmail"`
	UploaderPhone string             `json:"uploaderPhone,omitempty" bson:"uploaderPhone,omitempty"`
	Status        string             `json:"status" bson:"status"`
	Date          time.Time          `json:"date" bson:"date"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt" bson:"updatedAt"`
}
