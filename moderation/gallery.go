package moderation

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/linesmerrill/relief-portal-api/apperrors"
	"github.com/linesmerrill/relief-portal-api/models"
)

// GalleryInput is the payload of a submitted gallery image. Src is either sent
// by the client or filled in from an uploaded file.
type GalleryInput struct {
	Caption       string `json:"caption" validate:"required"`
	Src           string `json:"src" validate:"required,url"`
	Photographer  string `json:"photographer"`
	Source        string `json:"source"`
	UploaderName  string `json:"uploaderName"`
	UploaderEmail string `json:"uploaderEmail" validate:"omitempty,email"`
	UploaderPhone string `json:"uploaderPhone" validate:"omitempty,phone"`
}

// CreateGalleryItem stores a submitted image as pending
func (s *Service) CreateGalleryItem(ctx context.Context, in GalleryInput) (*models.GalleryItem, error) {
	now := s.now()
	item := models.GalleryItem{
		ID:            primitive.NewObjectID(),
		Caption:       strings.TrimSpace(in.Caption),
		Src:           in.Src,
		Photographer:  in.Photographer,
		Source:        in.Source,
		UploaderName:  in.UploaderName,
		UploaderEmail: strings.ToLower(strings.TrimSpace(in.UploaderEmail)),
		UploaderPhone: in.UploaderPhone,
		Status:        models.ModerationPending,
		Date:          now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.Gallery.InsertOne(ctx, item); err != nil {
		return nil, err
	}
	return &item, nil
}

// ListGallery returns gallery items newest first with the same visibility as articles
func (s *Service) ListGallery(ctx context.Context, actor models.Actor, status string) ([]models.GalleryItem, error) {
	filter := bson.M{}
	st := normalize(status)
	if st == models.ModerationRejected {
		st = models.ModerationDeclined
	}
	if st, ok := visibleStatus(actor, st); ok {
		filter["status"] = st
	}
	return s.Gallery.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date", Value: -1}}))
}

// ModerateGalleryItem approves or declines a pending gallery item. "rejected"
// is accepted for "declined".
func (s *Service) ModerateGalleryItem(ctx context.Context, actor models.Actor, id string, in ModerateInput) (*models.GalleryItem, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	status := normalize(in.Status)
	if status == models.ModerationRejected {
		status = models.ModerationDeclined
	}
	if status != models.ModerationApproved && status != models.ModerationDeclined {
		return nil, apperrors.New(apperrors.ValidationError, "status must be approved or declined")
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperrors.New(apperrors.ValidationError, "invalid gallery item id")
	}

	item, err := s.Gallery.FindOne(ctx, bson.M{"_id": oid})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.Wrap(err, apperrors.NotFound, "gallery item not found")
		}
		return nil, err
	}
	if item.Status != models.ModerationPending {
		return nil, apperrors.Newf(apperrors.InvalidStateTransition, "gallery item is already %s", item.Status)
	}

	now := s.now()
	if err := transition(ctx, func(ctx context.Context, filter, update interface{}) (*mongo.UpdateResult, error) {
		return s.Gallery.UpdateOne(ctx, filter, update)
	}, item.ID, bson.M{"status": status, "updatedAt": now}); err != nil {
		return nil, err
	}

	item.Status = status
	item.UpdatedAt = now
	zap.S().Infow("gallery item moderated", "id", item.ID.Hex(), "status", status)
	return item, nil
}

// PendingGallery counts the gallery items waiting for a decision
func (s *Service) PendingGallery(ctx context.Context) (int64, error) {
	return s.Gallery.CountDocuments(ctx, bson.M{"status": models.ModerationPending})
}
