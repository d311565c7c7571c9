package moderation

import (
	"context"
	"fmt"
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

// ArticleInput is the payload of a submitted article
type ArticleInput struct {
	Title    string                `json:"title" validate:"required"`
	Content  string                `json:"content" validate:"required"`
	Author   models.Author         `json:"author" validate:"required"`
	Category string                `json:"category" validate:"required,oneof=news story report other"`
	Tags     []string              `json:"tags"`
	Images   []models.ArticleImage `json:"images" validate:"dive"`
}

// CreateArticle stores a submission as pending under a new ART-<year>-<seq> id
func (s *Service) CreateArticle(ctx context.Context, in ArticleInput) (*models.Article, error) {
	now := s.now()
	seq, err := s.Counters.Next(ctx, fmt.Sprintf("article-%d", now.Year()))
	if err != nil {
		return nil, err
	}

	tags := make([]string, 0, len(in.Tags))
	for _, t := range in.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	images := in.Images
	if images == nil {
		images = []models.ArticleImage{}
	}

	a := models.Article{
		ID:        primitive.NewObjectID(),
		ArticleID: fmt.Sprintf("ART-%d-%03d", now.Year(), seq),
		Title:     strings.TrimSpace(in.Title),
		Content:   in.Content,
		Author:    in.Author,
		Category:  in.Category,
		Tags:      tags,
		Images:    images,
		Status:    models.ModerationPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	a.Author.Email = strings.ToLower(strings.TrimSpace(a.Author.Email))
	if err := s.Articles.InsertOne(ctx, a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListArticles returns articles newest first. Only admins can ask for a status
// other than approved.
func (s *Service) ListArticles(ctx context.Context, actor models.Actor, status string) ([]models.Article, error) {
	filter := bson.M{}
	if st, ok := visibleStatus(actor, normalize(status)); ok {
		filter["status"] = st
	}
	return s.Articles.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

// GetArticle finds an article by ObjectId hex or articleId. Articles that are
// not approved are reported as missing to non-admins.
func (s *Service) GetArticle(ctx context.Context, actor models.Actor, id string) (*models.Article, error) {
	filter := bson.M{"articleId": id}
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		filter = bson.M{"_id": oid}
	}
	a, err := s.Articles.FindOne(ctx, filter)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.Wrap(err, apperrors.NotFound, "article not found")
		}
		return nil, err
	}
	if a.Status != models.ModerationApproved && !actor.Is(models.RoleAdmin) {
		return nil, apperrors.New(apperrors.NotFound, "article not found")
	}
	return a, nil
}

// ModerateArticle approves or rejects a pending article
func (s *Service) ModerateArticle(ctx context.Context, actor models.Actor, id string, in ModerateInput) (*models.Article, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	status := normalize(in.Status)
	if status != models.ModerationApproved && status != models.ModerationRejected {
		return nil, apperrors.New(apperrors.ValidationError, "status must be approved or rejected")
	}
	a, err := s.GetArticle(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if a.Status != models.ModerationPending {
		return nil, apperrors.Newf(apperrors.InvalidStateTransition, "article is already %s", a.Status)
	}

	now := s.now()
	set := bson.M{"status": status, "updatedAt": now}
	if status == models.ModerationRejected {
		set["rejectionReason"] = strings.TrimSpace(in.Reason)
	}
	if err := transition(ctx, func(ctx context.Context, filter, update interface{}) (*mongo.UpdateResult, error) {
		return s.Articles.UpdateOne(ctx, filter, update)
	}, a.ID, set); err != nil {
		return nil, err
	}

	a.Status = status
	a.UpdatedAt = now
	if status == models.ModerationRejected {
		a.RejectionReason = strings.TrimSpace(in.Reason)
	}
	zap.S().Infow("article moderated", "articleId", a.ArticleID, "status", status)
	return a, nil
}

// PendingArticles counts the articles waiting for a decision
func (s *Service) PendingArticles(ctx context.Context) (int64, error) {
	return s.Articles.CountDocuments(ctx, bson.M{"status": models.ModerationPending})
}
