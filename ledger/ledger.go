// Package ledger manages donor funds, nominee applications against them and the
// transactions that settle approved applications.
package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/relief-portal-api/apperrors"
	"github.com/linesmerrill/relief-portal-api/databases"
	"github.com/linesmerrill/relief-portal-api/models"
)

// Service implements the fund ledger
type Service struct {
	Funds        databases.FundDatabase
	Applications databases.FundApplicationDatabase
	Transactions databases.FundTransactionDatabase
	Nominees     databases.NomineeDatabase
	Victims      databases.VictimDatabase
	Users        databases.UserDatabase
	Tx           databases.Transactor
	Now          func() time.Time
}

// CreateFundInput is the payload of a new fund
type CreateFundInput struct {
	Title       string       `json:"title" validate:"required"`
	Amount      models.Money `json:"amount"`
	Description string       `json:"description"`
}

// ApplyInput is the payload of a new fund application
type ApplyInput struct {
	FundID          string       `json:"fundId" validate:"required"`
	RequestedAmount models.Money `json:"requestedAmount"`
	Note            string       `json:"note"`
}

// DecideInput is a donor's decision on an application
type DecideInput struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}

// ActionInput is a nominee's confirmation or report of a disbursement
type ActionInput struct {
	ApplicationID string `json:"applicationId" validate:"required"`
	Action        string `json:"action" validate:"required,oneof=received reported"`
	ReportReason  string `json:"reportReason"`
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// requireProfile gates fund operations on the actor's role and completed profile
func requireProfile(actor models.Actor, role string) error {
	if actor.Anonymous() {
		return apperrors.New(apperrors.Unauthenticated, "please login first")
	}
	if actor.Role != role {
		return apperrors.Newf(apperrors.Unauthorized, "only a %s can do this", role)
	}
	if !actor.ProfileCompleted {
		return apperrors.New(apperrors.IncompleteProfile, "please complete your profile first")
	}
	return nil
}

func parseID(hex, what string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, apperrors.Newf(apperrors.ValidationError, "invalid %s id", what)
	}
	return id, nil
}

func notFound(err error, msg string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperrors.Wrap(err, apperrors.NotFound, msg)
	}
	return err
}

// CreateFund opens a new fund owned by the acting donor
func (s *Service) CreateFund(ctx context.Context, actor models.Actor, in CreateFundInput) (*models.Fund, error) {
	if err := requireProfile(actor, models.RoleDonor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, apperrors.New(apperrors.ValidationError, "title is required")
	}
	if !in.Amount.IsPositive() {
		return nil, apperrors.New(apperrors.ValidationError, "amount must be greater than zero")
	}

	donor, err := s.Users.FindOne(ctx, bson.M{"_id": actor.ID})
	if err != nil {
		return nil, notFound(err, "user not found")
	}

	now := s.now()
	fund := models.Fund{
		ID:            primitive.NewObjectID(),
		DonorID:       actor.ID,
		DonorName:     donor.FullName,
		Title:         strings.TrimSpace(in.Title),
		PledgedAmount: in.Amount,
		Amount:        in.Amount,
		Description:   in.Description,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.Funds.InsertOne(ctx, fund); err != nil {
		return nil, err
	}
	return &fund, nil
}

// ListFunds returns one page of funds, or only the actor's own when mine is set
func (s *Service) ListFunds(ctx context.Context, actor models.Actor, mine bool, limit, page int) ([]models.Fund, error) {
	if actor.Anonymous() {
		return nil, apperrors.New(apperrors.Unauthenticated, "please login first")
	}
	filter := bson.M{}
	if mine {
		filter["donorId"] = actor.ID
	}
	return s.Funds.Find(ctx, filter, databases.Paginate(limit, page))
}

// ListApplications returns the applications the actor is involved in: donors
// see applications against their funds, nominees their own, admins all.
func (s *Service) ListApplications(ctx context.Context, actor models.Actor, limit, page int) ([]models.FundApplication, error) {
	var filter bson.M
	switch {
	case actor.Is(models.RoleAdmin):
		filter = bson.M{}
	case actor.Is(models.RoleNominee):
		filter = bson.M{"nomineeId": actor.ID}
	case actor.Is(models.RoleDonor):
		funds, err := s.Funds.Find(ctx, bson.M{"donorId": actor.ID})
		if err != nil {
			return nil, err
		}
		ids := make([]primitive.ObjectID, 0, len(funds))
		for _, f := range funds {
			ids = append(ids, f.ID)
		}
		if len(ids) == 0 {
			return []models.FundApplication{}, nil
		}
		filter = bson.M{"fundId": bson.M{"$in": ids}}
	case actor.Anonymous():
		return nil, apperrors.New(apperrors.Unauthenticated, "please login first")
	default:
		return nil, apperrors.New(apperrors.Unauthorized, "your role has no fund applications")
	}
	return s.Applications.Find(ctx, filter, databases.Paginate(limit, page))
}
