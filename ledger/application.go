package ledger

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/linesmerrill/relief-portal-api/apperrors"
	"github.com/linesmerrill/relief-portal-api/models"
)

// Apply files a request by the acting nominee against a fund. The nominee and
// victim are copied into the application as they are now. The requested amount
// is not checked against the fund balance; approval clamps the balance instead.
func (s *Service) Apply(ctx context.Context, actor models.Actor, in ApplyInput) (*models.FundApplication, error) {
	if err := requireProfile(actor, models.RoleNominee); err != nil {
		return nil, err
	}
	fundID, err := parseID(in.FundID, "fund")
	if err != nil {
		return nil, err
	}
	if !in.RequestedAmount.IsPositive() {
		return nil, apperrors.New(apperrors.ValidationError, "requestedAmount must be greater than zero")
	}

	nominee, err := s.Nominees.FindByUserID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.Wrap(err, apperrors.IncompleteProfile, "no nominee profile found, please complete your profile")
		}
		return nil, err
	}
	if nominee.VictimID.IsZero() {
		return nil, apperrors.New(apperrors.IncompleteProfile, "no victim is linked to your nominee profile")
	}
	victim, err := s.Victims.FindOne(ctx, bson.M{"_id": nominee.VictimID})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.Wrap(err, apperrors.IncompleteProfile, "the victim linked to your nominee profile was not found")
		}
		return nil, err
	}

	if _, err := s.Funds.FindOne(ctx, bson.M{"_id": fundID}); err != nil {
		return nil, notFound(err, "fund not found")
	}

	now := s.now()
	app := models.FundApplication{
		ID:              primitive.NewObjectID(),
		FundID:          fundID,
		NomineeID:       actor.ID,
		VictimID:        victim.ID,
		RequestedAmount: in.RequestedAmount,
		Note:            in.Note,
		Status:          models.ApplicationPending,
		NomineeSnapshot: models.NomineeSnapshot{
			Name:         nominee.Name,
			Email:        nominee.Email,
			Phone:        nominee.Phone,
			NID:          nominee.NID,
			Relationship: nominee.Relationship,
			BankDetails:  nominee.BankDetails,
		},
		VictimSnapshot: models.VictimSnapshot{
			VictimID:    victim.VictimID,
			FullName:    victim.FullName,
			Status:      victim.Status,
			District:    victim.District,
			SubDistrict: victim.SubDistrict,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Applications.InsertOne(ctx, app); err != nil {
		return nil, err
	}
	return &app, nil
}

// Decide records the fund owner's decision on a pending application. Approval
// debits the fund's available amount, never below zero, in the same
// transaction as the status change. Repeating the decision the application
// already carries is a no-op.
func (s *Service) Decide(ctx context.Context, actor models.Actor, applicationID string, in DecideInput) (*models.FundApplication, error) {
	if err := requireProfile(actor, models.RoleDonor); err != nil {
		return nil, err
	}
	if in.Status != models.ApplicationApproved && in.Status != models.ApplicationRejected {
		return nil, apperrors.New(apperrors.ValidationError, "status must be approved or rejected")
	}
	appID, err := parseID(applicationID, "application")
	if err != nil {
		return nil, err
	}

	app, err := s.Applications.FindOne(ctx, bson.M{"_id": appID})
	if err != nil {
		return nil, notFound(err, "application not found")
	}
	fund, err := s.Funds.FindOne(ctx, bson.M{"_id": app.FundID})
	if err != nil {
		return nil, notFound(err, "fund not found")
	}
	if fund.DonorID != actor.ID {
		return nil, apperrors.New(apperrors.Unauthorized, "only the fund owner can decide on its applications")
	}
	if app.Status == in.Status {
		return app, nil
	}
	if app.Status != models.ApplicationPending {
		return nil, apperrors.Newf(apperrors.InvalidStateTransition, "application is already %s", app.Status)
	}

	now := s.now()
	noop := false
	err = s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		noop = false
		res, err := s.Applications.UpdateOne(ctx,
			bson.M{"_id": app.ID, "status": models.ApplicationPending},
			bson.M{"$set": bson.M{"status": in.Status, "decidedAt": now, "updatedAt": now}})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			current, err := s.Applications.FindOne(ctx, bson.M{"_id": app.ID})
			if err != nil {
				return notFound(err, "application not found")
			}
			if current.Status == in.Status {
				noop = true
				return nil
			}
			return apperrors.Newf(apperrors.InvalidStateTransition, "application is already %s", current.Status)
		}
		if in.Status != models.ApplicationApproved {
			return nil
		}

		fund, err := s.Funds.FindOne(ctx, bson.M{"_id": app.FundID})
		if err != nil {
			return notFound(err, "fund not found")
		}
		_, err = s.Funds.UpdateOne(ctx,
			bson.M{"_id": fund.ID},
			bson.M{"$set": bson.M{"amount": fund.Amount.SubClamped(app.RequestedAmount), "updatedAt": now}})
		return err
	})
	if err != nil {
		return nil, err
	}

	app.Status = in.Status
	if noop {
		return app, nil
	}
	app.DecidedAt = &now
	app.UpdatedAt = now
	zap.S().Infow("fund application decided",
		"application", app.ID.Hex(),
		"fund", app.FundID.Hex(),
		"status", in.Status,
		"amount", app.RequestedAmount.String(),
	)
	return app, nil
}

// Act lets the nominee confirm (received) or dispute (reported) an approved
// disbursement. Exactly one transaction is recorded per application.
func (s *Service) Act(ctx context.Context, actor models.Actor, in ActionInput) (*models.FundApplication, error) {
	if err := requireProfile(actor, models.RoleNominee); err != nil {
		return nil, err
	}
	if in.Action != models.ApplicationReceived && in.Action != models.ApplicationReported {
		return nil, apperrors.New(apperrors.ValidationError, "action must be received or reported")
	}
	if in.Action == models.ApplicationReported && strings.TrimSpace(in.ReportReason) == "" {
		return nil, apperrors.New(apperrors.ValidationError, "a reason is required to report a donation")
	}
	appID, err := parseID(in.ApplicationID, "application")
	if err != nil {
		return nil, err
	}

	app, err := s.Applications.FindOne(ctx, bson.M{"_id": appID})
	if err != nil {
		return nil, notFound(err, "application not found")
	}
	if app.NomineeID != actor.ID {
		return nil, apperrors.New(apperrors.Unauthorized, "this application belongs to another nominee")
	}
	if app.Status != models.ApplicationApproved {
		return nil, apperrors.Newf(apperrors.InvalidStateTransition, "application is %s, only approved applications can be acted on", app.Status)
	}

	now := s.now()
	tx := models.FundTransaction{
		ID:            primitive.NewObjectID(),
		FundID:        app.FundID,
		ApplicationID: app.ID,
		NomineeID:     app.NomineeID,
		VictimID:      app.VictimID,
		Amount:        app.RequestedAmount,
		Status:        in.Action,
		Note:          app.Note,
		CreatedAt:     now,
	}
	if in.Action == models.ApplicationReported {
		tx.Note = strings.TrimSpace(in.ReportReason)
	}

	err = s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		res, err := s.Applications.UpdateOne(ctx,
			bson.M{"_id": app.ID, "status": models.ApplicationApproved},
			bson.M{"$set": bson.M{"status": in.Action, "transactionId": tx.ID, "updatedAt": now}})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return apperrors.New(apperrors.InvalidStateTransition, "application was already acted on")
		}
		if err := s.Transactions.InsertOne(ctx, tx); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return apperrors.Wrap(err, apperrors.InvalidStateTransition, "a transaction already exists for this application")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	app.Status = in.Action
	app.TransactionID = &tx.ID
	app.UpdatedAt = now
	zap.S().Infow("fund application settled",
		"application", app.ID.Hex(),
		"transaction", tx.ID.Hex(),
		"status", in.Action,
	)
	return app, nil
}
