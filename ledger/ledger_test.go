package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/relief-portal-api/apperrors"
	"github.com/linesmerrill/relief-portal-api/databases/mocks"
	"github.com/linesmerrill/relief-portal-api/ledger"
	"github.com/linesmerrill/relief-portal-api/models"
)

type fixture struct {
	svc          *ledger.Service
	funds        *mocks.FundDatabase
	applications *mocks.FundApplicationDatabase
	transactions *mocks.FundTransactionDatabase
	nominees     *mocks.NomineeDatabase
	victims      *mocks.VictimDatabase
	users        *mocks.UserDatabase
	tx           *mocks.Transactor
}

func newFixture() *fixture {
	f := &fixture{
		funds:        &mocks.FundDatabase{},
		applications: &mocks.FundApplicationDatabase{},
		transactions: &mocks.FundTransactionDatabase{},
		nominees:     &mocks.NomineeDatabase{},
		victims:      &mocks.VictimDatabase{},
		users:        &mocks.UserDatabase{},
		tx:           &mocks.Transactor{},
	}
	// run the callback inline, the way a committed transaction would
	f.tx.On("WithTransaction", mock.Anything, mock.Anything).
		Return(func(ctx context.Context, fn func(context.Context) error) error { return fn(ctx) })

	f.svc = &ledger.Service{
		Funds:        f.funds,
		Applications: f.applications,
		Transactions: f.transactions,
		Nominees:     f.nominees,
		Victims:      f.victims,
		Users:        f.users,
		Tx:           f.tx,
		Now:          func() time.Time { return time.Date(2024, 8, 5, 12, 0, 0, 0, time.UTC) },
	}
	return f
}

func donor() models.Actor {
	return models.Actor{ID: primitive.NewObjectID(), Role: models.RoleDonor, ProfileCompleted: true}
}

func nominee() models.Actor {
	return models.Actor{ID: primitive.NewObjectID(), Role: models.RoleNominee, ProfileCompleted: true}
}

func setOf(args mock.Arguments) bson.M {
	return args.Get(2).(bson.M)["$set"].(bson.M)
}

// TestFundLifecycle walks one fund from creation to a received disbursement
// with state kept between the calls.
func TestFundLifecycle(t *testing.T) {
	f := newFixture()
	d := donor()
	n := nominee()

	victim := models.Victim{ID: primitive.NewObjectID(), VictimID: "VIC-2024-000001", FullName: "Abu Sayed", Status: models.VictimDeceased}
	profile := models.Nominee{ID: primitive.NewObjectID(), UserID: n.ID, VictimID: victim.ID, Name: "Rina", Email: "rina@example.com"}

	var fund models.Fund
	var app models.FundApplication
	var txs []models.FundTransaction

	f.users.On("FindOne", mock.Anything, bson.M{"_id": d.ID}).Return(&models.User{FullName: "Donor One"}, nil)
	f.funds.On("InsertOne", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		fund = args.Get(1).(models.Fund)
	})
	f.funds.On("FindOne", mock.Anything, mock.Anything).Return(
		func(context.Context, interface{}, ...*options.FindOneOptions) *models.Fund { cp := fund; return &cp }, nil)
	f.funds.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1}, nil).
		Run(func(args mock.Arguments) {
			fund.Amount = setOf(args)["amount"].(models.Money)
		})

	f.nominees.On("FindByUserID", mock.Anything, n.ID).Return(&profile, nil)
	f.victims.On("FindOne", mock.Anything, bson.M{"_id": victim.ID}).Return(&victim, nil)
	f.victims.On("FindByIDOrCode", mock.Anything, "VIC-2024-000001").Return(&victim, nil)

	f.applications.On("InsertOne", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		app = args.Get(1).(models.FundApplication)
	})
	f.applications.On("FindOne", mock.Anything, mock.Anything).Return(
		func(context.Context, interface{}, ...*options.FindOneOptions) *models.FundApplication { cp := app; return &cp }, nil)
	f.applications.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(
		func(_ context.Context, filter interface{}, update interface{}, _ ...*options.UpdateOptions) *mongo.UpdateResult {
			if filter.(bson.M)["status"] != app.Status {
				return &mongo.UpdateResult{MatchedCount: 0}
			}
			set := update.(bson.M)["$set"].(bson.M)
			app.Status = set["status"].(string)
			if id, ok := set["transactionId"].(primitive.ObjectID); ok {
				app.TransactionID = &id
			}
			return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}
		}, nil)

	f.transactions.On("InsertOne", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		txs = append(txs, args.Get(1).(models.FundTransaction))
	})
	f.transactions.On("Find", mock.Anything, bson.M{"victimId": victim.ID}, mock.Anything).Return(
		func(context.Context, interface{}, ...*options.FindOptions) []models.FundTransaction { return txs }, nil)

	ctx := context.Background()

	created, err := f.svc.CreateFund(ctx, d, ledger.CreateFundInput{Title: "Flood relief", Amount: models.NewMoney(5000)})
	require.NoError(t, err)
	assert.Equal(t, "Donor One", created.DonorName)
	assert.True(t, created.PledgedAmount.Equal(models.NewMoney(5000)))

	applied, err := f.svc.Apply(ctx, n, ledger.ApplyInput{FundID: fund.ID.Hex(), RequestedAmount: models.NewMoney(2000), Note: "medical bills"})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationPending, applied.Status)
	assert.Equal(t, "VIC-2024-000001", applied.VictimSnapshot.VictimID)
	assert.Equal(t, "Rina", applied.NomineeSnapshot.Name)

	decided, err := f.svc.Decide(ctx, d, app.ID.Hex(), ledger.DecideInput{Status: models.ApplicationApproved})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationApproved, decided.Status)
	assert.True(t, fund.Amount.Equal(models.NewMoney(3000)), fund.Amount.String())
	assert.True(t, fund.PledgedAmount.Equal(models.NewMoney(5000)))

	// approving again must not debit twice
	_, err = f.svc.Decide(ctx, d, app.ID.Hex(), ledger.DecideInput{Status: models.ApplicationApproved})
	require.NoError(t, err)
	assert.True(t, fund.Amount.Equal(models.NewMoney(3000)), fund.Amount.String())

	acted, err := f.svc.Act(ctx, n, ledger.ActionInput{ApplicationID: app.ID.Hex(), Action: models.ApplicationReceived})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationReceived, acted.Status)
	require.Len(t, txs, 1)
	assert.Equal(t, models.ApplicationReceived, txs[0].Status)
	assert.True(t, txs[0].Amount.Equal(models.NewMoney(2000)))
	assert.Equal(t, "medical bills", txs[0].Note)
	assert.Equal(t, txs[0].ID, *acted.TransactionID)

	// a second action is rejected and records nothing
	_, err = f.svc.Act(ctx, n, ledger.ActionInput{ApplicationID: app.ID.Hex(), Action: models.ApplicationReported, ReportReason: "never arrived"})
	assert.True(t, apperrors.Is(err, apperrors.InvalidStateTransition))
	assert.Len(t, txs, 1)

	support, err := f.svc.FinancialSupport(ctx, "VIC-2024-000001")
	require.NoError(t, err)
	assert.True(t, support.TotalReceived.Equal(models.NewMoney(2000)))
	assert.Len(t, support.Transactions, 1)
}

func TestDecide_ClampsAtZero(t *testing.T) {
	f := newFixture()
	d := donor()
	fund := models.Fund{ID: primitive.NewObjectID(), DonorID: d.ID, PledgedAmount: models.NewMoney(1000), Amount: models.NewMoney(500)}
	app := models.FundApplication{ID: primitive.NewObjectID(), FundID: fund.ID, Status: models.ApplicationPending, RequestedAmount: models.NewMoney(2000)}

	f.applications.On("FindOne", mock.Anything, mock.Anything).Return(&app, nil)
	f.funds.On("FindOne", mock.Anything, mock.Anything).Return(&fund, nil)
	f.applications.On("UpdateOne", mock.Anything, bson.M{"_id": app.ID, "status": models.ApplicationPending}, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 1}, nil)

	var newAmount models.Money
	f.funds.On("UpdateOne", mock.Anything, bson.M{"_id": fund.ID}, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1}, nil).
		Run(func(args mock.Arguments) { newAmount = setOf(args)["amount"].(models.Money) })

	_, err := f.svc.Decide(context.Background(), d, app.ID.Hex(), ledger.DecideInput{Status: models.ApplicationApproved})
	require.NoError(t, err)
	assert.True(t, newAmount.IsZero(), newAmount.String())
}

func TestDecide_RejectDoesNotTouchFund(t *testing.T) {
	f := newFixture()
	d := donor()
	fund := models.Fund{ID: primitive.NewObjectID(), DonorID: d.ID, Amount: models.NewMoney(500)}
	app := models.FundApplication{ID: primitive.NewObjectID(), FundID: fund.ID, Status: models.ApplicationPending, RequestedAmount: models.NewMoney(200)}

	f.applications.On("FindOne", mock.Anything, mock.Anything).Return(&app, nil)
	f.funds.On("FindOne", mock.Anything, mock.Anything).Return(&fund, nil)
	f.applications.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)

	got, err := f.svc.Decide(context.Background(), d, app.ID.Hex(), ledger.DecideInput{Status: models.ApplicationRejected})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationRejected, got.Status)
	f.funds.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestDecide_OnlyFundOwner(t *testing.T) {
	f := newFixture()
	fund := models.Fund{ID: primitive.NewObjectID(), DonorID: primitive.NewObjectID()}
	app := models.FundApplication{ID: primitive.NewObjectID(), FundID: fund.ID, Status: models.ApplicationPending}

	f.applications.On("FindOne", mock.Anything, mock.Anything).Return(&app, nil)
	f.funds.On("FindOne", mock.Anything, mock.Anything).Return(&fund, nil)

	_, err := f.svc.Decide(context.Background(), donor(), app.ID.Hex(), ledger.DecideInput{Status: models.ApplicationApproved})
	assert.True(t, apperrors.Is(err, apperrors.Unauthorized))
	f.tx.AssertNotCalled(t, "WithTransaction", mock.Anything, mock.Anything)
}

func TestDecide_NotPending(t *testing.T) {
	f := newFixture()
	d := donor()
	fund := models.Fund{ID: primitive.NewObjectID(), DonorID: d.ID}
	app := models.FundApplication{ID: primitive.NewObjectID(), FundID: fund.ID, Status: models.ApplicationReceived}

	f.applications.On("FindOne", mock.Anything, mock.Anything).Return(&app, nil)
	f.funds.On("FindOne", mock.Anything, mock.Anything).Return(&fund, nil)

	_, err := f.svc.Decide(context.Background(), d, app.ID.Hex(), ledger.DecideInput{Status: models.ApplicationRejected})
	assert.True(t, apperrors.Is(err, apperrors.InvalidStateTransition))
}

func TestDecide_LostRaceToOppositeDecision(t *testing.T) {
	f := newFixture()
	d := donor()
	fund := models.Fund{ID: primitive.NewObjectID(), DonorID: d.ID}
	pending := models.FundApplication{ID: primitive.NewObjectID(), FundID: fund.ID, Status: models.ApplicationPending}
	rejected := pending
	rejected.Status = models.ApplicationRejected

	f.applications.On("FindOne", mock.Anything, mock.Anything).Return(&pending, nil).Once()
	f.applications.On("FindOne", mock.Anything, mock.Anything).Return(&rejected, nil).Once()
	f.funds.On("FindOne", mock.Anything, mock.Anything).Return(&fund, nil)
	f.applications.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 0}, nil)

	_, err := f.svc.Decide(context.Background(), d, pending.ID.Hex(), ledger.DecideInput{Status: models.ApplicationApproved})
	assert.True(t, apperrors.Is(err, apperrors.InvalidStateTransition))
	f.funds.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestDecide_TransactionFailureSurfaces(t *testing.T) {
	f := newFixture()
	d := donor()
	fund := models.Fund{ID: primitive.NewObjectID(), DonorID: d.ID, Amount: models.NewMoney(10)}
	app := models.FundApplication{ID: primitive.NewObjectID(), FundID: fund.ID, Status: models.ApplicationPending, RequestedAmount: models.NewMoney(5)}

	f.applications.On("FindOne", mock.Anything, mock.Anything).Return(&app, nil)
	f.funds.On("FindOne", mock.Anything, mock.Anything).Return(&fund, nil)
	f.applications.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)
	f.funds.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("mocked-error"))

	_, err := f.svc.Decide(context.Background(), d, app.ID.Hex(), ledger.DecideInput{Status: models.ApplicationApproved})
	assert.EqualError(t, err, "mocked-error")
	assert.Equal(t, apperrors.Internal, apperrors.KindOf(err))
}

func TestApply_RequiresLinkedVictim(t *testing.T) {
	f := newFixture()
	n := nominee()
	f.nominees.On("FindByUserID", mock.Anything, n.ID).Return(&models.Nominee{UserID: n.ID}, nil)

	_, err := f.svc.Apply(context.Background(), n, ledger.ApplyInput{FundID: primitive.NewObjectID().Hex(), RequestedAmount: models.NewMoney(10)})
	assert.True(t, apperrors.Is(err, apperrors.IncompleteProfile))
	f.applications.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestApply_NoNomineeProfile(t *testing.T) {
	f := newFixture()
	n := nominee()
	f.nominees.On("FindByUserID", mock.Anything, n.ID).Return(nil, mongo.ErrNoDocuments)

	_, err := f.svc.Apply(context.Background(), n, ledger.ApplyInput{FundID: primitive.NewObjectID().Hex(), RequestedAmount: models.NewMoney(10)})
	assert.True(t, apperrors.Is(err, apperrors.IncompleteProfile))
}

func TestApply_Gates(t *testing.T) {
	f := newFixture()
	valid := ledger.ApplyInput{FundID: primitive.NewObjectID().Hex(), RequestedAmount: models.NewMoney(10)}

	_, err := f.svc.Apply(context.Background(), models.Actor{}, valid)
	assert.True(t, apperrors.Is(err, apperrors.Unauthenticated))

	_, err = f.svc.Apply(context.Background(), donor(), valid)
	assert.True(t, apperrors.Is(err, apperrors.Unauthorized))

	incomplete := nominee()
	incomplete.ProfileCompleted = false
	_, err = f.svc.Apply(context.Background(), incomplete, valid)
	assert.True(t, apperrors.Is(err, apperrors.IncompleteProfile))

	_, err = f.svc.Apply(context.Background(), nominee(), ledger.ApplyInput{FundID: valid.FundID, RequestedAmount: models.NewMoney(0)})
	assert.True(t, apperrors.Is(err, apperrors.ValidationError))

	_, err = f.svc.Apply(context.Background(), nominee(), ledger.ApplyInput{FundID: "nope", RequestedAmount: models.NewMoney(1)})
	assert.True(t, apperrors.Is(err, apperrors.ValidationError))
}

func TestAct_RequiresApproved(t *testing.T) {
	f := newFixture()
	n := nominee()
	app := models.FundApplication{ID: primitive.NewObjectID(), NomineeID: n.ID, Status: models.ApplicationPending}
	f.applications.On("FindOne", mock.Anything, mock.Anything).Return(&app, nil)

	_, err := f.svc.Act(context.Background(), n, ledger.ActionInput{ApplicationID: app.ID.Hex(), Action: models.ApplicationReceived})
	assert.True(t, apperrors.Is(err, apperrors.InvalidStateTransition))
	f.transactions.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
	f.applications.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestAct_OtherNominee(t *testing.T) {
	f := newFixture()
	app := models.FundApplication{ID: primitive.NewObjectID(), NomineeID: primitive.NewObjectID(), Status: models.ApplicationApproved}
	f.applications.On("FindOne", mock.Anything, mock.Anything).Return(&app, nil)

	_, err := f.svc.Act(context.Background(), nominee(), ledger.ActionInput{ApplicationID: app.ID.Hex(), Action: models.ApplicationReceived})
	assert.True(t, apperrors.Is(err, apperrors.Unauthorized))
}

func TestAct_ReportUsesReasonAsNote(t *testing.T) {
	f := newFixture()
	n := nominee()
	app := models.FundApplication{ID: primitive.NewObjectID(), NomineeID: n.ID, Status: models.ApplicationApproved, Note: "school fees", RequestedAmount: models.NewMoney(300)}
	f.applications.On("FindOne", mock.Anything, mock.Anything).Return(&app, nil)
	f.applications.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)
	f.transactions.On("InsertOne", mock.Anything, mock.MatchedBy(func(tx models.FundTransaction) bool {
		return tx.Status == models.ApplicationReported && tx.Note == "money never arrived" && tx.ApplicationID == app.ID
	})).Return(nil)

	got, err := f.svc.Act(context.Background(), n, ledger.ActionInput{ApplicationID: app.ID.Hex(), Action: models.ApplicationReported, ReportReason: " money never arrived "})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationReported, got.Status)
	f.transactions.AssertExpectations(t)
}

func TestAct_ReportNeedsReason(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Act(context.Background(), nominee(), ledger.ActionInput{ApplicationID: primitive.NewObjectID().Hex(), Action: models.ApplicationReported})
	assert.True(t, apperrors.Is(err, apperrors.ValidationError))
}

func TestAct_DuplicateTransaction(t *testing.T) {
	f := newFixture()
	n := nominee()
	app := models.FundApplication{ID: primitive.NewObjectID(), NomineeID: n.ID, Status: models.ApplicationApproved}
	f.applications.On("FindOne", mock.Anything, mock.Anything).Return(&app, nil)
	f.applications.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)
	f.transactions.On("InsertOne", mock.Anything, mock.Anything).
		Return(mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key"}}})

	_, err := f.svc.Act(context.Background(), n, ledger.ActionInput{ApplicationID: app.ID.Hex(), Action: models.ApplicationReceived})
	assert.True(t, apperrors.Is(err, apperrors.InvalidStateTransition))
}

func TestListApplications_ByRole(t *testing.T) {
	f := newFixture()
	d := donor()
	n := nominee()
	fundID := primitive.NewObjectID()

	f.funds.On("Find", mock.Anything, bson.M{"donorId": d.ID}).Return([]models.Fund{{ID: fundID}}, nil)
	f.applications.On("Find", mock.Anything, bson.M{"fundId": bson.M{"$in": []primitive.ObjectID{fundID}}}, mock.Anything).
		Return([]models.FundApplication{{FundID: fundID}}, nil)
	f.applications.On("Find", mock.Anything, bson.M{"nomineeId": n.ID}, mock.Anything).
		Return([]models.FundApplication{{NomineeID: n.ID}, {NomineeID: n.ID}}, nil)

	apps, err := f.svc.ListApplications(context.Background(), d, 0, 1)
	require.NoError(t, err)
	assert.Len(t, apps, 1)

	apps, err = f.svc.ListApplications(context.Background(), n, 0, 1)
	require.NoError(t, err)
	assert.Len(t, apps, 2)

	_, err = f.svc.ListApplications(context.Background(), models.Actor{}, 0, 1)
	assert.True(t, apperrors.Is(err, apperrors.Unauthenticated))
}

func TestListApplications_DonorWithoutFunds(t *testing.T) {
	f := newFixture()
	d := donor()
	f.funds.On("Find", mock.Anything, bson.M{"donorId": d.ID}).Return([]models.Fund{}, nil)

	apps, err := f.svc.ListApplications(context.Background(), d, 0, 1)
	require.NoError(t, err)
	assert.Empty(t, apps)
	f.applications.AssertNotCalled(t, "Find", mock.Anything, mock.Anything, mock.Anything)
}

func TestListApplications_Paginates(t *testing.T) {
	f := newFixture()
	adminActor := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
	page := func(limit, skip int64) interface{} {
		return mock.MatchedBy(func(o *options.FindOptions) bool {
			return o.Limit != nil && *o.Limit == limit && o.Skip != nil && *o.Skip == skip
		})
	}
	f.applications.On("Find", mock.Anything, bson.M{}, page(100, 200)).Return([]models.FundApplication{{}}, nil)
	f.funds.On("Find", mock.Anything, bson.M{}, page(50, 50)).Return([]models.Fund{{}, {}}, nil)

	// older applications stay reachable past the first page
	apps, err := f.svc.ListApplications(context.Background(), adminActor, 100, 3)
	require.NoError(t, err)
	assert.Len(t, apps, 1)

	funds, err := f.svc.ListFunds(context.Background(), donor(), false, 0, 2)
	require.NoError(t, err)
	assert.Len(t, funds, 2)
	f.applications.AssertExpectations(t)
	f.funds.AssertExpectations(t)
}

func TestCreateFund_Validation(t *testing.T) {
	f := newFixture()
	_, err := f.svc.CreateFund(context.Background(), donor(), ledger.CreateFundInput{Title: "x", Amount: models.NewMoney(-5)})
	assert.True(t, apperrors.Is(err, apperrors.ValidationError))

	_, err = f.svc.CreateFund(context.Background(), donor(), ledger.CreateFundInput{Title: " ", Amount: models.NewMoney(5)})
	assert.True(t, apperrors.Is(err, apperrors.ValidationError))

	_, err = f.svc.CreateFund(context.Background(), nominee(), ledger.CreateFundInput{Title: "x", Amount: models.NewMoney(5)})
	assert.True(t, apperrors.Is(err, apperrors.Unauthorized))
}
