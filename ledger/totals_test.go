package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/relief-portal-api/apperrors"
	"github.com/linesmerrill/relief-portal-api/models"
)

func TestFinancialSupport_OnlyCountsReceived(t *testing.T) {
	f := newFixture()
	victim := models.Victim{ID: primitive.NewObjectID(), VictimID: "VIC-2024-000003"}
	f.victims.On("FindByIDOrCode", mock.Anything, victim.ID.Hex()).Return(&victim, nil)
	f.transactions.On("Find", mock.Anything, bson.M{"victimId": victim.ID}, mock.Anything).Return([]models.FundTransaction{
		{Status: models.ApplicationReceived, Amount: models.NewMoney(1500)},
		{Status: models.ApplicationReported, Amount: models.NewMoney(900)},
		{Status: models.ApplicationReceived, Amount: models.NewMoney(500)},
	}, nil)

	support, err := f.svc.FinancialSupport(context.Background(), victim.ID.Hex())
	require.NoError(t, err)
	assert.True(t, support.TotalReceived.Equal(models.NewMoney(2000)))
	assert.Len(t, support.Transactions, 3)
	assert.Equal(t, victim.ID.Hex(), support.VictimID)
}

func TestFinancialSupport_UnknownVictim(t *testing.T) {
	f := newFixture()
	f.victims.On("FindByIDOrCode", mock.Anything, "VIC-0000-000000").Return(nil, mongo.ErrNoDocuments)

	_, err := f.svc.FinancialSupport(context.Background(), "VIC-0000-000000")
	assert.True(t, apperrors.Is(err, apperrors.NotFound))
}

func TestReportedDonations_AdminOnly(t *testing.T) {
	f := newFixture()
	_, err := f.svc.ReportedDonations(context.Background(), donor())
	assert.True(t, apperrors.Is(err, apperrors.Unauthorized))

	f.transactions.On("Find", mock.Anything, bson.M{"status": models.ApplicationReported}, mock.Anything).
		Return([]models.FundTransaction{{Status: models.ApplicationReported}}, nil)
	txs, err := f.svc.ReportedDonations(context.Background(), models.Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestReconcile(t *testing.T) {
	f := newFixture()
	healthy := models.Fund{ID: primitive.NewObjectID(), PledgedAmount: models.NewMoney(5000), Amount: models.NewMoney(3000)}
	drifted := models.Fund{ID: primitive.NewObjectID(), PledgedAmount: models.NewMoney(1000), Amount: models.NewMoney(1000)}

	f.funds.On("Find", mock.Anything, bson.M{}).Return([]models.Fund{healthy, drifted}, nil)
	f.applications.On("Find", mock.Anything, mock.MatchedBy(func(filter bson.M) bool { return filter["fundId"] == healthy.ID })).
		Return([]models.FundApplication{{RequestedAmount: models.NewMoney(2000)}}, nil)
	f.applications.On("Find", mock.Anything, mock.MatchedBy(func(filter bson.M) bool { return filter["fundId"] == drifted.ID })).
		Return([]models.FundApplication{{RequestedAmount: models.NewMoney(700)}, {RequestedAmount: models.NewMoney(700)}}, nil)

	out, err := f.svc.Reconcile(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, drifted.ID, out[0].Fund.ID)
	assert.True(t, out[0].Expected.IsZero())
}
