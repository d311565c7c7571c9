package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/relief-portal-api/api/handlers"
	mocksdb "github.com/linesmerrill/relief-portal-api/databases/mocks"
	"github.com/linesmerrill/relief-portal-api/ledger"
	"github.com/linesmerrill/relief-portal-api/models"
)

type fundFixture struct {
	funds        *mocksdb.FundDatabase
	applications *mocksdb.FundApplicationDatabase
	transactions *mocksdb.FundTransactionDatabase
	users        *mocksdb.UserDatabase
	h            handlers.Fund
}

func newFundFixture() *fundFixture {
	f := &fundFixture{
		funds:        &mocksdb.FundDatabase{},
		applications: &mocksdb.FundApplicationDatabase{},
		transactions: &mocksdb.FundTransactionDatabase{},
		users:        &mocksdb.UserDatabase{},
	}
	f.h = handlers.Fund{Ledger: &ledger.Service{
		Funds:        f.funds,
		Applications: f.applications,
		Transactions: f.transactions,
		Users:        f.users,
		Now:          clock,
	}}
	return f
}

func donor() models.Actor {
	return models.Actor{ID: newID(), Role: models.RoleDonor, ProfileCompleted: true}
}

func TestFund_CreateFundHandler(t *testing.T) {
	f := newFundFixture()
	me := donor()
	f.users.On("FindOne", mock.Anything, bson.M{"_id": me.ID}).Return(&models.User{ID: me.ID, FullName: "Karim Uddin"}, nil)
	f.funds.On("InsertOne", mock.Anything, mock.MatchedBy(func(fund models.Fund) bool {
		return fund.DonorID == me.ID && fund.PledgedAmount.Equal(models.NewMoney(5000)) && fund.Amount.Equal(models.NewMoney(5000))
	})).Return(nil)

	req := jsonRequest(t, "POST", "/api/funds", `{"title":"Winter relief","amount":5000,"description":"blankets"}`)
	rr := serve(f.h.CreateFundHandler, asActor(req, me))

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var got models.Fund
	readData(t, rr, &got)
	assert.Equal(t, "Karim Uddin", got.DonorName)
	assert.Equal(t, "Winter relief", got.Title)
	f.funds.AssertExpectations(t)
}

func TestFund_CreateFundHandlerRejects(t *testing.T) {
	incomplete := donor()
	incomplete.ProfileCompleted = false

	cases := []struct {
		name     string
		actor    models.Actor
		body     string
		wantCode int
		wantMsg  string
	}{
		{"nominees cannot open funds", models.Actor{ID: newID(), Role: models.RoleNominee, ProfileCompleted: true}, `{"title":"x","amount":10}`, http.StatusForbidden, "only a donor can do this"},
		{"incomplete profile", incomplete, `{"title":"x","amount":10}`, http.StatusBadRequest, "please complete your profile first"},
		{"zero amount", donor(), `{"title":"x","amount":0}`, http.StatusBadRequest, "amount must be greater than zero"},
		{"missing title", donor(), `{"amount":10}`, http.StatusBadRequest, "title is a required field"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := newFundFixture()
			rr := serve(f.h.CreateFundHandler, asActor(jsonRequest(t, "POST", "/api/funds", c.body), c.actor))

			assert.Equal(t, c.wantCode, rr.Code)
			assert.Equal(t, c.wantMsg, readEnvelope(t, rr).Error)
			f.funds.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
		})
	}
}

func TestFund_FundsHandlerMine(t *testing.T) {
	f := newFundFixture()
	me := donor()
	f.funds.On("Find", mock.Anything, bson.M{"donorId": me.ID}, mock.Anything).Return([]models.Fund{{DonorID: me.ID, Title: "Winter relief"}}, nil)

	rr := serve(f.h.FundsHandler, asActor(jsonRequest(t, "GET", "/api/funds?mine=true", nil), me))

	require.Equal(t, http.StatusOK, rr.Code)
	var got []models.Fund
	readData(t, rr, &got)
	assert.Len(t, got, 1)
	f.funds.AssertExpectations(t)
}

func TestFund_ApplicationsHandlerPaginates(t *testing.T) {
	f := newFundFixture()
	f.applications.On("Find", mock.Anything, bson.M{}, mock.MatchedBy(func(o *options.FindOptions) bool {
		return *o.Limit == 10 && *o.Skip == 10
	})).Return([]models.FundApplication{{ID: newID(), Status: models.ApplicationPending}}, nil)

	rr := serve(f.h.ApplicationsHandler, asActor(jsonRequest(t, "GET", "/api/funds/applications?limit=10&page=2", nil), admin()))

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var got []models.FundApplication
	readData(t, rr, &got)
	assert.Len(t, got, 1)
	f.applications.AssertExpectations(t)
}

func TestFund_ApplyHandlerRequiresNominee(t *testing.T) {
	f := newFundFixture()
	body := `{"fundId":"` + newID().Hex() + `","requestedAmount":100}`
	rr := serve(f.h.ApplyHandler, asActor(jsonRequest(t, "POST", "/api/funds/apply", body), donor()))

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "only a nominee can do this", readEnvelope(t, rr).Error)
}

func TestFund_NomineeActionHandlerValidation(t *testing.T) {
	f := newFundFixture()
	body := `{"applicationId":"` + newID().Hex() + `","action":"lost"}`
	nominee := models.Actor{ID: newID(), Role: models.RoleNominee, ProfileCompleted: true}
	rr := serve(f.h.NomineeActionHandler, asActor(jsonRequest(t, "POST", "/api/funds/nominee-action", body), nominee))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "action must be one of [received reported]", readEnvelope(t, rr).Error)
}

func TestFund_ReportedDonationsHandler(t *testing.T) {
	f := newFundFixture()
	f.transactions.On("Find", mock.Anything, bson.M{"status": models.ApplicationReported}, mock.Anything).Return([]models.FundTransaction{
		{ID: newID(), Amount: models.NewMoney(1500), Status: models.ApplicationReported, Note: "never arrived"},
	}, nil)

	rr := serve(f.h.ReportedDonationsHandler, asActor(jsonRequest(t, "GET", "/api/admin/reported-donations", nil), admin()))

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"amount":1500`)
	f.transactions.AssertExpectations(t)
}
