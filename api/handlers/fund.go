package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/linesmerrill/relief-portal-api/api"
	"github.com/linesmerrill/relief-portal-api/ledger"
)

// Fund exported for testing purposes
type Fund struct {
	Ledger *ledger.Service
}

// CreateFundHandler opens a fund for the calling donor
func (f Fund) CreateFundHandler(w http.ResponseWriter, r *http.Request) {
	var in ledger.CreateFundInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	fund, err := f.Ledger.CreateFund(ctx, api.ActorFrom(r.Context()), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, fund)
}

// FundsHandler lists funds. ?mine=true restricts the list to the caller's own.
func (f Fund) FundsHandler(w http.ResponseWriter, r *http.Request) {
	mine, _ := strconv.ParseBool(r.URL.Query().Get("mine"))
	limit, page := pageParams(r)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	funds, err := f.Ledger.ListFunds(ctx, api.ActorFrom(r.Context()), mine, limit, page)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, funds)
}

// ApplyHandler files the calling nominee's application against a fund
func (f Fund) ApplyHandler(w http.ResponseWriter, r *http.Request) {
	var in ledger.ApplyInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	app, err := f.Ledger.Apply(ctx, api.ActorFrom(r.Context()), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

// ApplicationsHandler lists the applications the caller is involved in
func (f Fund) ApplicationsHandler(w http.ResponseWriter, r *http.Request) {
	limit, page := pageParams(r)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	apps, err := f.Ledger.ListApplications(ctx, api.ActorFrom(r.Context()), limit, page)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

// DecideHandler records the fund owner's decision on an application
func (f Fund) DecideHandler(w http.ResponseWriter, r *http.Request) {
	var in ledger.DecideInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	app, err := f.Ledger.Decide(ctx, api.ActorFrom(r.Context()), mux.Vars(r)["application_id"], in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// NomineeActionHandler records the nominee's confirmation or report of a disbursement
func (f Fund) NomineeActionHandler(w http.ResponseWriter, r *http.Request) {
	var in ledger.ActionInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	app, err := f.Ledger.Act(ctx, api.ActorFrom(r.Context()), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// ReportedDonationsHandler lists the disbursements nominees reported
func (f Fund) ReportedDonationsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	txs, err := f.Ledger.ReportedDonations(ctx, api.ActorFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}
