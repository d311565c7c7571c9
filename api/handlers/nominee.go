package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/relief-portal-api/api"
	"github.com/linesmerrill/relief-portal-api/apperrors"
	"github.com/linesmerrill/relief-portal-api/databases"
	"github.com/linesmerrill/relief-portal-api/verification"
)

// Nominee exported for testing purposes
type Nominee struct {
	DB       databases.NomineeDatabase
	Verifier *verification.Machine
}

// NomineesHandler lists the nominees visible to the caller
func (n Nominee) NomineesHandler(w http.ResponseWriter, r *http.Request) {
	actor := api.ActorFrom(r.Context())
	if err := requireArea(actor); err != nil {
		writeError(w, err)
		return
	}
	filter := verification.Filter(actor, r.URL.Query().Get("status"), verification.NomineeStore{}.StatusField())
	limit, page := pageParams(r)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	nominees, err := n.DB.Find(ctx, filter, databases.Paginate(limit, page))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nominees)
}

// NomineeProfileHandler returns the caller's own nominee profile
func (n Nominee) NomineeProfileHandler(w http.ResponseWriter, r *http.Request) {
	actor := api.ActorFrom(r.Context())

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	nominee, err := n.DB.FindByUserID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			writeError(w, apperrors.Wrap(err, apperrors.NotFound, "nominee profile not found, please complete your profile"))
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nominee)
}

// VerifyNomineeHandler applies an officer or admin decision to a nominee
func (n Nominee) VerifyNomineeHandler(w http.ResponseWriter, r *http.Request) {
	actor := api.ActorFrom(r.Context())

	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["nominee_id"])
	if err != nil {
		writeError(w, apperrors.Wrap(err, apperrors.ValidationError, "invalid nominee id"))
		return
	}
	var d verification.Decision
	if err := decodeJSON(r, &d); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := n.Verifier.Decide(ctx, verification.NomineeStore{DB: n.DB}, id, actor, d); err != nil {
		writeError(w, err)
		return
	}
	updated, err := n.DB.FindOne(ctx, bson.M{"_id": id})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
