package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/linesmerrill/relief-portal-api/api"
	"github.com/linesmerrill/relief-portal-api/apperrors"
	"github.com/linesmerrill/relief-portal-api/databases"
	"github.com/linesmerrill/relief-portal-api/jurisdiction"
	"github.com/linesmerrill/relief-portal-api/ledger"
	"github.com/linesmerrill/relief-portal-api/models"
	"github.com/linesmerrill/relief-portal-api/storage"
	"github.com/linesmerrill/relief-portal-api/verification"
)

// maxUploadMemory is how much of a multipart form is kept in memory
const maxUploadMemory = 32 << 20

// Victim exported for testing purposes
type Victim struct {
	DB        databases.VictimDatabase
	Counters  databases.CounterDatabase
	Storage   storage.Uploader
	Verifier  *verification.Machine
	Ledger    *ledger.Service
	Directory jurisdiction.Directory
	Now       func() time.Time
}

func (v Victim) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now().UTC()
}

// VictimInput is the submitted record of a victim. Multipart requests carry it
// as JSON in the data field.
type VictimInput struct {
	FullName            string            `json:"fullName" validate:"required,notblank"`
	Age                 int               `json:"age" validate:"gte=0,lte=150"`
	Gender              string            `json:"gender" validate:"required,oneof=male female other"`
	DateOfBirth         string            `json:"dateOfBirth" validate:"required"`
	NationalID          string            `json:"nationalId" validate:"required,notblank"`
	District            string            `json:"district" validate:"required"`
	SubDistrict         string            `json:"subDistrict" validate:"required"`
	Address             string            `json:"address" validate:"required,notblank"`
	FamilyMembers       int               `json:"familyMembers" validate:"gte=0"`
	FatherName          string            `json:"fatherName" validate:"required,notblank"`
	MotherName          string            `json:"motherName" validate:"required,notblank"`
	EconomicCondition   string            `json:"economicCondition" validate:"required,oneof=below-poverty lower-income middle-income upper-middle high-income"`
	Profession          string            `json:"profession" validate:"required,oneof=student business service agriculture day-laborer housewife unemployed other"`
	InstitutionName     string            `json:"institutionName"`
	Status              string            `json:"status" validate:"required,oneof=deceased injured missing"`
	CauseOfDeath        string            `json:"causeOfDeath"`
	CauseOfInjury       string            `json:"causeOfInjury"`
	IncidentPlace       string            `json:"incidentPlace" validate:"required,notblank"`
	Description         string            `json:"description" validate:"required,notblank"`
	Image               string            `json:"image" validate:"omitempty,url"`
	SupportingDocuments []models.Document `json:"supportingDocuments"`
	Applicant           models.Applicant  `json:"applicant"`
}

// parseDate accepts a calendar date or a full RFC 3339 timestamp
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, apperrors.Wrap(err, apperrors.ValidationError, "dateOfBirth must be a date like 2006-01-02")
	}
	return t.UTC(), nil
}

// victimUpload holds the files of a multipart victim submission
type victimUpload struct {
	image *multipart.FileHeader
	docs  []*multipart.FileHeader
}

// readVictim reads the victim from a JSON body or from a multipart form
func readVictim(r *http.Request) (VictimInput, victimUpload, error) {
	var (
		in    VictimInput
		files victimUpload
	)
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err := decodeJSON(r, &in)
		return in, files, err
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return in, files, apperrors.Wrap(err, apperrors.ValidationError, "failed to parse multipart form")
	}
	data := r.FormValue("data")
	if data == "" {
		return in, files, apperrors.New(apperrors.ValidationError, "data is required")
	}
	if err := json.Unmarshal([]byte(data), &in); err != nil {
		return in, files, apperrors.Wrap(err, apperrors.ValidationError, "failed to decode data")
	}
	if err := validate.Struct(in); err != nil {
		return in, files, err
	}
	if fhs := r.MultipartForm.File["victimImage"]; len(fhs) > 0 {
		files.image = fhs[0]
	}
	files.docs = r.MultipartForm.File["supportingDocs"]
	return in, files, nil
}

func uploadFile(ctx context.Context, u storage.Uploader, folder string, fh *multipart.FileHeader) (storage.Object, error) {
	f, err := fh.Open()
	if err != nil {
		return storage.Object{}, errors.Wrapf(err, "open %s", fh.Filename)
	}
	defer f.Close()
	return u.Upload(ctx, folder, storage.File{Name: fh.Filename, ContentType: fh.Header.Get("Content-Type"), Body: f})
}

// cleanup removes uploaded objects of a failed request, logging what it could not remove
func cleanup(ctx context.Context, u storage.Uploader, objects []storage.Object) {
	for _, err := range storage.Cleanup(ctx, u, objects) {
		zap.S().Warnw("failed to remove orphaned upload", "error", err)
	}
}

// upload stores the image and documents of a submission. Nothing stays
// behind when one of them fails.
func (v Victim) upload(ctx context.Context, files victimUpload, victim *models.Victim) ([]storage.Object, error) {
	var stored []storage.Object
	fail := func(err error) ([]storage.Object, error) {
		cleanup(ctx, v.Storage, stored)
		return nil, apperrors.Wrap(err, apperrors.Internal, "failed to upload files")
	}

	if files.image != nil {
		obj, err := uploadFile(ctx, v.Storage, storage.FolderVictimImages, files.image)
		if err != nil {
			return fail(err)
		}
		stored = append(stored, obj)
		victim.Image = obj.URL
	}
	for _, fh := range files.docs {
		obj, err := uploadFile(ctx, v.Storage, storage.FolderVictimDocuments, fh)
		if err != nil {
			return fail(err)
		}
		stored = append(stored, obj)
		victim.SupportingDocuments = append(victim.SupportingDocuments, models.Document{
			Name: fh.Filename,
			Type: fh.Header.Get("Content-Type"),
			URL:  obj.URL,
		})
	}
	return stored, nil
}

// CreateVictimHandler registers a victim for verification
func (v Victim) CreateVictimHandler(w http.ResponseWriter, r *http.Request) {
	in, files, err := readVictim(r)
	if err != nil {
		writeError(w, err)
		return
	}
	in.District, in.SubDistrict = strings.TrimSpace(in.District), strings.TrimSpace(in.SubDistrict)
	if err := location(v.Directory, in.District, in.SubDistrict); err != nil {
		writeError(w, err)
		return
	}
	dob, err := parseDate(in.DateOfBirth)
	if err != nil {
		writeError(w, err)
		return
	}

	now := v.now()
	victim := models.Victim{
		ID:                  primitive.NewObjectID(),
		FullName:            strings.TrimSpace(in.FullName),
		Age:                 in.Age,
		Gender:              in.Gender,
		DateOfBirth:         dob,
		NationalID:          strings.TrimSpace(in.NationalID),
		District:            in.District,
		SubDistrict:         in.SubDistrict,
		Address:             strings.TrimSpace(in.Address),
		FamilyMembers:       in.FamilyMembers,
		FatherName:          strings.TrimSpace(in.FatherName),
		MotherName:          strings.TrimSpace(in.MotherName),
		EconomicCondition:   in.EconomicCondition,
		Profession:          in.Profession,
		InstitutionName:     strings.TrimSpace(in.InstitutionName),
		Status:              in.Status,
		CauseOfDeath:        strings.TrimSpace(in.CauseOfDeath),
		CauseOfInjury:       strings.TrimSpace(in.CauseOfInjury),
		IncidentPlace:       strings.TrimSpace(in.IncidentPlace),
		Description:         strings.TrimSpace(in.Description),
		Image:               in.Image,
		SupportingDocuments: append([]models.Document{}, in.SupportingDocuments...),
		VerificationStatus:  models.StatusPending,
		UnoVerification:     models.PendingReview(),
		AdminVerification:   models.PendingReview(),
		Applicant:           in.Applicant,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	stored, err := v.upload(r.Context(), files, &victim)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	seq, err := v.Counters.Next(ctx, fmt.Sprintf("victim-%d", now.Year()))
	if err != nil {
		cleanup(r.Context(), v.Storage, stored)
		writeError(w, err)
		return
	}
	victim.VictimID = fmt.Sprintf("VIC-%d-%06d", now.Year(), seq)

	if err := v.DB.InsertOne(ctx, victim); err != nil {
		cleanup(r.Context(), v.Storage, stored)
		if mongo.IsDuplicateKeyError(err) {
			writeError(w, apperrors.Wrap(err, apperrors.Conflict, "a victim with this national id already exists"))
			return
		}
		writeError(w, err)
		return
	}
	zap.S().Infow("victim registered", "victim", victim.VictimID, "district", victim.District, "subDistrict", victim.SubDistrict)
	writeJSON(w, http.StatusCreated, victim)
}

// requireArea rejects officers that have no assigned area yet
func requireArea(actor models.Actor) error {
	if actor.Is(models.RoleOfficer) && (actor.District == "" || actor.SubDistrict == "") {
		return apperrors.New(apperrors.IncompleteProfile, "officer account has no assigned area")
	}
	return nil
}

// VictimsHandler lists the victims visible to the caller
func (v Victim) VictimsHandler(w http.ResponseWriter, r *http.Request) {
	actor := api.ActorFrom(r.Context())
	if err := requireArea(actor); err != nil {
		writeError(w, err)
		return
	}
	filter := verification.Filter(actor, r.URL.Query().Get("status"), verification.VictimStore{}.StatusField())
	limit, page := pageParams(r)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	victims, err := v.DB.Find(ctx, filter, databases.Paginate(limit, page))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, victims)
}

func (v Victim) find(ctx context.Context, idOrCode string) (*models.Victim, error) {
	victim, err := v.DB.FindByIDOrCode(ctx, idOrCode)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.Wrap(err, apperrors.NotFound, "victim not found")
		}
		return nil, err
	}
	return victim, nil
}

// VictimByIDHandler returns a victim by id or victim code. Records the caller
// may not see are reported as missing.
func (v Victim) VictimByIDHandler(w http.ResponseWriter, r *http.Request) {
	actor := api.ActorFrom(r.Context())

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	victim, err := v.find(ctx, mux.Vars(r)["victim_id"])
	if err != nil {
		writeError(w, err)
		return
	}
	if !verification.CanView(actor, verification.Target{District: victim.District, SubDistrict: victim.SubDistrict, Status: victim.VerificationStatus}) {
		writeError(w, apperrors.New(apperrors.NotFound, "victim not found"))
		return
	}
	writeJSON(w, http.StatusOK, victim)
}

// VerifyVictimHandler applies an officer or admin decision to a victim
func (v Victim) VerifyVictimHandler(w http.ResponseWriter, r *http.Request) {
	actor := api.ActorFrom(r.Context())

	var d verification.Decision
	if err := decodeJSON(r, &d); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	victim, err := v.find(ctx, mux.Vars(r)["victim_id"])
	if err != nil {
		writeError(w, err)
		return
	}
	if _, err := v.Verifier.Decide(ctx, verification.VictimStore{DB: v.DB}, victim.ID, actor, d); err != nil {
		writeError(w, err)
		return
	}

	updated, err := v.DB.FindOne(ctx, bson.M{"_id": victim.ID})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// FinancialSupportHandler returns what a victim has received so far
func (v Victim) FinancialSupportHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	support, err := v.Ledger.FinancialSupport(ctx, mux.Vars(r)["victim_id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, support)
}
