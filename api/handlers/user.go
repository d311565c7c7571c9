package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/linesmerrill/relief-portal-api/api"
	"github.com/linesmerrill/relief-portal-api/apperrors"
	"github.com/linesmerrill/relief-portal-api/databases"
	"github.com/linesmerrill/relief-portal-api/jurisdiction"
	"github.com/linesmerrill/relief-portal-api/models"
)

// User exported for testing purposes
type User struct {
	DB            databases.UserDatabase
	Nominees      databases.NomineeDatabase
	Victims       databases.VictimDatabase
	Sessions      *api.SessionManager
	Directory     jurisdiction.Directory
	OfficerDomain string
	Now           func() time.Time
}

func (u User) now() time.Time {
	if u.Now != nil {
		return u.Now()
	}
	return time.Now().UTC()
}

// SignupRequest is the body of a new account
type SignupRequest struct {
	FullName string `json:"fullName" validate:"required,notblank"`
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=donor nominee"`
}

// CompleteProfileRequest is the body of a profile completion. The victim,
// relationship and bank details are only used for nominees.
type CompleteProfileRequest struct {
	FullName     string              `json:"fullName" validate:"required,notblank"`
	Phone        string              `json:"phone" validate:"required,phone"`
	NID          string              `json:"nid" validate:"required,notblank"`
	District     string              `json:"district" validate:"required"`
	SubDistrict  string              `json:"subDistrict" validate:"required"`
	Address      string              `json:"address"`
	ProfileImage string              `json:"profileImage" validate:"omitempty,url"`
	VictimID     string              `json:"victimId"`
	Relationship string              `json:"relationship"`
	BankDetails  *models.BankDetails `json:"bankDetails"`
}

// ProvisionOfficerRequest is the body of a new officer account
type ProvisionOfficerRequest struct {
	District    string `json:"district" validate:"required"`
	SubDistrict string `json:"subDistrict" validate:"required"`
	Password    string `json:"password" validate:"required,min=6"`
}

// ProfileResponse is the caller's account, with the nominee profile for nominees
type ProfileResponse struct {
	models.User
	Nominee *models.Nominee `json:"nominee,omitempty"`
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}
	return string(hash), nil
}

// insertUser stores doc, reporting any unique index violation as conflictMsg
func (u User) insertUser(ctx context.Context, doc models.User, conflictMsg string) error {
	err := u.DB.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return apperrors.Wrap(err, apperrors.Conflict, conflictMsg)
	}
	return err
}

// SignupHandler creates a donor or nominee account
func (u User) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Role == "" {
		req.Role = models.RoleDonor
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	count, err := u.DB.CountDocuments(ctx, bson.M{"$or": bson.A{bson.M{"email": email}, bson.M{"username": username}}})
	if err != nil {
		writeError(w, err)
		return
	}
	if count > 0 {
		writeError(w, apperrors.New(apperrors.Conflict, "a user with this email or username already exists"))
		return
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	now := u.now()
	user := models.User{
		ID:        primitive.NewObjectID(),
		Username:  username,
		Email:     email,
		Password:  hash,
		Role:      req.Role,
		FullName:  strings.TrimSpace(req.FullName),
		Status:    models.UserActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.insertUser(ctx, user, "a user with this email or username already exists"); err != nil {
		writeError(w, err)
		return
	}
	zap.S().Infow("user signed up", "user", user.ID.Hex(), "role", user.Role)
	writeJSON(w, http.StatusCreated, user)
}

// UsersHandler lists accounts, optionally filtered by role and status
func (u User) UsersHandler(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{}
	if role := r.URL.Query().Get("role"); role != "" {
		filter["role"] = role
	}
	if status := r.URL.Query().Get("status"); status != "" {
		filter["status"] = status
	}
	limit, page := pageParams(r)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	users, err := u.DB.Find(ctx, filter, databases.Paginate(limit, page))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// ProfileHandler returns the caller's account
func (u User) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	actor := api.ActorFrom(r.Context())

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	resp, err := u.profile(ctx, actor.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (u User) profile(ctx context.Context, id primitive.ObjectID) (*ProfileResponse, error) {
	user, err := u.DB.FindOne(ctx, bson.M{"_id": id})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.Wrap(err, apperrors.NotFound, "user not found")
		}
		return nil, err
	}
	resp := &ProfileResponse{User: *user}
	if user.Role == models.RoleNominee {
		nominee, err := u.Nominees.FindByUserID(ctx, user.ID)
		switch {
		case err == nil:
			resp.Nominee = nominee
		case !errors.Is(err, mongo.ErrNoDocuments):
			return nil, err
		}
	}
	return resp, nil
}

// CompleteProfileHandler fills in the caller's profile. Nominees also submit
// their victim link and bank details, which (re)starts their verification.
func (u User) CompleteProfileHandler(w http.ResponseWriter, r *http.Request) {
	actor := api.ActorFrom(r.Context())

	var req CompleteProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	req.District = strings.TrimSpace(req.District)
	req.SubDistrict = strings.TrimSpace(req.SubDistrict)
	if err := location(u.Directory, req.District, req.SubDistrict); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := u.DB.FindOne(ctx, bson.M{"_id": actor.ID})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			writeError(w, apperrors.Wrap(err, apperrors.NotFound, "user not found"))
			return
		}
		writeError(w, err)
		return
	}
	if user.Role == models.RoleOfficer && !jurisdiction.Same(user.District, user.SubDistrict, req.District, req.SubDistrict) {
		writeError(w, apperrors.New(apperrors.Unauthorized, "officers cannot change their assigned area"))
		return
	}

	now := u.now()
	if user.Role == models.RoleNominee {
		if err := u.upsertNominee(ctx, user, req, now); err != nil {
			writeError(w, err)
			return
		}
	}

	set := bson.M{
		"fullName":         strings.TrimSpace(req.FullName),
		"phone":            strings.TrimSpace(req.Phone),
		"nid":              strings.TrimSpace(req.NID),
		"district":         req.District,
		"subDistrict":      req.SubDistrict,
		"address":          strings.TrimSpace(req.Address),
		"profileCompleted": true,
		"updatedAt":        now,
	}
	if req.ProfileImage != "" {
		set["profileImage"] = req.ProfileImage
	}
	if _, err := u.DB.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": set}); err != nil {
		writeError(w, err)
		return
	}

	resp, err := u.profile(ctx, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	// the session carries profileCompleted and the area, so it is reissued
	token, exp, err := u.Sessions.Issue(resp.User)
	if err != nil {
		writeError(w, err)
		return
	}
	u.Sessions.SetCookie(w, token, exp)
	writeJSON(w, http.StatusOK, resp)
}

// upsertNominee writes the nominee profile of user from req and puts it back
// into pending review
func (u User) upsertNominee(ctx context.Context, user *models.User, req CompleteProfileRequest, now time.Time) error {
	if strings.TrimSpace(req.VictimID) == "" || strings.TrimSpace(req.Relationship) == "" {
		return apperrors.New(apperrors.ValidationError, "victimId and relationship are required for nominees")
	}
	if req.BankDetails == nil {
		return apperrors.New(apperrors.ValidationError, "bank details (full name, account number and branch name) are required for nominees")
	}
	if err := validate.Struct(req.BankDetails); err != nil {
		return err
	}

	victim, err := u.Victims.FindByIDOrCode(ctx, strings.TrimSpace(req.VictimID))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperrors.Wrap(err, apperrors.NotFound, "victim not found")
		}
		return err
	}

	set := bson.M{
		"victimId":          victim.ID,
		"victimCode":        victim.VictimID,
		"name":              strings.TrimSpace(req.FullName),
		"nid":               strings.TrimSpace(req.NID),
		"phone":             strings.TrimSpace(req.Phone),
		"email":             user.Email,
		"address":           strings.TrimSpace(req.Address),
		"relationship":      strings.TrimSpace(req.Relationship),
		"bankDetails":       *req.BankDetails,
		"district":          req.District,
		"subDistrict":       req.SubDistrict,
		"status":            models.StatusPending,
		"unoVerification":   models.PendingReview(),
		"adminVerification": models.PendingReview(),
		"updatedAt":         now,
	}
	if req.ProfileImage != "" {
		set["profileImage"] = req.ProfileImage
	}

	officer, err := u.DB.FindOne(ctx, bson.M{"role": models.RoleOfficer, "district": req.District, "subDistrict": req.SubDistrict})
	switch {
	case err == nil:
		set["assignedUno"] = models.AssignedUno{UnoID: officer.ID, District: officer.District, SubDistrict: officer.SubDistrict}
	case errors.Is(err, mongo.ErrNoDocuments):
		zap.S().Warnw("no officer for nominee area", "district", req.District, "subDistrict", req.SubDistrict)
	default:
		return err
	}

	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"_id": primitive.NewObjectID(), "documents": []models.Document{}, "createdAt": now},
	}
	if _, err := u.Nominees.UpdateOne(ctx, bson.M{"userId": user.ID}, update, options.Update().SetUpsert(true)); err != nil {
		return err
	}
	zap.S().Infow("nominee profile submitted", "user", user.ID.Hex(), "victim", victim.VictimID)
	return nil
}

// ProvisionOfficerHandler creates the officer account of a sub-district
func (u User) ProvisionOfficerHandler(w http.ResponseWriter, r *http.Request) {
	var req ProvisionOfficerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	district, subDistrict := strings.TrimSpace(req.District), strings.TrimSpace(req.SubDistrict)
	if err := location(u.Directory, district, subDistrict); err != nil {
		writeError(w, err)
		return
	}

	username := fmt.Sprintf("uno_%s_%s", jurisdiction.Slug(district), jurisdiction.Slug(subDistrict))
	email := username + "@" + u.OfficerDomain
	const conflictMsg = "UNO account already exists for this upazila"

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	count, err := u.DB.CountDocuments(ctx, bson.M{"$or": bson.A{
		bson.M{"email": email},
		bson.M{"username": username},
		bson.M{"role": models.RoleOfficer, "district": district, "subDistrict": subDistrict},
	}})
	if err != nil {
		writeError(w, err)
		return
	}
	if count > 0 {
		writeError(w, apperrors.New(apperrors.Conflict, conflictMsg))
		return
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	now := u.now()
	officer := models.User{
		ID:               primitive.NewObjectID(),
		Username:         username,
		Email:            email,
		Password:         hash,
		Role:             models.RoleOfficer,
		FullName:         fmt.Sprintf("UNO %s %s", district, subDistrict),
		District:         district,
		SubDistrict:      subDistrict,
		Status:           models.UserActive,
		ProfileCompleted: true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := u.insertUser(ctx, officer, conflictMsg); err != nil {
		writeError(w, err)
		return
	}
	zap.S().Infow("officer provisioned", "user", officer.ID.Hex(), "district", district, "subDistrict", subDistrict)
	writeJSON(w, http.StatusCreated, officer)
}

// OfficersHandler lists every officer account, newest first
func (u User) OfficersHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	officers, err := u.DB.Find(ctx, bson.M{"role": models.RoleOfficer}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, officers)
}
