package databases

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/linesmerrill/relief-portal-api/models"
)

// EnsureHeadAdmin creates the head admin account when it does not exist yet.
// It is a no-op when email or password is empty.
func EnsureHeadAdmin(ctx context.Context, users UserDatabase, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}

	_, err := users.FindByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash head admin password")
	}

	now := time.Now().UTC()
	admin := models.User{
		ID:               primitive.NewObjectID(),
		Username:         "head_admin",
		Email:            email,
		Password:         string(hash),
		Role:             models.RoleAdmin,
		FullName:         "Head Admin",
		ProfileCompleted: true,
		Status:           models.UserActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := users.InsertOne(ctx, admin); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return err
	}
	zap.S().Infow("created head admin", "email", email)
	return nil
}

// ResetPassword replaces the password of the account registered under email
// and reactivates it. An unknown email is reported as mongo.ErrNoDocuments.
func ResetPassword(ctx context.Context, users UserDatabase, email, password string) error {
	if len(password) < 6 {
		return errors.New("password must be at least 6 characters")
	}
	user, err := users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}
	_, err = users.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": bson.M{
		"password":  string(hash),
		"status":    models.UserActive,
		"updatedAt": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	zap.S().Infow("password reset", "user", user.ID.Hex(), "role", user.Role)
	return nil
}
