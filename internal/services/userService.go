package services

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"tagly/internal/metrics"
	"tagly/internal/models"
	"tagly/internal/repositories"
)

// UserService defines the user-related business logic.
type UserService interface {
	RegisterUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUser(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	ListUsers(ctx context.Context, page, pageSize int64) (*models.UserPage, error)
	UpdateUser(ctx context.Context, userID primitive.ObjectID, payload models.UserUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	SetHidden(ctx context.Context, userID primitive.ObjectID, hidden bool) (*models.User, error)
	Login(ctx context.Context, creds models.Credentials) (*models.User, error)
	CountVisible(ctx context.Context) (int64, error)
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type userService struct {
	userRepo repositories.UserRepository
}

func NewUserService(userRepo repositories.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) RegisterUser(ctx context.Context, user *models.User) (*models.User, error) {
	log.Debug().Str("email", user.Email).Msg("Attempting to register user")
	if user.Name == "" || user.Email == "" || user.Password == "" || user.BirthDate.IsZero() {
		return nil, fmt.Errorf("%w: name, email, password and birth date are required", ErrMissingFields)
	}
	if !emailPattern.MatchString(user.Email) {
		return nil, ErrInvalidEmail
	}
	if len(user.Password) < 8 {
		log.Warn().Str("email", user.Email).Msg("Password shorter than 8 characters")
		return nil, ErrWeakPassword
	}

	existing, err := s.userRepo.FindByNameOrEmail(ctx, user.Name, user.Email)
	if err != nil && err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("failed to check user identity: %w", err)
	}
	if existing != nil {
		log.Warn().Str("email", user.Email).Msg("Name or email already in use")
		return nil, ErrDuplicateIdentity
	}

	user.ID = primitive.NewObjectID()
	if user.Tags == nil {
		user.Tags = []primitive.ObjectID{}
	}

	created, err := s.userRepo.Create(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateIdentity
		}
		return nil, err
	}

	metrics.NewUsersTotal.Inc()
	log.Info().Str("user_id", created.ID.Hex()).Str("email", created.Email).Msg("User registered")
	return created, nil
}

// GetUser returns the user augmented with a derived age, or (nil, nil)
// when the id does not resolve.
func (s *userService) GetUser(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	user.Age = deriveAge(user.BirthDate)
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context, page, pageSize int64) (*models.UserPage, error) {
	sort := bson.D{{Key: "is_hidden", Value: 1}} // visible users first
	users, total, err := s.userRepo.FindPage(ctx, bson.M{}, sort, page, pageSize)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list users")
		return nil, err
	}
	return &models.UserPage{
		Users:       users,
		TotalUsers:  total,
		TotalPages:  totalPages(total, pageSize),
		CurrentPage: page,
		PageSize:    pageSize,
	}, nil
}

// UpdateUser applies a partial update. Name and email uniqueness is NOT
// re-checked here; updates can observably collide until the unique index
// rejects the write. This mirrors the original system's behavior.
func (s *userService) UpdateUser(ctx context.Context, userID primitive.ObjectID, payload models.UserUpdate) (*models.User, error) {
	log.Debug().Str("user_id", userID.Hex()).Msg("Attempting to update user")

	updateFields := bson.M{}
	if payload.Name != nil {
		updateFields["name"] = *payload.Name
	}
	if payload.BirthDate != nil {
		updateFields["birth_date"] = *payload.BirthDate
	}
	if payload.Email != nil {
		updateFields["email"] = *payload.Email
	}
	if payload.Password != nil {
		updateFields["password"] = *payload.Password
	}
	if payload.IsAdmin != nil {
		updateFields["is_admin"] = *payload.IsAdmin
	}
	if payload.IsHidden != nil {
		updateFields["is_hidden"] = *payload.IsHidden
	}
	if len(updateFields) == 0 {
		return nil, ErrNoFieldsToUpdate
	}

	result, err := s.userRepo.Update(ctx, userID, updateFields)
	if err != nil {
		return nil, err
	}
	if result.MatchedCount == 0 {
		return nil, nil
	}

	updated, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve the updated user: %w", err)
	}
	log.Info().Str("user_id", userID.Hex()).Msg("User updated")
	return updated, nil
}

// DeleteUser hard-deletes the user. Tag back-references are untouched;
// there is no cascade.
func (s *userService) DeleteUser(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	result, err := s.userRepo.Delete(ctx, userID)
	if err != nil {
		return nil, err
	}
	if result.DeletedCount == 0 {
		return nil, nil
	}
	log.Info().Str("user_id", userID.Hex()).Msg("User deleted")
	return user, nil
}

func (s *userService) SetHidden(ctx context.Context, userID primitive.ObjectID, hidden bool) (*models.User, error) {
	result, err := s.userRepo.Update(ctx, userID, bson.M{"is_hidden": hidden})
	if err != nil {
		return nil, err
	}
	if result.MatchedCount == 0 {
		return nil, nil
	}

	updated, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve the updated user: %w", err)
	}
	log.Info().Str("user_id", userID.Hex()).Bool("is_hidden", hidden).Msg("User visibility changed")
	return updated, nil
}

// Login compares the stored plaintext password byte-for-byte. Passwords
// are not hashed anywhere in this system; that weakness is inherited
// deliberately, not an oversight.
func (s *userService) Login(ctx context.Context, creds models.Credentials) (*models.User, error) {
	log.Debug().Str("email", creds.Email).Msg("Attempting login")
	user, err := s.userRepo.FindByEmail(ctx, creds.Email)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			metrics.LoginAttemptsTotal.WithLabelValues("failed").Inc()
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	if user.IsHidden {
		metrics.LoginAttemptsTotal.WithLabelValues("failed").Inc()
		log.Warn().Str("email", creds.Email).Msg("Hidden user attempted login")
		return nil, ErrHiddenUser
	}

	if user.Password != creds.Password {
		metrics.LoginAttemptsTotal.WithLabelValues("failed").Inc()
		log.Warn().Str("email", creds.Email).Msg("Password mismatch")
		return nil, ErrInvalidCredentials
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	log.Info().Str("user_id", user.ID.Hex()).Msg("User logged in")
	return user, nil
}

func (s *userService) CountVisible(ctx context.Context) (int64, error) {
	return s.userRepo.Count(ctx, bson.M{"is_hidden": false})
}

// deriveAge reproduces the original epoch-year arithmetic: whole years of
// the now-birthDate difference, absolute value. It can be off by one near
// leap-year boundaries.
func deriveAge(birthDate time.Time) int {
	if birthDate.IsZero() {
		return 0
	}
	diff := time.Now().UnixMilli() - birthDate.UnixMilli()
	age := time.UnixMilli(diff).UTC().Year() - 1970
	if age < 0 {
		age = -age
	}
	return age
}
