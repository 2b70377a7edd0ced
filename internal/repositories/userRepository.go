package repositories

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tagly/internal/database"
	"tagly/internal/models"
	"tagly/internal/utils"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByNameOrEmail(ctx context.Context, name, email string) (*models.User, error)
	FindPage(ctx context.Context, filter bson.M, sort bson.D, page, pageSize int64) ([]models.User, int64, error)
	FindAll(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, userID primitive.ObjectID, updateFields bson.M) (*mongo.UpdateResult, error)
	Delete(ctx context.Context, userID primitive.ObjectID) (*mongo.DeleteResult, error)
	AddTagsToSet(ctx context.Context, userID primitive.ObjectID, tagIDs []primitive.ObjectID) (*mongo.UpdateResult, error)
	PullTag(ctx context.Context, userID, tagID primitive.ObjectID) (*mongo.UpdateResult, error)
	CountByTag(ctx context.Context, tagID primitive.ObjectID) (int64, error)
	Count(ctx context.Context, filter bson.M) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

type userRepository struct {
	db database.Service
}

func NewUserRepository(db database.Service) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) collection() *mongo.Collection {
	return r.db.Database().Collection("users")
}

func queryTimer(queryType string, status *string) *prometheus.Timer {
	return prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		utils.DBQueryDurationSeconds.WithLabelValues(queryType, "user", *status).Observe(v)
	}))
}

func (r *userRepository) EnsureIndexes(ctx context.Context) error {
	if err := utils.CreateUniqueIndex(ctx, r.collection(), bson.M{"name": 1}, "Name"); err != nil {
		return err
	}
	return utils.CreateUniqueIndex(ctx, r.collection(), bson.M{"email": 1}, "Email")
}

func (r *userRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	queryType := "create"
	status := "success"
	defer queryTimer(queryType, &status).ObserveDuration()

	_, err := r.collection().InsertOne(ctx, user)
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, "user").Inc()
		if mongo.IsDuplicateKeyError(err) {
			return nil, err
		}
		log.Error().Err(err).Str("email", user.Email).Msg("Failed to insert user into database")
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (r *userRepository) FindByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	queryType := "findById"
	status := "success"
	defer queryTimer(queryType, &status).ObserveDuration()

	var user models.User
	err := r.collection().FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, "user").Inc()
		return nil, err // Can be mongo.ErrNoDocuments
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	queryType := "findByEmail"
	status := "success"
	defer queryTimer(queryType, &status).ObserveDuration()

	var user models.User
	err := r.collection().FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, "user").Inc()
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByNameOrEmail(ctx context.Context, name, email string) (*models.User, error) {
	queryType := "findByNameOrEmail"
	status := "success"
	defer queryTimer(queryType, &status).ObserveDuration()

	filter := bson.M{"$or": bson.A{bson.M{"name": name}, bson.M{"email": email}}}
	var user models.User
	err := r.collection().FindOne(ctx, filter).Decode(&user)
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, "user").Inc()
		return nil, err
	}
	return &user, nil
}

// FindPage returns one page of users matching filter with the given sort,
// together with the total match count.
func (r *userRepository) FindPage(ctx context.Context, filter bson.M, sort bson.D, page, pageSize int64) ([]models.User, int64, error) {
	queryType := "findPage"
	status := "success"
	defer queryTimer(queryType, &status).ObserveDuration()

	skip := (page - 1) * pageSize
	opts := options.Find().SetSort(sort).SetSkip(skip).SetLimit(pageSize)

	cursor, err := r.collection().Find(ctx, filter, opts)
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, "user").Inc()
		return nil, 0, fmt.Errorf("failed to retrieve users: %w", err)
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, "user").Inc()
		return nil, 0, fmt.Errorf("error decoding users: %w", err)
	}

	total, err := r.collection().CountDocuments(ctx, filter)
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, "user").Inc()
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}
	return users, total, nil
}

// FindAll streams every user document. Only the popularity aggregation
// uses this; it is the one unbounded full scan in the system.
func (r *userRepository) FindAll(ctx context.Context) ([]models.User, error) {
	queryType := "findAll"
	status := "success"
	defer queryTimer(queryType, &status).ObserveDuration()

	cursor, err := r.collection().Find(ctx, bson.M{})
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, "user").Inc()
		return nil, fmt.Errorf("failed to retrieve users: %w", err)
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, "user").Inc()
		return nil, fmt.Errorf("error decoding users: %w", err)
	}
	return users, nil
}

func (r *userRepository) Update(ctx context.Context, userID primitive.ObjectID, updateFields bson.M) (*mongo.UpdateResult, error) {
	queryType := "update"
	status := "success"
	defer queryTimer(queryType, &status).ObserveDuration()

	update := bson.M{"$set": updateFields}
	result, err := r.collection().UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, "user").Inc()
		log.Error().Err(err).Str("user_id", userID.Hex()).Msg("Error updating user")
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return result, nil
}

func (r *userRepository) Delete(ctx context.Context, userID primitive.ObjectID) (*mongo.DeleteResult, error) {
	queryType := "delete"
	status := "success"
	defer queryTimer(queryType, &status).ObserveDuration()

	result, err := r.collection().DeleteOne(ctx, bson.M{"_id": userID})
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, "user").Inc()
		log.Error().Err(err).Str("user_id", userID.Hex()).Msg("Error deleting user")
		return nil, fmt.Errorf("failed to delete user: %w", err)
	}
	return result, nil
}

// AddTagsToSet adds tag ids to the user's tags array with $addToSet, so
// ids already present are not duplicated.
func (r *userRepository) AddTagsToSet(ctx context.Context, userID primitive.ObjectID, tagIDs []primitive.ObjectID) (*mongo.UpdateResult, error) {
	queryType := "addTagsToSet"
	status := "success"
	defer queryTimer(queryType, &status).ObserveDuration()

	update := bson.M{"$addToSet": bson.M{"tags": bson.M{"$each": tagIDs}}}
	result, err := r.collection().UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, "user").Inc()
		log.Error().Err(err).Str("user_id", userID.Hex()).Msg("Error adding tags to user")
		return nil, fmt.Errorf("failed to add tags to user: %w", err)
	}
	return result, nil
}

func (r *userRepository) PullTag(ctx context.Context, userID, tagID primitive.ObjectID) (*mongo.UpdateResult, error) {
	queryType := "pullTag"
	status := "success"
	defer queryTimer(queryType, &status).ObserveDuration()

	update := bson.M{"$pull": bson.M{"tags": tagID}}
	result, err := r.collection().UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, "user").Inc()
		log.Error().Err(err).Str("user_id", userID.Hex()).Msg("Error removing tag from user")
		return nil, fmt.Errorf("failed to remove tag from user: %w", err)
	}
	return result, nil
}

func (r *userRepository) CountByTag(ctx context.Context, tagID primitive.ObjectID) (int64, error) {
	queryType := "countByTag"
	status := "success"
	defer queryTimer(queryType, &status).ObserveDuration()

	count, err := r.collection().CountDocuments(ctx, bson.M{"tags": tagID})
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, "user").Inc()
		return 0, fmt.Errorf("failed to count users by tag: %w", err)
	}
	return count, nil
}

func (r *userRepository) Count(ctx context.Context, filter bson.M) (int64, error) {
	queryType := "count"
	status := "success"
	defer queryTimer(queryType, &status).ObserveDuration()

	count, err := r.collection().CountDocuments(ctx, filter)
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, "user").Inc()
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
