package repositories

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tagly/internal/database"
	"tagly/internal/models"
	"tagly/internal/utils"
)

type TagRepository interface {
	Create(ctx context.Context, tag *models.Tag) (*models.Tag, error)
	FindByID(ctx context.Context, tagID primitive.ObjectID) (*models.Tag, error)
	FindByName(ctx context.Context, name string) (*models.Tag, error)
	FindAnotherByName(ctx context.Context, name string, excludeID primitive.ObjectID) (*models.Tag, error)
	FindByIDs(ctx context.Context, tagIDs []primitive.ObjectID) ([]models.Tag, error)
	FindPage(ctx context.Context, filter bson.M, page, pageSize int64) ([]models.Tag, int64, error)
	Update(ctx context.Context, tagID primitive.ObjectID, updateFields bson.M) (*mongo.UpdateResult, error)
	Delete(ctx context.Context, tagID primitive.ObjectID) (*mongo.DeleteResult, error)
	EnsureIndexes(ctx context.Context) error
}

type tagRepository struct {
	db database.Service
}

func NewTagRepository(db database.Service) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) collection() *mongo.Collection {
	return r.db.Database().Collection("tags")
}

// EnsureIndexes creates the unique index on tag name. Uniqueness must hold
// at the storage layer so concurrent attach-by-name calls cannot race two
// tags with the same name past the service-level existence check.
func (r *tagRepository) EnsureIndexes(ctx context.Context) error {
	return utils.CreateUniqueIndex(ctx, r.collection(), bson.M{"name": 1}, "Name")
}

func (r *tagRepository) Create(ctx context.Context, tag *models.Tag) (*models.Tag, error) {
	_, err := r.collection().InsertOne(ctx, tag)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, err
		}
		log.Error().Err(err).Str("tag_name", tag.Name).Msg("Failed to insert tag")
		return nil, fmt.Errorf("failed to insert tag: %w", err)
	}
	return tag, nil
}

func (r *tagRepository) FindByID(ctx context.Context, tagID primitive.ObjectID) (*models.Tag, error) {
	var tag models.Tag
	err := r.collection().FindOne(ctx, bson.M{"_id": tagID}).Decode(&tag)
	if err != nil {
		return nil, err // Can be mongo.ErrNoDocuments
	}
	return &tag, nil
}

func (r *tagRepository) FindByName(ctx context.Context, name string) (*models.Tag, error) {
	var tag models.Tag
	err := r.collection().FindOne(ctx, bson.M{"name": name}).Decode(&tag)
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

func (r *tagRepository) FindAnotherByName(ctx context.Context, name string, excludeID primitive.ObjectID) (*models.Tag, error) {
	var tag models.Tag
	filter := bson.M{"name": name, "_id": bson.M{"$ne": excludeID}}
	err := r.collection().FindOne(ctx, filter).Decode(&tag)
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

func (r *tagRepository) FindByIDs(ctx context.Context, tagIDs []primitive.ObjectID) ([]models.Tag, error) {
	tags := []models.Tag{}
	if len(tagIDs) == 0 {
		return tags, nil
	}
	cursor, err := r.collection().Find(ctx, bson.M{"_id": bson.M{"$in": tagIDs}})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tags: %w", err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, &tags); err != nil {
		return nil, fmt.Errorf("error decoding tags: %w", err)
	}
	return tags, nil
}

// FindPage returns one page of tags matching filter, ordered by name
// ascending, together with the total match count.
func (r *tagRepository) FindPage(ctx context.Context, filter bson.M, page, pageSize int64) ([]models.Tag, int64, error) {
	skip := (page - 1) * pageSize
	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetSkip(skip).
		SetLimit(pageSize)

	cursor, err := r.collection().Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve tags: %w", err)
	}
	defer cursor.Close(ctx)

	tags := []models.Tag{}
	if err := cursor.All(ctx, &tags); err != nil {
		return nil, 0, fmt.Errorf("error decoding tags: %w", err)
	}

	total, err := r.collection().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count tags: %w", err)
	}
	return tags, total, nil
}

func (r *tagRepository) Update(ctx context.Context, tagID primitive.ObjectID, updateFields bson.M) (*mongo.UpdateResult, error) {
	update := bson.M{"$set": updateFields}
	result, err := r.collection().UpdateOne(ctx, bson.M{"_id": tagID}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update tag: %w", err)
	}
	return result, nil
}

func (r *tagRepository) Delete(ctx context.Context, tagID primitive.ObjectID) (*mongo.DeleteResult, error) {
	result, err := r.collection().DeleteOne(ctx, bson.M{"_id": tagID})
	if err != nil {
		return nil, fmt.Errorf("failed to delete tag: %w", err)
	}
	return result, nil
}
