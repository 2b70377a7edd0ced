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

type TagService interface {
	CreateTag(ctx context.Context, payload models.TagCreate) (*models.Tag, error)
	GetTag(ctx context.Context, tagID primitive.ObjectID) (*models.Tag, error)
	ListTags(ctx context.Context, page, pageSize int64) (*models.TagPage, error)
	UpdateTag(ctx context.Context, tagID primitive.ObjectID, payload models.TagUpdate) (*models.Tag, error)
	DeleteTag(ctx context.Context, tagID primitive.ObjectID) (*models.Tag, error)
	SearchTags(ctx context.Context, query string, page, pageSize int64) (*models.TagPage, error)
}

type tagService struct {
	tagRepo  repositories.TagRepository
	userRepo repositories.UserRepository
}

// NewTagService creates a TagService. The user repository is consulted
// only on delete, to decide between soft and hard removal.
func NewTagService(tagRepo repositories.TagRepository, userRepo repositories.UserRepository) TagService {
	return &tagService{tagRepo: tagRepo, userRepo: userRepo}
}

func (s *tagService) CreateTag(ctx context.Context, payload models.TagCreate) (*models.Tag, error) {
	log.Debug().Str("tag_name", payload.Name).Msg("Attempting to create tag")
	if payload.Name == "" {
		return nil, fmt.Errorf("%w: name", ErrMissingFields)
	}

	existing, err := s.tagRepo.FindByName(ctx, payload.Name)
	if err != nil && err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("failed to check tag name: %w", err)
	}
	if existing != nil {
		log.Warn().Str("tag_name", payload.Name).Msg("Tag name already exists")
		return nil, ErrDuplicateTagName
	}

	isActive := true
	if payload.IsActive != nil {
		isActive = *payload.IsActive
	}
	tag := &models.Tag{
		ID:          primitive.NewObjectID(),
		Name:        payload.Name,
		Description: payload.Description,
		Category:    payload.Category,
		CreatedAt:   time.Now(),
		IsActive:    isActive,
	}

	created, err := s.tagRepo.Create(ctx, tag)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Lost a race with a concurrent creator; the unique index
			// saw it even though the pre-check did not.
			log.Warn().Str("tag_name", payload.Name).Msg("Tag name already exists (index)")
			return nil, ErrDuplicateTagName
		}
		return nil, err
	}

	metrics.TagCreatedTotal.Inc()
	log.Info().Str("tag_id", created.ID.Hex()).Str("tag_name", created.Name).Msg("Tag created")
	return created, nil
}

// GetTag returns (nil, nil) when the id does not resolve; it does not
// filter on is_active.
func (s *tagService) GetTag(ctx context.Context, tagID primitive.ObjectID) (*models.Tag, error) {
	tag, err := s.tagRepo.FindByID(ctx, tagID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch tag: %w", err)
	}
	return tag, nil
}

func (s *tagService) ListTags(ctx context.Context, page, pageSize int64) (*models.TagPage, error) {
	tags, total, err := s.tagRepo.FindPage(ctx, bson.M{"is_active": true}, page, pageSize)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list tags")
		return nil, err
	}
	return &models.TagPage{
		Tags:        tags,
		TotalTags:   total,
		TotalPages:  totalPages(total, pageSize),
		CurrentPage: page,
		PageSize:    pageSize,
	}, nil
}

func (s *tagService) UpdateTag(ctx context.Context, tagID primitive.ObjectID, payload models.TagUpdate) (*models.Tag, error) {
	log.Debug().Str("tag_id", tagID.Hex()).Msg("Attempting to update tag")

	updateFields := bson.M{}
	if payload.Name != nil {
		other, err := s.tagRepo.FindAnotherByName(ctx, *payload.Name, tagID)
		if err != nil && err != mongo.ErrNoDocuments {
			return nil, fmt.Errorf("failed to check tag name: %w", err)
		}
		if other != nil {
			log.Warn().Str("tag_name", *payload.Name).Msg("Another tag already has this name")
			return nil, ErrDuplicateTagName
		}
		updateFields["name"] = *payload.Name
	}
	if payload.Description != nil {
		updateFields["description"] = *payload.Description
	}
	if payload.Category != nil {
		updateFields["category"] = *payload.Category
	}
	if payload.IsActive != nil {
		updateFields["is_active"] = *payload.IsActive
	}
	if len(updateFields) == 0 {
		return nil, ErrNoFieldsToUpdate
	}

	result, err := s.tagRepo.Update(ctx, tagID, updateFields)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateTagName
		}
		log.Error().Err(err).Str("tag_id", tagID.Hex()).Msg("Failed to update tag")
		return nil, err
	}
	if result.MatchedCount == 0 {
		return nil, nil
	}

	updated, err := s.tagRepo.FindByID(ctx, tagID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve the updated tag: %w", err)
	}
	log.Info().Str("tag_id", tagID.Hex()).Msg("Tag updated")
	return updated, nil
}

// DeleteTag soft-deletes (is_active=false) when any user still references
// the tag, hard-deletes otherwise. Returns (nil, nil) when the tag is
// absent.
func (s *tagService) DeleteTag(ctx context.Context, tagID primitive.ObjectID) (*models.Tag, error) {
	log.Debug().Str("tag_id", tagID.Hex()).Msg("Attempting to delete tag")

	tag, err := s.tagRepo.FindByID(ctx, tagID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch tag: %w", err)
	}

	refs, err := s.userRepo.CountByTag(ctx, tagID)
	if err != nil {
		return nil, err
	}

	if refs > 0 {
		if _, err := s.tagRepo.Update(ctx, tagID, bson.M{"is_active": false}); err != nil {
			return nil, err
		}
		tag.IsActive = false
		log.Info().Str("tag_id", tagID.Hex()).Int64("references", refs).Msg("Tag soft-deleted, still referenced")
		return tag, nil
	}

	result, err := s.tagRepo.Delete(ctx, tagID)
	if err != nil {
		return nil, err
	}
	if result.DeletedCount == 0 {
		return nil, nil
	}
	log.Info().Str("tag_id", tagID.Hex()).Msg("Tag hard-deleted")
	return tag, nil
}

func (s *tagService) SearchTags(ctx context.Context, query string, page, pageSize int64) (*models.TagPage, error) {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	filter := bson.M{
		"is_active": true,
		"$or": bson.A{
			bson.M{"name": pattern},
			bson.M{"description": pattern},
			bson.M{"category": pattern},
		},
	}

	tags, total, err := s.tagRepo.FindPage(ctx, filter, page, pageSize)
	if err != nil {
		log.Error().Err(err).Str("query", query).Msg("Failed to search tags")
		return nil, err
	}
	return &models.TagPage{
		Tags:        tags,
		TotalTags:   total,
		TotalPages:  totalPages(total, pageSize),
		CurrentPage: page,
		PageSize:    pageSize,
	}, nil
}

func totalPages(total, pageSize int64) int64 {
	if pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
