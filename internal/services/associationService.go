package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"tagly/internal/metrics"
	"tagly/internal/models"
	"tagly/internal/repositories"
)

// AssociationService coordinates the many-to-many relationship between
// users and tags: attach/detach, cross-directional paginated queries and
// the popularity aggregation.
type AssociationService interface {
	AttachTagsByID(ctx context.Context, userID primitive.ObjectID, tagIDs []string) (*models.TaggedUser, error)
	AttachTagsByName(ctx context.Context, userID primitive.ObjectID, tagNames []string) (*models.TaggedUser, error)
	DetachTag(ctx context.Context, userID, tagID primitive.ObjectID) (*models.TaggedUser, error)
	ListUserTags(ctx context.Context, userID primitive.ObjectID) ([]models.Tag, error)
	FindUsersByTag(ctx context.Context, tagID primitive.ObjectID, page, pageSize int64) (*models.UserPage, error)
	FindUsersByTagName(ctx context.Context, tagName string, page, pageSize int64) (*models.UserPage, error)
	FindUsersByAllTags(ctx context.Context, tagIDs []primitive.ObjectID, page, pageSize int64) (*models.UserPage, error)
	PopularTags(ctx context.Context, limit int) ([]models.TagCount, error)
}

type associationService struct {
	tagRepo  repositories.TagRepository
	userRepo repositories.UserRepository
}

func NewAssociationService(tagRepo repositories.TagRepository, userRepo repositories.UserRepository) AssociationService {
	return &associationService{tagRepo: tagRepo, userRepo: userRepo}
}

// AttachTagsByID validates every id, then adds them all to the user's tag
// set in one $addToSet. Ids already present are retained, never duplicated.
func (s *associationService) AttachTagsByID(ctx context.Context, userID primitive.ObjectID, tagIDs []string) (*models.TaggedUser, error) {
	log.Debug().Str("user_id", userID.Hex()).Strs("tag_ids", tagIDs).Msg("Attempting to attach tags")

	objIDs := make([]primitive.ObjectID, 0, len(tagIDs))
	for _, idStr := range tagIDs {
		objID, err := primitive.ObjectIDFromHex(strings.TrimSpace(idStr))
		if err != nil {
			log.Warn().Str("tag_id", idStr).Msg("Malformed tag id")
			return nil, fmt.Errorf("%w: %s", ErrInvalidTagID, idStr)
		}
		if _, err := s.tagRepo.FindByID(ctx, objID); err != nil {
			if err == mongo.ErrNoDocuments {
				log.Warn().Str("tag_id", idStr).Msg("Tag does not exist")
				return nil, fmt.Errorf("%w: %s", ErrTagNotFound, idStr)
			}
			return nil, fmt.Errorf("failed to fetch tag %s: %w", idStr, err)
		}
		objIDs = append(objIDs, objID)
	}

	result, err := s.userRepo.AddTagsToSet(ctx, userID, objIDs)
	if err != nil {
		return nil, err
	}
	if result.MatchedCount == 0 {
		log.Warn().Str("user_id", userID.Hex()).Msg("User not found while attaching tags")
		return nil, ErrUserNotFound
	}

	metrics.TagsAttachedTotal.Add(float64(len(objIDs)))
	log.Info().Str("user_id", userID.Hex()).Int("count", len(objIDs)).Msg("Tags attached")
	return s.resolveUser(ctx, userID)
}

// AttachTagsByName resolves each name to a tag, creating missing ones with
// the user-generated category, then delegates to AttachTagsByID. Tags
// created before a later failure stay persisted; the call still fails.
func (s *associationService) AttachTagsByName(ctx context.Context, userID primitive.ObjectID, tagNames []string) (*models.TaggedUser, error) {
	log.Debug().Str("user_id", userID.Hex()).Strs("tag_names", tagNames).Msg("Attempting to attach tags by name")

	tagIDs := make([]string, 0, len(tagNames))
	for _, name := range tagNames {
		tag, err := s.resolveOrCreateTag(ctx, name)
		if err != nil {
			return nil, err
		}
		tagIDs = append(tagIDs, tag.ID.Hex())
	}
	return s.AttachTagsByID(ctx, userID, tagIDs)
}

func (s *associationService) resolveOrCreateTag(ctx context.Context, name string) (*models.Tag, error) {
	tag, err := s.tagRepo.FindByName(ctx, name)
	if err == nil {
		return tag, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("failed to resolve tag %q: %w", name, err)
	}

	created, err := s.tagRepo.Create(ctx, &models.Tag{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Category:  models.CategoryUserGenerated,
		CreatedAt: time.Now(),
		IsActive:  true,
	})
	if err == nil {
		metrics.TagCreatedTotal.Inc()
		log.Info().Str("tag_id", created.ID.Hex()).Str("tag_name", name).Msg("Tag created implicitly")
		return created, nil
	}
	if mongo.IsDuplicateKeyError(err) {
		// A concurrent caller created the same name between our lookup
		// and insert; the unique index is authoritative, so re-fetch.
		return s.tagRepo.FindByName(ctx, name)
	}
	return nil, err
}

// DetachTag removes the tag id from the user's set. A tag id that was
// never attached is a no-op, not an error.
func (s *associationService) DetachTag(ctx context.Context, userID, tagID primitive.ObjectID) (*models.TaggedUser, error) {
	result, err := s.userRepo.PullTag(ctx, userID, tagID)
	if err != nil {
		return nil, err
	}
	if result.MatchedCount == 0 {
		log.Warn().Str("user_id", userID.Hex()).Msg("User not found while detaching tag")
		return nil, ErrUserNotFound
	}

	metrics.TagsDetachedTotal.Inc()
	log.Info().Str("user_id", userID.Hex()).Str("tag_id", tagID.Hex()).Msg("Tag detached")
	return s.resolveUser(ctx, userID)
}

func (s *associationService) ListUserTags(ctx context.Context, userID primitive.ObjectID) ([]models.Tag, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return s.tagRepo.FindByIDs(ctx, user.Tags)
}

// FindUsersByTag lists visible users referencing the tag, name ascending.
func (s *associationService) FindUsersByTag(ctx context.Context, tagID primitive.ObjectID, page, pageSize int64) (*models.UserPage, error) {
	filter := bson.M{"tags": tagID, "is_hidden": false}
	sortOrder := bson.D{{Key: "name", Value: 1}}

	users, total, err := s.userRepo.FindPage(ctx, filter, sortOrder, page, pageSize)
	if err != nil {
		log.Error().Err(err).Str("tag_id", tagID.Hex()).Msg("Failed to find users by tag")
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

// FindUsersByTagName resolves the name first. An unknown name yields an
// empty page with zero totals, never an error.
func (s *associationService) FindUsersByTagName(ctx context.Context, tagName string, page, pageSize int64) (*models.UserPage, error) {
	tag, err := s.tagRepo.FindByName(ctx, tagName)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return &models.UserPage{
				Users:       []models.User{},
				TotalUsers:  0,
				TotalPages:  0,
				CurrentPage: page,
				PageSize:    pageSize,
			}, nil
		}
		return nil, fmt.Errorf("failed to resolve tag name: %w", err)
	}
	return s.FindUsersByTag(ctx, tag.ID, page, pageSize)
}

// FindUsersByAllTags matches users whose tag set contains every given id,
// visible users first.
func (s *associationService) FindUsersByAllTags(ctx context.Context, tagIDs []primitive.ObjectID, page, pageSize int64) (*models.UserPage, error) {
	filter := bson.M{"tags": bson.M{"$all": tagIDs}}
	sortOrder := bson.D{{Key: "is_hidden", Value: 1}}

	users, total, err := s.userRepo.FindPage(ctx, filter, sortOrder, page, pageSize)
	if err != nil {
		log.Error().Err(err).Msg("Failed to find users by tag set")
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

// PopularTags scans every user, hidden ones included, and tallies how many
// users reference each tag id. Ties keep first-encountered order. This is
// the one unbounded full scan in the system; there is no incremental index.
func (s *associationService) PopularTags(ctx context.Context, limit int) ([]models.TagCount, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to scan users for popular tags")
		return nil, err
	}

	counts := make(map[string]int)
	order := []string{}
	for _, user := range users {
		for _, tagID := range user.Tags {
			key := tagID.Hex()
			if _, seen := counts[key]; !seen {
				order = append(order, key)
			}
			counts[key]++
		}
	}

	ranked := make([]models.TagCount, 0, len(order))
	for _, key := range order {
		ranked = append(ranked, models.TagCount{Tag: key, Count: counts[key]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})

	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	metrics.PopularTagScansTotal.Inc()
	log.Debug().Int("users", len(users)).Int("tags", len(ranked)).Msg("Popular tags computed")
	return ranked, nil
}

// resolveUser re-reads the user and resolves its tag ids to full records.
func (s *associationService) resolveUser(ctx context.Context, userID primitive.ObjectID) (*models.TaggedUser, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	tags, err := s.tagRepo.FindByIDs(ctx, user.Tags)
	if err != nil {
		return nil, err
	}
	return &models.TaggedUser{User: *user, Tags: tags}, nil
}
