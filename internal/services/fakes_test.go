package services

import (
	"context"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"tagly/internal/models"
)

// In-memory repository fakes. They reproduce just enough of the Mongo
// operators the services rely on: $addToSet set semantics, $pull,
// $all containment, regex substring search and offset pagination.

func duplicateKeyErr() error {
	return mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000}}}
}

type fakeTagRepo struct {
	tags []models.Tag
}

func newFakeTagRepo() *fakeTagRepo { return &fakeTagRepo{} }

func (f *fakeTagRepo) EnsureIndexes(ctx context.Context) error { return nil }

func (f *fakeTagRepo) Create(ctx context.Context, tag *models.Tag) (*models.Tag, error) {
	for _, t := range f.tags {
		if t.Name == tag.Name {
			return nil, duplicateKeyErr()
		}
	}
	f.tags = append(f.tags, *tag)
	return tag, nil
}

func (f *fakeTagRepo) FindByID(ctx context.Context, tagID primitive.ObjectID) (*models.Tag, error) {
	for i := range f.tags {
		if f.tags[i].ID == tagID {
			t := f.tags[i]
			return &t, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeTagRepo) FindByName(ctx context.Context, name string) (*models.Tag, error) {
	for i := range f.tags {
		if f.tags[i].Name == name {
			t := f.tags[i]
			return &t, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeTagRepo) FindAnotherByName(ctx context.Context, name string, excludeID primitive.ObjectID) (*models.Tag, error) {
	for i := range f.tags {
		if f.tags[i].Name == name && f.tags[i].ID != excludeID {
			t := f.tags[i]
			return &t, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeTagRepo) FindByIDs(ctx context.Context, tagIDs []primitive.ObjectID) ([]models.Tag, error) {
	result := []models.Tag{}
	for _, id := range tagIDs {
		for i := range f.tags {
			if f.tags[i].ID == id {
				result = append(result, f.tags[i])
			}
		}
	}
	return result, nil
}

func (f *fakeTagRepo) FindPage(ctx context.Context, filter bson.M, page, pageSize int64) ([]models.Tag, int64, error) {
	matched := []models.Tag{}
	for _, t := range f.tags {
		if tagMatches(t, filter) {
			matched = append(matched, t)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })

	total := int64(len(matched))
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func tagMatches(t models.Tag, filter bson.M) bool {
	if active, ok := filter["is_active"].(bool); ok && t.IsActive != active {
		return false
	}
	if or, ok := filter["$or"].(bson.A); ok {
		hit := false
		for _, clause := range or {
			m := clause.(bson.M)
			for field, v := range m {
				rx := v.(primitive.Regex)
				var val string
				switch field {
				case "name":
					val = t.Name
				case "description":
					val = t.Description
				case "category":
					val = t.Category
				}
				if strings.Contains(strings.ToLower(val), strings.ToLower(rx.Pattern)) {
					hit = true
				}
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

func (f *fakeTagRepo) Update(ctx context.Context, tagID primitive.ObjectID, fields bson.M) (*mongo.UpdateResult, error) {
	for i := range f.tags {
		if f.tags[i].ID == tagID {
			if name, ok := fields["name"].(string); ok {
				f.tags[i].Name = name
			}
			if desc, ok := fields["description"].(string); ok {
				f.tags[i].Description = desc
			}
			if cat, ok := fields["category"].(string); ok {
				f.tags[i].Category = cat
			}
			if active, ok := fields["is_active"].(bool); ok {
				f.tags[i].IsActive = active
			}
			return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
		}
	}
	return &mongo.UpdateResult{}, nil
}

func (f *fakeTagRepo) Delete(ctx context.Context, tagID primitive.ObjectID) (*mongo.DeleteResult, error) {
	for i := range f.tags {
		if f.tags[i].ID == tagID {
			f.tags = append(f.tags[:i], f.tags[i+1:]...)
			return &mongo.DeleteResult{DeletedCount: 1}, nil
		}
	}
	return &mongo.DeleteResult{}, nil
}

type fakeUserRepo struct {
	users []models.User
}

func newFakeUserRepo() *fakeUserRepo { return &fakeUserRepo{} }

func (f *fakeUserRepo) EnsureIndexes(ctx context.Context) error { return nil }

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	for _, u := range f.users {
		if u.Name == user.Name || u.Email == user.Email {
			return nil, duplicateKeyErr()
		}
	}
	f.users = append(f.users, *user)
	return user, nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	for i := range f.users {
		if f.users[i].ID == userID {
			u := f.users[i]
			return &u, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for i := range f.users {
		if f.users[i].Email == email {
			u := f.users[i]
			return &u, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeUserRepo) FindByNameOrEmail(ctx context.Context, name, email string) (*models.User, error) {
	for i := range f.users {
		if f.users[i].Name == name || f.users[i].Email == email {
			u := f.users[i]
			return &u, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeUserRepo) FindPage(ctx context.Context, filter bson.M, sortOrder bson.D, page, pageSize int64) ([]models.User, int64, error) {
	matched := []models.User{}
	for _, u := range f.users {
		if userMatches(u, filter) {
			matched = append(matched, u)
		}
	}

	if len(sortOrder) > 0 {
		switch sortOrder[0].Key {
		case "name":
			sort.SliceStable(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
		case "is_hidden":
			sort.SliceStable(matched, func(i, j int) bool { return !matched[i].IsHidden && matched[j].IsHidden })
		}
	}

	total := int64(len(matched))
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func userMatches(u models.User, filter bson.M) bool {
	if hidden, ok := filter["is_hidden"].(bool); ok && u.IsHidden != hidden {
		return false
	}
	switch tags := filter["tags"].(type) {
	case primitive.ObjectID:
		if !containsID(u.Tags, tags) {
			return false
		}
	case bson.M:
		for _, required := range tags["$all"].([]primitive.ObjectID) {
			if !containsID(u.Tags, required) {
				return false
			}
		}
	}
	return true
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}

func (f *fakeUserRepo) FindAll(ctx context.Context) ([]models.User, error) {
	return append([]models.User{}, f.users...), nil
}

func (f *fakeUserRepo) Update(ctx context.Context, userID primitive.ObjectID, fields bson.M) (*mongo.UpdateResult, error) {
	for i := range f.users {
		if f.users[i].ID == userID {
			if name, ok := fields["name"].(string); ok {
				f.users[i].Name = name
			}
			if email, ok := fields["email"].(string); ok {
				f.users[i].Email = email
			}
			if password, ok := fields["password"].(string); ok {
				f.users[i].Password = password
			}
			if hidden, ok := fields["is_hidden"].(bool); ok {
				f.users[i].IsHidden = hidden
			}
			if admin, ok := fields["is_admin"].(bool); ok {
				f.users[i].IsAdmin = admin
			}
			return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
		}
	}
	return &mongo.UpdateResult{}, nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, userID primitive.ObjectID) (*mongo.DeleteResult, error) {
	for i := range f.users {
		if f.users[i].ID == userID {
			f.users = append(f.users[:i], f.users[i+1:]...)
			return &mongo.DeleteResult{DeletedCount: 1}, nil
		}
	}
	return &mongo.DeleteResult{}, nil
}

func (f *fakeUserRepo) AddTagsToSet(ctx context.Context, userID primitive.ObjectID, tagIDs []primitive.ObjectID) (*mongo.UpdateResult, error) {
	for i := range f.users {
		if f.users[i].ID == userID {
			for _, id := range tagIDs {
				if !containsID(f.users[i].Tags, id) {
					f.users[i].Tags = append(f.users[i].Tags, id)
				}
			}
			return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
		}
	}
	return &mongo.UpdateResult{}, nil
}

func (f *fakeUserRepo) PullTag(ctx context.Context, userID, tagID primitive.ObjectID) (*mongo.UpdateResult, error) {
	for i := range f.users {
		if f.users[i].ID == userID {
			kept := f.users[i].Tags[:0]
			for _, id := range f.users[i].Tags {
				if id != tagID {
					kept = append(kept, id)
				}
			}
			f.users[i].Tags = kept
			return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
		}
	}
	return &mongo.UpdateResult{}, nil
}

func (f *fakeUserRepo) CountByTag(ctx context.Context, tagID primitive.ObjectID) (int64, error) {
	var count int64
	for _, u := range f.users {
		if containsID(u.Tags, tagID) {
			count++
		}
	}
	return count, nil
}

func (f *fakeUserRepo) Count(ctx context.Context, filter bson.M) (int64, error) {
	var count int64
	for _, u := range f.users {
		if userMatches(u, filter) {
			count++
		}
	}
	return count, nil
}
