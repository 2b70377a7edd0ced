package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CategoryUserGenerated marks tags created implicitly when a user is
// tagged by a name that does not exist yet.
const CategoryUserGenerated = "user-generated"

type Tag struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	Category    string             `json:"category,omitempty" bson:"category,omitempty"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	IsActive    bool               `json:"is_active" bson:"is_active"`
}

// TagCreate is the creation payload. IsActive is a pointer so an omitted
// field defaults to true instead of false.
type TagCreate struct {
	Name        string `json:"name" bson:"name"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`
	Category    string `json:"category,omitempty" bson:"category,omitempty"`
	IsActive    *bool  `json:"is_active,omitempty" bson:"is_active,omitempty"`
}

type TagUpdate struct {
	Name        *string `json:"name,omitempty" bson:"name,omitempty"`
	Description *string `json:"description,omitempty" bson:"description,omitempty"`
	Category    *string `json:"category,omitempty" bson:"category,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty" bson:"is_active,omitempty"`
}

// TagPage is the paginated envelope returned by list and search.
type TagPage struct {
	Tags        []Tag `json:"tags"`
	TotalTags   int64 `json:"totalTags"`
	TotalPages  int64 `json:"totalPages"`
	CurrentPage int64 `json:"currentPage"`
	PageSize    int64 `json:"pageSize"`
}

// TagCount is one entry of the popularity aggregation.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}
