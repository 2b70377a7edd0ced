package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID        primitive.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	Name      string               `json:"name" bson:"name"`
	BirthDate time.Time            `json:"birth_date" bson:"birth_date"`
	Email     string               `json:"email" bson:"email"`
	Password  string               `json:"password,omitempty" bson:"password"`
	IsAdmin   bool                 `json:"is_admin" bson:"is_admin"`
	IsHidden  bool                 `json:"is_hidden" bson:"is_hidden"`
	Tags      []primitive.ObjectID `json:"tags" bson:"tags"`

	// Age is derived from BirthDate on reads, never stored.
	Age int `json:"age,omitempty" bson:"-"`
}

type UserUpdate struct {
	Name      *string    `json:"name,omitempty" bson:"name,omitempty"`
	BirthDate *time.Time `json:"birth_date,omitempty" bson:"birth_date,omitempty"`
	Email     *string    `json:"email,omitempty" bson:"email,omitempty"`
	Password  *string    `json:"password,omitempty" bson:"password,omitempty"`
	IsAdmin   *bool      `json:"is_admin,omitempty" bson:"is_admin,omitempty"`
	IsHidden  *bool      `json:"is_hidden,omitempty" bson:"is_hidden,omitempty"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TaggedUser is a user with its tag references resolved to full records.
type TaggedUser struct {
	User User  `json:"user"`
	Tags []Tag `json:"tags"`
}

// UserPage is the paginated envelope returned by user listings.
type UserPage struct {
	Users       []User `json:"users"`
	TotalUsers  int64  `json:"totalUsers"`
	TotalPages  int64  `json:"totalPages"`
	CurrentPage int64  `json:"currentPage"`
	PageSize    int64  `json:"pageSize"`
}
