package services

import "errors"

// Error kinds surfaced by the tag, user and association services.
// Handlers map these to HTTP status codes with errors.Is. A missing
// target record on get/update/delete is reported as a (nil, nil) result
// instead, so callers can choose their own presentation.
var (
	ErrDuplicateTagName   = errors.New("tag name already exists")
	ErrDuplicateIdentity  = errors.New("name or email already in use")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrInvalidEmail       = errors.New("email address is not valid")
	ErrUserNotFound       = errors.New("user not found")
	ErrTagNotFound        = errors.New("tag not found")
	ErrInvalidTagID       = errors.New("invalid tag id")
	ErrHiddenUser         = errors.New("user is hidden and cannot log in")
	ErrInvalidCredentials = errors.New("incorrect password")
	ErrMissingFields      = errors.New("required fields are missing")
	ErrNoFieldsToUpdate   = errors.New("no fields to update")
)
