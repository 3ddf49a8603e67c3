package domain

import "errors"

var (
	MessageSuccessGetTags   = "success get tags"
	MessageSuccessCreateTag = "tag created successfully"

	MessageFailedGetTags   = "failed to get tags"
	MessageFailedCreateTag = "failed to create tag"

	ErrTagNotFound = errors.New("tag not found")
	ErrTagConflict = errors.New("tag with this name or slug already exists")
	ErrInvalidSlug = errors.New("slug may only contain letters, digits, hyphens and underscores")
)

type (
	CreateTagRequest struct {
		Name string `json:"name" validate:"required,max=64"`
		Slug string `json:"slug" validate:"required,max=64"`
	}

	TagResponse struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Slug string `json:"slug"`
	}
)
