package comments

import (
	"net/http"
	"time"

	"github.com/lunagic/agora/agoraservices/database"
	"github.com/lunagic/agora/internal/listing"
	"github.com/lunagic/agora/internal/validation"
)

type CreateComment struct {
	PostID   string  `json:"post_id" validate:"required,uuid"`
	ParentID *string `json:"parent_id" validate:"omitempty,uuid"`
	Content  string  `json:"content" validate:"required,max=2500"`
}

func (payload *CreateComment) Validate(r *http.Request) error {
	validation.Trim(payload)

	return validation.Struct(payload)
}

type UpdateComment struct {
	ID      string `json:"-"`
	Content string `json:"content" validate:"required,max=2500"`
}

func (payload *UpdateComment) Bind(r *http.Request) error {
	payload.ID = r.PathValue("id")

	return nil
}

func (payload *UpdateComment) Validate(r *http.Request) error {
	validation.Trim(payload)

	return validation.Struct(payload)
}

type CommentID struct {
	ID string `json:"-"`
}

func (payload *CommentID) Bind(r *http.Request) error {
	payload.ID = r.PathValue("id")

	return nil
}

type PaginateComments struct {
	listing.Params
	PostID        string  `json:"post_id" validate:"required,uuid"`
	ParentID      *string `json:"parent_id" validate:"omitempty,uuid"`
	CommentedByID *string `json:"commented_by_id" validate:"omitempty,uuid"`
}

func (payload *PaginateComments) Bind(r *http.Request) error {
	params, err := listing.Bind(r)
	if err != nil {
		return err
	}

	payload.Params = params
	if postID := listing.String(r, "post_id"); postID != nil {
		payload.PostID = *postID
	}
	payload.ParentID = listing.String(r, "parent_id")
	payload.CommentedByID = listing.String(r, "commented_by_id")

	return nil
}

func (payload *PaginateComments) Validate(r *http.Request) error {
	return validation.Struct(payload)
}

// CommentView is a comment with the name of whoever wrote it.
type CommentView struct {
	ID              string     `db:"id" json:"id"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       *time.Time `db:"updated_at" json:"updated_at"`
	CommentedByID   string     `db:"commented_by_id" json:"commented_by_id"`
	CommentedByName string     `db:"commented_by_name" json:"commented_by_name"`
	Content         string     `db:"content" json:"content"`
	PostID          string     `db:"post_id" json:"post_id"`
	ParentID        *string    `db:"parent_id" json:"parent_id"`
	RepliesCount    int64      `db:"replies_count" json:"replies_count"`
}

type CommentPage database.Page[CommentView]
