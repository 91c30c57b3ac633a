package likes

import (
	"net/http"
	"time"

	"github.com/lunagic/agora/agoraservices/database"
	"github.com/lunagic/agora/internal/apperror"
	"github.com/lunagic/agora/internal/listing"
	"github.com/lunagic/agora/internal/validation"
)

type PostID struct {
	PostID string `json:"-"`
}

func (payload *PostID) Bind(r *http.Request) error {
	payload.PostID = r.PathValue("post_id")

	return nil
}

type PaginateLikes struct {
	listing.Params
	PostID *string `json:"post_id" validate:"omitempty,uuid"`
	UserID *string `json:"user_id" validate:"omitempty,uuid"`
}

func (payload *PaginateLikes) Bind(r *http.Request) error {
	params, err := listing.Bind(r)
	if err != nil {
		return err
	}

	payload.Params = params
	payload.PostID = listing.String(r, "post_id")
	payload.UserID = listing.String(r, "user_id")

	return nil
}

func (payload *PaginateLikes) Validate(r *http.Request) error {
	if payload.PostID == nil && payload.UserID == nil {
		return apperror.BadRequest("Provide the id of the user or the id of the post")
	}

	return validation.Struct(payload)
}

// LikeView is a like with the name of the user who gave it.
type LikeView struct {
	ID        string    `db:"id" json:"id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	PostID    string    `db:"post_id" json:"post_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	UserName  string    `db:"user_name" json:"user_name"`
}

type LikePage database.Page[LikeView]
