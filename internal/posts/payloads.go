package posts

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/lunagic/agora/agoraservices/database"
	"github.com/lunagic/agora/internal/apperror"
	"github.com/lunagic/agora/internal/listing"
	"github.com/lunagic/agora/internal/validation"
)

const maxBannerSize = 5 << 20

type CreatePost struct {
	Title     string  `json:"title" validate:"required"`
	Content   string  `json:"content" validate:"required,max=10000"`
	BannerURL *string `json:"banner_url" validate:"omitempty,url"`
}

func (payload *CreatePost) Validate(r *http.Request) error {
	validation.Trim(payload)

	return validation.Struct(payload)
}

type UpdatePost struct {
	ID        string  `json:"-"`
	Title     *string `json:"title"`
	Content   *string `json:"content" validate:"omitempty,max=10000"`
	BannerURL *string `json:"banner_url" validate:"omitempty,url"`
}

func (payload *UpdatePost) Bind(r *http.Request) error {
	payload.ID = r.PathValue("id")

	return nil
}

func (payload *UpdatePost) Validate(r *http.Request) error {
	validation.Trim(payload)

	return validation.Struct(payload)
}

type PostID struct {
	ID string `json:"-"`
}

func (payload *PostID) Bind(r *http.Request) error {
	payload.ID = r.PathValue("id")

	return nil
}

type PaginatePosts struct {
	listing.Params
	Title    *string `json:"title"`
	AuthorID *string `json:"author_id" validate:"omitempty,uuid"`
}

func (payload *PaginatePosts) Bind(r *http.Request) error {
	params, err := listing.Bind(r)
	if err != nil {
		return err
	}

	payload.Params = params
	payload.Title = listing.Lower(listing.String(r, "title"))
	payload.AuthorID = listing.String(r, "author_id")

	return nil
}

func (payload *PaginatePosts) Validate(r *http.Request) error {
	return validation.Struct(payload)
}

// BannerUpload is the image sent in the "banner" field of a multipart form.
type BannerUpload struct {
	id          string
	contentType string
	image       io.Reader
}

func (payload *BannerUpload) Bind(r *http.Request) error {
	payload.id = r.PathValue("id")

	r.Body = http.MaxBytesReader(nil, r.Body, maxBannerSize+1<<20)
	if err := r.ParseMultipartForm(maxBannerSize); err != nil {
		return apperror.BadRequest("Expected a multipart form with a banner image", err)
	}

	file, header, err := r.FormFile("banner")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return apperror.BadRequest("banner is required")
		}

		return apperror.BadRequest("Unreadable banner", err)
	}

	return payload.read(file, header)
}

func (payload *BannerUpload) read(file multipart.File, header *multipart.FileHeader) error {
	defer func() {
		_ = file.Close()
	}()

	if header.Size > maxBannerSize {
		return apperror.BadRequest("banner must be at most 5MB")
	}

	content, err := io.ReadAll(file)
	if err != nil {
		return apperror.BadRequest("Unreadable banner", err)
	}

	payload.contentType = http.DetectContentType(content)
	if !strings.HasPrefix(payload.contentType, "image/") {
		return apperror.BadRequest("banner must be an image").WithDetail("got " + payload.contentType)
	}

	payload.image = bytes.NewReader(content)

	return nil
}

type PostAuthor struct {
	ID           string  `json:"id"`
	UserName     string  `json:"user_name"`
	UserPhotoURL *string `json:"user_photo_url"`
}

// PostView is a post as listed, with its author and, for a logged in
// viewer, whether they liked it.
type PostView struct {
	ID                   string     `db:"id" json:"id"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            *time.Time `db:"updated_at" json:"updated_at"`
	Title                string     `db:"title" json:"title"`
	Content              string     `db:"content" json:"content"`
	BannerURL            *string    `db:"banner_url" json:"banner_url"`
	AuthorID             string     `db:"author_id" json:"author_id"`
	LikesCount           int64      `db:"likes_count" json:"likes_count"`
	CommentsCount        int64      `db:"comments_count" json:"comments_count"`
	AuthorName           string     `db:"author_name" json:"-"`
	AuthorPhotoURL       *string    `db:"author_photo_url" json:"-"`
	Author               PostAuthor `json:"author"`
	IsLikedByCurrentUser *bool      `json:"is_liked_by_current_user,omitempty"`

	// Only filled for a single post
	Comments []CommentPreview `json:"comments,omitempty"`
}

type PostPage database.Page[PostView]

// CommentPreview is one of the latest top level comments shown with a post.
type CommentPreview struct {
	ID              string    `db:"id" json:"id"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	Content         string    `db:"content" json:"content"`
	CommentedByID   string    `db:"commented_by_id" json:"commented_by_id"`
	CommentedByName string    `db:"commented_by_name" json:"commented_by_name"`
	RepliesCount    int64     `db:"replies_count" json:"replies_count"`
}
