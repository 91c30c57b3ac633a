package models

import (
	"time"

	"github.com/lunagic/agora/agoraservices/database"
)

const (
	PostContentMaxLength        = 10000
	PostCommentContentMaxLength = 2500
)

type User struct {
	ID             string     `db:"id,primaryKey" json:"id"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      *time.Time `db:"updated_at" json:"updated_at"`
	UserName       string     `db:"user_name" json:"user_name"`
	HashedPassword string     `db:"hashed_password" json:"-"`
	UserEmail      string     `db:"user_email,unique" json:"user_email"`
	PhoneNumber    *string    `db:"phone_number" json:"phone_number"`
	DateOfBirth    *string    `db:"date_of_birth" json:"date_of_birth"`
	UserPhotoURL   *string    `db:"user_photo_url" json:"user_photo_url"`
}

func (User) TableStructure() database.Table {
	return database.Table{
		Name: "users",
		Indexes: []database.TableIndex{
			{Name: "ix_users_user_name", Columns: []string{"user_name"}},
			{Name: "ix_users_user_email", Columns: []string{"user_email"}, Unique: true},
			{Name: "ix_users_phone_number", Columns: []string{"phone_number"}},
		},
	}
}

// Post counters are never written by Insert or Update; they only move through
// database.AdjustCounter and the reconciliation job.
type Post struct {
	ID            string     `db:"id,primaryKey" json:"id"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     *time.Time `db:"updated_at" json:"updated_at"`
	Title         string     `db:"title" json:"title"`
	Content       string     `db:"content,long" json:"content"`
	BannerURL     *string    `db:"banner_url" json:"banner_url"`
	AuthorID      string     `db:"author_id,foreignKey=users.id,onDelete=cascade" json:"author_id"`
	LikesCount    int64      `db:"likes_count,readOnly,default=0" json:"likes_count"`
	CommentsCount int64      `db:"comments_count,readOnly,default=0" json:"comments_count"`
}

func (Post) TableStructure() database.Table {
	return database.Table{
		Name: "posts",
		Indexes: []database.TableIndex{
			{Name: "ix_posts_title", Columns: []string{"title"}},
			{Name: "ix_posts_author_id", Columns: []string{"author_id"}},
			{Name: "ix_posts_likes_count", Columns: []string{"likes_count"}},
			{Name: "ix_posts_comments_count", Columns: []string{"comments_count"}},
		},
	}
}

type PostLike struct {
	ID        string    `db:"id,primaryKey" json:"id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	PostID    string    `db:"post_id,foreignKey=posts.id,onDelete=cascade" json:"post_id"`
	UserID    string    `db:"user_id,foreignKey=users.id,onDelete=cascade" json:"user_id"`
}

func (PostLike) TableStructure() database.Table {
	return database.Table{
		Name: "post_likes",
		Indexes: []database.TableIndex{
			{Name: "ix_post_likes_post_id_user_id", Columns: []string{"post_id", "user_id"}, Unique: true},
			{Name: "ix_post_likes_user_id", Columns: []string{"user_id"}},
		},
	}
}

type PostComment struct {
	ID            string     `db:"id,primaryKey" json:"id"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     *time.Time `db:"updated_at" json:"updated_at"`
	CommentedByID string     `db:"commented_by_id,foreignKey=users.id,onDelete=cascade" json:"commented_by_id"`
	Content       string     `db:"content,long" json:"content"`
	PostID        string     `db:"post_id,foreignKey=posts.id,onDelete=cascade" json:"post_id"`
	ParentID      *string    `db:"parent_id,foreignKey=post_comments.id,onDelete=setNull" json:"parent_id"`
	RepliesCount  int64      `db:"replies_count,readOnly,default=0" json:"replies_count"`
}

func (PostComment) TableStructure() database.Table {
	return database.Table{
		Name: "post_comments",
		Indexes: []database.TableIndex{
			{Name: "ix_post_comments_commented_by_id", Columns: []string{"commented_by_id"}},
			{Name: "ix_post_comments_post_id", Columns: []string{"post_id"}},
			{Name: "ix_post_comments_parent_id", Columns: []string{"parent_id"}},
		},
	}
}

// Entities lists every table in the order they can be created.
func Entities() []database.Entity {
	return []database.Entity{
		User{},
		Post{},
		PostLike{},
		PostComment{},
	}
}

// Counters are the denormalized counters and the child rows they count.
func Counters() []database.CounterSource {
	return []database.CounterSource{
		{Parent: Post{}, Column: "likes_count", Child: PostLike{}, ForeignKey: "post_id"},
		{Parent: Post{}, Column: "comments_count", Child: PostComment{}, ForeignKey: "post_id"},
		{Parent: PostComment{}, Column: "replies_count", Child: PostComment{}, ForeignKey: "parent_id"},
	}
}
