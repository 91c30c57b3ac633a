package posts

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lunagic/agora/agoraservices/database"
	"github.com/lunagic/agora/agoraservices/storage"
	"github.com/lunagic/agora/internal/apperror"
	"github.com/lunagic/agora/internal/models"
	"golang.org/x/sync/errgroup"
)

const (
	notFoundMessage   = "Post not found"
	bannerLinkTTL     = 15 * time.Minute
	commentPreviewMax = 5
)

type Service struct {
	posts      database.Repository[models.Post]
	views      database.Selector[PostView]
	previews   database.Selector[CommentPreview]
	likeStatus *LikeStatus
	storage    storage.Driver
	// bannerPath builds the public URL a stored banner is reachable at
	bannerPath func(postID string) string
	logger     *slog.Logger
}

func NewService(
	db *database.Service,
	likeStatus *LikeStatus,
	storageDriver storage.Driver,
	bannerPath func(postID string) string,
	logger *slog.Logger,
) *Service {
	return &Service{
		posts:      database.NewRepository[models.Post](db),
		views:      database.NewSelector[PostView](db, viewQuery()),
		previews:   database.NewSelector[CommentPreview](db, previewQuery()),
		likeStatus: likeStatus,
		storage:    storageDriver,
		bannerPath: bannerPath,
		logger:     logger,
	}
}

func viewQuery() database.Query {
	query := database.BaseQuery(models.Post{})
	query.Joins = []database.Join{{
		Table:  "users",
		Alias:  "author",
		Column: "id",
		On:     database.Column{Alias: query.Alias, Name: "author_id"},
	}}
	query.Select = append(
		query.Select,
		database.Column{Alias: "author", Name: "user_name", As: "author_name"},
		database.Column{Alias: "author", Name: "user_photo_url", As: "author_photo_url"},
	)

	return query
}

func previewQuery() database.Query {
	query := database.BaseQuery(models.PostComment{})
	query.Select = []database.Column{
		{Alias: query.Alias, Name: "id"},
		{Alias: query.Alias, Name: "created_at"},
		{Alias: query.Alias, Name: "content"},
		{Alias: query.Alias, Name: "commented_by_id"},
		{Alias: query.Alias, Name: "replies_count"},
		{Alias: "commented_by", Name: "user_name", As: "commented_by_name"},
	}
	query.Joins = []database.Join{{
		Table:  "users",
		Alias:  "commented_by",
		Column: "id",
		On:     database.Column{Alias: query.Alias, Name: "commented_by_id"},
	}}

	return query
}

func bannerKey(postID string) string {
	return fmt.Sprintf("posts/%s/banner", postID)
}

func withAuthor(view PostView) PostView {
	view.Author = PostAuthor{
		ID:           view.AuthorID,
		UserName:     view.AuthorName,
		UserPhotoURL: view.AuthorPhotoURL,
	}

	return view
}

// Paginate lists posts. For a logged in viewer every item says whether they
// liked it.
func (service *Service) Paginate(ctx context.Context, viewerID string, payload PaginatePosts) (PostPage, error) {
	alias := service.posts.Alias()

	page, err := service.views.Paginate(
		ctx,
		payload.PageRequest(),
		database.WithFilters(alias, []database.Filter{
			database.Where("author_id", database.OperatorEqual, payload.AuthorID),
			database.Where("title", database.OperatorLike, payload.Title),
		}, false),
		database.WithSort(alias, models.Post{}, payload.Sort),
	)
	if err != nil {
		return PostPage{}, apperror.FromDatabase(err, notFoundMessage)
	}

	page = database.MapPage(page, withAuthor)

	if viewerID == "" || len(page.Items) == 0 {
		return PostPage(page), nil
	}

	postIDs := make([]string, 0, len(page.Items))
	for _, item := range page.Items {
		postIDs = append(postIDs, item.ID)
	}

	liked, err := service.likeStatus.LikedAmong(ctx, viewerID, postIDs)
	if err != nil {
		return PostPage{}, apperror.Internal(err)
	}

	for i := range page.Items {
		isLiked := liked[page.Items[i].ID]
		page.Items[i].IsLikedByCurrentUser = &isLiked
	}

	return PostPage(page), nil
}

// Get reads a post with its latest comments. The post and the viewer's like
// status are looked up concurrently.
func (service *Service) Get(ctx context.Context, viewerID string, id string) (PostView, error) {
	group, groupCtx := errgroup.WithContext(ctx)

	view := PostView{}
	group.Go(func() error {
		var err error
		view, err = service.views.SelectSingle(
			groupCtx,
			database.WithAdditionalWhere(database.Equal("id", id).On(service.posts.Alias())),
		)

		return apperror.FromDatabase(err, notFoundMessage)
	})

	comments := []CommentPreview{}
	group.Go(func() error {
		var err error
		comments, err = service.previews.SelectMultiple(
			groupCtx,
			database.WithAdditionalWhere(database.And(
				database.Equal("post_id", id).On("post_comments"),
				database.IsNull("parent_id").On("post_comments"),
			)),
			func(query database.Query) (database.Query, error) {
				query.OrderBy = []database.Order{{Alias: "post_comments", Column: "created_at", Descending: true}}
				return query, nil
			},
			database.WithLimitOverride(commentPreviewMax, 0),
		)

		return apperror.FromDatabase(err, notFoundMessage)
	})

	liked := false
	if viewerID != "" {
		group.Go(func() error {
			var err error
			liked, err = service.likeStatus.IsLiked(groupCtx, id, viewerID)

			return apperror.FromDatabase(err, notFoundMessage)
		})
	}

	if err := group.Wait(); err != nil {
		return PostView{}, err
	}

	view = withAuthor(view)
	view.Comments = comments
	if viewerID != "" {
		view.IsLikedByCurrentUser = &liked
	}

	return view, nil
}

// Find reads the bare post row.
func (service *Service) Find(ctx context.Context, id string) (models.Post, error) {
	post, err := service.posts.FindByID(ctx, id)
	if err != nil {
		return models.Post{}, apperror.FromDatabase(err, notFoundMessage)
	}

	return post, nil
}

func (service *Service) findOwned(ctx context.Context, actorID string, id string) (models.Post, error) {
	post, err := service.Find(ctx, id)
	if err != nil {
		return models.Post{}, err
	}

	if post.AuthorID != actorID {
		return models.Post{}, apperror.Forbidden("You can not change a post that is not yours")
	}

	return post, nil
}

func (service *Service) Create(ctx context.Context, authorID string, payload CreatePost) (models.Post, error) {
	post := models.Post{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Title:     payload.Title,
		Content:   payload.Content,
		BannerURL: payload.BannerURL,
		AuthorID:  authorID,
	}

	if err := service.posts.Insert(ctx, post); err != nil {
		return models.Post{}, apperror.FromDatabase(err, notFoundMessage)
	}

	return post, nil
}

func (service *Service) Update(ctx context.Context, actorID string, payload UpdatePost) (models.Post, error) {
	post, err := service.findOwned(ctx, actorID, payload.ID)
	if err != nil {
		return models.Post{}, err
	}

	if payload.Title != nil {
		post.Title = *payload.Title
	}

	if payload.Content != nil {
		post.Content = *payload.Content
	}

	if payload.BannerURL != nil {
		post.BannerURL = payload.BannerURL
	}

	now := time.Now().UTC()
	post.UpdatedAt = &now

	if err := service.posts.Update(ctx, post); err != nil {
		return models.Post{}, apperror.FromDatabase(err, notFoundMessage)
	}

	return post, nil
}

// Delete removes the post along with its likes, comments and stored banner.
func (service *Service) Delete(ctx context.Context, actorID string, id string) error {
	post, err := service.findOwned(ctx, actorID, id)
	if err != nil {
		return err
	}

	if err := service.posts.Delete(ctx, post); err != nil {
		return apperror.FromDatabase(err, notFoundMessage)
	}

	exists, err := service.storage.Exists(ctx, bannerKey(post.ID))
	if err == nil && exists {
		err = service.storage.Delete(ctx, bannerKey(post.ID))
	}
	if err != nil {
		service.logger.Warn("Banner Cleanup Failed", "post", post.ID, "error", err)
	}

	return nil
}

// UploadBanner stores the image and points the post's banner_url at it.
func (service *Service) UploadBanner(ctx context.Context, actorID string, payload BannerUpload) (models.Post, error) {
	post, err := service.findOwned(ctx, actorID, payload.id)
	if err != nil {
		return models.Post{}, err
	}

	if err := service.storage.Put(ctx, bannerKey(post.ID), payload.image); err != nil {
		return models.Post{}, apperror.Internal(err)
	}

	bannerURL := service.bannerPath(post.ID)
	now := time.Now().UTC()
	post.BannerURL = &bannerURL
	post.UpdatedAt = &now

	if err := service.posts.Update(ctx, post); err != nil {
		return models.Post{}, apperror.FromDatabase(err, notFoundMessage)
	}

	return post, nil
}

// BannerLink is a short lived link to the stored banner of a post.
func (service *Service) BannerLink(ctx context.Context, id string) (string, error) {
	post, err := service.Find(ctx, id)
	if err != nil {
		return "", err
	}

	exists, err := service.storage.Exists(ctx, bannerKey(post.ID))
	if err != nil {
		return "", apperror.Internal(err)
	}

	if !exists {
		return "", apperror.NotFound("Post has no banner")
	}

	link, err := service.storage.PreSignedURL(ctx, bannerKey(post.ID), bannerLinkTTL)
	if err != nil {
		return "", apperror.Internal(err)
	}

	return link, nil
}
