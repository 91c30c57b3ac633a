package likes

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lunagic/agora/agoraservices/database"
	"github.com/lunagic/agora/internal/apperror"
	"github.com/lunagic/agora/internal/events"
	"github.com/lunagic/agora/internal/metrics"
	"github.com/lunagic/agora/internal/models"
	"github.com/lunagic/agora/internal/posts"
)

const (
	notFoundMessage = "Like not found"
	counterColumn   = "likes_count"
)

type Service struct {
	db         *database.Service
	likes      database.Repository[models.PostLike]
	views      database.Selector[LikeView]
	posts      *posts.Service
	likeStatus *posts.LikeStatus
	publisher  events.Publisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func NewService(
	db *database.Service,
	postService *posts.Service,
	likeStatus *posts.LikeStatus,
	publisher events.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	views := database.BaseQuery(models.PostLike{})
	views.Joins = []database.Join{{
		Table:  "users",
		Alias:  "liked_by",
		Column: "id",
		On:     database.Column{Alias: views.Alias, Name: "user_id"},
	}}
	views.Select = append(views.Select, database.Column{Alias: "liked_by", Name: "user_name"})

	return &Service{
		db:         db,
		likes:      database.NewRepository[models.PostLike](db),
		views:      database.NewSelector[LikeView](db, views),
		posts:      postService,
		likeStatus: likeStatus,
		publisher:  publisher,
		metrics:    m,
		logger:     logger,
	}
}

func (service *Service) find(ctx context.Context, postID string, userID string) (models.PostLike, error) {
	alias := service.likes.Alias()

	return service.likes.SelectSingle(ctx, database.WithAdditionalWhere(database.And(
		database.Equal("post_id", postID).On(alias),
		database.Equal("user_id", userID).On(alias),
	)))
}

// Like records that actorID likes the post and bumps its likes_count in the
// same transaction. Authors can not like their own posts and nobody can like
// a post twice.
func (service *Service) Like(ctx context.Context, actorID string, postID string) (models.PostLike, error) {
	like := models.PostLike{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		PostID:    postID,
		UserID:    actorID,
	}

	if err := service.db.Transaction(ctx, func(ctx context.Context) error {
		post, err := service.posts.Find(ctx, postID)
		if err != nil {
			return err
		}

		if post.AuthorID == actorID {
			return apperror.Forbidden("You can not like your own post")
		}

		if _, err := service.find(ctx, postID, actorID); err == nil {
			return apperror.Forbidden("Post already liked")
		} else if !errors.Is(err, database.ErrNoRows) {
			return err
		}

		if err := service.likes.Insert(ctx, like); err != nil {
			return err
		}

		return service.db.AdjustCounter(ctx, &post, counterColumn, database.Increment)
	}); err != nil {
		return models.PostLike{}, apperror.FromDatabase(err, notFoundMessage)
	}

	service.metrics.CounterAdjusted(counterColumn, database.Increment)
	service.remember(ctx, postID, actorID, true)

	event := events.New(events.PostLiked, actorID)
	event.PostID = postID
	if err := service.publisher.Publish(ctx, event); err != nil {
		service.logger.Warn("Event Publish Failed", "kind", events.PostLiked, "error", err)
	}

	return like, nil
}

// Unlike removes actorID's like and lowers the post's likes_count in the same
// transaction.
func (service *Service) Unlike(ctx context.Context, actorID string, postID string) error {
	if err := service.db.Transaction(ctx, func(ctx context.Context) error {
		post, err := service.posts.Find(ctx, postID)
		if err != nil {
			return err
		}

		like, err := service.find(ctx, postID, actorID)
		if err != nil {
			if errors.Is(err, database.ErrNoRows) {
				return apperror.Forbidden("Post is not liked yet")
			}

			return err
		}

		if err := service.likes.Delete(ctx, like); err != nil {
			return err
		}

		return service.db.AdjustCounter(ctx, &post, counterColumn, database.Decrement)
	}); err != nil {
		return apperror.FromDatabase(err, notFoundMessage)
	}

	service.metrics.CounterAdjusted(counterColumn, database.Decrement)
	service.remember(ctx, postID, actorID, false)

	return nil
}

func (service *Service) remember(ctx context.Context, postID string, userID string, liked bool) {
	if err := service.likeStatus.Set(ctx, postID, userID, liked); err != nil {
		service.logger.Warn("Like Status Cache Failed", "post", postID, "error", err)
		// A stale answer must not outlive the change
		_ = service.likeStatus.Forget(ctx, postID, userID)
	}
}

func (service *Service) Paginate(ctx context.Context, payload PaginateLikes) (LikePage, error) {
	alias := service.likes.Alias()

	page, err := service.views.Paginate(
		ctx,
		payload.PageRequest(),
		database.WithFilters(alias, []database.Filter{
			database.Where("post_id", database.OperatorEqual, payload.PostID),
			database.Where("user_id", database.OperatorEqual, payload.UserID),
		}, false),
		database.WithSort(alias, models.PostLike{}, payload.Sort),
	)
	if err != nil {
		return LikePage{}, apperror.FromDatabase(err, notFoundMessage)
	}

	return LikePage(page), nil
}
