package comments

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
	notFoundMessage = "Comment not found"
	commentsCounter = "comments_count"
	repliesCounter  = "replies_count"
	authorAlias     = "commented_by"
)

type Service struct {
	db        *database.Service
	comments  database.Repository[models.PostComment]
	views     database.Selector[CommentView]
	posts     *posts.Service
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewService(
	db *database.Service,
	postService *posts.Service,
	publisher events.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	views := database.BaseQuery(models.PostComment{})
	views.Joins = []database.Join{{
		Table:  "users",
		Alias:  authorAlias,
		Column: "id",
		On:     database.Column{Alias: views.Alias, Name: "commented_by_id"},
	}}
	views.Select = append(views.Select, database.Column{Alias: authorAlias, Name: "user_name", As: "commented_by_name"})

	return &Service{
		db:        db,
		comments:  database.NewRepository[models.PostComment](db),
		views:     database.NewSelector[CommentView](db, views),
		posts:     postService,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

// Paginate lists the comments of one post, optionally narrowed to the
// replies of a comment or to one commenter.
func (service *Service) Paginate(ctx context.Context, payload PaginateComments) (CommentPage, error) {
	alias := service.comments.Alias()

	page, err := service.views.Paginate(
		ctx,
		payload.PageRequest(),
		database.WithFilters(alias, []database.Filter{
			database.Where("post_id", database.OperatorEqual, payload.PostID),
			database.Where("parent_id", database.OperatorEqual, payload.ParentID),
		}, false),
		database.WithFilters(authorAlias, []database.Filter{
			database.Where("id", database.OperatorEqual, payload.CommentedByID),
		}, true),
		database.WithSort(alias, models.PostComment{}, payload.Sort),
	)
	if err != nil {
		return CommentPage{}, apperror.FromDatabase(err, notFoundMessage)
	}

	return CommentPage(page), nil
}

func (service *Service) Get(ctx context.Context, id string) (CommentView, error) {
	view, err := service.views.SelectSingle(
		ctx,
		database.WithAdditionalWhere(database.Equal("id", id).On(service.comments.Alias())),
	)
	if err != nil {
		return CommentView{}, apperror.FromDatabase(err, notFoundMessage)
	}

	return view, nil
}

func (service *Service) find(ctx context.Context, id string) (models.PostComment, error) {
	comment, err := service.comments.FindByID(ctx, id)
	if err != nil {
		return models.PostComment{}, apperror.FromDatabase(err, notFoundMessage)
	}

	return comment, nil
}

func (service *Service) findOwned(ctx context.Context, actorID string, id string) (models.PostComment, error) {
	comment, err := service.find(ctx, id)
	if err != nil {
		return models.PostComment{}, err
	}

	if comment.CommentedByID != actorID {
		return models.PostComment{}, apperror.Forbidden("You can not change a comment that is not yours")
	}

	return comment, nil
}

// Create writes the comment and bumps the post's comments_count, plus the
// parent's replies_count for a reply, in one transaction. A parent has to
// belong to the same post; that is checked before anything is written.
func (service *Service) Create(ctx context.Context, actorID string, payload CreateComment) (models.PostComment, error) {
	comment := models.PostComment{
		ID:            uuid.NewString(),
		CreatedAt:     time.Now().UTC(),
		CommentedByID: actorID,
		Content:       payload.Content,
		PostID:        payload.PostID,
		ParentID:      payload.ParentID,
	}

	adjusted := []string{}
	if err := service.db.Transaction(ctx, func(ctx context.Context) error {
		adjusted = adjusted[:0]

		post, err := service.posts.Find(ctx, payload.PostID)
		if err != nil {
			return err
		}

		var parent *models.PostComment
		if payload.ParentID != nil {
			found, err := service.comments.FindByID(ctx, *payload.ParentID)
			if err != nil {
				return apperror.FromDatabase(err, "Parent comment not found")
			}

			if found.PostID != post.ID {
				return apperror.Forbidden("The parent comment belongs to another post")
			}

			parent = &found
		}

		if err := service.comments.Insert(ctx, comment); err != nil {
			return err
		}

		if err := service.db.AdjustCounter(ctx, &post, commentsCounter, database.Increment); err != nil {
			return err
		}
		adjusted = append(adjusted, commentsCounter)

		if parent != nil {
			if err := service.db.AdjustCounter(ctx, parent, repliesCounter, database.Increment); err != nil {
				return err
			}
			adjusted = append(adjusted, repliesCounter)
		}

		return nil
	}); err != nil {
		return models.PostComment{}, apperror.FromDatabase(err, notFoundMessage)
	}

	for _, counter := range adjusted {
		service.metrics.CounterAdjusted(counter, database.Increment)
	}

	event := events.New(events.CommentCreated, actorID)
	event.PostID = comment.PostID
	event.CommentID = comment.ID
	if err := service.publisher.Publish(ctx, event); err != nil {
		service.logger.Warn("Event Publish Failed", "kind", events.CommentCreated, "error", err)
	}

	return comment, nil
}

func (service *Service) Update(ctx context.Context, actorID string, payload UpdateComment) (models.PostComment, error) {
	comment, err := service.findOwned(ctx, actorID, payload.ID)
	if err != nil {
		return models.PostComment{}, err
	}

	now := time.Now().UTC()
	comment.Content = payload.Content
	comment.UpdatedAt = &now

	if err := service.comments.Update(ctx, comment); err != nil {
		return models.PostComment{}, apperror.FromDatabase(err, notFoundMessage)
	}

	return comment, nil
}

// Delete removes the comment and lowers the counters Create raised. Replies
// of a deleted comment stay on the post without a parent.
func (service *Service) Delete(ctx context.Context, actorID string, id string) error {
	adjusted := []string{}
	if err := service.db.Transaction(ctx, func(ctx context.Context) error {
		adjusted = adjusted[:0]

		comment, err := service.findOwned(ctx, actorID, id)
		if err != nil {
			return err
		}

		if err := service.comments.Delete(ctx, comment); err != nil {
			return err
		}

		post, err := service.posts.Find(ctx, comment.PostID)
		if err != nil {
			return err
		}

		if err := service.db.AdjustCounter(ctx, &post, commentsCounter, database.Decrement); err != nil {
			return err
		}
		adjusted = append(adjusted, commentsCounter)

		if comment.ParentID == nil {
			return nil
		}

		parent, err := service.comments.FindByID(ctx, *comment.ParentID)
		if errors.Is(err, database.ErrNoRows) {
			return nil
		} else if err != nil {
			return err
		}

		if err := service.db.AdjustCounter(ctx, &parent, repliesCounter, database.Decrement); err != nil {
			return err
		}
		adjusted = append(adjusted, repliesCounter)

		return nil
	}); err != nil {
		return apperror.FromDatabase(err, notFoundMessage)
	}

	for _, counter := range adjusted {
		service.metrics.CounterAdjusted(counter, database.Decrement)
	}

	return nil
}
