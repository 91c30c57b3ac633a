package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lunagic/agora/agoraservices/database"
	"github.com/lunagic/agora/agoraservices/mailer"
	"github.com/lunagic/agora/internal/metrics"
	"github.com/lunagic/agora/internal/models"
	"github.com/panjf2000/ants/v2"
)

// Notifier turns events into notification mails. Events are handed to a
// bounded worker pool so a slow mail server never stalls the queue consumer.
type Notifier struct {
	pool     *ants.Pool
	mailer   mailer.Driver
	logger   *slog.Logger
	metrics  *metrics.Metrics
	from     mailer.EnvelopeTarget
	users    database.Repository[models.User]
	posts    database.Repository[models.Post]
	comments database.Repository[models.PostComment]
}

type NotifierConfig struct {
	Workers int
	From    mailer.EnvelopeTarget
}

func NewNotifier(
	db *database.Service,
	mailDriver mailer.Driver,
	logger *slog.Logger,
	m *metrics.Metrics,
	config NotifierConfig,
) (*Notifier, error) {
	if config.Workers < 1 {
		config.Workers = 4
	}

	pool, err := ants.NewPool(config.Workers, ants.WithPanicHandler(func(v any) {
		logger.Error("Notifier Worker Panic", "panic", v)
	}))
	if err != nil {
		return nil, err
	}

	return &Notifier{
		pool:     pool,
		mailer:   mailDriver,
		logger:   logger,
		metrics:  m,
		from:     config.From,
		users:    database.NewRepository[models.User](db),
		posts:    database.NewRepository[models.Post](db),
		comments: database.NewRepository[models.PostComment](db),
	}, nil
}

// Handle queues event for delivery. It only fails when the pool is closed.
func (notifier *Notifier) Handle(ctx context.Context, event Event) error {
	ctx = context.WithoutCancel(ctx)

	return notifier.pool.Submit(func() {
		err := notifier.Deliver(ctx, event)
		notifier.metrics.EventHandled(string(event.Kind), err)
		if err != nil {
			notifier.logger.Error("Notification Failed", "kind", event.Kind, "error", err)
		}
	})
}

// Close waits a little for queued deliveries and stops the pool.
func (notifier *Notifier) Close() error {
	return notifier.pool.ReleaseTimeout(3 * time.Second)
}

// Deliver sends the mail for event right away. Events nobody needs to hear
// about (liking or replying to yourself) send nothing.
func (notifier *Notifier) Deliver(ctx context.Context, event Event) error {
	actor, err := notifier.users.FindByID(ctx, event.ActorID)
	if err != nil {
		return fmt.Errorf("loading actor %s: %w", event.ActorID, err)
	}

	var recipientID, subject, body string

	switch event.Kind {
	case UserRegistered:
		recipientID = actor.ID
		subject = "Welcome to Agora"
		body = fmt.Sprintf("Hi %s,\n\nyour account is ready. Start by writing your first post.\n", actor.UserName)
	case PostLiked:
		post, err := notifier.posts.FindByID(ctx, event.PostID)
		if err != nil {
			return fmt.Errorf("loading post %s: %w", event.PostID, err)
		}

		recipientID = post.AuthorID
		subject = "Someone liked your post"
		body = fmt.Sprintf("%s liked \"%s\". It now has %d likes.\n", actor.UserName, post.Title, post.LikesCount)
	case CommentCreated:
		comment, err := notifier.comments.FindByID(ctx, event.CommentID)
		if err != nil {
			return fmt.Errorf("loading comment %s: %w", event.CommentID, err)
		}

		post, err := notifier.posts.FindByID(ctx, comment.PostID)
		if err != nil {
			return fmt.Errorf("loading post %s: %w", comment.PostID, err)
		}

		recipientID = post.AuthorID
		subject = "New comment on your post"
		body = fmt.Sprintf("%s commented on \"%s\":\n\n%s\n", actor.UserName, post.Title, comment.Content)

		if comment.ParentID != nil {
			parent, err := notifier.comments.FindByID(ctx, *comment.ParentID)
			if err != nil {
				return fmt.Errorf("loading comment %s: %w", *comment.ParentID, err)
			}

			recipientID = parent.CommentedByID
			subject = "New reply to your comment"
			body = fmt.Sprintf("%s replied to your comment on \"%s\":\n\n%s\n", actor.UserName, post.Title, comment.Content)
		}
	default:
		return fmt.Errorf("unknown event kind %q", event.Kind)
	}

	if recipientID == actor.ID && event.Kind != UserRegistered {
		return nil
	}

	recipient, err := notifier.users.FindByID(ctx, recipientID)
	if err != nil {
		return fmt.Errorf("loading recipient %s: %w", recipientID, err)
	}

	return notifier.mailer.Send(ctx, mailer.Envelope{
		From:    notifier.from,
		To:      []mailer.EnvelopeTarget{{Name: recipient.UserName, Email: recipient.UserEmail}},
		Subject: subject,
		Body:    body,
	})
}
