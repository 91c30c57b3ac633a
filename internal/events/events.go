package events

import (
	"context"
	"time"
)

// QueueName is the queue domain events travel through.
const QueueName = "agora-events"

type Kind string

const (
	UserRegistered Kind = "user.registered"
	PostLiked      Kind = "post.liked"
	CommentCreated Kind = "comment.created"
)

// Event is something that happened, named by the ids involved. ActorID is
// the user who caused it.
type Event struct {
	Kind       Kind      `json:"kind"`
	ActorID    string    `json:"actor_id"`
	PostID     string    `json:"post_id,omitempty"`
	CommentID  string    `json:"comment_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func New(kind Kind, actorID string) Event {
	return Event{
		Kind:       kind,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher is satisfied by queue.Queue[Event].
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
