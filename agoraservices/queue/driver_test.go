package queue_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/lunagic/agora/agoraservices/queue"
	"gotest.tools/v3/assert"
)

type commentCreated struct {
	PostID    string
	CommentID string
}

func testSuite(t *testing.T, driver queue.Driver) {
	events, err := queue.NewQueue[commentCreated](t.Context(), driver, uuid.NewString())
	assert.NilError(t, err)

	sent := commentCreated{PostID: uuid.NewString(), CommentID: uuid.NewString()}
	assert.NilError(t, events.Publish(t.Context(), sent))

	stop := errors.New(uuid.NewString())
	received := commentCreated{}

	consumeErr := events.Consume(t.Context(), func(ctx context.Context, message commentCreated) error {
		received = message
		return stop
	})
	assert.Equal(t, stop, consumeErr)
	assert.DeepEqual(t, sent, received)
}
