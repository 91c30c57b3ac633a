package queue_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lunagic/agora/agoraservices/queue"
	"gotest.tools/v3/assert"
)

func TestDriverMemory(t *testing.T) {
	driver, err := queue.NewDriverMemory()
	assert.NilError(t, err)
	testSuite(t, driver)
}

func TestDriverMemoryUnknownQueue(t *testing.T) {
	driver, err := queue.NewDriverMemory()
	assert.NilError(t, err)

	err = driver.Publish(t.Context(), "missing", []byte("{}"))
	assert.ErrorIs(t, err, queue.ErrQueueNotFound)
}

func TestDriverMemoryStopsWithContext(t *testing.T) {
	driver, err := queue.NewDriverMemory()
	assert.NilError(t, err)
	assert.NilError(t, driver.CreateQueue(t.Context(), "idle"))

	ctx, cancel := context.WithTimeout(t.Context(), time.Millisecond*50)
	defer cancel()

	err = driver.Consume(ctx, "idle", func(ctx context.Context, payload []byte) error {
		return nil
	})
	assert.Assert(t, errors.Is(err, context.DeadlineExceeded))
}
