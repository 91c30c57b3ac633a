package agora_test

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lunagic/agora/agora"
	"github.com/lunagic/agora/agoraservices/queue"
	"github.com/lunagic/agora/agoratest"
	"github.com/lunagic/poseidon/poseidon"
	"gotest.tools/v3/assert"
)

func TestAppStartConsumesQueues(t *testing.T) {
	type Message struct {
		Name string
	}

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	queueDriver, err := queue.NewDriverMemory()
	assert.NilError(t, err)

	messageQueue, err := queue.NewQueue[Message](ctx, queueDriver, uuid.NewString())
	assert.NilError(t, err)

	received := make(chan Message, 1)

	app, err := agora.NewApp(
		ctx,
		agoratest.NewConfig(t),
		agora.WithQueue(messageQueue, func(ctx context.Context, message Message) error {
			received <- message
			return nil
		}),
	)
	assert.NilError(t, err)

	stopped := make(chan error, 1)
	go func() {
		stopped <- app.Start(ctx)
	}()

	expected := Message{Name: uuid.NewString()}
	assert.NilError(t, messageQueue.Publish(ctx, expected))

	select {
	case actual := <-received:
		assert.DeepEqual(t, expected, actual)
	case <-time.After(5 * time.Second):
		t.Fatal("message was not consumed")
	}

	// Cancelling the context shuts the server down cleanly
	cancel()
	select {
	case err := <-stopped:
		assert.NilError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("app did not stop")
	}
}

func TestRequestLogger(t *testing.T) {
	requests := atomic.Int64{}

	app, err := agora.NewApp(
		t.Context(),
		agoratest.NewConfig(t),
		agora.WithHandler("GET /teapot", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			w.WriteHeader(http.StatusTeapot)
		})),
		agora.WithMiddlewares(poseidon.Middlewares{
			agora.RequestLogger(agoratest.NewConfig(t).Logger()),
		}),
	)
	assert.NilError(t, err)

	agoratest.TestRequest(t, app, agoratest.HTTPTestCase{
		Request: agoratest.HTTPTestCaseRequest{
			Method: http.MethodGet,
			Path:   "/teapot",
		},
		Expected: agoratest.HTTPTestCaseResponse{
			Status: http.StatusTeapot,
		},
	})
	assert.Equal(t, int64(1), requests.Load())
}

func TestStatusRecorder(t *testing.T) {
	recorder := agora.NewStatusRecorder(nil)
	assert.Equal(t, http.StatusOK, recorder.Status())
}
