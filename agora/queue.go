package agora

import (
	"context"

	"github.com/lunagic/agora/agoraservices/queue"
)

// WithQueue consumes q with handler for as long as the app is started.
func WithQueue[T any](q queue.Queue[T], handler queue.Handler[T]) ConfigurationFunc {
	return func(app *App) error {
		app.consumers = append(app.consumers, func(ctx context.Context) error {
			app.logger.Info("Queue Consumer Started", "queue", q.Name())

			return q.Consume(ctx, handler)
		})

		return nil
	}
}
