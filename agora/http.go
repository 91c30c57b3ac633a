package agora

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/lunagic/poseidon/poseidon"
)

const shutdownTimeout = 10 * time.Second

func WithHandler(path string, handler http.Handler) ConfigurationFunc {
	return func(app *App) error {
		if _, found := app.handlers[path]; found {
			return fmt.Errorf("duplicate handler for %q", path)
		}

		app.handlers[path] = handler

		return nil
	}
}

func WithMiddlewares(middlewares poseidon.Middlewares) ConfigurationFunc {
	return func(app *App) error {
		app.middlewares = middlewares

		return nil
	}
}

// Serve the application over HTTP until ctx is done, then drain in-flight
// requests.
func (app *App) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", app.config.ListenAddr())
	if err != nil {
		return err
	}

	app.logger.Info(
		"Server Listen on HTTP",
		"addr", fmt.Sprintf("http://%s", strings.ReplaceAll(listener.Addr().String(), "[::]", "0.0.0.0")),
	)

	server := &http.Server{
		Handler:           app.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			app.logger.Error("Server Shutdown", "error", err)
		}
	}()

	if err := server.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (app *App) Handler() http.Handler {
	mux := http.NewServeMux()

	// Add all the handlers
	for path, handler := range app.handlers {
		mux.Handle(path, handler)
	}

	return app.middlewares.Apply(mux)
}

// StatusRecorder remembers the status code written through it.
type StatusRecorder struct {
	http.ResponseWriter
	status int
}

func NewStatusRecorder(w http.ResponseWriter) *StatusRecorder {
	return &StatusRecorder{ResponseWriter: w}
}

// Status is the written status code, http.StatusOK when nothing was written.
func (recorder *StatusRecorder) Status() int {
	if recorder.status == 0 {
		return http.StatusOK
	}

	return recorder.status
}

func (recorder *StatusRecorder) WriteHeader(status int) {
	if recorder.status == 0 {
		recorder.status = status
	}

	recorder.ResponseWriter.WriteHeader(status)
}

func (recorder *StatusRecorder) Write(b []byte) (int, error) {
	if recorder.status == 0 {
		recorder.status = http.StatusOK
	}

	return recorder.ResponseWriter.Write(b)
}

func (recorder *StatusRecorder) Unwrap() http.ResponseWriter {
	return recorder.ResponseWriter
}

// RequestLogger logs every request as it arrives and once it completes.
func RequestLogger(logger *slog.Logger) poseidon.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			logger.DebugContext(r.Context(), "Incoming Request",
				"method", r.Method,
				"url", r.URL.String(),
			)

			recorder := NewStatusRecorder(w)
			next.ServeHTTP(recorder, r)

			level := slog.LevelInfo
			if recorder.Status() >= http.StatusInternalServerError {
				level = slog.LevelError
			}

			logger.Log(r.Context(), level, "Request Completed",
				"method", r.Method,
				"url", r.URL.String(),
				"status", recorder.Status(),
				"duration", time.Since(start),
			)
		})
	}
}
