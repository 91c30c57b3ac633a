package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"time"

	"github.com/lunagic/agora/agora"
	"github.com/lunagic/agora/agoraservices/cache"
	"github.com/lunagic/agora/agoraservices/database"
	"github.com/lunagic/agora/agoraservices/mailer"
	"github.com/lunagic/agora/agoraservices/queue"
	"github.com/lunagic/agora/agoraservices/storage"
	"github.com/lunagic/agora/internal/apperror"
	"github.com/lunagic/agora/internal/auth"
	"github.com/lunagic/agora/internal/comments"
	"github.com/lunagic/agora/internal/events"
	"github.com/lunagic/agora/internal/health"
	"github.com/lunagic/agora/internal/likes"
	"github.com/lunagic/agora/internal/metrics"
	"github.com/lunagic/agora/internal/models"
	"github.com/lunagic/agora/internal/posts"
	"github.com/lunagic/agora/internal/users"
	"github.com/lunagic/poseidon/poseidon"
)

const reconciliationInterval = time.Hour

// Server is the assembled application with the services it owns.
type Server struct {
	app      *agora.App
	db       *database.Service
	notifier *events.Notifier
	metrics  *metrics.Metrics
}

// New builds every driver named by config, migrates the database and mounts
// all routes under the configured prefix. Extra configuration functions are
// applied last.
func New(ctx context.Context, config agora.AppConfig, extra ...agora.ConfigurationFunc) (*Server, error) {
	logger := config.Logger()

	db, err := config.Database(database.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	server, err := assemble(ctx, config, logger, db, extra)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return server, nil
}

func assemble(
	ctx context.Context,
	config agora.AppConfig,
	logger *slog.Logger,
	db *database.Service,
	extra []agora.ConfigurationFunc,
) (*Server, error) {
	cacheDriver, err := config.Cache()
	if err != nil {
		return nil, err
	}

	storageDriver, err := config.Storage()
	if err != nil {
		return nil, err
	}

	mailDriver, err := config.Mailer()
	if err != nil {
		return nil, err
	}

	queueDriver, err := config.Queue()
	if err != nil {
		return nil, err
	}

	eventQueue, err := queue.NewQueue[events.Event](ctx, queueDriver, events.QueueName)
	if err != nil {
		return nil, err
	}

	tokens, err := auth.NewTokens(auth.TokenConfig{
		Secret:           []byte(config.JWTSecret),
		RefreshSecret:    []byte(config.JWTRefreshSecret),
		ExpiresIn:        config.JWTExpiresIn,
		RefreshExpiresIn: config.JWTRefreshExpiresIn,
		Issuer:           config.JWTIssuer,
		Audience:         config.JWTAudience,
	})
	if err != nil {
		return nil, err
	}

	m := metrics.New()

	notifier, err := events.NewNotifier(db, mailDriver, logger, m, events.NotifierConfig{
		From: mailer.EnvelopeTarget{
			Name:  config.MailFromName,
			Email: config.MailFromEmail,
		},
	})
	if err != nil {
		return nil, err
	}

	likeStatus := posts.NewLikeStatus(db, cacheDriver)
	userService := users.NewService(db, tokens, eventQueue, logger)
	postService := posts.NewService(db, likeStatus, storageDriver, func(postID string) string {
		return config.Path("/post/" + postID + "/banner")
	}, logger)
	likeService := likes.NewService(db, postService, likeStatus, eventQueue, m, logger)
	commentService := comments.NewService(db, postService, eventQueue, m, logger)

	prefix := config.Path("")
	limiter := auth.NewRateLimiter(config.AuthLoginRate, config.AuthLoginBurst)

	configFuncs := []agora.ConfigurationFunc{
		agora.WithLogger(logger),
		agora.WithDatabaseAutoMigration(db, models.Entities()),
		agora.WithMiddlewares(poseidon.Middlewares{
			m.Middleware(),
			agora.RequestLogger(logger),
		}),
		agora.WithRouter(prefix, apperror.Respond, users.AuthEndpoints(userService, limiter.Middleware())),
		agora.WithRouter(prefix, apperror.Respond, users.Endpoints(userService, tokens)),
		agora.WithRouter(prefix, apperror.Respond, posts.Endpoints(postService, tokens)),
		agora.WithRouter(prefix, apperror.Respond, likes.Endpoints(likeService, tokens)),
		agora.WithRouter(prefix, apperror.Respond, comments.Endpoints(commentService, tokens)),
		agora.WithHandler(http.MethodGet+" "+config.Path("/health"), health.Handler(healthChecks(db, cacheDriver, storageDriver))),
		agora.WithHandler(http.MethodGet+" "+config.Path("/metrics"), m.Handler()),
		agora.WithQueue(eventQueue, notifier.Handle),
		agora.WithBackgroundJobs(cacheDriver, []agora.BackgroundJob{
			agora.NewBackgroundJob("counter-reconciliation", reconciliationInterval, ReconcileCounters(db, m, logger)),
		}),
	}

	// The local driver answers its own signed links
	if handler, ok := storageDriver.(http.Handler); ok {
		configFuncs = append(configFuncs, agora.WithHandler(http.MethodGet+" "+config.Path("/files/_presigned"), handler))
	}

	app, err := agora.NewApp(ctx, config, append(configFuncs, extra...)...)
	if err != nil {
		return nil, errors.Join(err, notifier.Close())
	}

	return &Server{
		app:      app,
		db:       db,
		notifier: notifier,
		metrics:  m,
	}, nil
}

func healthChecks(db *database.Service, cacheDriver cache.Driver, storageDriver storage.Driver) []health.Check {
	return []health.Check{
		{Name: "database", Probe: db.Ping},
		{Name: "cache", Probe: cacheDriver.Ping},
		{Name: "storage", Probe: storageDriver.IsReady},
	}
}

func (server *Server) App() *agora.App {
	return server.app
}

func (server *Server) Database() *database.Service {
	return server.db
}

// Start serves HTTP, consumes the event queue and runs the background jobs
// until ctx is done.
func (server *Server) Start(ctx context.Context) error {
	return server.app.Start(ctx)
}

func (server *Server) Close() error {
	return errors.Join(server.notifier.Close(), server.db.Close())
}

// TypeScriptTypes are the named types written to the generated client.
func TypeScriptTypes() map[string]reflect.Type {
	return map[string]reflect.Type{
		"User":        reflect.TypeFor[models.User](),
		"Post":        reflect.TypeFor[models.Post](),
		"PostLike":    reflect.TypeFor[models.PostLike](),
		"PostComment": reflect.TypeFor[models.PostComment](),
		"Access":      reflect.TypeFor[users.Access](),
		"UserPage":    reflect.TypeFor[users.UserPage](),
		"PostView":    reflect.TypeFor[posts.PostView](),
		"PostPage":    reflect.TypeFor[posts.PostPage](),
		"LikeView":    reflect.TypeFor[likes.LikeView](),
		"LikePage":    reflect.TypeFor[likes.LikePage](),
		"CommentView": reflect.TypeFor[comments.CommentView](),
		"CommentPage": reflect.TypeFor[comments.CommentPage](),
		"PageMeta":    reflect.TypeFor[database.PageMeta](),
	}
}
