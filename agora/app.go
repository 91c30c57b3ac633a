package agora

import (
	"context"
	"log/slog"
	"net/http"
	"reflect"
	"sync"

	"github.com/google/uuid"
	"github.com/lunagic/agora/agoraservices/cache"
	"github.com/lunagic/agora/agoraservices/database"
	"github.com/lunagic/poseidon/poseidon"
	"github.com/lunagic/typescript-go/typescript"
)

type ConfigurationFunc func(app *App) error

func NewApp(
	ctx context.Context,
	config AppConfig,
	configFuncs ...ConfigurationFunc,
) (
	*App,
	error,
) {
	// Build the app with the defaults
	app := &App{
		config:       config,
		instanceUUID: uuid.NewString(),
		logger:       slog.Default(),
		handlers:     map[string]http.Handler{},
		routes:       map[string]typescript.Route{},
		typeScript: typeScriptConfig{
			typesMap: map[string]reflect.Type{},
		},
	}

	// Process all config functions provided by the user
	for _, configFunc := range configFuncs {
		if err := configFunc(app); err != nil {
			return nil, err
		}
	}

	if app.database != nil {
		changes, err := app.database.AutoMigrate(ctx, app.databaseAutoMigrationEntities)
		if err != nil {
			return nil, err
		}

		if changes > 0 {
			app.logger.Info("Database Migrated", "changes", changes)
		}
	}

	if err := app.calculateTypeScript(); err != nil {
		return nil, err
	}

	return app, nil
}

type App struct {
	config                        AppConfig
	instanceUUID                  string
	logger                        *slog.Logger
	handlers                      map[string]http.Handler
	middlewares                   poseidon.Middlewares
	routes                        map[string]typescript.Route
	typeScript                    typeScriptConfig
	database                      *database.Service
	databaseAutoMigrationEntities []database.Entity
	jobs                          []BackgroundJob
	jobsCacheService              cache.Driver
	consumers                     []func(ctx context.Context) error
}

func WithLogger(logger *slog.Logger) ConfigurationFunc {
	return func(app *App) error {
		app.logger = logger

		return nil
	}
}

func (app *App) Config() AppConfig {
	return app.config
}

func (app *App) Logger() *slog.Logger {
	return app.logger
}

// Start runs the background jobs, the queue consumers and the HTTP server
// until ctx is done or the server fails.
func (app *App) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := app.Background(ctx); err != nil {
		return err
	}

	wg := sync.WaitGroup{}
	for _, consumer := range app.consumers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			if err := consumer(ctx); err != nil && ctx.Err() == nil {
				app.logger.Error("Queue Consumer Stopped", "error", err)
			}
		}()
	}

	err := app.Serve(ctx)
	cancel()
	wg.Wait()

	return err
}
