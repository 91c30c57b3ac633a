// Package testfixtures builds the rows and collaborators domain tests share.
package testfixtures

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lunagic/agora/agoraservices/database"
	"github.com/lunagic/agora/agoratest"
	"github.com/lunagic/agora/internal/apperror"
	"github.com/lunagic/agora/internal/auth"
	"github.com/lunagic/agora/internal/events"
	"github.com/lunagic/agora/internal/models"
	"gotest.tools/v3/assert"
)

const Password = "correct horse battery staple"

func NewDatabase(t *testing.T) *database.Service {
	return agoratest.NewDatabase(t, models.Entities())
}

func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func NewTokens(t *testing.T) auth.Tokens {
	tokens, err := auth.NewTokens(auth.TokenConfig{
		Secret:           []byte(uuid.NewString()),
		RefreshSecret:    []byte(uuid.NewString()),
		ExpiresIn:        time.Minute,
		RefreshExpiresIn: time.Hour,
		Issuer:           "agora-test",
	})
	assert.NilError(t, err)

	return tokens
}

// Publisher remembers every published event.
type Publisher struct {
	mutex  sync.Mutex
	events []events.Event
}

func (publisher *Publisher) Publish(ctx context.Context, event events.Event) error {
	publisher.mutex.Lock()
	defer publisher.mutex.Unlock()

	publisher.events = append(publisher.events, event)

	return nil
}

func (publisher *Publisher) Events() []events.Event {
	publisher.mutex.Lock()
	defer publisher.mutex.Unlock()

	return append([]events.Event{}, publisher.events...)
}

func NewUser(t *testing.T, db *database.Service) models.User {
	t.Helper()

	hashedPassword, err := auth.HashPassword(Password)
	assert.NilError(t, err)

	user := models.User{
		ID:             uuid.NewString(),
		CreatedAt:      time.Now().UTC(),
		UserName:       "user " + uuid.NewString(),
		HashedPassword: hashedPassword,
		UserEmail:      uuid.NewString() + "@example.com",
	}
	assert.NilError(t, database.NewRepository[models.User](db).Insert(t.Context(), user))

	return user
}

func NewPost(t *testing.T, db *database.Service, author models.User) models.Post {
	t.Helper()

	post := models.Post{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Title:     "title " + uuid.NewString(),
		Content:   uuid.NewString(),
		AuthorID:  author.ID,
	}
	assert.NilError(t, database.NewRepository[models.Post](db).Insert(t.Context(), post))

	return post
}

// Reload reads entity back from the database by its id.
func Reload[T database.Entity](t *testing.T, db *database.Service, id string) T {
	t.Helper()

	entity, err := database.NewRepository[T](db).FindByID(t.Context(), id)
	assert.NilError(t, err)

	return entity
}

// AssertStatus checks that err is an application error answered with status.
func AssertStatus(t *testing.T, err error, status int) {
	t.Helper()

	appError := apperror.AppError{}
	assert.Assert(t, errors.As(err, &appError), "expected an application error, got %v", err)
	assert.Equal(t, status, appError.Code, appError.Error())
}
