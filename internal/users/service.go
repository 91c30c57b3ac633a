package users

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lunagic/agora/agoraservices/database"
	"github.com/lunagic/agora/internal/apperror"
	"github.com/lunagic/agora/internal/auth"
	"github.com/lunagic/agora/internal/events"
	"github.com/lunagic/agora/internal/models"
)

const notFoundMessage = "User not found"

type Service struct {
	users     database.Repository[models.User]
	tokens    auth.Tokens
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(
	db *database.Service,
	tokens auth.Tokens,
	publisher events.Publisher,
	logger *slog.Logger,
) *Service {
	return &Service{
		users:     database.NewRepository[models.User](db),
		tokens:    tokens,
		publisher: publisher,
		logger:    logger,
	}
}

func (service *Service) Paginate(ctx context.Context, payload PaginateUsers) (UserPage, error) {
	alias := service.users.Alias()

	page, err := service.users.Paginate(
		ctx,
		payload.PageRequest(),
		database.WithFilters(alias, []database.Filter{
			database.Where("user_name", database.OperatorLike, payload.UserName),
			database.Where("user_email", database.OperatorEqual, payload.UserEmail),
		}, false),
		database.WithSort(alias, models.User{}, payload.Sort),
	)
	if err != nil {
		return UserPage{}, apperror.FromDatabase(err, notFoundMessage)
	}

	return UserPage(page), nil
}

func (service *Service) Get(ctx context.Context, id string) (models.User, error) {
	user, err := service.users.FindByID(ctx, id)
	if err != nil {
		return models.User{}, apperror.FromDatabase(err, notFoundMessage)
	}

	return user, nil
}

func (service *Service) GetByEmail(ctx context.Context, email string) (models.User, error) {
	user, err := service.users.SelectSingle(
		ctx,
		database.WithAdditionalWhere(database.Equal("user_email", email).On(service.users.Alias())),
	)
	if err != nil {
		return models.User{}, apperror.FromDatabase(err, notFoundMessage)
	}

	return user, nil
}

func (service *Service) emailTaken(ctx context.Context, email string, exceptID string) (bool, error) {
	existing, err := service.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrNoRows) {
			return false, nil
		}

		return false, err
	}

	return existing.ID != exceptID, nil
}

// Create stores a new user and announces the registration.
func (service *Service) Create(ctx context.Context, payload CreateUser) (models.User, error) {
	taken, err := service.emailTaken(ctx, payload.UserEmail, "")
	if err != nil {
		return models.User{}, err
	}

	if taken {
		return models.User{}, apperror.Conflict("Email already in use")
	}

	hashedPassword, err := auth.HashPassword(payload.Password)
	if err != nil {
		return models.User{}, apperror.Internal(err)
	}

	user := models.User{
		ID:             uuid.NewString(),
		CreatedAt:      time.Now().UTC(),
		UserName:       payload.UserName,
		HashedPassword: hashedPassword,
		UserEmail:      payload.UserEmail,
		PhoneNumber:    payload.PhoneNumber,
		DateOfBirth:    payload.DateOfBirth,
		UserPhotoURL:   payload.UserPhotoURL,
	}

	if err := service.users.Insert(ctx, user); err != nil {
		return models.User{}, apperror.FromDatabase(err, notFoundMessage)
	}

	if err := service.publisher.Publish(ctx, events.New(events.UserRegistered, user.ID)); err != nil {
		service.logger.Warn("Event Publish Failed", "kind", events.UserRegistered, "error", err)
	}

	return user, nil
}

// Update changes the actor's own account. A new password is only accepted
// together with the current one.
func (service *Service) Update(ctx context.Context, actorID string, payload UpdateUser) (models.User, error) {
	if actorID != payload.ID {
		return models.User{}, apperror.Forbidden("You can only update your own account")
	}

	user, err := service.Get(ctx, payload.ID)
	if err != nil {
		return models.User{}, err
	}

	if payload.NewPassword != nil {
		if payload.PreviousPassword == nil {
			return models.User{}, apperror.BadRequest("Previous password is required when setting a new password.")
		}

		matches, err := auth.ComparePassword(*payload.PreviousPassword, user.HashedPassword)
		if err != nil {
			return models.User{}, apperror.Internal(err)
		}

		if !matches {
			return models.User{}, apperror.BadRequest("Previous password is incorrect.")
		}

		user.HashedPassword, err = auth.HashPassword(*payload.NewPassword)
		if err != nil {
			return models.User{}, apperror.Internal(err)
		}
	}

	if payload.UserEmail != nil && *payload.UserEmail != user.UserEmail {
		taken, err := service.emailTaken(ctx, *payload.UserEmail, user.ID)
		if err != nil {
			return models.User{}, err
		}

		if taken {
			return models.User{}, apperror.Conflict("Email already in use")
		}

		user.UserEmail = *payload.UserEmail
	}

	if payload.UserName != nil {
		user.UserName = *payload.UserName
	}

	if payload.UserPhotoURL != nil {
		user.UserPhotoURL = payload.UserPhotoURL
	}

	now := time.Now().UTC()
	user.UpdatedAt = &now

	if err := service.users.Update(ctx, user); err != nil {
		return models.User{}, apperror.FromDatabase(err, notFoundMessage)
	}

	return user, nil
}

func (service *Service) Delete(ctx context.Context, actorID string, id string) error {
	if actorID != id {
		return apperror.Forbidden("You can only delete your own account")
	}

	user, err := service.Get(ctx, id)
	if err != nil {
		return err
	}

	return apperror.FromDatabase(service.users.Delete(ctx, user), notFoundMessage)
}

// Login checks the credentials and hands out a fresh token pair.
func (service *Service) Login(ctx context.Context, payload Login) (Access, error) {
	user, err := service.GetByEmail(ctx, payload.UserEmail)
	if err != nil {
		return Access{}, err
	}

	matches, err := auth.ComparePassword(payload.Password, user.HashedPassword)
	if err != nil {
		return Access{}, apperror.Internal(err)
	}

	if !matches {
		return Access{}, apperror.BadRequest("incorrect password")
	}

	return service.access(user)
}

func (service *Service) Register(ctx context.Context, payload CreateUser) (Access, error) {
	user, err := service.Create(ctx, payload)
	if err != nil {
		return Access{}, err
	}

	return service.access(user)
}

// Refresh trades a refresh token for a new pair, as long as its user still
// exists.
func (service *Service) Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	claims, err := service.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return auth.TokenPair{}, apperror.Unauthorized("Invalid refresh token", err)
	}

	user, err := service.Get(ctx, claims.UserID)
	if err != nil {
		return auth.TokenPair{}, err
	}

	pair, err := service.tokens.Issue(user.ID)
	if err != nil {
		return auth.TokenPair{}, apperror.Internal(err)
	}

	return pair, nil
}

func (service *Service) access(user models.User) (Access, error) {
	pair, err := service.tokens.Issue(user.ID)
	if err != nil {
		return Access{}, apperror.Internal(err)
	}

	return Access{
		User:         user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}
