package seed

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lunagic/agora/agoraservices/database"
	"github.com/lunagic/agora/internal/auth"
	"github.com/lunagic/agora/internal/models"
)

type User struct {
	Name     string
	Email    string
	Password string
}

// Run creates the seed user unless a user with its email already exists. It
// reports whether a user was created.
func Run(ctx context.Context, db *database.Service, logger *slog.Logger, seedUser User) (bool, error) {
	email := strings.TrimSpace(seedUser.Email)
	if email == "" || seedUser.Password == "" {
		return false, errors.New("seed user needs an email and a password")
	}

	users := database.NewRepository[models.User](db)

	_, err := users.SelectSingle(ctx, database.WithAdditionalWhere(database.Equal("user_email", email).On(users.Alias())))
	if err == nil {
		logger.Info("Seed User Exists", "email", email)
		return false, nil
	}

	if !errors.Is(err, database.ErrNoRows) {
		return false, err
	}

	hashedPassword, err := auth.HashPassword(seedUser.Password)
	if err != nil {
		return false, err
	}

	if err := users.Insert(ctx, models.User{
		ID:             uuid.NewString(),
		CreatedAt:      time.Now().UTC(),
		UserName:       seedUser.Name,
		HashedPassword: hashedPassword,
		UserEmail:      email,
	}); err != nil {
		return false, err
	}

	logger.Info("Seed User Created", "email", email)

	return true, nil
}
