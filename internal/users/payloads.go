package users

import (
	"net/http"

	"github.com/lunagic/agora/agoraservices/database"
	"github.com/lunagic/agora/internal/listing"
	"github.com/lunagic/agora/internal/models"
	"github.com/lunagic/agora/internal/validation"
)

type CreateUser struct {
	UserName     string  `json:"user_name" validate:"required"`
	UserEmail    string  `json:"user_email" validate:"required,email"`
	Password     string  `json:"password" validate:"required"`
	PhoneNumber  *string `json:"phone_number" validate:"omitempty,phone"`
	DateOfBirth  *string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	UserPhotoURL *string `json:"user_photo_url" validate:"omitempty,url"`
}

func (payload *CreateUser) Validate(r *http.Request) error {
	password := payload.Password
	validation.Trim(payload)
	// Passwords are taken verbatim
	payload.Password = password

	return validation.Struct(payload)
}

type UpdateUser struct {
	ID               string  `json:"-"`
	UserName         *string `json:"user_name"`
	UserEmail        *string `json:"user_email" validate:"omitempty,email"`
	NewPassword      *string `json:"new_password"`
	PreviousPassword *string `json:"previous_password"`
	UserPhotoURL     *string `json:"user_photo_url" validate:"omitempty,url"`
}

func (payload *UpdateUser) Bind(r *http.Request) error {
	payload.ID = r.PathValue("id")

	return nil
}

func (payload *UpdateUser) Validate(r *http.Request) error {
	newPassword, previousPassword := payload.NewPassword, payload.PreviousPassword
	validation.Trim(payload)
	payload.NewPassword, payload.PreviousPassword = newPassword, previousPassword

	return validation.Struct(payload)
}

type PaginateUsers struct {
	listing.Params
	UserName  *string `json:"user_name"`
	UserEmail *string `json:"user_email" validate:"omitempty,email"`
}

func (payload *PaginateUsers) Bind(r *http.Request) error {
	params, err := listing.Bind(r)
	if err != nil {
		return err
	}

	payload.Params = params
	payload.UserName = listing.Lower(listing.String(r, "user_name"))
	payload.UserEmail = listing.String(r, "user_email")

	return nil
}

func (payload *PaginateUsers) Validate(r *http.Request) error {
	return validation.Struct(payload)
}

type Login struct {
	UserEmail string `json:"user_email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
}

func (payload *Login) Validate(r *http.Request) error {
	password := payload.Password
	validation.Trim(payload)
	payload.Password = password

	return validation.Struct(payload)
}

type RefreshToken struct {
	Token string `json:"-"`
}

func (payload *RefreshToken) Bind(r *http.Request) error {
	payload.Token = r.PathValue("refresh_token")

	return nil
}

// Access is what a successful login or registration answers with.
type Access struct {
	User         models.User `json:"user"`
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
}

type UserPage database.Page[models.User]
