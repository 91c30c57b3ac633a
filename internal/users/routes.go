package users

import (
	"net/http"

	"github.com/lunagic/agora/agora"
	"github.com/lunagic/agora/internal/auth"
	"github.com/lunagic/agora/internal/models"
	"github.com/lunagic/poseidon/poseidon"
)

type UserID struct {
	ID string `json:"-"`
}

func (payload *UserID) Bind(r *http.Request) error {
	payload.ID = r.PathValue("id")

	return nil
}

// Endpoints are the user routes. Creating an account is open to anyone;
// everything else needs a valid access token.
func Endpoints(service *Service, tokens auth.Tokens) []agora.Endpoint {
	required := tokens.Required()

	return []agora.Endpoint{
		agora.Route(
			"paginateUsers",
			http.MethodGet,
			"/user/paginate",
			func(r *http.Request, payload PaginateUsers) (UserPage, error) {
				return service.Paginate(r.Context(), payload)
			},
			required,
		),
		agora.Route(
			"getUser",
			http.MethodGet,
			"/user/{id}",
			func(r *http.Request, payload UserID) (models.User, error) {
				return service.Get(r.Context(), payload.ID)
			},
			required,
		),
		agora.Route(
			"createUser",
			http.MethodPost,
			"/user",
			func(r *http.Request, payload CreateUser) (models.User, error) {
				return service.Create(r.Context(), payload)
			},
		),
		agora.Route(
			"updateUser",
			http.MethodPut,
			"/user/{id}",
			func(r *http.Request, payload UpdateUser) (models.User, error) {
				actorID, err := auth.Actor(r)
				if err != nil {
					return models.User{}, err
				}

				return service.Update(r.Context(), actorID, payload)
			},
			required,
		),
		agora.Route(
			"deleteUser",
			http.MethodDelete,
			"/user/{id}",
			func(r *http.Request, payload UserID) (agora.NoContent, error) {
				actorID, err := auth.Actor(r)
				if err != nil {
					return agora.NoContent{}, err
				}

				return agora.NoContent{}, service.Delete(r.Context(), actorID, payload.ID)
			},
			required,
		),
	}
}

// AuthEndpoints are the login, registration and token refresh routes. Login
// and registration go through limiter.
func AuthEndpoints(service *Service, limiter poseidon.Middleware) []agora.Endpoint {
	return []agora.Endpoint{
		agora.Route(
			"login",
			http.MethodPost,
			"/auth/login",
			func(r *http.Request, payload Login) (Access, error) {
				return service.Login(r.Context(), payload)
			},
			limiter,
		),
		agora.Route(
			"register",
			http.MethodPost,
			"/auth/register",
			func(r *http.Request, payload CreateUser) (Access, error) {
				return service.Register(r.Context(), payload)
			},
			limiter,
		),
		agora.Route(
			"refreshToken",
			http.MethodPost,
			"/auth/refresh/{refresh_token}",
			func(r *http.Request, payload RefreshToken) (auth.TokenPair, error) {
				return service.Refresh(r.Context(), payload.Token)
			},
		),
	}
}
