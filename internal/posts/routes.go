package posts

import (
	"net/http"

	"github.com/lunagic/agora/agora"
	"github.com/lunagic/agora/internal/auth"
	"github.com/lunagic/agora/internal/models"
)

func viewer(r *http.Request) string {
	id, _ := auth.UserID(r.Context())

	return id
}

func Endpoints(service *Service, tokens auth.Tokens) []agora.Endpoint {
	required := tokens.Required()
	public := tokens.Public()

	return []agora.Endpoint{
		agora.Route(
			"paginatePosts",
			http.MethodGet,
			"/post/paginate",
			func(r *http.Request, payload PaginatePosts) (PostPage, error) {
				return service.Paginate(r.Context(), viewer(r), payload)
			},
			public,
		),
		agora.Route(
			"getPost",
			http.MethodGet,
			"/post/{id}",
			func(r *http.Request, payload PostID) (PostView, error) {
				return service.Get(r.Context(), viewer(r), payload.ID)
			},
			public,
		),
		agora.Route(
			"createPost",
			http.MethodPost,
			"/post",
			func(r *http.Request, payload CreatePost) (models.Post, error) {
				actorID, err := auth.Actor(r)
				if err != nil {
					return models.Post{}, err
				}

				return service.Create(r.Context(), actorID, payload)
			},
			required,
		),
		agora.Route(
			"updatePost",
			http.MethodPut,
			"/post/{id}",
			func(r *http.Request, payload UpdatePost) (models.Post, error) {
				actorID, err := auth.Actor(r)
				if err != nil {
					return models.Post{}, err
				}

				return service.Update(r.Context(), actorID, payload)
			},
			required,
		),
		agora.Route(
			"deletePost",
			http.MethodDelete,
			"/post/{id}",
			func(r *http.Request, payload PostID) (agora.NoContent, error) {
				actorID, err := auth.Actor(r)
				if err != nil {
					return agora.NoContent{}, err
				}

				return agora.NoContent{}, service.Delete(r.Context(), actorID, payload.ID)
			},
			required,
		),
		agora.Route(
			"uploadPostBanner",
			http.MethodPut,
			"/post/{id}/banner",
			func(r *http.Request, payload BannerUpload) (models.Post, error) {
				actorID, err := auth.Actor(r)
				if err != nil {
					return models.Post{}, err
				}

				return service.UploadBanner(r.Context(), actorID, payload)
			},
			required,
		),
		agora.Route(
			"getPostBanner",
			http.MethodGet,
			"/post/{id}/banner",
			func(r *http.Request, payload PostID) (agora.Redirect, error) {
				link, err := service.BannerLink(r.Context(), payload.ID)

				return agora.Redirect(link), err
			},
		),
	}
}
