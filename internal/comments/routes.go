package comments

import (
	"net/http"

	"github.com/lunagic/agora/agora"
	"github.com/lunagic/agora/internal/auth"
	"github.com/lunagic/agora/internal/models"
)

func Endpoints(service *Service, tokens auth.Tokens) []agora.Endpoint {
	required := tokens.Required()
	public := tokens.Public()

	return []agora.Endpoint{
		agora.Route(
			"paginatePostComments",
			http.MethodGet,
			"/post-comment/paginate",
			func(r *http.Request, payload PaginateComments) (CommentPage, error) {
				return service.Paginate(r.Context(), payload)
			},
			public,
		),
		agora.Route(
			"getPostComment",
			http.MethodGet,
			"/post-comment/{id}",
			func(r *http.Request, payload CommentID) (CommentView, error) {
				return service.Get(r.Context(), payload.ID)
			},
			public,
		),
		agora.Route(
			"createPostComment",
			http.MethodPost,
			"/post-comment",
			func(r *http.Request, payload CreateComment) (models.PostComment, error) {
				actorID, err := auth.Actor(r)
				if err != nil {
					return models.PostComment{}, err
				}

				return service.Create(r.Context(), actorID, payload)
			},
			required,
		),
		agora.Route(
			"updatePostComment",
			http.MethodPut,
			"/post-comment/{id}",
			func(r *http.Request, payload UpdateComment) (models.PostComment, error) {
				actorID, err := auth.Actor(r)
				if err != nil {
					return models.PostComment{}, err
				}

				return service.Update(r.Context(), actorID, payload)
			},
			required,
		),
		agora.Route(
			"deletePostComment",
			http.MethodDelete,
			"/post-comment/{id}",
			func(r *http.Request, payload CommentID) (agora.NoContent, error) {
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
