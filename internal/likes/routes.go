package likes

import (
	"net/http"

	"github.com/lunagic/agora/agora"
	"github.com/lunagic/agora/internal/auth"
	"github.com/lunagic/agora/internal/models"
)

func Endpoints(service *Service, tokens auth.Tokens) []agora.Endpoint {
	required := tokens.Required()

	return []agora.Endpoint{
		agora.Route(
			"paginatePostLikes",
			http.MethodGet,
			"/post-like/paginate",
			func(r *http.Request, payload PaginateLikes) (LikePage, error) {
				return service.Paginate(r.Context(), payload)
			},
			required,
		),
		agora.Route(
			"likePost",
			http.MethodPost,
			"/post-like/{post_id}",
			func(r *http.Request, payload PostID) (models.PostLike, error) {
				actorID, err := auth.Actor(r)
				if err != nil {
					return models.PostLike{}, err
				}

				return service.Like(r.Context(), actorID, payload.PostID)
			},
			required,
		),
		agora.Route(
			"unlikePost",
			http.MethodDelete,
			"/post-like/{post_id}",
			func(r *http.Request, payload PostID) (agora.NoContent, error) {
				actorID, err := auth.Actor(r)
				if err != nil {
					return agora.NoContent{}, err
				}

				return agora.NoContent{}, service.Unlike(r.Context(), actorID, payload.PostID)
			},
			required,
		),
	}
}
