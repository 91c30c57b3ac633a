package server_test

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/lunagic/agora/agora"
	"github.com/lunagic/agora/agoraservices/database"
	"github.com/lunagic/agora/agoratest"
	"github.com/lunagic/agora/internal/comments"
	"github.com/lunagic/agora/internal/likes"
	"github.com/lunagic/agora/internal/metrics"
	"github.com/lunagic/agora/internal/models"
	"github.com/lunagic/agora/internal/posts"
	"github.com/lunagic/agora/internal/server"
	"github.com/lunagic/agora/internal/testfixtures"
	"github.com/lunagic/agora/internal/users"
	"gotest.tools/v3/assert"
)

func newServer(t *testing.T) (*server.Server, agora.AppConfig) {
	t.Helper()

	config := agoratest.NewConfig(t)
	config.Env = agora.EnvironmentProduction

	s, err := server.New(t.Context(), config)
	assert.NilError(t, err)
	t.Cleanup(func() {
		assert.NilError(t, s.Close())
	})

	return s, config
}

func register(t *testing.T, app *agora.App, config agora.AppConfig) users.Access {
	t.Helper()

	return agoratest.DecodeJSON[users.Access](t, agoratest.Do(t, app, agoratest.HTTPTestCaseRequest{
		Method: http.MethodPost,
		Path:   config.Path("/auth/register"),
		Body: map[string]any{
			"user_name":  "user " + uuid.NewString(),
			"user_email": uuid.NewString() + "@example.com",
			"password":   testfixtures.Password,
		},
	}), http.StatusCreated)
}

func TestEndToEnd(t *testing.T) {
	s, config := newServer(t)
	app := s.App()

	author := register(t, app, config)
	reader := register(t, app, config)

	// Login
	{
		access := agoratest.DecodeJSON[users.Access](t, agoratest.Do(t, app, agoratest.HTTPTestCaseRequest{
			Method: http.MethodPost,
			Path:   config.Path("/auth/login"),
			Body: map[string]any{
				"user_email": author.User.UserEmail,
				"password":   testfixtures.Password,
			},
		}), http.StatusCreated)
		assert.Equal(t, author.User.ID, access.User.ID)
	}

	post := agoratest.DecodeJSON[models.Post](t, agoratest.Do(t, app, agoratest.HTTPTestCaseRequest{
		Method:      http.MethodPost,
		Path:        config.Path("/post"),
		Body:        map[string]any{"title": "Hello", "content": "World"},
		BearerToken: author.AccessToken,
	}), http.StatusCreated)

	// Like and comment as the reader
	{
		agoratest.DecodeJSON[models.PostLike](t, agoratest.Do(t, app, agoratest.HTTPTestCaseRequest{
			Method:      http.MethodPost,
			Path:        config.Path("/post-like/" + post.ID),
			BearerToken: reader.AccessToken,
		}), http.StatusCreated)

		comment := agoratest.DecodeJSON[models.PostComment](t, agoratest.Do(t, app, agoratest.HTTPTestCaseRequest{
			Method:      http.MethodPost,
			Path:        config.Path("/post-comment"),
			Body:        map[string]any{"post_id": post.ID, "content": "First!"},
			BearerToken: reader.AccessToken,
		}), http.StatusCreated)

		agoratest.DecodeJSON[models.PostComment](t, agoratest.Do(t, app, agoratest.HTTPTestCaseRequest{
			Method:      http.MethodPost,
			Path:        config.Path("/post-comment"),
			Body:        map[string]any{"post_id": post.ID, "parent_id": comment.ID, "content": "Thanks"},
			BearerToken: author.AccessToken,
		}), http.StatusCreated)

		replies := agoratest.DecodeJSON[comments.CommentPage](t, agoratest.Do(t, app, agoratest.HTTPTestCaseRequest{
			Method: http.MethodGet,
			Path:   config.Path("/post-comment/paginate"),
			Query:  url.Values{"post_id": {post.ID}, "parent_id": {comment.ID}},
		}), http.StatusOK)
		assert.Equal(t, 1, replies.Meta.TotalItems)
		assert.Equal(t, author.User.UserName, replies.Items[0].CommentedByName)
	}

	// The reader sees the counters and their like
	{
		view := agoratest.DecodeJSON[posts.PostView](t, agoratest.Do(t, app, agoratest.HTTPTestCaseRequest{
			Method:      http.MethodGet,
			Path:        config.Path("/post/" + post.ID),
			BearerToken: reader.AccessToken,
		}), http.StatusOK)
		assert.Equal(t, int64(1), view.LikesCount)
		assert.Equal(t, int64(2), view.CommentsCount)
		assert.Assert(t, view.IsLikedByCurrentUser != nil && *view.IsLikedByCurrentUser)
		assert.Equal(t, 1, len(view.Comments))
		assert.Equal(t, int64(1), view.Comments[0].RepliesCount)

		page := agoratest.DecodeJSON[likes.LikePage](t, agoratest.Do(t, app, agoratest.HTTPTestCaseRequest{
			Method:      http.MethodGet,
			Path:        config.Path("/post-like/paginate"),
			Query:       url.Values{"user_id": {reader.User.ID}},
			BearerToken: author.AccessToken,
		}), http.StatusOK)
		assert.Equal(t, 1, page.Meta.TotalItems)
	}

	// Refresh
	{
		pair := agoratest.DecodeJSON[map[string]string](t, agoratest.Do(t, app, agoratest.HTTPTestCaseRequest{
			Method: http.MethodPost,
			Path:   config.Path("/auth/refresh/" + reader.RefreshToken),
		}), http.StatusCreated)
		assert.Assert(t, pair["access_token"] != "")
	}

	// Routes live under the prefix only
	agoratest.TestRequest(t, app, agoratest.HTTPTestCase{
		Request:  agoratest.HTTPTestCaseRequest{Method: http.MethodGet, Path: "/post/" + post.ID},
		Expected: agoratest.HTTPTestCaseResponse{Status: http.StatusNotFound},
	})
}

func TestBannerIsServedThroughSignedLink(t *testing.T) {
	s, config := newServer(t)
	app := s.App()

	author := register(t, app, config)
	post := agoratest.DecodeJSON[models.Post](t, agoratest.Do(t, app, agoratest.HTTPTestCaseRequest{
		Method:      http.MethodPost,
		Path:        config.Path("/post"),
		Body:        map[string]any{"title": "Hello", "content": "World"},
		BearerToken: author.AccessToken,
	}), http.StatusCreated)

	image := []byte("GIF89a" + strings.Repeat("\x00", 32))

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("banner", "banner.gif")
	assert.NilError(t, err)
	_, err = part.Write(image)
	assert.NilError(t, err)
	assert.NilError(t, writer.Close())

	headers := http.Header{}
	headers.Set("Content-Type", writer.FormDataContentType())

	updated := agoratest.DecodeJSON[models.Post](t, agoratest.Do(t, app, agoratest.HTTPTestCaseRequest{
		Method:      http.MethodPut,
		Path:        config.Path("/post/" + post.ID + "/banner"),
		Body:        body,
		Headers:     headers,
		BearerToken: author.AccessToken,
	}), http.StatusOK)
	assert.Equal(t, config.Path("/post/"+post.ID+"/banner"), *updated.BannerURL)

	redirect := agoratest.Do(t, app, agoratest.HTTPTestCaseRequest{
		Method: http.MethodGet,
		Path:   *updated.BannerURL,
	})
	assert.Equal(t, http.StatusFound, redirect.Code)

	location := redirect.Header().Get("Location")
	assert.Assert(t, strings.HasPrefix(location, config.Path("/files/_presigned?")))

	file := agoratest.Do(t, app, agoratest.HTTPTestCaseRequest{
		Method: http.MethodGet,
		Path:   location,
	})
	assert.Equal(t, http.StatusOK, file.Code)

	served, err := io.ReadAll(file.Body)
	assert.NilError(t, err)
	assert.DeepEqual(t, image, served)

	// A tampered signature is refused
	agoratest.TestRequest(t, app, agoratest.HTTPTestCase{
		Request: agoratest.HTTPTestCaseRequest{
			Method: http.MethodGet,
			Path:   config.Path("/files/_presigned"),
			Query:  url.Values{"signature": {"forged"}},
		},
		Expected: agoratest.HTTPTestCaseResponse{Status: http.StatusForbidden},
	})
}

func TestHealthAndMetrics(t *testing.T) {
	s, config := newServer(t)

	agoratest.TestRequest(t, s.App(), agoratest.HTTPTestCase{
		Request: agoratest.HTTPTestCaseRequest{
			Method: http.MethodGet,
			Path:   config.Path("/health"),
		},
		Expected: agoratest.HTTPTestCaseResponse{
			Status: http.StatusOK,
			Body:   `{"status":"ok","info":{"cache":"up","database":"up","storage":"up"}}`,
		},
	})

	recorder := agoratest.Do(t, s.App(), agoratest.HTTPTestCaseRequest{
		Method: http.MethodGet,
		Path:   config.Path("/metrics"),
	})
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Assert(t, strings.Contains(recorder.Body.String(), "agora_http_requests_total"))
}

func TestReconcileCounters(t *testing.T) {
	ctx := t.Context()
	db := testfixtures.NewDatabase(t)

	author := testfixtures.NewUser(t, db)
	reader := testfixtures.NewUser(t, db)
	post := testfixtures.NewPost(t, db, author)

	// One real like, and a counter that claims three
	assert.NilError(t, database.NewRepository[models.PostLike](db).Insert(ctx, models.PostLike{
		ID:        uuid.NewString(),
		CreatedAt: post.CreatedAt,
		PostID:    post.ID,
		UserID:    reader.ID,
	}))
	for range 3 {
		assert.NilError(t, db.AdjustCounter(ctx, &post, "likes_count", database.Increment))
	}

	assert.NilError(t, server.ReconcileCounters(db, metrics.New(), testfixtures.Logger())(ctx))

	stored := testfixtures.Reload[models.Post](t, db, post.ID)
	assert.Equal(t, int64(1), stored.LikesCount)
	assert.Equal(t, int64(0), stored.CommentsCount)
}
