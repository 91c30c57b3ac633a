package agora_test

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/lunagic/agora/agora"
	"github.com/lunagic/agora/agoraservices/database"
	"github.com/lunagic/agora/agoratest"
	"github.com/lunagic/poseidon/poseidon"
	"gotest.tools/v3/assert"
)

var (
	mockRouterPrefix         = "/" + uuid.NewString()
	mockUnauthorizedResponse = uuid.NewString()
	mockUsername             = uuid.NewString()
	mockPassword             = uuid.NewString()
	mockIndexResponse        = uuid.NewString()
)

type User struct {
	ID   string `db:"id,primaryKey" json:"id"`
	Name string `db:"name" json:"name"`
}

func (user User) TableStructure() database.Table {
	return database.Table{
		Name: "users",
	}
}

func RouterMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actualUsername, actualPassword, ok := r.BasicAuth()
		if !ok || actualUsername != mockUsername || actualPassword != mockPassword {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(mockUnauthorizedResponse))
			return
		}

		next.ServeHTTP(w, r)
	})
}

type UserRequest struct {
	ID   string `json:"-"`
	Name string `json:"name"`
}

func (userRequest *UserRequest) Bind(r *http.Request) error {
	userRequest.ID = r.PathValue("id")

	return nil
}

func (userRequest UserRequest) Validate(r *http.Request) error {
	if userRequest.Name == "" {
		return UserFacingError{
			StatusCode: http.StatusBadRequest,
			Err:        errors.New("name can not be blank"),
		}
	}

	return nil
}

type UserFacingError struct {
	StatusCode int
	Err        error
}

func (err UserFacingError) Error() string {
	return err.Err.Error()
}

func errorHandler(w http.ResponseWriter, r *http.Request, err error) {
	x, ok := err.(UserFacingError)
	if ok {
		poseidon.RespondJSON(w, x.StatusCode, x.Err.Error())
		return
	}

	if errors.Is(err, agora.ErrMalformedBody) {
		poseidon.RespondJSON(w, http.StatusBadRequest, "malformed")
		return
	}

	poseidon.RespondJSON(w, http.StatusInternalServerError, "something went wrong")
}

func TestAppEmpty(t *testing.T) {
	app, err := agora.NewApp(
		t.Context(),
		agoratest.NewConfig(t),
	)
	assert.NilError(t, err)

	agoratest.TestRequest(t, app, agoratest.HTTPTestCase{
		Request: agoratest.HTTPTestCaseRequest{
			Method: http.MethodGet,
			Path:   "/",
		},
		Expected: agoratest.HTTPTestCaseResponse{
			Status: http.StatusNotFound,
			Body:   "404 page not found",
		},
	})
}

func TestAppStandard(t *testing.T) {
	config := agoratest.NewConfig(t)

	databaseService, err := config.Database()
	assert.NilError(t, err)

	typeScript := bytes.NewBuffer(nil)

	app, err := agora.NewApp(
		t.Context(),
		config,
		agora.WithHandler("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(mockIndexResponse))
		})),
		agora.WithTypeScriptOutput("TestingNamespace", typeScript, map[string]reflect.Type{
			"User": reflect.TypeFor[User](),
		}),
		agora.WithRouter(
			mockRouterPrefix,
			errorHandler,
			[]agora.Endpoint{
				agora.Route("renameUser", http.MethodPut, "/user/{id}", func(r *http.Request, in UserRequest) (User, error) {
					if in.Name == "unknown-user" {
						return User{}, UserFacingError{
							StatusCode: http.StatusBadRequest,
							Err:        errors.New("wrong user requested"),
						}
					}

					return User{ID: in.ID, Name: in.Name}, nil
				}),
				agora.Route("createUser", http.MethodPost, "/user", func(r *http.Request, in UserRequest) (User, error) {
					return User{ID: "new", Name: in.Name}, nil
				}),
				agora.Route("deleteUser", http.MethodDelete, "/user/{id}", func(r *http.Request, in struct{}) (agora.NoContent, error) {
					return agora.NoContent{}, nil
				}),
				agora.Route("userAvatar", http.MethodGet, "/user/{id}/avatar", func(r *http.Request, in struct{}) (agora.Redirect, error) {
					return agora.Redirect("/avatars/" + r.PathValue("id") + ".png"), nil
				}),
			},
			RouterMiddleware,
		),
		agora.WithDatabaseAutoMigration(databaseService, []database.Entity{
			User{},
		}),
	)
	assert.NilError(t, err)

	authorize := func(request *http.Request) {
		request.SetBasicAuth(mockUsername, mockPassword)
	}

	// The TypeScript client lists the routes
	{
		assert.Assert(t, strings.Contains(typeScript.String(), "TestingNamespace"))
	}

	// Test the root url loads the index
	agoratest.TestRequest(t, app, agoratest.HTTPTestCase{
		Request: agoratest.HTTPTestCaseRequest{
			Method: http.MethodGet,
			Path:   "/",
		},
		Expected: agoratest.HTTPTestCaseResponse{
			Status: http.StatusOK,
			Body:   mockIndexResponse,
		},
	})

	// Test that api requests fail without auth
	agoratest.TestRequest(t, app, agoratest.HTTPTestCase{
		Request: agoratest.HTTPTestCaseRequest{
			Method: http.MethodPut,
			Path:   mockRouterPrefix + "/user/42",
			Body:   UserRequest{Name: mockUsername},
		},
		Expected: agoratest.HTTPTestCaseResponse{
			Status: http.StatusUnauthorized,
			Body:   mockUnauthorizedResponse,
		},
	})

	// Test that api requests succeed with auth and bind the path
	agoratest.TestRequest(t, app, agoratest.HTTPTestCase{
		Request: agoratest.HTTPTestCaseRequest{
			Method:   http.MethodPut,
			Path:     mockRouterPrefix + "/user/42",
			Modifier: authorize,
			Body:     UserRequest{Name: mockUsername},
		},
		Expected: agoratest.HTTPTestCaseResponse{
			Status: http.StatusOK,
			Body:   User{ID: "42", Name: mockUsername},
		},
	})

	// POST answers 201
	agoratest.TestRequest(t, app, agoratest.HTTPTestCase{
		Request: agoratest.HTTPTestCaseRequest{
			Method:   http.MethodPost,
			Path:     mockRouterPrefix + "/user",
			Modifier: authorize,
			Body:     UserRequest{Name: mockUsername},
		},
		Expected: agoratest.HTTPTestCaseResponse{
			Status: http.StatusCreated,
			Body:   User{ID: "new", Name: mockUsername},
		},
	})

	// NoContent answers 204
	agoratest.TestRequest(t, app, agoratest.HTTPTestCase{
		Request: agoratest.HTTPTestCaseRequest{
			Method:   http.MethodDelete,
			Path:     mockRouterPrefix + "/user/42",
			Modifier: authorize,
		},
		Expected: agoratest.HTTPTestCaseResponse{
			Status: http.StatusNoContent,
			Body:   "",
		},
	})

	// Redirect answers 302
	agoratest.TestRequest(t, app, agoratest.HTTPTestCase{
		Request: agoratest.HTTPTestCaseRequest{
			Method:   http.MethodGet,
			Path:     mockRouterPrefix + "/user/42/avatar",
			Modifier: authorize,
		},
		Expected: agoratest.HTTPTestCaseResponse{
			Status:  http.StatusFound,
			Headers: http.Header{"Location": {"/avatars/42.png"}},
		},
	})

	// Test Payload Decoding Error
	agoratest.TestRequest(t, app, agoratest.HTTPTestCase{
		Request: agoratest.HTTPTestCaseRequest{
			Method:   http.MethodPut,
			Path:     mockRouterPrefix + "/user/42",
			Modifier: authorize,
			Body:     strings.NewReader("{not json"),
		},
		Expected: agoratest.HTTPTestCaseResponse{
			Status: http.StatusBadRequest,
			Body:   "\"malformed\"",
		},
	})

	// Test Payload Validation Error
	agoratest.TestRequest(t, app, agoratest.HTTPTestCase{
		Request: agoratest.HTTPTestCaseRequest{
			Method:   http.MethodPut,
			Path:     mockRouterPrefix + "/user/42",
			Modifier: authorize,
			Body:     io.NopCloser(strings.NewReader("")),
		},
		Expected: agoratest.HTTPTestCaseResponse{
			Status: http.StatusBadRequest,
			Body:   "\"name can not be blank\"",
		},
	})

	// Test Router Error
	agoratest.TestRequest(t, app, agoratest.HTTPTestCase{
		Request: agoratest.HTTPTestCaseRequest{
			Method:   http.MethodPut,
			Path:     mockRouterPrefix + "/user/42",
			Modifier: authorize,
			Body:     UserRequest{Name: "unknown-user"},
		},
		Expected: agoratest.HTTPTestCaseResponse{
			Status: http.StatusBadRequest,
			Body:   "\"wrong user requested\"",
		},
	})
}

func TestDuplicateRouteName(t *testing.T) {
	endpoint := agora.Route("ping", http.MethodGet, "/ping", func(r *http.Request, in struct{}) (string, error) {
		return "pong", nil
	})

	_, err := agora.NewApp(
		t.Context(),
		agoratest.NewConfig(t),
		agora.WithRouter("/api", errorHandler, []agora.Endpoint{endpoint, endpoint}),
	)
	assert.ErrorContains(t, err, "duplicate route name")
}
