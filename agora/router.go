package agora

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/lunagic/poseidon/poseidon"
	"github.com/lunagic/typescript-go/typescript"
)

var ErrMalformedBody = errors.New("malformed request body")

type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Binder fills a request payload from the parts of the request that are not
// the JSON body (path values, query string, multipart forms).
type Binder interface {
	Bind(r *http.Request) error
}

type Validator interface {
	Validate(r *http.Request) error
}

// NoContent as a route's output answers 204 with an empty body.
type NoContent struct{}

// Redirect as a route's output answers 302 pointing at the URL.
type Redirect string

func (redirect Redirect) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, string(redirect), http.StatusFound)
}

type Endpoint struct {
	Name         string
	Method       string
	Path         string
	requestType  reflect.Type
	responseType reflect.Type
	middlewares  []poseidon.Middleware
	build        func(errorHandler ErrorHandler) http.Handler
}

// Route describes one endpoint. The payload In is decoded from the JSON body
// of POST, PUT and PATCH requests, then bound and validated when it
// implements Binder or Validator. The output is written as JSON with 201 for
// POST and 200 otherwise, unless it is an http.Handler that writes itself.
func Route[In any, Out any](
	name string,
	method string,
	path string,
	action func(r *http.Request, in In) (Out, error),
	middlewares ...poseidon.Middleware,
) Endpoint {
	endpoint := Endpoint{
		Name:         name,
		Method:       method,
		Path:         path,
		responseType: reflect.TypeFor[Out](),
		middlewares:  middlewares,
	}

	if decodesBody(method) && reflect.TypeFor[In]() != reflect.TypeFor[struct{}]() {
		endpoint.requestType = reflect.TypeFor[In]()
	}

	endpoint.build = func(errorHandler ErrorHandler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			payload := *new(In)

			if decodesBody(r.Method) && !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
				if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
					errorHandler(w, r, fmt.Errorf("%w: %s", ErrMalformedBody, err))
					return
				}
			}

			if binder, ok := any(&payload).(Binder); ok {
				if err := binder.Bind(r); err != nil {
					errorHandler(w, r, err)
					return
				}
			}

			if validator, ok := any(&payload).(Validator); ok {
				if err := validator.Validate(r); err != nil {
					errorHandler(w, r, err)
					return
				}
			}

			out, err := action(r, payload)
			if err != nil {
				errorHandler(w, r, err)
				return
			}

			if _, empty := any(out).(NoContent); empty {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			if handler, ok := any(out).(http.Handler); ok {
				handler.ServeHTTP(w, r)
				return
			}

			status := http.StatusOK
			if r.Method == http.MethodPost {
				status = http.StatusCreated
			}

			poseidon.RespondJSON(w, status, out)
		})
	}

	return endpoint
}

func decodesBody(method string) bool {
	return method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch
}

// WithRouter mounts endpoints under prefix. Every endpoint is wrapped by the
// shared middlewares first and its own middlewares second, and is listed in
// the generated TypeScript client under its name.
func WithRouter(
	prefix string,
	errorHandler ErrorHandler,
	endpoints []Endpoint,
	middlewares ...poseidon.Middleware,
) ConfigurationFunc {
	return func(app *App) error {
		for _, endpoint := range endpoints {
			if _, found := app.routes[endpoint.Name]; found {
				return fmt.Errorf("duplicate route name %q", endpoint.Name)
			}

			path := prefix + endpoint.Path
			chain := append(append([]poseidon.Middleware{}, middlewares...), endpoint.middlewares...)

			if err := WithHandler(
				fmt.Sprintf("%s %s", endpoint.Method, path),
				poseidon.Middlewares(chain).Apply(endpoint.build(errorHandler)),
			)(app); err != nil {
				return err
			}

			app.routes[endpoint.Name] = typescript.Route{
				Path:         path,
				Method:       endpoint.Method,
				RequestBody:  endpoint.requestType,
				ResponseBody: endpoint.responseType,
			}
		}

		return nil
	}
}
