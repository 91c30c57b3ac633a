package agoratest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/lunagic/agora/agora"
	"gotest.tools/v3/assert"
)

type HTTPTestCase struct {
	Request  HTTPTestCaseRequest
	Expected HTTPTestCaseResponse
}

type HTTPTestCaseRequest struct {
	Method string
	Path   string
	Query  url.Values
	// Body is sent as JSON unless it is an io.Reader, which is sent as is.
	Body        any
	Headers     http.Header
	BearerToken string
	Modifier    func(request *http.Request)
}

func (testCase HTTPTestCaseRequest) BuildRequest(t *testing.T) *http.Request {
	var body io.Reader
	switch typedBody := testCase.Body.(type) {
	case nil:
	case io.Reader:
		body = typedBody
	default:
		bodyBytes, err := json.Marshal(typedBody)
		assert.NilError(t, err)
		body = bytes.NewBuffer(bodyBytes)
	}

	requestURL := testCase.Path
	if len(testCase.Query) > 0 {
		requestURL += "?" + testCase.Query.Encode()
	}

	request := httptest.NewRequest(
		testCase.Method,
		requestURL,
		body,
	)

	if testCase.Headers != nil {
		request.Header = testCase.Headers
	}

	if testCase.BearerToken != "" {
		request.Header.Set("Authorization", "Bearer "+testCase.BearerToken)
	}

	if testCase.Modifier != nil {
		testCase.Modifier(request)
	}

	return request
}

type HTTPTestCaseResponse struct {
	Status  int
	Headers http.Header
	// Body is compared with the trimmed response: strings as is, anything
	// else as its JSON encoding. A nil Body is not compared.
	Body any
}

// Do runs the request against the app and returns the recorded response.
func Do(t *testing.T, app *agora.App, request HTTPTestCaseRequest) *httptest.ResponseRecorder {
	t.Helper()

	recorder := httptest.NewRecorder()
	app.Handler().ServeHTTP(recorder, request.BuildRequest(t))

	return recorder
}

// DecodeJSON asserts the recorded status and decodes the response body.
func DecodeJSON[T any](t *testing.T, recorder *httptest.ResponseRecorder, status int) T {
	t.Helper()

	assert.Equal(t, status, recorder.Code, recorder.Body.String())

	target := *new(T)
	assert.NilError(t, json.Unmarshal(recorder.Body.Bytes(), &target))

	return target
}

func TestRequest(t *testing.T, app *agora.App, testCase HTTPTestCase) {
	t.Helper()

	// Execute the request
	recorder := Do(t, app, testCase.Request)

	// Assert status code
	{
		assert.Equal(t, testCase.Expected.Status, recorder.Code, recorder.Body.String())
	}

	// Assert headers
	{
		for key := range testCase.Expected.Headers {
			assert.Equal(t, testCase.Expected.Headers.Get(key), recorder.Header().Get(key))
		}
	}

	// Assert body
	if testCase.Expected.Body != nil {
		responseBody := strings.TrimSpace(recorder.Body.String())
		expectedBody := ""
		switch typedBody := testCase.Expected.Body.(type) {
		case string:
			expectedBody = typedBody
		default:
			jsonBytes, err := json.Marshal(typedBody)
			assert.NilError(t, err)
			expectedBody = string(jsonBytes)
		}

		assert.Equal(t, expectedBody, responseBody)
	}
}
