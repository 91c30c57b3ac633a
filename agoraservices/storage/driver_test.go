package storage_test

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lunagic/agora/agoraservices/storage"
	"gotest.tools/v3/assert"
)

func testSuite(t *testing.T, driver storage.Driver) {
	fileName := "post-banners/" + uuid.NewString()
	fileContents := uuid.NewString()

	assert.NilError(t, driver.IsReady(t.Context()))

	{ // Missing before the upload
		found, err := driver.Exists(t.Context(), fileName)
		assert.NilError(t, err)
		assert.Assert(t, !found)
	}

	{ // Upload
		assert.NilError(t, driver.Put(t.Context(), fileName, strings.NewReader(fileContents)))
		t.Cleanup(func() {
			_ = driver.Delete(context.Background(), fileName)
		})

		found, err := driver.Exists(t.Context(), fileName)
		assert.NilError(t, err)
		assert.Assert(t, found)
	}

	{ // Read back
		reader, err := driver.Get(t.Context(), fileName)
		assert.NilError(t, err)
		defer func() {
			_ = reader.Close()
		}()

		actual, err := io.ReadAll(reader)
		assert.NilError(t, err)
		assert.Equal(t, fileContents, string(actual))
	}

	{ // Presigned links serve the file
		url, err := driver.PreSignedURL(t.Context(), fileName, time.Minute)
		assert.NilError(t, err)

		response, err := http.Get(url)
		assert.NilError(t, err)
		defer func() {
			_ = response.Body.Close()
		}()

		body, err := io.ReadAll(response.Body)
		assert.NilError(t, err)
		assert.Equal(t, fileContents, string(body))
	}

	{ // Public links stay private
		url, err := driver.PublicLink(t.Context(), fileName)
		assert.NilError(t, err)

		response, err := http.Get(url)
		assert.NilError(t, err)
		_ = response.Body.Close()
		assert.Assert(t, response.StatusCode >= 400)
	}

	{ // Delete is idempotent
		assert.NilError(t, driver.Delete(t.Context(), fileName))
		assert.NilError(t, driver.Delete(t.Context(), fileName))

		found, err := driver.Exists(t.Context(), fileName)
		assert.NilError(t, err)
		assert.Assert(t, !found)
	}
}
