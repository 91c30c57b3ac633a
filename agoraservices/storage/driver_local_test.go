package storage_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lunagic/agora/agoraservices/storage"
	"github.com/lunagic/agora/agoraservices/vault"
	"gotest.tools/v3/assert"
)

func newLocalDriver(t *testing.T) *storage.DriverLocal {
	v, err := vault.New([]byte("secret_key_secret_key_secret_key"))
	assert.NilError(t, err)

	driver, err := storage.NewDriverLocal(t.TempDir(), "", v)
	assert.NilError(t, err)

	server := httptest.NewServer(driver)
	t.Cleanup(server.Close)
	driver.BaseEndpoint = server.URL

	return driver
}

func Test_Driver_Local(t *testing.T) {
	t.Parallel()

	testSuite(t, newLocalDriver(t))
}

func Test_Driver_Local_ExpiredLink(t *testing.T) {
	t.Parallel()

	driver := newLocalDriver(t)

	url, err := driver.PreSignedURL(t.Context(), "anything", -time.Minute)
	assert.NilError(t, err)

	response, err := http.Get(url)
	assert.NilError(t, err)
	_ = response.Body.Close()
	assert.Equal(t, http.StatusForbidden, response.StatusCode)
}

func Test_Driver_Local_Escape(t *testing.T) {
	t.Parallel()

	driver := newLocalDriver(t)

	_, err := driver.Exists(t.Context(), "../../etc")
	assert.NilError(t, err)

	_, err = driver.Exists(t.Context(), "/")
	assert.ErrorIs(t, err, storage.ErrInvalidPath)
}
