package cache_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lunagic/agora/agoraservices/cache"
	"gotest.tools/v3/assert"
)

type likeStatus struct {
	Liked bool
}

func testCase(t *testing.T, driver cache.Driver) {
	key := uuid.NewString()
	value := uuid.NewString()

	assert.NilError(t, driver.Ping(t.Context()))

	{ // Unknown keys are not found
		_, err := driver.Get(t.Context(), key)
		assert.ErrorIs(t, err, cache.ErrNotFound)
	}

	{ // Set then get
		assert.NilError(t, driver.Set(t.Context(), key, value, time.Second*30))

		actual, err := driver.Get(t.Context(), key)
		assert.NilError(t, err)
		assert.Equal(t, value, actual)
	}

	{ // Delete
		assert.NilError(t, driver.Delete(t.Context(), key))

		_, err := driver.Get(t.Context(), key)
		assert.ErrorIs(t, err, cache.ErrNotFound)
	}

	{ // Expiration
		key = uuid.NewString()
		assert.NilError(t, driver.Set(t.Context(), key, value, time.Second))

		actual, err := driver.Get(t.Context(), key)
		assert.NilError(t, err)
		assert.Equal(t, value, actual)

		time.Sleep(time.Second * 2)

		_, err = driver.Get(t.Context(), key)
		assert.ErrorIs(t, err, cache.ErrNotFound)
	}

	{ // Typed repository
		repository := cache.NewRepository[string, likeStatus](driver, "post-like")
		id := uuid.NewString()

		assert.NilError(t, repository.Set(t.Context(), id, likeStatus{Liked: true}, time.Minute))

		status, err := repository.Get(t.Context(), id)
		assert.NilError(t, err)
		assert.Assert(t, status.Liked)

		assert.NilError(t, repository.Delete(t.Context(), id))

		_, err = repository.Get(t.Context(), id)
		assert.ErrorIs(t, err, cache.ErrNotFound)
	}
}
