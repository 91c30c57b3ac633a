package cache_test

import (
	"testing"

	"github.com/lunagic/agora/agoraservices/cache"
	"gotest.tools/v3/assert"
)

func TestDriverMemory(t *testing.T) {
	t.Parallel()

	driver, err := cache.NewDriverMemory()
	assert.NilError(t, err)

	testCase(t, driver)
}
