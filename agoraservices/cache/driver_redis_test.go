package cache_test

import (
	"testing"

	"github.com/lunagic/agora/agoraservices/cache"
	"github.com/lunagic/agora/agoratools"
)

func TestDriverRedis(t *testing.T) {
	t.Parallel()
	testRedisLikeCacheDrivers(t, "redis", "7")
}

func TestDriverValkey(t *testing.T) {
	t.Parallel()
	testRedisLikeCacheDrivers(t, "valkey/valkey", "8")
}

func testRedisLikeCacheDrivers(t *testing.T, image string, tag string) {
	driver := agoratools.GetDockerService(t, agoratools.DockerServiceConfig[cache.Driver]{
		DockerImage:    image,
		DockerImageTag: tag,
		InternalPort:   6379,
		Builder: func(host string, port int) (cache.Driver, error) {
			driver, err := cache.NewDriverRedis(cache.DriverRedisConfig{
				Host: host,
				Port: port,
			})
			if err != nil {
				return nil, err
			}

			return driver, driver.Ping(t.Context())
		},
	})

	testCase(t, driver)
}
