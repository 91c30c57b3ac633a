package agoratools

import (
	"fmt"
	"maps"
	"net/url"
	"os"
	"slices"
	"strconv"
	"testing"

	"github.com/ory/dockertest"
)

// DockerServiceConfig describes a throwaway container that a test talks to
// through the value Builder returns once the container accepts connections.
type DockerServiceConfig[T any] struct {
	DockerImage    string
	DockerImageTag string
	InternalPort   int
	Environment    map[string]string
	Builder        func(host string, port int) (T, error)
}

func (config DockerServiceConfig[T]) env() []string {
	env := []string{}
	for _, key := range slices.Sorted(maps.Keys(config.Environment)) {
		env = append(env, fmt.Sprintf("%s=%s", key, config.Environment[key]))
	}

	return env
}

// GetDockerService starts the container, retries Builder until it succeeds and
// purges the container when the test ends. It skips in -short mode.
func GetDockerService[T any](t *testing.T, config DockerServiceConfig[T]) T {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping docker backed test in short mode.")
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("Could not construct pool: %s", err)
	}

	if err := pool.Client.Ping(); err != nil {
		t.Fatalf("Could not connect to Docker: %s", err)
	}

	resource, err := pool.Run(config.DockerImage, config.DockerImageTag, config.env())
	if err != nil {
		t.Fatalf("Could not start %s:%s: %s", config.DockerImage, config.DockerImageTag, err)
	}

	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Errorf("Could not purge %s: %s", config.DockerImage, err)
		}
	})

	dockerURL := os.Getenv("DOCKER_HOST")
	if dockerURL == "" {
		dockerURL = "tcp://" + resource.GetHostPort(fmt.Sprintf("%d/tcp", config.InternalPort))
	}

	u, err := url.Parse(dockerURL)
	if err != nil {
		t.Fatalf("Error parsing docker URL: %s", err)
	}

	port, _ := strconv.Atoi(u.Port())

	var service T
	if err := pool.Retry(func() error {
		var err error
		service, err = config.Builder(u.Hostname(), port)

		return err
	}); err != nil {
		t.Fatalf("Could not connect to %s: %s", config.DockerImage, err)
	}

	return service
}
