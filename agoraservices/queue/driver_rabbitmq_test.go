package queue_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/lunagic/agora/agoraservices/queue"
	"github.com/lunagic/agora/agoratools"
)

func TestDriverRabbitMQ(t *testing.T) {
	user := uuid.NewString()
	pass := uuid.NewString()

	testSuite(t, agoratools.GetDockerService(t, agoratools.DockerServiceConfig[queue.Driver]{
		DockerImage:    "rabbitmq",
		DockerImageTag: "3",
		InternalPort:   5672,
		Environment: map[string]string{
			"RABBITMQ_DEFAULT_USER": user,
			"RABBITMQ_DEFAULT_PASS": pass,
		},
		Builder: func(host string, port int) (queue.Driver, error) {
			return queue.NewDriverRabbitMQ(queue.DriverRabbitMQConfig{
				Host: host,
				Port: port,
				User: user,
				Pass: pass,
			})
		},
	}))
}
