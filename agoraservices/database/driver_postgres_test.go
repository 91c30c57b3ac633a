package database_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/lunagic/agora/agoraservices/database"
	"github.com/lunagic/agora/agoratools"
)

func Test_DriverPostgres_17(t *testing.T) {
	t.Parallel()
	testSuite(t, setupPostgres(t, "17"))
}

func Test_DriverPostgres_16(t *testing.T) {
	t.Parallel()
	testSuite(t, setupPostgres(t, "16"))
}

func setupPostgres(t *testing.T, tag string) database.Driver {
	name := "agora"
	user := "agora"
	pass := uuid.NewString()

	return agoratools.GetDockerService(t, agoratools.DockerServiceConfig[database.Driver]{
		DockerImage:    "postgres",
		DockerImageTag: tag,
		InternalPort:   5432,
		Environment: map[string]string{
			"POSTGRES_USER":     user,
			"POSTGRES_PASSWORD": pass,
			"POSTGRES_DB":       name,
		},
		Builder: func(host string, port int) (database.Driver, error) {
			driver := database.NewDriverPostgres(database.DriverPostgresConfig{
				Host: host,
				Port: port,
				User: user,
				Pass: pass,
				Name: name,
			})

			db, err := driver.Open()
			if err != nil {
				return nil, err
			}
			defer db.Close()

			if err := db.Ping(); err != nil {
				return nil, err
			}

			return driver, nil
		},
	})
}
