package agora

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"reflect"
	"time"

	"github.com/lunagic/agora/agoraservices/cache"
	"github.com/lunagic/agora/agoraservices/database"
	"github.com/lunagic/agora/agoraservices/mailer"
	"github.com/lunagic/agora/agoraservices/queue"
	"github.com/lunagic/agora/agoraservices/storage"
	"github.com/lunagic/agora/agoraservices/vault"
	"github.com/spf13/viper"
)

const (
	EnvironmentProduction  = "prod"
	EnvironmentDevelopment = "dev"
)

type AppConfig struct {
	// App
	Env         string `env:"ENV"`
	AppHTTPHost string `env:"APP_HTTP_HOST"`
	AppHTTPPort int    `env:"APP_HTTP_PORT"`
	AppPrefix   string `env:"APP_PREFIX"`
	AppKey      string `env:"APP_KEY"`
	// App Drivers
	AppDriverMailer   string `env:"APP_DRIVER_MAILER"`
	AppDriverStorage  string `env:"APP_DRIVER_STORAGE"`
	AppDriverDatabase string `env:"APP_DRIVER_DATABASE"`
	AppDriverCache    string `env:"APP_DRIVER_CACHE"`
	AppDriverQueue    string `env:"APP_DRIVER_QUEUE"`
	// Auth
	JWTSecret           string        `env:"JWT_SECRET"`
	JWTRefreshSecret    string        `env:"JWT_REFRESH_SECRET"`
	JWTExpiresIn        time.Duration `env:"JWT_EXPIRES_IN"`
	JWTRefreshExpiresIn time.Duration `env:"JWT_REFRESH_EXPIRES_IN"`
	JWTIssuer           string        `env:"JWT_ISSUER"`
	JWTAudience         string        `env:"JWT_AUDIENCE"`
	AuthLoginRate       float64       `env:"AUTH_LOGIN_RATE"`
	AuthLoginBurst      int           `env:"AUTH_LOGIN_BURST"`
	// Mail
	MailFromName  string `env:"MAIL_FROM_NAME"`
	MailFromEmail string `env:"MAIL_FROM_EMAIL"`
	// Seed
	SeedUserName     string `env:"SEED_USER_NAME"`
	SeedUserEmail    string `env:"SEED_USER_EMAIL"`
	SeedUserPassword string `env:"SEED_USER_PASSWORD"`
	// Services
	AmazonS3AccessKeyID     string `env:"AMAZON_S3_ACCESS_KEY_ID"`
	AmazonS3AccessKeySecret string `env:"AMAZON_S3_ACCESS_KEY_SECRET"`
	AmazonS3Bucket          string `env:"AMAZON_S3_BUCKET"`
	AmazonS3Endpoint        string `env:"AMAZON_S3_ENDPOINT"`
	AmazonS3Region          string `env:"AMAZON_S3_REGION"`
	MySQLHost               string `env:"MYSQL_HOST"`
	MySQLName               string `env:"MYSQL_NAME"`
	MySQLPass               string `env:"MYSQL_PASS"`
	MySQLPort               int    `env:"MYSQL_PORT"`
	MySQLUser               string `env:"MYSQL_USER"`
	PostgresHost            string `env:"POSTGRES_HOST"`
	PostgresName            string `env:"POSTGRES_NAME"`
	PostgresPass            string `env:"POSTGRES_PASS"`
	PostgresPort            int    `env:"POSTGRES_PORT"`
	PostgresUser            string `env:"POSTGRES_USER"`
	RabbitMQHost            string `env:"RABBITMQ_HOST"`
	RabbitMQPass            string `env:"RABBITMQ_PASS"`
	RabbitMQPort            int    `env:"RABBITMQ_PORT"`
	RabbitMQUser            string `env:"RABBITMQ_USER"`
	RedisHost               string `env:"REDIS_HOST"`
	RedisNumber             int    `env:"REDIS_NUMBER"`
	RedisPass               string `env:"REDIS_PASS"`
	RedisPort               int    `env:"REDIS_PORT"`
	RedisUser               string `env:"REDIS_USER"`
	SMTPHost                string `env:"SMTP_HOST"`
	SMTPName                string `env:"SMTP_NAME"`
	SMTPPass                string `env:"SMTP_PASS"`
	SMTPPort                int    `env:"SMTP_PORT"`
	SMTPUser                string `env:"SMTP_USER"`
	SQLitePath              string `env:"SQLITE_PATH"`
	StorageLocalDirectory   string `env:"STORAGE_LOCAL_DIRECTORY"`
}

func NewConfig() AppConfig {
	return AppConfig{
		Env:                   EnvironmentDevelopment,
		AppDriverCache:        "memory",
		AppDriverDatabase:     "sqlite",
		AppDriverMailer:       "memory",
		AppDriverQueue:        "memory",
		AppDriverStorage:      "local",
		AppHTTPHost:           "0.0.0.0",
		AppHTTPPort:           5000,
		AppPrefix:             "server",
		AppKey:                "agora-dev-key-change-me-32bytes!",
		JWTSecret:             "agora-dev-access-secret",
		JWTRefreshSecret:      "agora-dev-refresh-secret",
		JWTExpiresIn:          15 * time.Minute,
		JWTRefreshExpiresIn:   7 * 24 * time.Hour,
		JWTIssuer:             "agora",
		AuthLoginRate:         1,
		AuthLoginBurst:        5,
		MailFromName:          "Agora",
		MailFromEmail:         "no-reply@agora.local",
		SeedUserName:          "admin",
		SeedUserEmail:         "admin@agora.local",
		SeedUserPassword:      "admin12345",
		MySQLHost:             "127.0.0.1",
		MySQLPort:             3306,
		PostgresHost:          "127.0.0.1",
		PostgresPort:          5432,
		RabbitMQHost:          "127.0.0.1",
		RabbitMQPort:          5672,
		RedisHost:             "127.0.0.1",
		RedisPort:             6379,
		SMTPHost:              "127.0.0.1",
		SMTPPort:              1025,
		SQLitePath:            "database.sqlite",
		StorageLocalDirectory: "storage",
	}
}

// LoadConfig layers an optional dotenv file and then the process environment
// over NewConfig. A missing file is not an error.
func LoadConfig(path string) (AppConfig, error) {
	config := NewConfig()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			notFound := viper.ConfigFileNotFoundError{}
			if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
				return AppConfig{}, fmt.Errorf("reading %s: %w", path, err)
			}
		}
	}
	v.AutomaticEnv()

	target := reflect.ValueOf(&config).Elem()
	for i := range target.NumField() {
		key := target.Type().Field(i).Tag.Get("env")
		if key == "" || !v.IsSet(key) {
			continue
		}

		field := target.Field(i)
		switch {
		case field.Type() == reflect.TypeFor[time.Duration]():
			field.SetInt(int64(v.GetDuration(key)))
		case field.Kind() == reflect.String:
			field.SetString(v.GetString(key))
		case field.Kind() == reflect.Int:
			field.SetInt(int64(v.GetInt(key)))
		case field.Kind() == reflect.Float64:
			field.SetFloat(v.GetFloat64(key))
		case field.Kind() == reflect.Bool:
			field.SetBool(v.GetBool(key))
		}
	}

	return config, nil
}

func (config AppConfig) Logger() *slog.Logger {
	if config.Env == EnvironmentProduction {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}

	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func (config AppConfig) Vault() (vault.Vault, error) {
	return vault.New([]byte(config.AppKey))
}

func (config AppConfig) ListenAddr() string {
	return fmt.Sprintf("%s:%d", config.AppHTTPHost, config.AppHTTPPort)
}

// Path joins route segments under the configured prefix.
func (config AppConfig) Path(path string) string {
	if config.AppPrefix == "" {
		return path
	}

	return "/" + config.AppPrefix + path
}

func (config AppConfig) Mailer() (mailer.Driver, error) {
	switch config.AppDriverMailer {
	case "memory":
		return mailer.NewDriverMemory(config.Logger()), nil
	case "smtp":
		return mailer.NewDriverSMTP(mailer.DriverSMTPConfig{
			Host: config.SMTPHost,
			Port: config.SMTPPort,
			User: config.SMTPUser,
			Pass: config.SMTPPass,
			Name: config.SMTPName,
		})
	}

	return nil, fmt.Errorf("invalid mailer driver: %s", config.AppDriverMailer)
}

func (config AppConfig) Storage() (storage.Driver, error) {
	switch config.AppDriverStorage {
	case "local":
		v, err := config.Vault()
		if err != nil {
			return nil, err
		}

		return storage.NewDriverLocal(config.StorageLocalDirectory, config.Path("/files"), v)
	case "s3":
		return storage.NewDriverS3(storage.S3Config{
			Endpoint:        config.AmazonS3Endpoint,
			Region:          config.AmazonS3Region,
			Bucket:          config.AmazonS3Bucket,
			AccessKeyID:     config.AmazonS3AccessKeyID,
			AccessKeySecret: config.AmazonS3AccessKeySecret,
		})
	}

	return nil, fmt.Errorf("invalid storage driver: %s", config.AppDriverStorage)
}

func (config AppConfig) Database(configFuncs ...database.ServiceConfigFunc) (*database.Service, error) {
	switch config.AppDriverDatabase {
	case "sqlite":
		return database.New(
			database.NewDriverSQLite(config.SQLitePath),
			configFuncs...,
		)
	case "postgres":
		return database.New(
			database.NewDriverPostgres(database.DriverPostgresConfig{
				Host: config.PostgresHost,
				Port: config.PostgresPort,
				User: config.PostgresUser,
				Pass: config.PostgresPass,
				Name: config.PostgresName,
			}),
			configFuncs...,
		)
	case "mysql":
		return database.New(
			database.NewDriverMySQL(database.DriverMySQLConfig{
				Host: config.MySQLHost,
				Port: config.MySQLPort,
				User: config.MySQLUser,
				Pass: config.MySQLPass,
				Name: config.MySQLName,
			}),
			configFuncs...,
		)
	}

	return nil, fmt.Errorf("invalid database driver: %s", config.AppDriverDatabase)
}

func (config AppConfig) Cache() (cache.Driver, error) {
	switch config.AppDriverCache {
	case "memory":
		return cache.NewDriverMemory()
	case "redis":
		return cache.NewDriverRedis(cache.DriverRedisConfig{
			Host:   config.RedisHost,
			Number: config.RedisNumber,
			Pass:   config.RedisPass,
			Port:   config.RedisPort,
			User:   config.RedisUser,
		})
	}

	return nil, fmt.Errorf("invalid cache driver: %s", config.AppDriverCache)
}

func (config AppConfig) Queue() (queue.Driver, error) {
	switch config.AppDriverQueue {
	case "memory":
		return queue.NewDriverMemory()
	case "rabbitmq":
		return queue.NewDriverRabbitMQ(queue.DriverRabbitMQConfig{
			Host: config.RabbitMQHost,
			Pass: config.RabbitMQPass,
			Port: config.RabbitMQPort,
			User: config.RabbitMQUser,
		})
	}

	return nil, fmt.Errorf("invalid queue driver: %s", config.AppDriverQueue)
}
