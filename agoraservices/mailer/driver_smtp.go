package mailer

import (
	"context"
	"fmt"
	"net/smtp"
)

type DriverSMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	// Name is the display name used when an envelope has none.
	Name string
}

func NewDriverSMTP(config DriverSMTPConfig) (Driver, error) {
	return &driverSMTP{
		config: config,
	}, nil
}

type driverSMTP struct {
	config DriverSMTPConfig
}

func (driver *driverSMTP) Send(ctx context.Context, envelope Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	envelope.From.Email = driver.config.User
	if envelope.From.Name == "" {
		envelope.From.Name = driver.config.Name
	}

	destinations, err := envelope.Destinations()
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if driver.config.Pass != "" {
		auth = smtp.PlainAuth("", driver.config.User, driver.config.Pass, driver.config.Host)
	}

	return smtp.SendMail(
		fmt.Sprintf("%s:%d", driver.config.Host, driver.config.Port),
		auth,
		driver.config.User,
		destinations,
		envelope.Message(),
	)
}
