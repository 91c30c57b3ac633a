package mailer

import (
	"context"
	"log/slog"
	"slices"
	"sync"
)

// DriverMemory keeps every envelope instead of delivering it. It backs local
// development and tests.
type DriverMemory struct {
	mutex  sync.Mutex
	logger *slog.Logger
	sent   []Envelope
}

func NewDriverMemory(logger *slog.Logger) *DriverMemory {
	return &DriverMemory{
		logger: logger,
	}
}

func (driver *DriverMemory) Send(ctx context.Context, envelope Envelope) error {
	destinations, err := envelope.Destinations()
	if err != nil {
		return err
	}

	driver.mutex.Lock()
	driver.sent = append(driver.sent, envelope)
	driver.mutex.Unlock()

	driver.logger.InfoContext(ctx, "Mail Captured",
		"to", destinations,
		"subject", envelope.Subject,
	)

	return nil
}

func (driver *DriverMemory) Sent() []Envelope {
	driver.mutex.Lock()
	defer driver.mutex.Unlock()

	return slices.Clone(driver.sent)
}
