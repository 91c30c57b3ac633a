package cache

import (
	"context"
	"sync"
	"time"
)

type memoryItem struct {
	Value     string
	ExpiresAt time.Time
}

func NewDriverMemory() (Driver, error) {
	driver := &driverMemory{
		data: map[string]memoryItem{},
	}

	go func() {
		for range time.NewTicker(time.Minute).C {
			driver.sweep()
		}
	}()

	return driver, nil
}

type driverMemory struct {
	mutex sync.Mutex
	data  map[string]memoryItem
}

func (driver *driverMemory) Ping(ctx context.Context) error {
	return nil
}

func (driver *driverMemory) Delete(ctx context.Context, key string) error {
	driver.mutex.Lock()
	defer driver.mutex.Unlock()

	delete(driver.data, key)

	return nil
}

func (driver *driverMemory) Get(ctx context.Context, key string) (string, error) {
	driver.mutex.Lock()
	defer driver.mutex.Unlock()

	item, found := driver.data[key]
	if !found || !time.Now().Before(item.ExpiresAt) {
		return "", ErrNotFound
	}

	return item.Value, nil
}

func (driver *driverMemory) Set(ctx context.Context, key string, value string, duration time.Duration) error {
	driver.mutex.Lock()
	defer driver.mutex.Unlock()

	driver.data[key] = memoryItem{
		Value:     value,
		ExpiresAt: time.Now().Add(duration),
	}

	return nil
}

func (driver *driverMemory) sweep() {
	driver.mutex.Lock()
	defer driver.mutex.Unlock()

	now := time.Now()
	for key, item := range driver.data {
		if now.After(item.ExpiresAt) {
			delete(driver.data, key)
		}
	}
}
