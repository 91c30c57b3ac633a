package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Repository stores JSON encoded values of one type under a shared key prefix.
type Repository[Key comparable, Value any] struct {
	driver Driver
	prefix string
}

func NewRepository[Key comparable, Value any](driver Driver, prefix string) *Repository[Key, Value] {
	return &Repository[Key, Value]{
		driver: driver,
		prefix: prefix,
	}
}

func (repository *Repository[Key, Value]) key(key Key) string {
	return fmt.Sprintf("%s:%v", repository.prefix, key)
}

func (repository *Repository[Key, Value]) Set(ctx context.Context, key Key, value Value, duration time.Duration) error {
	jsonBytes, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return repository.driver.Set(ctx, repository.key(key), string(jsonBytes), duration)
}

func (repository *Repository[Key, Value]) Get(ctx context.Context, key Key) (Value, error) {
	raw, err := repository.driver.Get(ctx, repository.key(key))
	if err != nil {
		return *new(Value), err
	}

	target := *new(Value)
	if err := json.Unmarshal([]byte(raw), &target); err != nil {
		return *new(Value), err
	}

	return target, nil
}

func (repository *Repository[Key, Value]) Delete(ctx context.Context, key Key) error {
	return repository.driver.Delete(ctx, repository.key(key))
}
