package agenda

import (
	"context"
	"time"
)

func EveryHour(
	ctx context.Context,
	action func(ctx context.Context) error,
	errorHandler func(ctx context.Context, err error) error,
) error {
	return Interval(ctx, time.Hour, action, errorHandler)
}

func EveryMinute(
	ctx context.Context,
	action func(ctx context.Context) error,
	errorHandler func(ctx context.Context, err error) error,
) error {
	return Interval(ctx, time.Minute, action, errorHandler)
}

func EverySecond(
	ctx context.Context,
	action func(ctx context.Context) error,
	errorHandler func(ctx context.Context, err error) error,
) error {
	return Interval(ctx, time.Second, action, errorHandler)
}

// Interval runs action right away and then on every boundary of d (the next
// time the wall clock truncates to d) until ctx is done. An action error is
// passed to errorHandler, and the loop stops only if errorHandler returns one.
func Interval(
	ctx context.Context,
	d time.Duration,
	action func(ctx context.Context) error,
	errorHandler func(ctx context.Context, err error) error,
) error {
	for {
		if err := action(ctx); err != nil {
			if err := errorHandler(ctx, err); err != nil {
				return err
			}
		}

		timer := time.NewTimer(untilNext(time.Now(), d))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func untilNext(now time.Time, d time.Duration) time.Duration {
	return now.Add(d).Truncate(d).Sub(now)
}
