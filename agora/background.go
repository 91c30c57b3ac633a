package agora

import (
	"context"
	"errors"
	"time"

	"github.com/lunagic/agora/agora/internal/agenda"
	"github.com/lunagic/agora/agoraservices/cache"
)

const (
	backOffTimeToHandleCollisions = time.Second * 3
	maxTimeWithoutCheckIn         = time.Second * 6
)

// BackgroundJob runs on a fixed interval on exactly one of the app instances
// sharing a cache: the one currently elected primary.
type BackgroundJob struct {
	name     string
	interval time.Duration
	action   func(ctx context.Context) error
}

type primarySchedulerPayload struct {
	UUID      string
	CheckedIn time.Time
}

func NewBackgroundJob(name string, interval time.Duration, action func(ctx context.Context) error) BackgroundJob {
	return BackgroundJob{
		name:     name,
		interval: interval,
		action:   action,
	}
}

func (job BackgroundJob) Name() string {
	return job.name
}

func WithBackgroundJobs(cacheDriver cache.Driver, jobs []BackgroundJob) ConfigurationFunc {
	return func(app *App) error {
		app.jobsCacheService = cacheDriver
		app.jobs = jobs

		return nil
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Background schedules every job and returns right away. The schedules stop
// with ctx.
func (app *App) Background(ctx context.Context) error {
	if app.jobsCacheService == nil || len(app.jobs) == 0 {
		return nil
	}

	primaryTracker := cache.NewRepository[string, primarySchedulerPayload](app.jobsCacheService, "agora-primary-scheduler")
	jobLastRunTracker := cache.NewRepository[string, time.Time](app.jobsCacheService, "agora-job-last-ran")

	checkIn := func(ctx context.Context) error {
		return primaryTracker.Set(
			ctx,
			"data",
			primarySchedulerPayload{
				UUID:      app.instanceUUID,
				CheckedIn: time.Now(),
			},
			time.Hour,
		)
	}

	isPrimary := func(ctx context.Context) bool {
		for {
			current, err := primaryTracker.Get(ctx, "data")
			if err != nil && !errors.Is(err, cache.ErrNotFound) {
				return false
			}

			if current.UUID == app.instanceUUID {
				return true
			}

			// Another instance checked in recently
			if time.Since(current.CheckedIn) <= maxTimeWithoutCheckIn {
				return false
			}

			// Claim the role, then wait for competing claims to land and
			// look again to see who won
			if err := checkIn(ctx); err != nil {
				return false
			}

			if !sleep(ctx, backOffTimeToHandleCollisions) {
				return false
			}
		}
	}

	jobCanRun := func(ctx context.Context, job BackgroundJob) bool {
		lastRan, err := jobLastRunTracker.Get(ctx, job.name)
		if err != nil {
			return errors.Is(err, cache.ErrNotFound)
		}

		return time.Since(lastRan) > job.interval
	}

	for _, job := range app.jobs {
		go func() {
			_ = agenda.Interval(
				ctx,
				job.interval,
				func(ctx context.Context) error {
					if !isPrimary(ctx) {
						return nil
					}

					// Keep other instances from taking over
					if err := checkIn(ctx); err != nil {
						return err
					}

					if !jobCanRun(ctx, job) {
						return nil
					}

					if err := jobLastRunTracker.Set(ctx, job.name, time.Now(), job.interval*2); err != nil {
						return err
					}

					go func() {
						start := time.Now()
						if err := job.action(ctx); err != nil {
							app.logger.Error("Background Job Failed", "job", job.name, "error", err)
							return
						}

						app.logger.Info("Background Job Completed", "job", job.name, "duration", time.Since(start))
					}()

					return nil
				},
				func(ctx context.Context, err error) error {
					app.logger.Warn("Background Job Scheduling", "job", job.name, "error", err)
					return nil
				},
			)
		}()
	}

	return nil
}
