package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/lunagic/poseidon/poseidon"
	"golang.org/x/sync/errgroup"
)

const (
	StatusUp     = "up"
	StatusDown   = "down"
	checkTimeout = 3 * time.Second
)

// Check reports whether one dependency is usable.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

type Report struct {
	Status string            `json:"status"`
	Info   map[string]string `json:"info"`
	Error  map[string]string `json:"error,omitempty"`
}

// Run probes every dependency at once. The report is "ok" only when all of
// them answered.
func Run(ctx context.Context, checks []Check) Report {
	report := Report{
		Status: "ok",
		Info:   map[string]string{},
	}

	mutex := sync.Mutex{}
	group := errgroup.Group{}
	for _, check := range checks {
		group.Go(func() error {
			probeCtx, cancel := context.WithTimeout(ctx, checkTimeout)
			defer cancel()

			err := check.Probe(probeCtx)

			mutex.Lock()
			defer mutex.Unlock()

			if err != nil {
				report.Status = "error"
				report.Info[check.Name] = StatusDown
				if report.Error == nil {
					report.Error = map[string]string{}
				}
				report.Error[check.Name] = err.Error()

				return nil
			}

			report.Info[check.Name] = StatusUp

			return nil
		})
	}
	_ = group.Wait()

	return report
}

func Handler(checks []Check) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		report := Run(r.Context(), checks)

		status := http.StatusOK
		if report.Status != "ok" {
			status = http.StatusServiceUnavailable
		}

		poseidon.RespondJSON(w, status, report)
	})
}
