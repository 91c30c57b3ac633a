package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lunagic/agora/agoraservices/database"
	"github.com/lunagic/agora/internal/metrics"
	"github.com/lunagic/agora/internal/models"
)

// ReconcileCounters recounts every denormalized counter from its child rows
// and rewrites the ones that drifted.
func ReconcileCounters(db *database.Service, m *metrics.Metrics, logger *slog.Logger) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		for _, source := range models.Counters() {
			repaired, err := db.ReconcileCounter(ctx, source)
			m.CounterRepaired(source.Column, repaired)
			if err != nil {
				return fmt.Errorf("reconciling %s.%s: %w", source.Parent.TableStructure().Name, source.Column, err)
			}

			if repaired > 0 {
				logger.Warn("Counter Drift Repaired",
					"table", source.Parent.TableStructure().Name,
					"counter", source.Column,
					"rows", repaired,
				)
			}
		}

		return nil
	}
}
