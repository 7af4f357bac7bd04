package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/abhishekdav003/easyfinance-sub000/internal/domain/client"
	"github.com/abhishekdav003/easyfinance-sub000/internal/domain/loan"
	"github.com/abhishekdav003/easyfinance-sub000/internal/domain/report"
	"github.com/abhishekdav003/easyfinance-sub000/internal/event"
	"github.com/abhishekdav003/easyfinance-sub000/internal/infrastructure/monitoring"
)

// DefaulterSweepJob recomputes the defaulter set on a schedule and announces clients whose
// default flag changed since the previous sweep. Default stays a derived value; nothing is
// written back to storage.
type DefaulterSweepJob struct {
	clients   client.Reader
	publisher event.EventPublisher
	cache     loan.CacheInvalidator
	loc       *time.Location
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.Mutex
	previous map[int64]bool
	primed   bool
}

func NewDefaulterSweepJob(clients client.Reader, publisher event.EventPublisher, cache loan.CacheInvalidator, loc *time.Location, logger *slog.Logger) *DefaulterSweepJob {
	if clients == nil || logger == nil {
		panic("DefaulterSweepJob dependencies cannot be nil")
	}
	if publisher == nil {
		publisher = event.NoopPublisher{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &DefaulterSweepJob{
		clients:   clients,
		publisher: publisher,
		cache:     cache,
		loc:       loc,
		logger:    logger.With("job", "DefaulterSweep"),
		now:       time.Now,
		previous:  map[int64]bool{},
	}
}

// Run performs one sweep. The first sweep after start-up only records a baseline.
func (j *DefaulterSweepJob) Run(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	startTime := time.Now()
	asOf := j.now().In(j.loc)
	j.logger.InfoContext(ctx, "Starting defaulter sweep.", slog.Time("asOf", asOf))

	clients, err := j.clients.ListClients(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to list clients, aborting sweep.", slog.Any("error", err))
		return fmt.Errorf("cannot run sweep, failed to list clients: %w", err)
	}

	current := report.DefaulterSet(clients, asOf)
	monitoring.SetDefaulterClients(len(current))

	var becameDefaulting, recovered, errorCount int
	if j.primed {
		for _, id := range changedClients(j.previous, current) {
			ev := event.ClientDefaultChangedEvent{
				ClientID:  id,
				NewStatus: current[id],
				OldStatus: j.previous[id],
				Timestamp: asOf,
			}
			if err := j.publisher.PublishClientDefaultChanged(ctx, ev); err != nil {
				j.logger.ErrorContext(ctx, "Failed to publish default change", slog.Int64("clientID", id), slog.Any("error", err))
				errorCount++
				continue
			}
			if ev.NewStatus {
				becameDefaulting++
			} else {
				recovered++
			}
		}
	}
	j.previous = current
	j.primed = true

	if j.cache != nil {
		j.cache.Invalidate(ctx)
	}

	summaryLog := j.logger.With(
		slog.Duration("duration", time.Since(startTime)),
		slog.Int("clients", len(clients)),
		slog.Int("defaulters", len(current)),
		slog.Int("became_defaulting", becameDefaulting),
		slog.Int("recovered", recovered),
		slog.Int("errors_encountered", errorCount),
	)
	if errorCount > 0 {
		summaryLog.WarnContext(ctx, "Defaulter sweep finished with errors.")
		return fmt.Errorf("sweep completed with %d errors", errorCount)
	}
	summaryLog.InfoContext(ctx, "Defaulter sweep finished successfully.")
	return nil
}

// changedClients returns, in id order, every client whose membership differs between the sets.
func changedClients(previous, current map[int64]bool) []int64 {
	changed := make([]int64, 0)
	for id := range current {
		if !previous[id] {
			changed = append(changed, id)
		}
	}
	for id := range previous {
		if !current[id] {
			changed = append(changed, id)
		}
	}
	sort.Slice(changed, func(i, k int) bool { return changed[i] < changed[k] })
	return changed
}
