package catalog

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/quake-data-kml/internal/domain"
	"github.com/couchcryptid/quake-data-kml/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Exponential backoff for the extractor: start at 200ms, double each retry,
// cap at 5s. Keeps retry loops calm during broker outages.
const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Extractor reads one raw message from the feed.
type Extractor interface {
	Extract(ctx context.Context) (domain.RawEvent, error)
}

// Feed consumes bulletin records from a message feed and queues them on the
// catalog service. Rebuilds are debounced so a burst of messages triggers a
// single rebuild.
type Feed struct {
	extractor Extractor
	svc       *Service
	debounce  time.Duration
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewFeed creates a Feed delivering into svc.
func NewFeed(extractor Extractor, svc *Service, debounce time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Feed {
	return &Feed{
		extractor: extractor,
		svc:       svc,
		debounce:  debounce,
		logger:    logger,
		metrics:   metrics,
	}
}

// Run executes the consume loop until the context is cancelled.
func (f *Feed) Run(ctx context.Context) error {
	f.logger.Info("feed started", "debounce", f.debounce)
	f.metrics.FeedRunning.Set(1)
	defer f.metrics.FeedRunning.Set(0)

	var rebuildTimer clockwork.Timer
	defer func() {
		if rebuildTimer != nil {
			rebuildTimer.Stop()
		}
	}()

	backoff := initialBackoff

	for {
		select {
		case <-ctx.Done():
			f.logger.Info("feed stopping", "reason", ctx.Err())
			return nil
		default:
		}

		raw, err := f.extractor.Extract(ctx)
		if err != nil {
			if ctx.Err() != nil {
				f.logger.Info("feed stopping", "reason", ctx.Err())
				return nil
			}
			f.logger.Error("extract failed", "error", err)
			if !f.backoffOrStop(ctx, &backoff) {
				return nil
			}
			continue
		}
		backoff = initialBackoff

		if f.ingest(ctx, raw) == 0 {
			continue
		}

		if rebuildTimer != nil {
			rebuildTimer.Stop()
		}
		rebuildTimer = clock.AfterFunc(f.debounce, func() {
			if err := f.svc.Rebuild(ctx); err != nil {
				f.logger.Error("rebuild after feed message failed", "error", err)
			}
		})
	}
}

// ingest parses the message payload into records and queues them. Messages
// are committed whether or not they were usable; a poison message must not
// be redelivered forever.
func (f *Feed) ingest(ctx context.Context, raw domain.RawEvent) int {
	records, err := domain.GroupRecords(bytes.NewReader(raw.Value))
	if err != nil || len(records) == 0 {
		f.logger.Warn("feed message dropped",
			"error", err, "topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
		f.metrics.FeedMessagesDropped.Inc()
		f.commit(ctx, raw)
		return 0
	}

	accepted := f.svc.AddFeedRecords(records...)
	if accepted == 0 {
		f.metrics.FeedMessagesDropped.Inc()
	}
	f.commit(ctx, raw)
	return accepted
}

// backoffOrStop sleeps with the current backoff and advances it. Returns
// false if the feed should stop.
func (f *Feed) backoffOrStop(ctx context.Context, backoff *time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff)
	return true
}

// commit acknowledges the message if the feed supports commits.
func (f *Feed) commit(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		f.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
