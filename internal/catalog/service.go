// Package catalog maintains the servable focal mechanism catalog: an
// atomically swapped snapshot of the rendered KML document and its beachball
// icons, rebuilt from the bulletin file on demand, on file change, or when
// feed records arrive.
package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/quake-data-kml/internal/domain"
	"github.com/couchcryptid/quake-data-kml/internal/kml"
	"github.com/couchcryptid/quake-data-kml/internal/observability"
	"github.com/couchcryptid/quake-data-kml/internal/pipeline"
)

// assetPrefix is the href prefix icons are served under.
const assetPrefix = "assets"

// Snapshot is one fully built catalog. Snapshots are immutable; a rebuild
// swaps in a new one.
type Snapshot struct {
	KML     []byte
	Assets  map[string][]byte
	BuiltAt time.Time
	Stats   pipeline.Stats
}

// Service builds catalog snapshots from the bulletin file plus any records
// received over the feed, and serves the latest one.
type Service struct {
	path      string
	converter *pipeline.Converter
	logger    *slog.Logger
	metrics   *observability.Metrics

	// mu serializes rebuilds and guards the feed records.
	mu        sync.Mutex
	feedOrder []string
	feedByID  map[string]domain.Record

	snapshot atomic.Pointer[Snapshot]
}

// NewService creates a Service reading the bulletin at path.
func NewService(path string, converter *pipeline.Converter, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		path:      path,
		converter: converter,
		logger:    logger,
		metrics:   metrics,
		feedByID:  make(map[string]domain.Record),
	}
}

// Rebuild reads the bulletin file, merges in feed records, converts
// everything, and swaps the resulting snapshot in. The previous snapshot
// keeps serving until the swap.
func (s *Service) Rebuild(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := clock.Now()

	f, err := os.Open(s.path)
	if err != nil {
		s.metrics.RebuildFailures.Inc()
		return fmt.Errorf("open catalog: %w", err)
	}
	fileRecords, err := domain.GroupRecords(f)
	f.Close()
	if err != nil {
		s.metrics.RebuildFailures.Inc()
		return err
	}

	merged := s.mergeFeedRecords(fileRecords)

	builder := kml.NewBuilder(filepath.Base(s.path))
	store := pipeline.NewMemAssetStore(assetPrefix)

	stats, err := s.converter.Convert(ctx, merged, builder, store)
	if err != nil {
		s.metrics.RebuildFailures.Inc()
		return fmt.Errorf("convert catalog: %w", err)
	}

	var buf bytes.Buffer
	if err := builder.Write(&buf); err != nil {
		s.metrics.RebuildFailures.Inc()
		return fmt.Errorf("encode document: %w", err)
	}

	s.snapshot.Store(&Snapshot{
		KML:     buf.Bytes(),
		Assets:  store.Files(),
		BuiltAt: clock.Now(),
		Stats:   stats,
	})

	s.metrics.CatalogRebuilds.Inc()
	s.metrics.RebuildDuration.Observe(clock.Since(start).Seconds())
	s.metrics.EventsWithMechanism.Set(float64(stats.WithMechanism))
	s.metrics.EventsWithoutMechanism.Set(float64(stats.WithoutMechanism))
	s.metrics.EventsSkipped.Set(float64(stats.Skipped))

	s.logger.Info("catalog rebuilt",
		"with_mechanism", stats.WithMechanism,
		"without_mechanism", stats.WithoutMechanism,
		"skipped", stats.Skipped,
		"feed_records", len(merged)-len(fileRecords),
		"duration", clock.Since(start),
	)
	return nil
}

// mergeFeedRecords appends queued feed records to the file records, dropping
// feed records whose event ID already appears in the file. The bulletin file
// stays authoritative. Indexes are renumbered so icon names stay unique
// across the merged set. Callers must hold mu.
func (s *Service) mergeFeedRecords(fileRecords []domain.Record) []domain.Record {
	if len(s.feedOrder) == 0 {
		return fileRecords
	}

	fileIDs := make(map[string]struct{}, len(fileRecords))
	for _, rec := range fileRecords {
		ev, err := domain.ParseRecord(rec)
		if err != nil {
			continue
		}
		fileIDs[domain.EventID(ev)] = struct{}{}
	}

	merged := fileRecords
	for _, id := range s.feedOrder {
		if _, dup := fileIDs[id]; dup {
			continue
		}
		merged = append(merged, s.feedByID[id])
	}
	for i := range merged {
		merged[i].Index = i + 1
	}
	return merged
}

// AddFeedRecords queues records received over the feed for the next rebuild.
// Records that cannot be parsed are rejected, and a record whose event ID is
// already queued is dropped; the first arrival wins. Returns how many records
// were accepted.
func (s *Service) AddFeedRecords(records ...domain.Record) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	accepted := 0
	for _, rec := range records {
		ev, err := domain.ParseRecord(rec)
		if err != nil {
			s.logger.Warn("feed record rejected", "error", err)
			continue
		}
		id := domain.EventID(ev)
		if _, dup := s.feedByID[id]; dup {
			s.logger.Debug("feed record already queued", "event_id", id)
			continue
		}
		s.feedOrder = append(s.feedOrder, id)
		s.feedByID[id] = rec
		accepted++
	}

	if accepted > 0 {
		s.metrics.FeedRecordsAdded.Add(float64(accepted))
	}
	return accepted
}

// CheckReadiness returns nil once a snapshot has been built, or an error
// describing why the service is not yet ready.
func (s *Service) CheckReadiness(_ context.Context) error {
	if s.snapshot.Load() == nil {
		return errors.New("catalog has not been built yet")
	}
	return nil
}

// DocumentKML returns the current document, its build time, and whether a
// snapshot exists yet.
func (s *Service) DocumentKML() ([]byte, time.Time, bool) {
	snap := s.snapshot.Load()
	if snap == nil {
		return nil, time.Time{}, false
	}
	return snap.KML, snap.BuiltAt, true
}

// Asset returns the icon bytes for a name like "event_3_fm.png".
func (s *Service) Asset(name string) ([]byte, bool) {
	snap := s.snapshot.Load()
	if snap == nil {
		return nil, false
	}
	data, ok := snap.Assets[assetPrefix+"/"+name]
	return data, ok
}
