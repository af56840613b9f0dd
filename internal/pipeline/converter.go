package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/quake-data-kml/internal/domain"
	"github.com/couchcryptid/quake-data-kml/internal/observability"
)

// DocumentSink receives the placemarks produced by a conversion.
type DocumentSink interface {
	AddMechanismPoint(ev domain.Event, fault domain.FaultType, iconHref string)
	AddFallbackPoint(ev domain.Event)
}

// AssetStore persists rendered beachball icons and reports the href the
// document should reference them by.
type AssetStore interface {
	Put(name string, data []byte) (href string, err error)
}

// Stats counts how each record of a bulletin was handled.
type Stats struct {
	WithMechanism    int
	WithoutMechanism int
	Skipped          int
}

// Converter turns grouped bulletin records into placemarks and icons.
type Converter struct {
	renderer domain.Renderer
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewConverter creates a Converter. metrics may be nil for one-shot CLI use.
func NewConverter(renderer domain.Renderer, logger *slog.Logger, metrics *observability.Metrics) *Converter {
	return &Converter{renderer: renderer, logger: logger, metrics: metrics}
}

// Convert parses each record and emits it into the sink. Records whose
// hypocenter line cannot be parsed are skipped entirely. Records without a
// usable mechanism solution, and records whose beachball cannot be rendered
// or stored, degrade to a generic fallback placemark. Only context
// cancellation aborts the conversion.
func (c *Converter) Convert(ctx context.Context, records []domain.Record, sink DocumentSink, assets AssetStore) (Stats, error) {
	var stats Stats

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		ev, err := domain.ParseRecord(rec)
		if err != nil {
			c.logger.Warn("record skipped", "record", rec.Index, "error", err)
			stats.Skipped++
			continue
		}

		if ev.Mechanism == nil {
			sink.AddFallbackPoint(ev)
			stats.WithoutMechanism++
			continue
		}

		fault := domain.ClassifyRake(ev.Mechanism.Plane1.Rake)

		img, err := c.renderer.RenderMechanism(*ev.Mechanism, fault)
		if err != nil {
			c.logger.Warn("beachball render failed, using generic marker",
				"record", rec.Index, "fault", fault, "error", err)
			c.countRenderFailure()
			sink.AddFallbackPoint(ev)
			stats.WithoutMechanism++
			continue
		}

		name := fmt.Sprintf("event_%d_fm.png", ev.Index)
		href, err := assets.Put(name, img)
		if err != nil {
			c.logger.Warn("icon write failed, using generic marker",
				"record", rec.Index, "asset", name, "error", err)
			sink.AddFallbackPoint(ev)
			stats.WithoutMechanism++
			continue
		}

		sink.AddMechanismPoint(ev, fault, href)
		stats.WithMechanism++
	}

	return stats, nil
}

func (c *Converter) countRenderFailure() {
	if c.metrics == nil {
		return
	}
	c.metrics.RenderFailures.Inc()
}
