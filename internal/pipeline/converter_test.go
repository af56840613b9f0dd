package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/couchcryptid/quake-data-kml/internal/domain"
	"github.com/couchcryptid/quake-data-kml/internal/observability"
	"github.com/couchcryptid/quake-data-kml/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Three records: a thrust solution, a zero-sentinel record without a usable
// solution, and a truncated record that cannot be parsed at all.
const sampleCatalog = `PDEW 2015/09/16 22:54:32.9 -31.57 -71.67 22.4 7.2 8.3 NEAR COAST OF CENTRAL CHILE
M010
B: 20 387 45 P: 20 376 45
DUR 54.0 TRIHD: 0.7
V10 8.694 64 287 3.456 12 31 353 19 90 174 71 90
PDEQ 2016/02/02 03:04:05.0 12.5 -45.25 33.5 4.8 5.2 SOUTH ATLANTIC RIDGE
M010
B: 10 150 40 P: 10 140 40
DUR 12.0 TRIHD: 0.5
V10 2.100 10 100 1.200 10 20 0 0 0 0 0 0
SWEQ 2016/03/03 10:20:30.0 5.5 100.5 50.5 4.1 4.5 NORTHERN SUMATRA
M010
B: 5 80 30`

// --- mocks ---

type mockRenderer struct {
	calls int
	err   error
}

func (m *mockRenderer) RenderMechanism(_ domain.FocalMechanism, fault domain.FaultType) ([]byte, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return []byte("beachball-" + string(fault)), nil
}

type sinkEntry struct {
	event domain.Event
	fault domain.FaultType
	href  string
}

type mockSink struct {
	mechanisms []sinkEntry
	fallbacks  []domain.Event
}

func (m *mockSink) AddMechanismPoint(ev domain.Event, fault domain.FaultType, iconHref string) {
	m.mechanisms = append(m.mechanisms, sinkEntry{event: ev, fault: fault, href: iconHref})
}

func (m *mockSink) AddFallbackPoint(ev domain.Event) {
	m.fallbacks = append(m.fallbacks, ev)
}

type failingAssets struct {
	err error
}

func (f *failingAssets) Put(_ string, _ []byte) (string, error) {
	return "", f.err
}

// --- helpers ---

func groupRecords(t *testing.T, text string) []domain.Record {
	t.Helper()
	records, err := domain.GroupRecords(strings.NewReader(text))
	require.NoError(t, err)
	return records
}

func newTestConverter(renderer domain.Renderer) *pipeline.Converter {
	return pipeline.NewConverter(renderer, slog.Default(), observability.NewMetricsForTesting())
}

// --- tests ---

func TestConverter_Convert_MixedCatalog(t *testing.T) {
	records := groupRecords(t, sampleCatalog)
	require.Len(t, records, 3)

	renderer := &mockRenderer{}
	sink := &mockSink{}
	store := pipeline.NewMemAssetStore("assets")

	stats, err := newTestConverter(renderer).Convert(context.Background(), records, sink, store)
	require.NoError(t, err)

	assert.Equal(t, pipeline.Stats{WithMechanism: 1, WithoutMechanism: 1, Skipped: 1}, stats)

	require.Len(t, sink.mechanisms, 1)
	entry := sink.mechanisms[0]
	assert.Equal(t, domain.FaultThrust, entry.fault)
	assert.Equal(t, "assets/event_1_fm.png", entry.href)
	assert.Equal(t, 1, entry.event.Index)
	assert.InEpsilon(t, 8.3, entry.event.MagMS, 1e-9)

	require.Len(t, sink.fallbacks, 1)
	assert.Equal(t, 2, sink.fallbacks[0].Index)
	assert.Nil(t, sink.fallbacks[0].Mechanism)

	assert.Equal(t, []byte("beachball-Thrust"), store.Files()["assets/event_1_fm.png"])
	assert.Equal(t, 1, renderer.calls)
}

func TestConverter_Convert_NumbersIconsByRecordPosition(t *testing.T) {
	// The first record is truncated and skipped; the surviving record keeps
	// its position-based icon number instead of being renumbered.
	const catalog = `PDEW 2010/01/01 01:01:01.0 1.5 2.5 10.5 5.0 5.5 REGION A
M010
B: 1 2 3
PDEW 2011/02/02 02:02:02.0 3.5 4.5 20.5 5.5 6.0 REGION B
M010
B: 1 2 3
DUR 1.0
V10 1 1 1 1 1 1 30 60 -90 210 30 -90`

	records := groupRecords(t, catalog)
	require.Len(t, records, 2)

	sink := &mockSink{}
	store := pipeline.NewMemAssetStore("assets")

	stats, err := newTestConverter(&mockRenderer{}).Convert(context.Background(), records, sink, store)
	require.NoError(t, err)

	assert.Equal(t, pipeline.Stats{WithMechanism: 1, WithoutMechanism: 0, Skipped: 1}, stats)
	require.Len(t, sink.mechanisms, 1)
	assert.Equal(t, domain.FaultNormal, sink.mechanisms[0].fault)
	assert.Equal(t, "assets/event_2_fm.png", sink.mechanisms[0].href)
}

func TestConverter_Convert_RenderFailureFallsBack(t *testing.T) {
	records := groupRecords(t, sampleCatalog)

	renderer := &mockRenderer{err: errors.New("projection blew up")}
	sink := &mockSink{}
	store := pipeline.NewMemAssetStore("assets")

	stats, err := newTestConverter(renderer).Convert(context.Background(), records, sink, store)
	require.NoError(t, err)

	assert.Equal(t, pipeline.Stats{WithMechanism: 0, WithoutMechanism: 2, Skipped: 1}, stats)
	assert.Empty(t, sink.mechanisms)
	assert.Len(t, sink.fallbacks, 2)
	assert.Empty(t, store.Files())
}

func TestConverter_Convert_AssetWriteFailureFallsBack(t *testing.T) {
	records := groupRecords(t, sampleCatalog)

	renderer := &mockRenderer{}
	sink := &mockSink{}
	store := &failingAssets{err: errors.New("disk full")}

	// nil metrics is the one-shot CLI configuration.
	conv := pipeline.NewConverter(renderer, slog.Default(), nil)
	stats, err := conv.Convert(context.Background(), records, sink, store)
	require.NoError(t, err)

	assert.Equal(t, pipeline.Stats{WithMechanism: 0, WithoutMechanism: 2, Skipped: 1}, stats)
	assert.Equal(t, 1, renderer.calls)
	assert.Empty(t, sink.mechanisms)
}

func TestConverter_Convert_ContextCancelled(t *testing.T) {
	records := groupRecords(t, sampleCatalog)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &mockSink{}
	stats, err := newTestConverter(&mockRenderer{}).Convert(ctx, records, sink, pipeline.NewMemAssetStore("assets"))

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, pipeline.Stats{}, stats)
	assert.Empty(t, sink.mechanisms)
	assert.Empty(t, sink.fallbacks)
}

func TestConverter_Convert_NoRecords(t *testing.T) {
	sink := &mockSink{}
	stats, err := newTestConverter(&mockRenderer{}).Convert(context.Background(), nil, sink, pipeline.NewMemAssetStore("assets"))

	require.NoError(t, err)
	assert.Equal(t, pipeline.Stats{}, stats)
}
