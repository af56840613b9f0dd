package domain

import (
	"context"
	"time"
)

// Record is one grouped NDK chunk: the trimmed, non-empty lines of a single
// event, plus its 1-based position in the catalog. The position names the
// rendered icon asset, so it survives merging and is never compacted when
// neighboring records turn out to be malformed.
type Record struct {
	Index int
	Lines []string
}

// RawEvent represents an unprocessed message from the feed topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64
	Lon float64
}

// Hypocenter holds the fields of an NDK record's first line. Date and
// TimeOfDay keep the raw tokens for display; Time is the parsed UTC instant
// and is zero when the tokens do not parse.
type Hypocenter struct {
	Source    string // catalog source code: PDEW, PDEQ, SWEQ
	Date      string
	TimeOfDay string
	Time      time.Time
	Geo       Geo
	DepthKM   float64
	MagMB     float64 // body-wave magnitude, best effort
	MagMS     float64 // surface-wave magnitude, displayed
	Region    string
}

// NodalPlane is one of the two planes of a double-couple solution,
// in degrees.
type NodalPlane struct {
	Strike float64
	Dip    float64
	Rake   float64
}

// FocalMechanism is the double-couple solution from an NDK record's fifth
// line. Plane1 drives classification and rendering; Plane2 is its conjugate.
type FocalMechanism struct {
	Plane1 NodalPlane
	Plane2 NodalPlane
}

// Event is the parsed representation of one catalog record. Mechanism is nil
// when the record carries no usable solution.
type Event struct {
	Index int
	Hypocenter
	Mechanism *FocalMechanism
}

// TimeLabel returns the event time as it appears in the catalog,
// e.g. "2015/09/16 22:54:32.9".
func (e Event) TimeLabel() string {
	return e.Date + " " + e.TimeOfDay
}
