package domain

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// recordSentinels are the catalog source codes that open a new record.
// Plain "PDE" lines (without the Q/W qualifier) do not appear in SPUD
// bundles and are deliberately not matched.
var recordSentinels = []string{"PDEQ", "PDEW", "SWEQ"}

const (
	// minRecordLines is the NDK record length; the mechanism line is the fifth.
	minRecordLines = 5

	// minHypocenterFields covers tokens [0]..[7]; region tokens are optional.
	minHypocenterFields = 8

	// mechanismFields is strike/dip/rake for both nodal planes.
	mechanismFields = 6

	// eventTimeLayout parses the date and time-of-day tokens joined with a
	// space. time.Parse accepts the trailing fractional seconds on its own.
	eventTimeLayout = "2006/01/02 15:04:05"
)

// GroupRecords splits a catalog into per-event records. Lines are trimmed,
// blank lines are dropped, and a sentinel line closes the previous record.
// Header lines before the first sentinel form a leading record of their own;
// ParseRecord rejects it later as too short, so it surfaces as one skip.
func GroupRecords(r io.Reader) ([]Record, error) {
	var (
		records []Record
		current []string
	)
	flush := func() {
		if len(current) == 0 {
			return
		}
		records = append(records, Record{Index: len(records) + 1, Lines: current})
		current = nil
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if startsNewRecord(line) {
			flush()
		}
		current = append(current, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	flush()
	return records, nil
}

func startsNewRecord(line string) bool {
	for _, sentinel := range recordSentinels {
		if strings.HasPrefix(line, sentinel) {
			return true
		}
	}
	return false
}

// ParseRecord extracts an Event from a grouped record. An error means the
// record is unusable and must be skipped; a missing or invalid mechanism is
// not an error, it leaves Event.Mechanism nil.
func ParseRecord(rec Record) (Event, error) {
	if len(rec.Lines) < minRecordLines {
		return Event{}, fmt.Errorf("record %d: %d lines, want at least %d", rec.Index, len(rec.Lines), minRecordLines)
	}

	hypo, err := parseHypocenterLine(rec.Lines[0])
	if err != nil {
		return Event{}, fmt.Errorf("record %d: %w", rec.Index, err)
	}

	return Event{
		Index:      rec.Index,
		Hypocenter: hypo,
		Mechanism:  parseMechanismLine(rec.Lines[minRecordLines-1]),
	}, nil
}

func parseHypocenterLine(line string) (Hypocenter, error) {
	fields := strings.Fields(line)
	if len(fields) < minHypocenterFields {
		return Hypocenter{}, fmt.Errorf("hypocenter line has %d fields, want at least %d", len(fields), minHypocenterFields)
	}

	lat, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return Hypocenter{}, fmt.Errorf("latitude %q: %w", fields[3], err)
	}
	lon, err := strconv.ParseFloat(fields[4], 64)
	if err != nil {
		return Hypocenter{}, fmt.Errorf("longitude %q: %w", fields[4], err)
	}
	depth, err := strconv.ParseFloat(fields[5], 64)
	if err != nil {
		return Hypocenter{}, fmt.Errorf("depth %q: %w", fields[5], err)
	}
	ms, err := strconv.ParseFloat(fields[7], 64)
	if err != nil {
		return Hypocenter{}, fmt.Errorf("magnitude %q: %w", fields[7], err)
	}

	return Hypocenter{
		Source:    fields[0],
		Date:      fields[1],
		TimeOfDay: fields[2],
		Time:      parseEventTime(fields[1], fields[2]),
		Geo:       Geo{Lat: lat, Lon: lon},
		DepthKM:   depth,
		MagMB:     parseFloatOrZero(fields[6]),
		MagMS:     ms,
		Region:    strings.Join(fields[8:], " "),
	}, nil
}

// parseMechanismLine reads strike/dip/rake of both nodal planes from the
// last six tokens of the mechanism line. Any shortfall, parse failure, or
// the strike=0/dip=0 "no solution" sentinel yields nil.
func parseMechanismLine(line string) *FocalMechanism {
	fields := strings.Fields(line)
	if len(fields) < mechanismFields {
		return nil
	}

	var vals [mechanismFields]float64
	for i := range vals {
		v, err := strconv.ParseFloat(fields[len(fields)-mechanismFields+i], 64)
		if err != nil {
			return nil
		}
		vals[i] = v
	}

	mech := FocalMechanism{
		Plane1: NodalPlane{Strike: vals[0], Dip: vals[1], Rake: vals[2]},
		Plane2: NodalPlane{Strike: vals[3], Dip: vals[4], Rake: vals[5]},
	}
	if mech.Plane1.Strike == 0 && mech.Plane1.Dip == 0 {
		return nil
	}
	return &mech
}

// parseEventTime combines the raw date and time-of-day tokens into a UTC
// instant. Returns the zero time on failure; display falls back to the raw
// tokens, which are kept regardless.
func parseEventTime(date, timeOfDay string) time.Time {
	t, err := time.Parse(eventTimeLayout, date+" "+timeOfDay)
	if err != nil {
		return time.Time{}
	}
	return t
}

// parseFloatOrZero parses a string as float64, returning 0 on failure.
func parseFloatOrZero(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// EventID produces a deterministic ID from the event's key fields.
// Deterministic IDs let feed records dedupe against catalog-file records
// (first wins) and make feed replays idempotent.
func EventID(ev Event) string {
	input := fmt.Sprintf("%s|%s|%.4f|%.4f|%g", ev.Date, ev.TimeOfDay, ev.Geo.Lat, ev.Geo.Lon, ev.MagMS)
	hash := sha256.Sum256([]byte(input))
	short := hex.EncodeToString(hash[:8])
	if ev.Source == "" {
		return short
	}
	return strings.ToLower(ev.Source) + "-" + short
}
