package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	chileRecord = `PDEW 2015/09/16 22:54:32.9 -31.57 -71.67 22.4 7.2 8.3 NEAR COAST OF CENTRAL CHILE
C201509162254A GCMT Q-20150916230853
CENTROID -31.53 -71.83 17.4 49.8 0.0 BW
26 7.860 0.060 0.000 0.055 -7.860 0.060 1.150 0.300
V10 8.208 56 91 0.160 17 278 -8.368 29 187 8.288 7.25 353 19 90 174 71 90`

	fijiRecord = `SWEQ 2014/11/01 18:57:22.3 -19.69 -177.76 434.0 6.5 7.1 FIJI ISLANDS REGION
C201411011857A GCMT Q-20141101192334
CENTROID -19.61 -177.68 420.9 13.1 0.0 BW
27 1.040 0.004 -0.340 0.004 -0.700 0.004 0.090 0.004
V10 1.100 62 116 -0.100 21 257 -1.000 17 352 1.050 9.05 261 39 -148 145 70 -55`

	noSolutionRecord = `PDEQ 2024/01/11 04:10:02.0 14.20 120.77 110.1 4.6 4.8 LUZON, PHILIPPINES
C202401110410A GCMT Q-20240111052200
CENTROID 14.25 120.80 112.0 1.1 0.0 BW
24 0.100 0.010 -0.050 0.010 -0.050 0.010 0.010 0.010
V10 0.110 62 116 -0.010 21 257 -0.100 17 352 0 0 0 0 0 0`
)

func recordFromText(t *testing.T, text string, index int) Record {
	t.Helper()
	records, err := GroupRecords(strings.NewReader(text))
	require.NoError(t, err)
	require.NotEmpty(t, records)
	rec := records[0]
	rec.Index = index
	return rec
}

func TestGroupRecords(t *testing.T) {
	t.Run("splits on all sentinel prefixes", func(t *testing.T) {
		text := chileRecord + "\n" + fijiRecord + "\n" + noSolutionRecord + "\n"
		records, err := GroupRecords(strings.NewReader(text))

		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, 1, records[0].Index)
		assert.Equal(t, 2, records[1].Index)
		assert.Equal(t, 3, records[2].Index)
		assert.True(t, strings.HasPrefix(records[0].Lines[0], "PDEW"))
		assert.True(t, strings.HasPrefix(records[1].Lines[0], "SWEQ"))
		assert.True(t, strings.HasPrefix(records[2].Lines[0], "PDEQ"))
		for _, rec := range records {
			assert.Len(t, rec.Lines, 5)
		}
	})

	t.Run("drops blank lines and trims whitespace", func(t *testing.T) {
		var b strings.Builder
		for _, line := range strings.Split(chileRecord, "\n") {
			b.WriteString("  " + line + "  \n\n")
		}
		records, err := GroupRecords(strings.NewReader(b.String()))

		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, strings.Split(chileRecord, "\n"), records[0].Lines)
	})

	t.Run("leading junk forms its own record", func(t *testing.T) {
		text := "exported 2025-06-06\n" + chileRecord + "\n" + fijiRecord
		records, err := GroupRecords(strings.NewReader(text))

		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, []string{"exported 2025-06-06"}, records[0].Lines)
		assert.Len(t, records[1].Lines, 5)
		assert.True(t, strings.HasPrefix(records[1].Lines[0], "PDEW"))
		assert.Len(t, records[2].Lines, 5)
	})

	t.Run("keeps trailing record without separator", func(t *testing.T) {
		records, err := GroupRecords(strings.NewReader(chileRecord))

		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Len(t, records[0].Lines, 5)
	})

	t.Run("empty input", func(t *testing.T) {
		records, err := GroupRecords(strings.NewReader("\n   \n"))

		require.NoError(t, err)
		assert.Empty(t, records)
	})
}

func TestParseRecord(t *testing.T) {
	t.Run("full record", func(t *testing.T) {
		got, err := ParseRecord(recordFromText(t, chileRecord, 1))
		require.NoError(t, err)

		want := Event{
			Index: 1,
			Hypocenter: Hypocenter{
				Source:    "PDEW",
				Date:      "2015/09/16",
				TimeOfDay: "22:54:32.9",
				Time:      time.Date(2015, 9, 16, 22, 54, 32, 900_000_000, time.UTC),
				Geo:       Geo{Lat: -31.57, Lon: -71.67},
				DepthKM:   22.4,
				MagMB:     7.2,
				MagMS:     8.3,
				Region:    "NEAR COAST OF CENTRAL CHILE",
			},
			Mechanism: &FocalMechanism{
				Plane1: NodalPlane{Strike: 353, Dip: 19, Rake: 90},
				Plane2: NodalPlane{Strike: 174, Dip: 71, Rake: 90},
			},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("ParseRecord mismatch (-want +got):\n%s", diff)
		}
		assert.Equal(t, "2015/09/16 22:54:32.9", got.TimeLabel())
	})

	t.Run("zero strike and dip means no solution", func(t *testing.T) {
		got, err := ParseRecord(recordFromText(t, noSolutionRecord, 1))

		require.NoError(t, err)
		assert.Nil(t, got.Mechanism)
		assert.Equal(t, "LUZON, PHILIPPINES", got.Region)
	})

	t.Run("short mechanism line means no solution", func(t *testing.T) {
		rec := recordFromText(t, chileRecord, 1)
		rec.Lines[4] = "V10 8.208 56"
		got, err := ParseRecord(rec)

		require.NoError(t, err)
		assert.Nil(t, got.Mechanism)
	})

	t.Run("non-numeric mechanism tokens mean no solution", func(t *testing.T) {
		rec := recordFromText(t, chileRecord, 1)
		rec.Lines[4] = "V10 8.208 56 91 353 19 -- 174 71 90"
		got, err := ParseRecord(rec)

		require.NoError(t, err)
		assert.Nil(t, got.Mechanism)
	})

	t.Run("short record is an error", func(t *testing.T) {
		rec := Record{Index: 7, Lines: strings.Split(chileRecord, "\n")[:3]}
		_, err := ParseRecord(rec)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "record 7")
		assert.Contains(t, err.Error(), "3 lines")
	})

	t.Run("truncated hypocenter line is an error", func(t *testing.T) {
		rec := recordFromText(t, chileRecord, 2)
		rec.Lines[0] = "PDEW 2015/09/16 22:54:32.9 -31.57 -71.67 22.4 7.2"
		_, err := ParseRecord(rec)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "record 2")
		assert.Contains(t, err.Error(), "7 fields")
	})

	t.Run("non-numeric latitude is an error", func(t *testing.T) {
		rec := recordFromText(t, chileRecord, 1)
		rec.Lines[0] = "PDEW 2015/09/16 22:54:32.9 south -71.67 22.4 7.2 8.3 CHILE"
		_, err := ParseRecord(rec)

		require.Error(t, err)
		assert.Contains(t, err.Error(), `latitude "south"`)
	})

	t.Run("non-numeric mb is tolerated", func(t *testing.T) {
		rec := recordFromText(t, chileRecord, 1)
		rec.Lines[0] = "PDEW 2015/09/16 22:54:32.9 -31.57 -71.67 22.4 -- 8.3 CHILE"
		got, err := ParseRecord(rec)

		require.NoError(t, err)
		assert.Equal(t, 0.0, got.MagMB)
		assert.Equal(t, 8.3, got.MagMS)
	})

	t.Run("region is optional", func(t *testing.T) {
		rec := recordFromText(t, chileRecord, 1)
		rec.Lines[0] = "PDEW 2015/09/16 22:54:32.9 -31.57 -71.67 22.4 7.2 8.3"
		got, err := ParseRecord(rec)

		require.NoError(t, err)
		assert.Equal(t, "", got.Region)
	})

	t.Run("unparseable time keeps raw tokens", func(t *testing.T) {
		rec := recordFromText(t, chileRecord, 1)
		rec.Lines[0] = "PDEW 2015-09-16 22:54:32.9 -31.57 -71.67 22.4 7.2 8.3 CHILE"
		got, err := ParseRecord(rec)

		require.NoError(t, err)
		assert.True(t, got.Time.IsZero())
		assert.Equal(t, "2015-09-16 22:54:32.9", got.TimeLabel())
	})
}

func TestParseEventTime(t *testing.T) {
	tests := []struct {
		name      string
		date      string
		timeOfDay string
		expected  time.Time
	}{
		{"fractional seconds", "2015/09/16", "22:54:32.9", time.Date(2015, 9, 16, 22, 54, 32, 900_000_000, time.UTC)},
		{"whole seconds", "2014/04/03", "02:43:13", time.Date(2014, 4, 3, 2, 43, 13, 0, time.UTC)},
		{"bad date separator", "2015-09-16", "22:54:32.9", time.Time{}},
		{"missing seconds", "2015/09/16", "22:54", time.Time{}},
		{"empty", "", "", time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseEventTime(tt.date, tt.timeOfDay))
		})
	}
}

func TestEventID(t *testing.T) {
	parse := func(t *testing.T, text string) Event {
		t.Helper()
		ev, err := ParseRecord(recordFromText(t, text, 1))
		require.NoError(t, err)
		return ev
	}

	t.Run("includes lowercased source prefix", func(t *testing.T) {
		id := EventID(parse(t, chileRecord))
		assert.True(t, strings.HasPrefix(id, "pdew-"))
	})

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, EventID(parse(t, chileRecord)), EventID(parse(t, chileRecord)))
	})

	t.Run("independent of catalog position", func(t *testing.T) {
		ev1 := parse(t, chileRecord)
		ev2 := ev1
		ev2.Index = 42
		assert.Equal(t, EventID(ev1), EventID(ev2))
	})

	t.Run("different events produce different IDs", func(t *testing.T) {
		assert.NotEqual(t, EventID(parse(t, chileRecord)), EventID(parse(t, fijiRecord)))
	})

	t.Run("empty source", func(t *testing.T) {
		ev := parse(t, chileRecord)
		ev.Source = ""
		id := EventID(ev)
		assert.NotEmpty(t, id)
		assert.False(t, strings.Contains(id, "-"))
	})
}
