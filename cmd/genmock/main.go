// Command genmock generates a synthetic NDK catalog for tests and demos.
// Records cycle through the four fault classes so every folder of the
// rendered document gets events, and the output is re-parsed through the
// real domain package so the printed stats match converter behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data/mock/generated_catalog.txt \
//	  -count 24 -no-mechanism 3 -malformed 1
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/quake-data-kml/internal/domain"
)

var baseTime = time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

type recordKind int

const (
	kindMechanism recordKind = iota
	kindNoMechanism
	kindMalformed
)

type regionDef struct {
	name     string
	lat, lon float64
	deep     bool
}

var regions = []regionDef{
	{name: "NEAR COAST OF CENTRAL CHILE", lat: -31.6, lon: -71.6},
	{name: "NEVADA", lat: 38.2, lon: -117.9},
	{name: "CENTRAL CALIFORNIA", lat: 35.8, lon: -117.6},
	{name: "FIJI ISLANDS REGION", lat: -19.7, lon: -177.8, deep: true},
	{name: "HONSHU, JAPAN", lat: 38.3, lon: 142.4},
	{name: "KURIL ISLANDS", lat: 46.8, lon: 152.0, deep: true},
	{name: "MINDANAO, PHILIPPINES", lat: 6.1, lon: 126.3},
	{name: "SOUTHERN IRAN", lat: 27.8, lon: 57.1},
	{name: "CRETE, GREECE", lat: 35.0, lon: 25.1},
	{name: "VANUATU ISLANDS", lat: -16.9, lon: 168.0},
	{name: "TONGA ISLANDS", lat: -20.5, lon: -174.2, deep: true},
	{name: "OFF COAST OF OREGON", lat: 43.9, lon: -127.8},
}

var sources = []string{"PDEW", "PDEQ", "SWEQ"}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the generated NDK catalog")
	count := flag.Int("count", 24, "number of event records")
	seed := flag.Int64("seed", 1, "random seed")
	noMech := flag.Int("no-mechanism", 3, "records without a usable solution (zero sentinel or short mechanism line)")
	malformed := flag.Int("malformed", 0, "records truncated below the five-line minimum")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *count <= 0 {
		return fmt.Errorf("invalid -count %d", *count)
	}
	if *noMech+*malformed > *count {
		return fmt.Errorf("-no-mechanism plus -malformed exceeds -count")
	}

	r := rand.New(rand.NewSource(*seed))

	kinds := make([]recordKind, *count)
	assignSpread(kinds, kindNoMechanism, *noMech)
	assignSpread(kinds, kindMalformed, *malformed)

	var sb strings.Builder
	fmt.Fprintf(&sb, "IRIS SPUD EVENT BUNDLE EXPORT %s moment tensors\n", baseTime.Format("2006-01-02"))
	for i, kind := range kinds {
		writeRecord(&sb, r, i, kind)
	}
	content := sb.String()

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(*out, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	log.Printf("wrote %d records (%d without mechanism, %d malformed): %s",
		*count, *noMech, *malformed, *out)

	return printStats(content)
}

// assignSpread marks n records with kind k, spaced evenly across the catalog.
func assignSpread(kinds []recordKind, k recordKind, n int) {
	for placed := 0; placed < n; placed++ {
		i := (2*placed + 1) * len(kinds) / (2 * n)
		for kinds[i] != kindMechanism {
			i = (i + 1) % len(kinds)
		}
		kinds[i] = k
	}
}

func writeRecord(sb *strings.Builder, r *rand.Rand, i int, kind recordKind) {
	region := regions[r.Intn(len(regions))]
	lat := region.lat + (r.Float64()-0.5)*4
	lon := region.lon + (r.Float64()-0.5)*4
	depth := 2 + r.Float64()*68
	if region.deep {
		depth = 350 + r.Float64()*250
	}
	magMS := 4.5 + r.Float64()*4
	magMB := magMS - 0.2 - r.Float64()*0.6

	t := baseTime.Add(-time.Duration(i)*14*time.Hour - time.Duration(r.Intn(3600))*time.Second)

	fmt.Fprintf(sb, "%s %s %s %.2f %.2f %.1f %.1f %.1f %s\n",
		sources[i%len(sources)], t.Format("2006/01/02"), t.Format("15:04:05.0"),
		lat, lon, depth, magMB, magMS, region.name)
	fmt.Fprintf(sb, "C%sA B: %d %d %d S: %d %d %d M: 0 0 0 CMT: 1 TRIHD: 0.%d\n",
		t.Format("200601021504"),
		r.Intn(150), 200+r.Intn(600), 45+r.Intn(90),
		r.Intn(170), 200+r.Intn(600), 90+r.Intn(60),
		5+r.Intn(5))
	fmt.Fprintf(sb, "CENTROID: %.1f 0.1 %.2f 0.01 %.2f 0.01 %.1f 0.5 FREE S-%s\n",
		1+r.Float64()*14, lat+(r.Float64()-0.5)*0.2, lon+(r.Float64()-0.5)*0.2,
		depth+(r.Float64()-0.5)*4, t.Add(6*time.Hour).Format("20060102150405"))

	if kind == kindMalformed {
		return
	}

	fmt.Fprintf(sb, "%d", 24+r.Intn(4))
	for range 6 {
		fmt.Fprintf(sb, " %.3f 0.00%d", (r.Float64()-0.5)*10, 1+r.Intn(9))
	}
	sb.WriteByte('\n')

	scale := 0.1 + r.Float64()*8

	// No-solution records alternate between the catalog's two shapes: the
	// zero sentinel and a mechanism line with fewer than six tokens.
	if kind == kindNoMechanism && i%2 == 1 {
		fmt.Fprintf(sb, "V10 %.3f %d %d\n", scale, r.Intn(90), r.Intn(360))
		return
	}

	strike, dip, rake := 0, 0, 0
	strike2, dip2, rake2 := 0, 0, 0
	if kind == kindMechanism {
		fault := domain.FaultTypes[i%len(domain.FaultTypes)]
		strike = r.Intn(360)
		dip = 15 + r.Intn(61)
		rake = int(math.Round(rakeFor(fault, r)))
		strike2 = (strike + 170 + r.Intn(21)) % 360
		dip2 = 15 + r.Intn(61)
		rake2 = int(math.Round(rakeFor(fault, r)))
	}
	fmt.Fprintf(sb, "V10 %.3f %d %d %.3f %d %d %.3f %d %d %.3f %d %d %d %d %d %d\n",
		scale, r.Intn(90), r.Intn(360),
		scale*0.1, r.Intn(90), r.Intn(360),
		-scale, r.Intn(90), r.Intn(360),
		scale*1.02, strike, dip, rake, strike2, dip2, rake2)
}

// rakeFor picks a rake angle safely inside the classification band for the
// fault type, leaving margin so integer rounding cannot cross a boundary.
func rakeFor(fault domain.FaultType, r *rand.Rand) float64 {
	span := func(lo, hi float64) float64 { return lo + r.Float64()*(hi-lo) }
	switch fault {
	case domain.FaultNormal:
		return span(-115, -65)
	case domain.FaultThrust:
		return span(65, 115)
	case domain.FaultStrikeSlip:
		if r.Intn(2) == 0 {
			return span(-25, 25)
		}
		return span(155, 180)
	default:
		bands := [4][2]float64{{35, 55}, {-55, -35}, {125, 145}, {-145, -125}}
		b := bands[r.Intn(len(bands))]
		return span(b[0], b[1])
	}
}

// printStats re-parses the generated catalog with the real domain code and
// prints the counts the converter will report.
func printStats(content string) error {
	records, err := domain.GroupRecords(strings.NewReader(content))
	if err != nil {
		return fmt.Errorf("self-check: %w", err)
	}

	byFault := map[domain.FaultType]int{}
	var withMech, withoutMech, skipped int
	for _, rec := range records {
		ev, err := domain.ParseRecord(rec)
		if err != nil {
			skipped++
			continue
		}
		if ev.Mechanism == nil {
			withoutMech++
			continue
		}
		withMech++
		byFault[domain.ClassifyRake(ev.Mechanism.Plane1.Rake)]++
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Grouped records: %d (the header line groups as one skipped record)\n", len(records))
	fmt.Printf("With mechanism: %d\n", withMech)
	for _, fault := range domain.FaultTypes {
		fmt.Printf("  %s: %d\n", fault, byFault[fault])
	}
	fmt.Printf("Without mechanism: %d\n", withoutMech)
	fmt.Printf("Skipped: %d\n", skipped)
	return nil
}
