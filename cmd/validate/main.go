// Command validate performs integrity checks on an NDK catalog and,
// optionally, on a KML document rendered from it: record structure,
// hypocenter and nodal-plane plausibility, and document cross-checks
// (placemark counts, folder layout, icon files on disk).
//
// Usage:
//
//	go run ./cmd/validate \
//	  -catalog data/mock/iris_catalog_sample.txt \
//	  -kml out/focal_mechanisms.kml
package main

import (
	"encoding/xml"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/couchcryptid/quake-data-kml/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// parseResult pairs a grouped record with its parse outcome.
type parseResult struct {
	rec domain.Record
	ev  domain.Event
	err error
}

func main() {
	catalogPath := flag.String("catalog", "", "path to the NDK catalog file")
	kmlPath := flag.String("kml", "", "optional path to a rendered KML document to cross-check")
	flag.Parse()

	if *catalogPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*catalogPath, *kmlPath); code != 0 {
		os.Exit(code)
	}
}

func run(catalogPath, kmlPath string) int {
	fmt.Println("=== NDK Catalog Integrity Validation ===")
	fmt.Println()

	records, err := loadCatalog(catalogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load catalog: %v\n", err)
		return 1
	}
	results := parseAll(records)

	// ── Run validation phases ──
	phases := []*phase{
		validateStructure(results),
		validatePlausibility(results),
	}
	if kmlPath != "" {
		doc, err := loadKML(kmlPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load kml: %v\n", err)
			return 1
		}
		phases = append(phases, validateDocument(doc, kmlPath, results))
	}

	// ── Report results ──
	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-44s %s\n", p.name, status)
	}

	var withMech, withoutMech, skipped int
	for _, res := range results {
		switch {
		case res.err != nil:
			skipped++
		case res.ev.Mechanism != nil:
			withMech++
		default:
			withoutMech++
		}
	}
	fmt.Println()
	fmt.Printf("Records: %d grouped, %d with mechanism, %d without, %d skipped\n",
		len(results), withMech, withoutMech, skipped)

	// Print detailed errors.
	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

func loadCatalog(path string) ([]domain.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return domain.GroupRecords(f)
}

func parseAll(records []domain.Record) []parseResult {
	results := make([]parseResult, 0, len(records))
	for _, rec := range records {
		ev, err := domain.ParseRecord(rec)
		results = append(results, parseResult{rec: rec, ev: ev, err: err})
	}
	return results
}

// ── Phase 1: Catalog Structure ──
// Validates that every grouped record parses; one-line banner records from
// export headers are expected and only noted.

func validateStructure(results []parseResult) *phase {
	p := &phase{name: "Phase 1: Catalog Structure (NDK records)"}

	if len(results) == 0 {
		p.errorf("catalog contains no records")
		return p
	}

	banners := 0
	for _, res := range results {
		if res.err == nil {
			continue
		}
		if len(res.rec.Lines) == 1 {
			banners++
			continue
		}
		p.errorf("record %d: %v", res.rec.Index, res.err)
	}
	if banners > 0 {
		fmt.Printf("  Note: %d banner line(s) grouped as skipped records\n", banners)
	}

	seen := map[string]int{}
	for _, res := range results {
		if res.err != nil {
			continue
		}
		id := domain.EventID(res.ev)
		if first, ok := seen[id]; ok {
			p.errorf("record %d: duplicate of record %d (id %s)", res.rec.Index, first, id)
			continue
		}
		seen[id] = res.rec.Index
	}

	return p
}

// ── Phase 2: Mechanism Plausibility ──
// Validates hypocenter fields and nodal-plane angles against physical ranges.

func validatePlausibility(results []parseResult) *phase {
	p := &phase{name: "Phase 2: Mechanism Plausibility (angles)"}

	for _, res := range results {
		if res.err != nil {
			continue
		}
		ev := res.ev
		pf := func(format string, args ...any) {
			p.errorf("record %d: "+format, append([]any{ev.Index}, args...)...)
		}

		if ev.Geo.Lat < -90 || ev.Geo.Lat > 90 {
			pf("latitude %g out of range [-90, 90]", ev.Geo.Lat)
		}
		if ev.Geo.Lon < -180 || ev.Geo.Lon > 360 {
			pf("longitude %g out of range [-180, 360]", ev.Geo.Lon)
		}
		if ev.DepthKM < 0 || ev.DepthKM > 800 {
			pf("depth %g km out of range [0, 800]", ev.DepthKM)
		}
		if ev.MagMS <= 0 || ev.MagMS > 10 {
			pf("magnitude %g out of range (0, 10]", ev.MagMS)
		}
		if ev.Time.IsZero() {
			pf("date %q time %q do not parse", ev.Date, ev.TimeOfDay)
		}

		if ev.Mechanism == nil {
			continue
		}
		checkPlane(pf, "plane 1", ev.Mechanism.Plane1)
		checkPlane(pf, "plane 2", ev.Mechanism.Plane2)
	}

	return p
}

func checkPlane(pf func(string, ...any), label string, plane domain.NodalPlane) {
	if plane.Strike < 0 || plane.Strike > 360 {
		pf("%s strike %g out of range [0, 360]", label, plane.Strike)
	}
	if plane.Dip < 0 || plane.Dip > 90 {
		pf("%s dip %g out of range [0, 90]", label, plane.Dip)
	}
	if plane.Rake < -180 || plane.Rake > 180 {
		pf("%s rake %g out of range [-180, 180]", label, plane.Rake)
	}
}

// ── Phase 3: Document Cross-Check ──
// Validates a rendered KML document against the catalog it came from. The
// expected folder names are spelled out here on purpose: the validator is an
// independent oracle and must not share constants with the builder.

var faultFolders = map[domain.FaultType]string{
	domain.FaultNormal:     "Normal",
	domain.FaultThrust:     "Thrust (Reverse)",
	domain.FaultStrikeSlip: "Strike-Slip",
	domain.FaultOblique:    "Oblique",
}

type xmlKML struct {
	Document xmlFolder `xml:"Document"`
}

type xmlFolder struct {
	Name       string         `xml:"name"`
	Folders    []xmlFolder    `xml:"Folder"`
	Placemarks []xmlPlacemark `xml:"Placemark"`
}

type xmlPlacemark struct {
	Name        string `xml:"name"`
	StyleURL    string `xml:"styleUrl"`
	IconHref    string `xml:"Style>IconStyle>Icon>href"`
	Coordinates string `xml:"Point>coordinates"`
}

func loadKML(path string) (*xmlKML, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc xmlKML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func validateDocument(doc *xmlKML, kmlPath string, results []parseResult) *phase {
	p := &phase{name: "Phase 3: Document Cross-Check (KML)"}

	expected := map[domain.FaultType]int{}
	var withMech, withoutMech int
	for _, res := range results {
		switch {
		case res.err != nil:
		case res.ev.Mechanism != nil:
			expected[domain.ClassifyRake(res.ev.Mechanism.Plane1.Rake)]++
			withMech++
		default:
			withoutMech++
		}
	}

	mechRoot := findFolder(&doc.Document, "Events with Focal Mechanisms")
	fallbackRoot := findFolder(&doc.Document, "Events without Focal Mechanisms")
	if mechRoot == nil {
		p.errorf("folder %q not found", "Events with Focal Mechanisms")
	}
	if fallbackRoot == nil {
		p.errorf("folder %q not found", "Events without Focal Mechanisms")
	}
	if mechRoot == nil || fallbackRoot == nil {
		return p
	}

	for _, fault := range domain.FaultTypes {
		name := faultFolders[fault]
		folder := findFolder(mechRoot, name)
		if folder == nil {
			p.errorf("fault folder %q not found", name)
			continue
		}
		if got := len(collectPlacemarks(folder)); got != expected[fault] {
			p.errorf("folder %q: document has %d placemarks, catalog classifies %d", name, got, expected[fault])
		}
	}

	mechMarks := collectPlacemarks(mechRoot)
	fallMarks := collectPlacemarks(fallbackRoot)

	// The totals catch placemarks stranded outside the fault folders.
	if len(mechMarks) != withMech {
		p.errorf("mechanism placemarks: document has %d, catalog parses %d", len(mechMarks), withMech)
	}
	if len(fallMarks) != withoutMech {
		p.errorf("fallback placemarks: document has %d, catalog parses %d", len(fallMarks), withoutMech)
	}

	kmlDir := filepath.Dir(kmlPath)
	for _, pm := range mechMarks {
		checkCoordinates(p, pm)
		if pm.IconHref == "" {
			p.errorf("placemark %q: missing icon href", pm.Name)
			continue
		}
		if strings.HasPrefix(pm.IconHref, "http://") || strings.HasPrefix(pm.IconHref, "https://") {
			continue
		}
		icon := filepath.Join(kmlDir, filepath.FromSlash(pm.IconHref))
		if _, err := os.Stat(icon); err != nil {
			p.errorf("placemark %q: icon %s: %v", pm.Name, pm.IconHref, err)
		}
	}
	for _, pm := range fallMarks {
		checkCoordinates(p, pm)
		if pm.StyleURL != "#no-mechanism" {
			p.errorf("fallback placemark %q: styleUrl %q, want %q", pm.Name, pm.StyleURL, "#no-mechanism")
		}
	}

	return p
}

func findFolder(f *xmlFolder, name string) *xmlFolder {
	for i := range f.Folders {
		if f.Folders[i].Name == name {
			return &f.Folders[i]
		}
		if found := findFolder(&f.Folders[i], name); found != nil {
			return found
		}
	}
	return nil
}

func collectPlacemarks(f *xmlFolder) []xmlPlacemark {
	marks := append([]xmlPlacemark(nil), f.Placemarks...)
	for i := range f.Folders {
		marks = append(marks, collectPlacemarks(&f.Folders[i])...)
	}
	return marks
}

// checkCoordinates verifies the lon,lat,alt tuple parses and sits at or
// below ground: depth in kilometers renders as negative altitude.
func checkCoordinates(p *phase, pm xmlPlacemark) {
	parts := strings.Split(strings.TrimSpace(pm.Coordinates), ",")
	if len(parts) != 3 {
		p.errorf("placemark %q: coordinates %q: want lon,lat,alt", pm.Name, pm.Coordinates)
		return
	}
	vals := make([]float64, 3)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			p.errorf("placemark %q: coordinates %q: %v", pm.Name, pm.Coordinates, err)
			return
		}
		vals[i] = v
	}
	if vals[1] < -90 || vals[1] > 90 {
		p.errorf("placemark %q: latitude %g out of range", pm.Name, vals[1])
	}
	if vals[2] > 0 {
		p.errorf("placemark %q: altitude %g is above ground", pm.Name, vals[2])
	}
}
