// Package kml assembles focal mechanism catalogs as KML documents.
//
// A Builder accumulates placemarks into a fixed folder tree: events with a
// focal mechanism solution are grouped into one sub-folder per fault type,
// events without a solution land in a flat fallback folder. The finished
// document can be written as plain KML or as a KMZ archive that bundles the
// beachball icons.
package kml

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/quake-data-kml/internal/domain"
	gokml "github.com/twpayne/go-kml/v2"
)

// FallbackIconHref marks events without a usable focal mechanism solution.
const FallbackIconHref = "http://maps.google.com/mapfiles/kml/paddle/red-circle.png"

const (
	noMechanismStyleID = "no-mechanism"
	kmzDocumentName    = "doc.kml"
)

// Builder accumulates event placemarks into a KML document.
type Builder struct {
	doc      *gokml.CompoundElement
	folders  map[domain.FaultType]*gokml.CompoundElement
	fallback *gokml.CompoundElement
}

// NewBuilder creates an empty catalog document. sourceName is the display
// name of the bulletin the catalog was built from, typically the file name.
func NewBuilder(sourceName string) *Builder {
	folders := make(map[domain.FaultType]*gokml.CompoundElement, len(domain.FaultTypes))
	mechanismRoot := gokml.Folder(gokml.Name("Events with Focal Mechanisms"))
	for _, fault := range domain.FaultTypes {
		folder := gokml.Folder(gokml.Name(folderLabel(fault)))
		folders[fault] = folder
		mechanismRoot.Add(folder)
	}
	fallback := gokml.Folder(gokml.Name("Events without Focal Mechanisms"))

	doc := gokml.Document(
		gokml.Name("Focal Mechanisms from "+sourceName),
		gokml.Description(legendHTML()),
		gokml.Open(true),
		gokml.SharedStyle(noMechanismStyleID,
			gokml.IconStyle(gokml.Icon(gokml.Href(FallbackIconHref))),
		),
		mechanismRoot,
		fallback,
	)

	return &Builder{doc: doc, folders: folders, fallback: fallback}
}

// AddMechanismPoint places an event into the sub-folder of its fault type,
// styled with the rendered beachball at iconHref.
func (b *Builder) AddMechanismPoint(ev domain.Event, fault domain.FaultType, iconHref string) {
	folder, ok := b.folders[fault]
	if !ok {
		folder = b.fallback
	}
	folder.Add(gokml.Placemark(
		gokml.Name("M "+formatFloat(ev.MagMS)),
		gokml.Description(mechanismDescription(ev, fault)),
		gokml.Style(gokml.IconStyle(gokml.Icon(gokml.Href(iconHref)))),
		gokml.Point(gokml.Coordinates(eventCoordinate(ev))),
	))
}

// AddFallbackPoint places an event without a solution into the fallback
// folder, styled with the shared generic marker.
func (b *Builder) AddFallbackPoint(ev domain.Event) {
	b.fallback.Add(gokml.Placemark(
		gokml.Name("M "+formatFloat(ev.MagMS)),
		gokml.Description(fallbackDescription(ev)),
		gokml.StyleURL("#"+noMechanismStyleID),
		gokml.Point(gokml.Coordinates(eventCoordinate(ev))),
	))
}

// Write emits the document as indented KML.
func (b *Builder) Write(w io.Writer) error {
	return gokml.KML(b.doc).WriteIndent(w, "", "  ")
}

// WriteKMZ emits the document as a KMZ archive. The KML document is the
// first entry, as Google Earth expects, followed by the given assets keyed
// by their href inside the archive.
func (b *Builder) WriteKMZ(w io.Writer, assets map[string][]byte) error {
	zw := zip.NewWriter(w)

	doc, err := zw.Create(kmzDocumentName)
	if err != nil {
		return fmt.Errorf("create %s: %w", kmzDocumentName, err)
	}
	if err := b.Write(doc); err != nil {
		return fmt.Errorf("write %s: %w", kmzDocumentName, err)
	}

	names := make([]string, 0, len(assets))
	for name := range assets {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		entry, err := zw.Create(name)
		if err != nil {
			return fmt.Errorf("create %s: %w", name, err)
		}
		if _, err := entry.Write(assets[name]); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}

	return zw.Close()
}

// NetworkLinkDocument renders a small KML document whose single network link
// points Google Earth at href and re-fetches it on the given interval.
func NetworkLinkDocument(href string, refresh time.Duration) ([]byte, error) {
	k := gokml.KML(gokml.Document(
		gokml.Name("Focal Mechanism Catalog"),
		gokml.NetworkLink(
			gokml.Name("Auto-refreshing catalog"),
			gokml.Open(true),
			gokml.Link(
				gokml.Href(href),
				gokml.RefreshMode(gokml.RefreshModeOnInterval),
				gokml.RefreshInterval(refresh.Seconds()),
			),
		),
	))

	var buf bytes.Buffer
	if err := k.WriteIndent(&buf, "", "  "); err != nil {
		return nil, fmt.Errorf("encode network link: %w", err)
	}
	return buf.Bytes(), nil
}

func mechanismDescription(ev domain.Event, fault domain.FaultType) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>Fault Type:</b> %s<br/>", fault)
	fmt.Fprintf(&sb, "<b>Time:</b> %s UTC<br/>", ev.TimeLabel())
	fmt.Fprintf(&sb, "<b>Magnitude:</b> %s<br/>", formatFloat(ev.MagMS))
	fmt.Fprintf(&sb, "<b>Depth:</b> %.1f km<br/>", ev.DepthKM)
	fmt.Fprintf(&sb, "<b>Location:</b> %.3f, %.3f<br/>", ev.Geo.Lat, ev.Geo.Lon)
	if ev.Region != "" {
		fmt.Fprintf(&sb, "<b>Region:</b> %s<br/>", ev.Region)
	}
	plane := ev.Mechanism.Plane1
	fmt.Fprintf(&sb, "<b>Strike/Dip/Rake:</b> %s/%s/%s",
		formatFloat(plane.Strike), formatFloat(plane.Dip), formatFloat(plane.Rake))
	return sb.String()
}

func fallbackDescription(ev domain.Event) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>Time:</b> %s UTC<br/>", ev.TimeLabel())
	fmt.Fprintf(&sb, "<b>Magnitude:</b> %s<br/>", formatFloat(ev.MagMS))
	fmt.Fprintf(&sb, "<b>Depth:</b> %.1f km<br/>", ev.DepthKM)
	fmt.Fprintf(&sb, "<b>Location:</b> %.3f, %.3f<br/>", ev.Geo.Lat, ev.Geo.Lon)
	if ev.Region != "" {
		fmt.Fprintf(&sb, "<b>Region:</b> %s<br/>", ev.Region)
	}
	sb.WriteString("<b>Focal Mechanism:</b> Not available")
	return sb.String()
}

// legendHTML derives the document legend from the fault taxonomy so the
// swatches always match the rendered beachball fill colors.
func legendHTML() string {
	var sb strings.Builder
	sb.WriteString("<b>Beachball Color Legend (by Fault Type)</b><br>")
	for _, fault := range domain.FaultTypes {
		fmt.Fprintf(&sb, "<br><font color=%q>■</font> %s", fault.Color(), folderLabel(fault))
	}
	return sb.String()
}

// folderLabel spells out the thrust alias used in folder names and the legend.
func folderLabel(fault domain.FaultType) string {
	if fault == domain.FaultThrust {
		return "Thrust (Reverse)"
	}
	return string(fault)
}

func eventCoordinate(ev domain.Event) gokml.Coordinate {
	return gokml.Coordinate{Lon: ev.Geo.Lon, Lat: ev.Geo.Lat, Alt: -ev.DepthKM * 1000}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
