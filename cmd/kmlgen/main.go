// Command kmlgen converts an NDK focal-mechanism catalog into a KML document
// with rendered beachball icons, one PNG per event. Writing to a .kmz path
// bundles the document and icons into a single archive instead.
//
// Usage:
//
//	go run ./cmd/kmlgen \
//	  -in data/mock/iris_catalog_sample.txt \
//	  -out focal_mechanisms.kml \
//	  -assets assets
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/quake-data-kml/internal/adapter/beachball"
	"github.com/couchcryptid/quake-data-kml/internal/domain"
	"github.com/couchcryptid/quake-data-kml/internal/kml"
	"github.com/couchcryptid/quake-data-kml/internal/observability"
	"github.com/couchcryptid/quake-data-kml/internal/pipeline"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	in := flag.String("in", "", "path to the NDK catalog file")
	out := flag.String("out", "focal_mechanisms.kml", "output path (.kml or .kmz)")
	assetsDir := flag.String("assets", "assets", "directory for beachball icons (ignored for .kmz output)")
	iconSize := flag.Int("icon-size", 200, "beachball icon size in pixels")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	flag.Parse()

	if *in == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -in")
	}
	if *iconSize <= 0 {
		return fmt.Errorf("invalid -icon-size %d", *iconSize)
	}

	logger := observability.NewLogger(*logLevel, "text")

	f, err := os.Open(*in)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	records, err := domain.GroupRecords(f)
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}

	builder := kml.NewBuilder(filepath.Base(*in))
	converter := pipeline.NewConverter(beachball.NewRenderer(*iconSize), logger, nil)

	kmz := strings.EqualFold(filepath.Ext(*out), ".kmz")

	var store pipeline.AssetStore
	var mem *pipeline.MemAssetStore
	if kmz {
		mem = pipeline.NewMemAssetStore("assets")
		store = mem
	} else {
		// Icon hrefs in the document are relative to the document itself.
		href, err := filepath.Rel(filepath.Dir(*out), *assetsDir)
		if err != nil {
			href = *assetsDir
		}
		store, err = pipeline.NewDirAssetStore(*assetsDir, filepath.ToSlash(href))
		if err != nil {
			return err
		}
	}

	stats, err := converter.Convert(context.Background(), records, builder, store)
	if err != nil {
		return fmt.Errorf("convert catalog: %w", err)
	}

	var buf bytes.Buffer
	if kmz {
		if err := builder.WriteKMZ(&buf, mem.Files()); err != nil {
			return fmt.Errorf("encode archive: %w", err)
		}
	} else {
		if err := builder.Write(&buf); err != nil {
			return fmt.Errorf("encode document: %w", err)
		}
	}

	if dir := filepath.Dir(*out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(*out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", *out, err)
	}

	logger.Info("catalog converted",
		"in", *in,
		"out", *out,
		"records", len(records),
		"with_mechanism", stats.WithMechanism,
		"without_mechanism", stats.WithoutMechanism,
		"skipped", stats.Skipped,
	)
	return nil
}
