// Package domain models NDK-style focal-mechanism bulletins.
//
// # Data Source
//
// Catalogs are "custom NDK" bundles as exported by the IRIS SPUD momenttensor
// service (http://ds.iris.edu/spud/momenttensor), which repackages Global CMT
// project solutions. A bundle is plain text: five lines per event, events
// concatenated back to back, sometimes separated by blank lines.
//
// # NDK Record Conventions
//
// Record boundaries:
//
//	A new record starts at a line whose first token begins with a catalog
//	source code: "PDEQ", "PDEW", or "SWEQ" (quick/weekly PDE, surface-wave
//	catalog). Header lines before the first sentinel group into a leading
//	record of their own. Records shorter than five lines are malformed and
//	skipped, which is how such a header record gets dropped.
//
// Line 1 (hypocenter), whitespace-split tokens:
//
//	[0] source code    "PDEW"
//	[1] date           "2015/09/16"
//	[2] time of day    "22:54:32.9" (fractional seconds optional)
//	[3] latitude       degrees, north positive
//	[4] longitude      degrees, east positive
//	[5] depth          kilometers below surface
//	[6] mb             body-wave magnitude (best effort; unused in output)
//	[7] Ms             surface-wave magnitude (the displayed magnitude)
//	[8:] region        Flinn-Engdahl region name, joined with spaces
//
// Lines 2-4 carry CMT inversion details (event ID, centroid, moment tensor)
// and are not consumed here.
//
// Line 5 (principal axes and nodal planes): the last six tokens are
// strike/dip/rake of nodal plane 1 followed by strike/dip/rake of nodal
// plane 2, in degrees. Strike 0 with dip 0 on plane 1 is the catalog's
// "no solution" sentinel. A line with fewer than six tokens, or with
// non-numeric values among the last six, means the event has no usable
// mechanism; such events are still placed, just without a diagram.
//
// Fault classification:
//
//	Derived from the rake of nodal plane 1 using fixed inclusive ranges:
//
//	  -120 ≤ rake ≤ -60                Normal       green
//	    60 ≤ rake ≤ 120                Thrust       red
//	  |rake| ≤ 30 or |rake| ≥ 150      Strike-Slip  blue
//	  anything else                    Oblique      yellow
//
// # ID Generation
//
// Event IDs are deterministic SHA-256 hashes of source|date|time|lat|lon|Ms.
// Live-feed records that duplicate catalog-file records dedupe by ID without
// any coordination, and replaying a feed topic is idempotent. See [EventID].
package domain
