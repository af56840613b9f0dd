// Package beachball rasterizes double-couple focal mechanisms as the
// classic lower-hemisphere "beachball" diagrams used on seismicity maps.
package beachball

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/couchcryptid/quake-data-kml/internal/domain"
)

const (
	defaultSize = 200

	// rimWidth is the outline thickness in pixels, matching the look of the
	// usual matplotlib/obspy beachball plots.
	rimWidth = 2.0

	degToRad = math.Pi / 180
)

// faceColors maps the classifier's color names to opaque fills.
var faceColors = map[string]color.RGBA{
	"green":  {R: 0, G: 128, B: 0, A: 255},
	"red":    {R: 255, G: 0, B: 0, A: 255},
	"blue":   {R: 0, G: 0, B: 255, A: 255},
	"yellow": {R: 255, G: 255, B: 0, A: 255},
}

var (
	whiteFill = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	edgeFill  = color.RGBA{R: 0, G: 0, B: 0, A: 255}
)

// subpixelOffsets are the 2x2 supersampling positions within a pixel. They
// decide rim and nodal-line pixels, keeping the boundaries crisp without a
// full anti-aliasing pass.
var subpixelOffsets = [4][2]float64{{0.25, 0.25}, {0.75, 0.25}, {0.25, 0.75}, {0.75, 0.75}}

// Renderer implements domain.Renderer by evaluating the P-wave radiation
// pattern of the first nodal plane over an equal-area projection of the
// lower focal hemisphere.
type Renderer struct {
	size int
}

// NewRenderer creates a renderer producing size x size PNGs. A non-positive
// size falls back to the default.
func NewRenderer(size int) *Renderer {
	if size <= 0 {
		size = defaultSize
	}
	return &Renderer{size: size}
}

// RenderMechanism draws the beachball for a solution, filling compressional
// quadrants with the fault type's color and dilatational quadrants with
// white. The area outside the rim is transparent so the icon composites
// cleanly onto map imagery.
func (r *Renderer) RenderMechanism(mech domain.FocalMechanism, fault domain.FaultType) ([]byte, error) {
	face, ok := faceColors[fault.Color()]
	if !ok {
		return nil, fmt.Errorf("no fill color for fault type %q", fault)
	}

	m := momentTensor(mech.Plane1)
	img := image.NewRGBA(image.Rect(0, 0, r.size, r.size))
	center := float64(r.size) / 2
	radius := center - 1

	for py := 0; py < r.size; py++ {
		for px := 0; px < r.size; px++ {
			img.SetRGBA(px, py, samplePixel(m, px, py, center, radius, face))
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode beachball: %w", err)
	}
	return buf.Bytes(), nil
}

// samplePixel classifies one pixel from its four subsamples: transparent
// outside the circle, edge ink on the rim and wherever the subsamples
// disagree in sign (a nodal line crossing), otherwise the quadrant fill.
func samplePixel(m tensor, px, py int, center, radius float64, face color.RGBA) color.RGBA {
	var inside, rim, positive int
	for _, off := range subpixelOffsets {
		east := float64(px) + off[0] - center
		north := center - (float64(py) + off[1])
		dist := math.Hypot(east, north)
		if dist > radius {
			continue
		}
		inside++
		if dist >= radius-rimWidth {
			rim++
			continue
		}
		if firstMotion(m, east, north, radius) >= 0 {
			positive++
		}
	}

	interior := inside - rim
	switch {
	case inside == 0:
		return color.RGBA{}
	case rim > 0:
		return edgeFill
	case positive > 0 && positive < interior:
		return edgeFill
	case positive == interior:
		return face
	default:
		return whiteFill
	}
}

// firstMotion evaluates the radiation sign for the ray that projects to the
// given offset from the center. The projection is the equal-area (Schmidt)
// net: dist = R*sqrt(2)*sin(takeoff/2), so the rim is the horizontal ray and
// the center is straight down.
func firstMotion(m tensor, east, north, radius float64) float64 {
	dist := math.Hypot(east, north)
	takeoff := 2 * math.Asin(dist/(radius*math.Sqrt2))
	azimuth := math.Atan2(east, north) // clockwise from north

	sinI, cosI := math.Sincos(takeoff)
	sinAz, cosAz := math.Sincos(azimuth)

	// Ray direction in north-east-down coordinates.
	gn := sinI * cosAz
	ge := sinI * sinAz
	gd := cosI

	return m.xx*gn*gn + m.yy*ge*ge + m.zz*gd*gd +
		2*(m.xy*gn*ge+m.xz*gn*gd+m.yz*ge*gd)
}

// tensor is a symmetric unit moment tensor in north-east-down coordinates.
type tensor struct {
	xx, yy, zz float64
	xy, xz, yz float64
}

// momentTensor builds the double-couple tensor for a nodal plane using the
// Aki & Richards strike/dip/rake conventions. Both planes of a conjugate
// pair produce the same tensor, so rendering from plane 1 is not a choice.
func momentTensor(p domain.NodalPlane) tensor {
	strike := p.Strike * degToRad
	dip := p.Dip * degToRad
	rake := p.Rake * degToRad

	sinS, cosS := math.Sincos(strike)
	sin2S, cos2S := math.Sincos(2 * strike)
	sinD, cosD := math.Sincos(dip)
	sin2D, cos2D := math.Sincos(2 * dip)
	sinR, cosR := math.Sincos(rake)

	return tensor{
		xx: -(sinD*cosR*sin2S + sin2D*sinR*sinS*sinS),
		yy: sinD*cosR*sin2S - sin2D*sinR*cosS*cosS,
		zz: sin2D * sinR,
		xy: sinD*cosR*cos2S + 0.5*sin2D*sinR*sin2S,
		xz: -(cosD*cosR*cosS + cos2D*sinR*sinS),
		yz: -(cosD*cosR*sinS - cos2D*sinR*cosS),
	}
}
