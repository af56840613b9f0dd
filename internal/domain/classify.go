package domain

// FaultType is the classification of a focal mechanism by the rake of its
// first nodal plane.
type FaultType string

const (
	FaultNormal     FaultType = "Normal"
	FaultThrust     FaultType = "Thrust"
	FaultStrikeSlip FaultType = "Strike-Slip"
	FaultOblique    FaultType = "Oblique"
)

// FaultTypes lists all classifications in display order.
var FaultTypes = []FaultType{FaultNormal, FaultThrust, FaultStrikeSlip, FaultOblique}

// Rake thresholds in degrees. Pure dip-slip is ±90, pure strike-slip is 0
// or ±180; the bands allow ±30 of obliquity around each pure end member.
const (
	normalRakeMin     = -120.0
	normalRakeMax     = -60.0
	thrustRakeMin     = 60.0
	thrustRakeMax     = 120.0
	strikeSlipRakeAbs = 30.0
	strikeSlipRakeFar = 150.0
)

// ClassifyRake maps a rake angle to a fault type. Ranges are inclusive and
// anything between the strike-slip and dip-slip bands is Oblique.
func ClassifyRake(rake float64) FaultType {
	switch {
	case rake >= normalRakeMin && rake <= normalRakeMax:
		return FaultNormal
	case rake >= thrustRakeMin && rake <= thrustRakeMax:
		return FaultThrust
	case rake >= -strikeSlipRakeAbs && rake <= strikeSlipRakeAbs,
		rake >= strikeSlipRakeFar, rake <= -strikeSlipRakeFar:
		return FaultStrikeSlip
	default:
		return FaultOblique
	}
}

// Color returns the display color for a fault type, used both for diagram
// fill and for the document legend so the two cannot drift apart.
func (t FaultType) Color() string {
	switch t {
	case FaultNormal:
		return "green"
	case FaultThrust:
		return "red"
	case FaultStrikeSlip:
		return "blue"
	case FaultOblique:
		return "yellow"
	default:
		return ""
	}
}
