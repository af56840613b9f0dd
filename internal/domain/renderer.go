package domain

// Renderer draws a focal-mechanism diagram for a double-couple solution.
type Renderer interface {
	// RenderMechanism returns an encoded PNG beachball for the mechanism,
	// filled with the fault type's color.
	RenderMechanism(mech FocalMechanism, fault FaultType) ([]byte, error)
}
