package referenceframe

// Input wraps the input to a mutable frame, e.g. a joint angle or a prismatic displacement.
//   - revolute inputs should be in radians.
//   - prismatic inputs should be in the length unit of the robot description.
type Input struct {
	Value float64
}

// FloatsToInputs wraps a slice of floats in Inputs.
func FloatsToInputs(floats []float64) []Input {
	inputs := make([]Input, len(floats))
	for i, f := range floats {
		inputs[i] = Input{f}
	}
	return inputs
}
