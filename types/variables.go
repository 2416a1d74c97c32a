package types

import (
	"fmt"
	"strings"
)

// FlowVariable indexes the per-cell state vector. The first five are the
// primitive variables, the last two are derived from them.
type FlowVariable uint8

const (
	Density FlowVariable = iota
	XVelocity
	YVelocity
	ZVelocity
	Pressure
	Energy      // 5
	Temperature // 6
)

const (
	NumPrimitive = 5
	NumDerived   = 2
	NumMaxVars   = NumPrimitive + NumDerived
)

func (fv FlowVariable) String() string {
	names := []string{
		"Density",
		"XVelocity",
		"YVelocity",
		"ZVelocity",
		"Pressure",
		"Energy",
		"Temperature",
	}
	if int(fv) >= len(names) {
		return "Unknown"
	}
	return names[int(fv)]
}

func (fv FlowVariable) IsPrimitive() bool { return fv < NumPrimitive }

// VelocityIndex returns the state index of the velocity component along axis
func VelocityIndex(axis int) int { return int(XVelocity) + axis }

// NewFlowVariable parses a variable name, case insensitive
func NewFlowVariable(name string) (fv FlowVariable, err error) {
	for fv = Density; fv <= Temperature; fv++ {
		if strings.EqualFold(fv.String(), strings.TrimSpace(name)) {
			return
		}
	}
	err = fmt.Errorf("unknown flow variable: \"%s\"", name)
	return
}
