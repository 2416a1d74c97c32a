package types

import (
	"fmt"
	"strings"
)

type BCFLAG uint8

const (
	BC_None BCFLAG = iota
	BC_In
	BC_Dirichlet
	BC_Slip
	BC_Far
	BC_Wall
	BC_Neuman
	BC_Out
)

var BCNameMap = map[string]BCFLAG{
	"inflow":    BC_In,
	"in":        BC_In,
	"out":       BC_Out,
	"outflow":   BC_Out,
	"wall":      BC_Wall,
	"far":       BC_Far,
	"dirichlet": BC_Dirichlet,
	"neuman":    BC_Neuman,
	"slip":      BC_Slip,
}

func (bf BCFLAG) String() string {
	names := []string{"None", "Inflow", "Dirichlet", "Slip", "Far", "Wall", "Neuman", "Outflow"}
	if int(bf) >= len(names) {
		return fmt.Sprintf("BCFLAG(%d)", bf)
	}
	return names[bf]
}

func NewBCFLAG(name string) (bf BCFLAG, err error) {
	var ok bool
	if bf, ok = BCNameMap[strings.ToLower(strings.TrimSpace(name))]; !ok {
		err = fmt.Errorf("unknown boundary condition type: \"%s\"", name)
	}
	return
}

// Boundary faces are stored in the neighbor lists as a negative sentinel that
// encodes the boundary marker: marker m <-> -(m+1), so marker 0 is -1.

func MarkerToSentinel(marker int) int {
	if marker < 0 {
		panic(fmt.Errorf("boundary marker must be non-negative, have %d", marker))
	}
	return -(marker + 1)
}

func SentinelToMarker(sentinel int) int {
	if sentinel >= 0 {
		panic(fmt.Errorf("neighbor %d is not a boundary sentinel", sentinel))
	}
	return -sentinel - 1
}

func IsBoundary(neighbor int) bool { return neighbor < 0 }
