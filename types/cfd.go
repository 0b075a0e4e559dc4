package types

import (
	"fmt"
	"strings"
)

type BCFLAG uint8

const (
	BC_None BCFLAG = iota
	BC_Dirichlet
	BC_Wall
	BC_Conductor
	BC_Neuman
	BC_Out
)

var BCNameMap = map[string]BCFLAG{
	"dirichlet": BC_Dirichlet,
	"wall":      BC_Wall,
	"conductor": BC_Conductor,
	"pec":       BC_Conductor,
	"neuman":    BC_Neuman,
	"neumann":   BC_Neuman,
	"out":       BC_Out,
	"outflow":   BC_Out,
}

var bcPrintNames = []string{"None", "Dirichlet", "Wall", "Conductor", "Neuman", "Out"}

func NewBCFLAG(name string) (bf BCFLAG) {
	var (
		ok bool
	)
	if bf, ok = BCNameMap[strings.ToLower(strings.TrimSpace(name))]; !ok {
		bf = BC_None
	}
	return
}

func (bf BCFLAG) String() string {
	if int(bf) < len(bcPrintNames) {
		return bcPrintNames[bf]
	}
	return fmt.Sprintf("BCFLAG(%d)", uint8(bf))
}

// IsEssential reports whether the flag fixes the solution value on the boundary
func (bf BCFLAG) IsEssential() bool {
	switch bf {
	case BC_Dirichlet, BC_Wall, BC_Conductor:
		return true
	}
	return false
}

// EssentialMarkers converts boundary group names, ordered by attribute, into
// an attribute marker array where 1 marks an essential boundary
func EssentialMarkers(names []string) (essBdr []int) {
	essBdr = make([]int, len(names))
	for i, name := range names {
		if NewBCFLAG(name).IsEssential() {
			essBdr[i] = 1
		}
	}
	return
}
