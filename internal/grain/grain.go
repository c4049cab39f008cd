// Package grain implements instruction resolution for the AXP core: the
// keyed handler registry, the raw-word resolver, the execution-unit router
// and the base instruction set table.
package grain

import "github.com/alphaserve/axp/internal/pal"

// Platform selects an instruction-set variant. PlatformAlpha is the base
// architecture every variant falls back to.
type Platform uint8

const (
	PlatformAlpha Platform = iota
	PlatformEV6
	PlatformEV67
)

// String implements fmt.Stringer
func (p Platform) String() string {
	switch p {
	case PlatformAlpha:
		return "alpha"
	case PlatformEV6:
		return "ev6"
	case PlatformEV67:
		return "ev67"
	default:
		return "invalid"
	}
}

// Type is the coarse classification of a grain.
type Type uint8

const (
	TypeInteger Type = iota
	TypeFloat
	TypeMemory
	TypeBranch
	TypePAL
	TypeMisc
)

// String implements fmt.Stringer
func (t Type) String() string {
	switch t {
	case TypeInteger:
		return "integer"
	case TypeFloat:
		return "float"
	case TypeMemory:
		return "memory"
	case TypeBranch:
		return "branch"
	case TypePAL:
		return "pal"
	case TypeMisc:
		return "misc"
	default:
		return "invalid"
	}
}

// Flags carries issue and ordering properties of a grain.
type Flags uint16

const (
	FlagDualIssue Flags = 1 << iota
	FlagSerialize
	FlagBarrier
	FlagLocked
	FlagConditional
)

// CPUState is the view of processor state a grain executes against. The
// machine's CPU implements it; grains never see the concrete type.
type CPUState interface {
	ReadReg(r int) uint64
	WriteReg(r int, v uint64)
	SetNextPC(pc uint64)

	Load(va uint64, size int) (uint64, error)
	Store(va uint64, size int, v uint64) error
	LoadLocked(va uint64, size int) (uint64, error)
	StoreConditional(va uint64, size int, v uint64) (bool, error)

	CallPAL(fn uint32) error
	ReadIPR(index uint16) (uint64, error)
	WriteIPR(index uint16, v uint64) error
	ReturnFromPAL() error

	// RaiseArithmeticTrap records the exception summary bits and returns
	// the trap to deliver. Trapping arithmetic variants call it after
	// writing their result.
	RaiseArithmeticTrap(summary uint64) error

	CycleCounter() uint64
}

// Slot is the pipeline slot a grain executes in: the raw word, the PC of
// the instruction, the CPU state view, and an optional privileged result
// the grain may attach for the run loop.
type Slot struct {
	Raw uint32
	PC  uint64
	CPU CPUState
	Pal *pal.Result
}

// ExecFunc is the executable body of a grain.
type ExecFunc func(slot *Slot) error

// Grain is one executable instruction variant. Grains are registered once
// at startup and are immutable afterwards; the registry owns them for the
// process lifetime.
type Grain struct {
	Mnemonic string
	Opcode   uint8
	Function uint16
	Platform Platform
	Type     Type
	Flags    Flags
	Latency  uint8
	Execute  ExecFunc
}
