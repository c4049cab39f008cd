// Package fault implements the trap taxonomy, fault classifiers and the
// per-CPU pending-event dispatcher of the AXP core.
package fault

// TrapClass is the canonical classification of a synchronous or
// asynchronous architectural event. Classifiers are the only producers;
// no other code constructs trap classes ad hoc.
type TrapClass uint8

const (
	TrapNone TrapClass = iota
	TrapReset
	TrapMachineCheck
	TrapArithmetic
	TrapInterrupt
	TrapITBMiss
	TrapITBFault
	TrapITBAccessViolation
	TrapDTBMissSingle
	TrapDTBMissDouble
	TrapDTBFault
	TrapDTBAccessViolation
	TrapUnaligned
	TrapIllegalOpcode
	TrapFPDisabled
	TrapDoubleFault

	trapClassCount
)

// TrapClassCount is the number of defined trap classes.
const TrapClassCount = int(trapClassCount)

// String implements fmt.Stringer
func (c TrapClass) String() string {
	switch c {
	case TrapNone:
		return "none"
	case TrapReset:
		return "reset"
	case TrapMachineCheck:
		return "machine-check"
	case TrapArithmetic:
		return "arithmetic"
	case TrapInterrupt:
		return "interrupt"
	case TrapITBMiss:
		return "itb-miss"
	case TrapITBFault:
		return "itb-fault"
	case TrapITBAccessViolation:
		return "itb-acv"
	case TrapDTBMissSingle:
		return "dtb-miss-single"
	case TrapDTBMissDouble:
		return "dtb-miss-double"
	case TrapDTBFault:
		return "dtb-fault"
	case TrapDTBAccessViolation:
		return "dtb-acv"
	case TrapUnaligned:
		return "unaligned"
	case TrapIllegalOpcode:
		return "opcdec"
	case TrapFPDisabled:
		return "fen"
	case TrapDoubleFault:
		return "double-fault"
	default:
		return "invalid"
	}
}

// IsRecoverable reports whether PAL software is expected to resolve the
// fault and re-execute the instruction. Machine checks and double faults
// are terminal from this core's perspective.
func (c TrapClass) IsRecoverable() bool {
	switch c {
	case TrapITBMiss, TrapDTBMissSingle, TrapDTBMissDouble,
		TrapITBFault, TrapDTBFault, TrapUnaligned, TrapFPDisabled:
		return true
	default:
		return false
	}
}

// IsMemoryFault reports whether the class describes a translation or
// access-violation fault on a memory reference. The dispatcher uses this
// to answer pending-translation-fault queries.
func (c TrapClass) IsMemoryFault() bool {
	switch c {
	case TrapITBMiss, TrapITBFault, TrapITBAccessViolation,
		TrapDTBMissSingle, TrapDTBMissDouble, TrapDTBFault,
		TrapDTBAccessViolation, TrapUnaligned:
		return true
	default:
		return false
	}
}

// isSynchronous reports whether the class is raised by instruction
// execution rather than by an external event. Two back-to-back
// synchronous faults without PAL entry in between are a nested-fault
// condition.
func (c TrapClass) isSynchronous() bool {
	switch c {
	case TrapNone, TrapReset, TrapInterrupt, TrapMachineCheck:
		return false
	default:
		return true
	}
}

// TLBFaultType is the translation-layer refinement feeding the trap
// classifier. It distinguishes the reason a TB lookup failed without
// naming the architectural vector the failure maps to.
type TLBFaultType uint8

const (
	TLBFaultNone TLBFaultType = iota
	TLBFaultMiss
	TLBFaultAccessViolation
	TLBFaultOnRead
	TLBFaultOnWrite
	TLBFaultOnExecute
	TLBFaultNotPresent
	TLBFaultNonCanonical
)

// String implements fmt.Stringer
func (t TLBFaultType) String() string {
	switch t {
	case TLBFaultNone:
		return "none"
	case TLBFaultMiss:
		return "miss"
	case TLBFaultAccessViolation:
		return "acv"
	case TLBFaultOnRead:
		return "for"
	case TLBFaultOnWrite:
		return "fow"
	case TLBFaultOnExecute:
		return "foe"
	case TLBFaultNotPresent:
		return "not-present"
	case TLBFaultNonCanonical:
		return "non-canonical"
	default:
		return "invalid"
	}
}

// MemoryFaultType is the decoded meaning of the MM_STAT fault-type bits.
type MemoryFaultType uint8

const (
	MemoryFaultNone MemoryFaultType = iota
	MemoryFaultDTBMissRead
	MemoryFaultDTBMissWrite
	MemoryFaultACVRead
	MemoryFaultACVWrite
	MemoryFaultOnRead
	MemoryFaultOnWrite
	MemoryFaultOnExecute
)

// String implements fmt.Stringer
func (m MemoryFaultType) String() string {
	switch m {
	case MemoryFaultNone:
		return "none"
	case MemoryFaultDTBMissRead:
		return "dtb-miss-read"
	case MemoryFaultDTBMissWrite:
		return "dtb-miss-write"
	case MemoryFaultACVRead:
		return "acv-read"
	case MemoryFaultACVWrite:
		return "acv-write"
	case MemoryFaultOnRead:
		return "fault-on-read"
	case MemoryFaultOnWrite:
		return "fault-on-write"
	case MemoryFaultOnExecute:
		return "fault-on-execute"
	default:
		return "invalid"
	}
}
