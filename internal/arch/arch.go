// Package arch defines the architectural constants and closed enumerations
// shared by the dispatch, fault and interrupt layers of the Alpha AXP core.
package arch

// Privilege modes, most privileged first. The numeric ordering matters:
// mode A is equal or less privileged than mode B iff A >= B.
const (
	ModeKernel     uint8 = 0
	ModeExecutive  uint8 = 1
	ModeSupervisor uint8 = 2
	ModeUser       uint8 = 3
)

// ModeName returns the conventional single-letter name for a privilege mode.
func ModeName(mode uint8) string {
	switch mode & 3 {
	case ModeKernel:
		return "K"
	case ModeExecutive:
		return "E"
	case ModeSupervisor:
		return "S"
	default:
		return "U"
	}
}

// Interrupt priority levels
const (
	IPLMin uint8 = 0
	IPLMax uint8 = 31

	// ASTs are deliverable only at IPL 0..2
	IPLASTGate uint8 = 2

	// Software interrupts occupy IPL 1..15
	IPLSoftwareMax uint8 = 15

	// Inter-processor interrupts arrive at a fixed level
	IPLIPI uint8 = 20

	// Machine checks preempt everything
	IPLMachineCheck uint8 = 31
)

// TranslationResult is the outcome of a virtual-to-physical translation.
// The MMU layer is consumed only through this enumeration; page-table
// structure never leaks into the dispatch core.
type TranslationResult uint8

const (
	TranslationSuccess TranslationResult = iota
	TranslationTLBMiss
	TranslationAccessViolation
	TranslationNonCanonical
	TranslationPageNotPresent
	TranslationFaultOnRead
	TranslationFaultOnWrite
	TranslationFaultOnExecute
	TranslationUnaligned
	TranslationBusError

	translationResultCount
)

// TranslationResultCount is the number of defined translation outcomes.
// Classifier totality tests iterate up to this value.
const TranslationResultCount = int(translationResultCount)

// String implements fmt.Stringer
func (r TranslationResult) String() string {
	switch r {
	case TranslationSuccess:
		return "success"
	case TranslationTLBMiss:
		return "tlb-miss"
	case TranslationAccessViolation:
		return "access-violation"
	case TranslationNonCanonical:
		return "non-canonical"
	case TranslationPageNotPresent:
		return "page-not-present"
	case TranslationFaultOnRead:
		return "fault-on-read"
	case TranslationFaultOnWrite:
		return "fault-on-write"
	case TranslationFaultOnExecute:
		return "fault-on-execute"
	case TranslationUnaligned:
		return "unaligned"
	case TranslationBusError:
		return "bus-error"
	default:
		return "invalid"
	}
}

// Access is the kind of memory access being performed.
type Access uint8

const (
	AccessRead Access = iota
	AccessWrite
	AccessExecute
)

// String implements fmt.Stringer
func (a Access) String() string {
	switch a {
	case AccessRead:
		return "read"
	case AccessWrite:
		return "write"
	case AccessExecute:
		return "execute"
	default:
		return "invalid"
	}
}

// TBDomain identifies which translation buffer an access goes through.
type TBDomain uint8

const (
	TBDomainNone TBDomain = iota
	TBDomainInstruction
	TBDomainData
)

// String implements fmt.Stringer
func (d TBDomain) String() string {
	switch d {
	case TBDomainInstruction:
		return "itb"
	case TBDomainData:
		return "dtb"
	default:
		return "none"
	}
}
