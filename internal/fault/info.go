package fault

import "github.com/alphaserve/axp/internal/arch"

// MemoryFaultInfo is the extended record describing one memory fault. The
// canonical fields (CanonicalAccess, CanonicalSize, CanonicalDomain) are
// derived from the base fields and never set independently; build the
// record through NewMemoryFaultInfo or call derive after mutating the base
// fields.
type MemoryFaultInfo struct {
	// Base fields
	FaultType      MemoryFaultType
	VA             uint64
	PA             uint64
	AccessSize     uint8
	IsWrite        bool
	IsExecute      bool
	PC             uint64
	RawInstruction uint32

	// Derived, read-only once the base fields are set
	CanonicalAccess arch.Access
	CanonicalSize   uint8
	CanonicalDomain arch.TBDomain

	// Extended context
	TranslationValid bool
	InPALMode        bool
	Mode             uint8
	ASN              uint8
	ArithKind        ArithmeticFaultType
	DeviceID         uint16
	ErrorCode        uint16
}

// NewMemoryFaultInfo builds a fault record and derives the canonical
// fields from the base fields.
func NewMemoryFaultInfo(fault MemoryFaultType, va, pc uint64, size uint8, isWrite, isExecute bool) MemoryFaultInfo {
	info := MemoryFaultInfo{
		FaultType:  fault,
		VA:         va,
		PC:         pc,
		AccessSize: size,
		IsWrite:    isWrite,
		IsExecute:  isExecute,
	}
	info.derive()
	return info
}

// derive recomputes the canonical fields from the base fields.
func (i *MemoryFaultInfo) derive() {
	switch {
	case i.IsExecute:
		i.CanonicalAccess = arch.AccessExecute
		i.CanonicalDomain = arch.TBDomainInstruction
	case i.IsWrite:
		i.CanonicalAccess = arch.AccessWrite
		i.CanonicalDomain = arch.TBDomainData
	default:
		i.CanonicalAccess = arch.AccessRead
		i.CanonicalDomain = arch.TBDomainData
	}

	i.CanonicalSize = i.AccessSize
	if i.CanonicalSize == 0 {
		// A fetch always moves one instruction word.
		if i.IsExecute {
			i.CanonicalSize = 4
		} else {
			i.CanonicalSize = 8
		}
	}

	if i.FaultType == MemoryFaultNone {
		i.CanonicalDomain = arch.TBDomainNone
	}
}
