package fault

import "github.com/alphaserve/axp/internal/arch"

// MapITranslationFault maps an instruction-fetch translation outcome to a
// trap class. The mapping is total: outcomes that cannot architecturally
// occur on a fetch (fault-on-read, fault-on-write) still map to a safe
// access-violation class rather than being treated as undefined.
func MapITranslationFault(r arch.TranslationResult) TrapClass {
	switch r {
	case arch.TranslationSuccess:
		return TrapNone
	case arch.TranslationTLBMiss, arch.TranslationPageNotPresent:
		return TrapITBMiss
	case arch.TranslationAccessViolation, arch.TranslationNonCanonical:
		return TrapITBAccessViolation
	case arch.TranslationFaultOnExecute:
		return TrapITBFault
	case arch.TranslationFaultOnRead, arch.TranslationFaultOnWrite:
		// Impossible on a fetch; fold into ACV instead of crashing.
		return TrapITBAccessViolation
	case arch.TranslationUnaligned:
		return TrapUnaligned
	case arch.TranslationBusError:
		return TrapMachineCheck
	default:
		return TrapMachineCheck
	}
}

// MapDTranslationFault maps a data-access translation outcome to a trap
// class. Total over all inputs; fault-on-execute on a data access folds
// into ACV.
func MapDTranslationFault(r arch.TranslationResult) TrapClass {
	switch r {
	case arch.TranslationSuccess:
		return TrapNone
	case arch.TranslationTLBMiss, arch.TranslationPageNotPresent:
		return TrapDTBMissSingle
	case arch.TranslationAccessViolation, arch.TranslationNonCanonical:
		return TrapDTBAccessViolation
	case arch.TranslationFaultOnRead, arch.TranslationFaultOnWrite:
		return TrapDTBFault
	case arch.TranslationFaultOnExecute:
		return TrapDTBAccessViolation
	case arch.TranslationUnaligned:
		return TrapUnaligned
	case arch.TranslationBusError:
		return TrapMachineCheck
	default:
		return TrapMachineCheck
	}
}

// MapTranslationFault maps a translation outcome for either access
// direction.
func MapTranslationFault(r arch.TranslationResult, isInstruction bool) TrapClass {
	if isInstruction {
		return MapITranslationFault(r)
	}
	return MapDTranslationFault(r)
}

// DecodeMMStatFaultType interprets the 3-bit MM_STAT fault-type field
// together with the write flag. The reserved code 7 decodes to "no fault",
// never to an error.
func DecodeMMStatFaultType(bits uint8, isWrite bool) MemoryFaultType {
	switch bits & 0x7 {
	case 0, 1, 2:
		if isWrite {
			return MemoryFaultDTBMissWrite
		}
		return MemoryFaultDTBMissRead
	case 3:
		if isWrite {
			return MemoryFaultACVWrite
		}
		return MemoryFaultACVRead
	case 4:
		return MemoryFaultOnRead
	case 5:
		return MemoryFaultOnWrite
	case 6:
		return MemoryFaultOnExecute
	default: // 7 is reserved
		return MemoryFaultNone
	}
}

// MapTLBFault refines a translation outcome into the TLB-layer fault type.
func MapTLBFault(r arch.TranslationResult) TLBFaultType {
	switch r {
	case arch.TranslationTLBMiss:
		return TLBFaultMiss
	case arch.TranslationAccessViolation:
		return TLBFaultAccessViolation
	case arch.TranslationNonCanonical:
		return TLBFaultNonCanonical
	case arch.TranslationPageNotPresent:
		return TLBFaultNotPresent
	case arch.TranslationFaultOnRead:
		return TLBFaultOnRead
	case arch.TranslationFaultOnWrite:
		return TLBFaultOnWrite
	case arch.TranslationFaultOnExecute:
		return TLBFaultOnExecute
	default:
		return TLBFaultNone
	}
}
