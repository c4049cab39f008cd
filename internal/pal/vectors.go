package pal

import "github.com/alphaserve/axp/internal/fault"

// EV6 hardware entry point offsets from PAL_BASE.
const (
	VectorReset          uint64 = 0x0000
	VectorMachineCheck   uint64 = 0x0080
	VectorArithmetic     uint64 = 0x0100
	VectorInterrupt      uint64 = 0x0180
	VectorDTBMissSingle  uint64 = 0x0200
	VectorDTBMissDouble  uint64 = 0x0280
	VectorITBMiss        uint64 = 0x0300
	VectorITBACV         uint64 = 0x0380
	VectorDTBMissNative  uint64 = 0x0400
	VectorUnalign        uint64 = 0x0480
	VectorOpcdec         uint64 = 0x0500
	VectorFEN            uint64 = 0x0580
	VectorIPI            uint64 = 0x0600
)

// CALL_PAL entry point regions from PAL_BASE.
const (
	CallPalPrivBase   uint64 = 0x2000
	CallPalUnprivBase uint64 = 0x3000
	callPalEntryShift        = 6
)

// Common CALL_PAL function codes.
const (
	FnHalt     uint32 = 0x00
	FnCFlush   uint32 = 0x01
	FnDraina   uint32 = 0x02
	FnSwpctx   uint32 = 0x30
	FnSwpipl   uint32 = 0x35
	FnRdps     uint32 = 0x36
	FnWhami    uint32 = 0x3C
	FnTbi      uint32 = 0x33
	FnBpt      uint32 = 0x80
	FnBugchk   uint32 = 0x81
	FnCallsys  uint32 = 0x83
	FnImb      uint32 = 0x86
	FnRdunique uint32 = 0x9E
	FnWrunique uint32 = 0x9F
)

// CallPalEntry computes the PAL entry address for a CALL_PAL function
// code. Privileged functions occupy 0x00..0x3F, unprivileged ones
// 0x80..0xBF; any other code is invalid and decodes as OPCDEC.
func CallPalEntry(palBase uint64, fn uint32) (uint64, bool) {
	switch {
	case fn <= 0x3F:
		return palBase + CallPalPrivBase + uint64(fn)<<callPalEntryShift, true
	case fn >= 0x80 && fn <= 0xBF:
		return palBase + CallPalUnprivBase + uint64(fn&0x3F)<<callPalEntryShift, true
	default:
		return 0, false
	}
}

// IsPrivilegedCallPal reports whether the function code belongs to the
// privileged range.
func IsPrivilegedCallPal(fn uint32) bool {
	return fn <= 0x3F
}

// VectorTable maps trap classes to hardware entry point offsets. It is an
// explicitly constructed object owned by the machine context; the default
// table follows the EV6 layout.
type VectorTable struct {
	vectors [fault.TrapClassCount]uint64
}

// NewVectorTable returns the EV6 vector table.
func NewVectorTable() *VectorTable {
	t := &VectorTable{}
	t.vectors[fault.TrapReset] = VectorReset
	t.vectors[fault.TrapMachineCheck] = VectorMachineCheck
	t.vectors[fault.TrapArithmetic] = VectorArithmetic
	t.vectors[fault.TrapInterrupt] = VectorInterrupt
	t.vectors[fault.TrapITBMiss] = VectorITBMiss
	t.vectors[fault.TrapITBFault] = VectorITBACV
	t.vectors[fault.TrapITBAccessViolation] = VectorITBACV
	t.vectors[fault.TrapDTBMissSingle] = VectorDTBMissSingle
	t.vectors[fault.TrapDTBMissDouble] = VectorDTBMissDouble
	t.vectors[fault.TrapDTBFault] = VectorDTBMissNative
	t.vectors[fault.TrapDTBAccessViolation] = VectorDTBMissNative
	t.vectors[fault.TrapUnaligned] = VectorUnalign
	t.vectors[fault.TrapIllegalOpcode] = VectorOpcdec
	t.vectors[fault.TrapFPDisabled] = VectorFEN
	// A double fault is delivered through the machine check entry.
	t.vectors[fault.TrapDoubleFault] = VectorMachineCheck
	return t
}

// Vector returns the entry offset for a trap class. Unknown classes map
// to the machine check entry so delivery never has an undefined target.
func (t *VectorTable) Vector(class fault.TrapClass) uint64 {
	if int(class) >= len(t.vectors) || class == fault.TrapNone {
		return VectorMachineCheck
	}
	return t.vectors[class]
}
