// Package ipr provides field accessors for the packed internal processor
// registers of the AXP core. Every accessor is a pure shift-and-mask
// function over a register word: setters mask their input to the
// architecturally valid bit positions before storing, getters never return
// bits outside those positions. The bit positions are exported as constants
// because external test vectors depend on them.
package ipr

// Processor status (PS) layout
//
//	bits [4:0]  current IPL
//	bits [9:8]  current mode
const (
	PSIPLShift  = 0
	PSIPLMask   = uint64(0x1F) << PSIPLShift
	PSModeShift = 8
	PSModeMask  = uint64(0x3) << PSModeShift
)

// PSIPL extracts the current interrupt priority level.
func PSIPL(ps uint64) uint8 {
	return uint8((ps & PSIPLMask) >> PSIPLShift)
}

// SetPSIPL stores a new IPL, masked to 5 bits.
func SetPSIPL(ps uint64, ipl uint8) uint64 {
	return (ps &^ PSIPLMask) | (uint64(ipl) << PSIPLShift & PSIPLMask)
}

// PSMode extracts the current privilege mode.
func PSMode(ps uint64) uint8 {
	return uint8((ps & PSModeMask) >> PSModeShift)
}

// SetPSMode stores a new privilege mode, masked to 2 bits.
func SetPSMode(ps uint64, mode uint8) uint64 {
	return (ps &^ PSModeMask) | (uint64(mode) << PSModeShift & PSModeMask)
}

// AST enable (ASTER) and AST summary request (ASTSR) layout
//
//	bit 0  Kernel
//	bit 1  Executive
//	bit 2  Supervisor
//	bit 3  User
const (
	ASTKernel     = 1 << 0
	ASTExecutive  = 1 << 1
	ASTSupervisor = 1 << 2
	ASTUser       = 1 << 3
	ASTMask       = 0xF
)

// ASTField masks a raw value down to the 4 valid AST bits.
func ASTField(v uint64) uint8 {
	return uint8(v) & ASTMask
}

// ASTBit returns the AST bit for a privilege mode.
func ASTBit(mode uint8) uint8 {
	return 1 << (mode & 3)
}

// Software interrupt request (SIRR) and summary (SISR) layout
//
//	bits [15:1]  one request bit per software interrupt level
//
// Bit 0 is always clear; level 0 is not a requestable interrupt.
const (
	SIRRMask = uint64(0xFFFE)
)

// SIRRField masks a raw value to the valid software interrupt bits.
func SIRRField(v uint64) uint64 {
	return v & SIRRMask
}

// SIRRBit returns the request bit for a software interrupt level, or 0 for
// an out-of-range level.
func SIRRBit(level uint8) uint64 {
	if level < 1 || level > 15 {
		return 0
	}
	return 1 << level
}

// Interrupt enable (IER) layout
//
//	bits [31:1]  one enable bit per IPL
//
// Level 0 means "no interrupt" and has no enable bit.
const (
	IERMask = uint64(0xFFFF_FFFE)
)

// IERField masks a raw value to the valid interrupt enable bits.
func IERField(v uint64) uint64 {
	return v & IERMask
}

// PAL base (PAL_BASE) layout
//
//	bits [43:15]  physical base of the PALcode image, 32KB aligned
const (
	PALBaseMask = uint64(0x00000FFF_FFFF8000)
)

// PALBaseField masks a raw value to a valid PAL base address.
func PALBaseField(v uint64) uint64 {
	return v & PALBaseMask
}

// Process context (PCTX) layout
//
//	bit  1        FPE   floating point enable
//	bit  2        PPCE  process performance counter enable
//	bits [8:5]    ASTRR AST request, one bit per mode
//	bits [12:9]   ASTER AST enable, one bit per mode
//	bits [46:39]  ASN   address space number
const (
	PctxFPE        = uint64(1) << 1
	PctxPPCE       = uint64(1) << 2
	PctxASTRRShift = 5
	PctxASTRRMask  = uint64(0xF) << PctxASTRRShift
	PctxASTERShift = 9
	PctxASTERMask  = uint64(0xF) << PctxASTERShift
	PctxASNShift   = 39
	PctxASNMask    = uint64(0xFF) << PctxASNShift
)

// PctxASN extracts the address space number.
func PctxASN(p uint64) uint8 {
	return uint8((p & PctxASNMask) >> PctxASNShift)
}

// SetPctxASN stores a new address space number.
func SetPctxASN(p uint64, asn uint8) uint64 {
	return (p &^ PctxASNMask) | (uint64(asn) << PctxASNShift)
}

// PctxASTRequest extracts the 4-bit AST request field.
func PctxASTRequest(p uint64) uint8 {
	return uint8((p & PctxASTRRMask) >> PctxASTRRShift)
}

// SetPctxASTRequest stores the 4-bit AST request field.
func SetPctxASTRequest(p uint64, v uint8) uint64 {
	return (p &^ PctxASTRRMask) | (uint64(v&ASTMask) << PctxASTRRShift)
}

// PctxASTEnable extracts the 4-bit AST enable field.
func PctxASTEnable(p uint64) uint8 {
	return uint8((p & PctxASTERMask) >> PctxASTERShift)
}

// SetPctxASTEnable stores the 4-bit AST enable field.
func SetPctxASTEnable(p uint64, v uint8) uint64 {
	return (p &^ PctxASTERMask) | (uint64(v&ASTMask) << PctxASTERShift)
}

// PctxFPEnabled reports whether floating point is enabled.
func PctxFPEnabled(p uint64) bool {
	return p&PctxFPE != 0
}

// SetPctxFPEnabled sets or clears the floating point enable.
func SetPctxFPEnabled(p uint64, on bool) uint64 {
	if on {
		return p | PctxFPE
	}
	return p &^ PctxFPE
}

// Exception summary (EXC_SUM) layout
//
//	bit 0  SWC  software completion requested
//	bit 1  INV  invalid operation
//	bit 2  DZE  division by zero
//	bit 3  FOV  floating overflow
//	bit 4  UNF  floating underflow
//	bit 5  INE  inexact result
//	bit 6  IOV  integer overflow
const (
	ExcSumSWC  = uint64(1) << 0
	ExcSumINV  = uint64(1) << 1
	ExcSumDZE  = uint64(1) << 2
	ExcSumFOV  = uint64(1) << 3
	ExcSumUNF  = uint64(1) << 4
	ExcSumINE  = uint64(1) << 5
	ExcSumIOV  = uint64(1) << 6
	ExcSumMask = uint64(0x7F)
)

// ExcSumField masks a raw value to the valid exception summary bits.
func ExcSumField(v uint64) uint64 {
	return v & ExcSumMask
}

// Memory management status (MM_STAT) layout
//
//	bits [2:0]   fault type code, decoded by the fault classifier
//	bit  3       WR, set for a write access
//	bits [8:4]   RA field of the faulting instruction
//	bits [14:9]  opcode of the faulting instruction
const (
	MMStatFaultShift  = 0
	MMStatFaultMask   = uint64(0x7) << MMStatFaultShift
	MMStatWR          = uint64(1) << 3
	MMStatRAShift     = 4
	MMStatRAMask      = uint64(0x1F) << MMStatRAShift
	MMStatOpcodeShift = 9
	MMStatOpcodeMask  = uint64(0x3F) << MMStatOpcodeShift
)

// MMStatFaultBits extracts the 3-bit fault type code.
func MMStatFaultBits(v uint64) uint8 {
	return uint8((v & MMStatFaultMask) >> MMStatFaultShift)
}

// MMStatIsWrite reports whether the faulting access was a write.
func MMStatIsWrite(v uint64) bool {
	return v&MMStatWR != 0
}

// MMStatRA extracts the RA field of the faulting instruction.
func MMStatRA(v uint64) uint8 {
	return uint8((v & MMStatRAMask) >> MMStatRAShift)
}

// MMStatOpcode extracts the opcode of the faulting instruction.
func MMStatOpcode(v uint64) uint8 {
	return uint8((v & MMStatOpcodeMask) >> MMStatOpcodeShift)
}

// MakeMMStat packs a fault type, write flag, register and opcode into an
// MM_STAT word.
func MakeMMStat(fault uint8, isWrite bool, ra uint8, opcode uint8) uint64 {
	v := uint64(fault&0x7) << MMStatFaultShift
	if isWrite {
		v |= MMStatWR
	}
	v |= uint64(ra&0x1F) << MMStatRAShift
	v |= uint64(opcode&0x3F) << MMStatOpcodeShift
	return v
}
