package grain

// Instruction word field extraction. The opcode lives in bits [31:26] of
// every format; register fields and displacements depend on the format.

// Opcode extracts the 6-bit opcode field.
func Opcode(raw uint32) uint8 {
	return uint8(raw >> 26)
}

// RA extracts the Ra register field, bits [25:21].
func RA(raw uint32) int {
	return int(raw>>21) & 0x1F
}

// RB extracts the Rb register field, bits [20:16].
func RB(raw uint32) int {
	return int(raw>>16) & 0x1F
}

// RC extracts the Rc register field, bits [4:0].
func RC(raw uint32) int {
	return int(raw) & 0x1F
}

// MemDisp extracts the sign-extended 16-bit memory displacement.
func MemDisp(raw uint32) int64 {
	return int64(int16(raw))
}

// BranchDisp extracts the sign-extended 21-bit branch displacement,
// already scaled to bytes.
func BranchDisp(raw uint32) int64 {
	d := int64(raw&0x1FFFFF) << 43 >> 43
	return d << 2
}

// HWDisp extracts the sign-extended 12-bit displacement of the
// hardware load/store formats.
func HWDisp(raw uint32) int64 {
	return int64(raw&0xFFF) << 52 >> 52
}

// OperandB returns the second integer operand: the zero-extended 8-bit
// literal from bits [20:13] when bit 12 is set, Rb otherwise.
func OperandB(raw uint32, cpu CPUState) uint64 {
	if raw&(1<<12) != 0 {
		return uint64(raw >> 13 & 0xFF)
	}
	return cpu.ReadReg(RB(raw))
}

// IPRIndex extracts the internal-register index of the HW_MFPR and
// HW_MTPR formats, bits [15:0].
func IPRIndex(raw uint32) uint16 {
	return uint16(raw)
}

// MiscFunction extracts the function field of the miscellaneous (opcode
// 0x18) format, bits [15:0].
func MiscFunction(raw uint32) uint16 {
	return uint16(raw)
}

// Misc (opcode 0x18) function codes.
const (
	MiscTRAPB uint16 = 0x0000
	MiscEXCB  uint16 = 0x0400
	MiscMB    uint16 = 0x4000
	MiscWMB   uint16 = 0x4400
	MiscFETCH uint16 = 0x8000
	MiscRPCC  uint16 = 0xC000
)

func sext32(v uint64) uint64 {
	return uint64(int64(int32(uint32(v))))
}
