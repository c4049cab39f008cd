package grain

// Format is the coarse instruction format, determined purely by opcode.
type Format uint8

const (
	FormatUnknown Format = iota
	FormatPAL
	FormatOperate
	FormatFloat
	FormatMemory
	FormatMemoryMB
	FormatBranch
	FormatJump
	FormatVector
)

// String implements fmt.Stringer
func (f Format) String() string {
	switch f {
	case FormatPAL:
		return "pal"
	case FormatOperate:
		return "operate"
	case FormatFloat:
		return "float"
	case FormatMemory:
		return "memory"
	case FormatMemoryMB:
		return "memory-mb"
	case FormatBranch:
		return "branch"
	case FormatJump:
		return "jump"
	case FormatVector:
		return "vector"
	default:
		return "unknown"
	}
}

// Unit is an execution unit a decoded instruction routes to.
type Unit uint8

const (
	UnitUnknown Unit = iota
	UnitEBox         // integer
	UnitFBox         // floating point
	UnitMBox         // address and memory
	UnitCBox         // control flow and CALL_PAL
	UnitHWBox        // hardware-internal PAL opcodes
	UnitVBox         // reserved vector opcodes
)

// String implements fmt.Stringer
func (u Unit) String() string {
	switch u {
	case UnitEBox:
		return "ebox"
	case UnitFBox:
		return "fbox"
	case UnitMBox:
		return "mbox"
	case UnitCBox:
		return "cbox"
	case UnitHWBox:
		return "hwbox"
	case UnitVBox:
		return "vbox"
	default:
		return "unknown"
	}
}

// IsHWInternal reports whether the opcode is one of the five
// hardware-internal PAL-class opcodes. 0x1A is the jump family and is
// excluded.
func IsHWInternal(opcode uint8) bool {
	switch opcode {
	case 0x19, 0x1B, 0x1D, 0x1E, 0x1F:
		return true
	default:
		return false
	}
}

// FormatOf classifies an opcode into its instruction format using the
// fixed architectural ranges.
func FormatOf(opcode uint8) Format {
	switch {
	case opcode == 0x00:
		return FormatPAL
	case opcode <= 0x07:
		return FormatVector
	case opcode <= 0x0F:
		return FormatMemory
	case opcode <= 0x13:
		return FormatOperate
	case opcode <= 0x17:
		return FormatFloat
	case opcode == 0x18:
		return FormatMemoryMB
	case opcode == 0x1A:
		return FormatJump
	case opcode == 0x1C:
		return FormatOperate
	case IsHWInternal(opcode):
		return FormatPAL
	case opcode >= 0x20 && opcode <= 0x2F:
		return FormatMemory
	case opcode >= 0x30 && opcode <= 0x3F:
		return FormatBranch
	default:
		return FormatUnknown
	}
}

// UnitFor routes an opcode to its execution unit. Unknown opcodes route
// to UnitUnknown, which the caller must treat as a decode failure.
func UnitFor(opcode uint8) Unit {
	switch {
	case opcode == 0x00:
		return UnitCBox
	case opcode <= 0x07:
		return UnitVBox
	case opcode <= 0x0F:
		return UnitMBox
	case opcode <= 0x13:
		return UnitEBox
	case opcode <= 0x17:
		return UnitFBox
	case opcode == 0x18:
		return UnitMBox
	case opcode == 0x1A:
		return UnitCBox
	case opcode == 0x1C:
		return UnitEBox
	case IsHWInternal(opcode):
		return UnitHWBox
	case opcode >= 0x20 && opcode <= 0x2F:
		return UnitMBox
	case opcode >= 0x30 && opcode <= 0x3F:
		return UnitCBox
	default:
		return UnitUnknown
	}
}

// FunctionCode extracts the function-code field of a raw word according
// to its format: 7 bits for operate, 11 for floating, 26 for PAL, 2 for
// the jump subtype. Memory and branch formats carry no function code.
func FunctionCode(raw uint32, format Format) uint32 {
	switch format {
	case FormatOperate:
		return raw >> 5 & 0x7F
	case FormatFloat:
		return raw >> 5 & 0x7FF
	case FormatPAL:
		return raw & 0x3FFFFFF
	case FormatJump:
		return raw >> 14 & 0x3
	default:
		return 0
	}
}

// Decoded is the format-level decoding of one raw instruction word.
type Decoded struct {
	Raw        uint32
	Opcode     uint8
	Function   uint32
	Format     Format
	Unit       Unit
	HWInternal bool
}

// Decode classifies a raw word without consulting the registry.
func Decode(raw uint32) Decoded {
	op := Opcode(raw)
	format := FormatOf(op)
	return Decoded{
		Raw:        raw,
		Opcode:     op,
		Function:   FunctionCode(raw, format),
		Format:     format,
		Unit:       UnitFor(op),
		HWInternal: IsHWInternal(op),
	}
}
