package grain

import (
	"math/bits"

	"github.com/alphaserve/axp/internal/ipr"
)

// Base Alpha instruction set. Execution bodies operate on the CPUState
// view only; translation faults surface as errors from Load/Store and
// propagate to the decode stage unchanged.

func operate(fn func(a, b uint64) uint64) ExecFunc {
	return func(s *Slot) error {
		a := s.CPU.ReadReg(RA(s.Raw))
		b := OperandB(s.Raw, s.CPU)
		s.CPU.WriteReg(RC(s.Raw), fn(a, b))
		return nil
	}
}

// operateV is the trapping variant: the result is written regardless,
// and an integer overflow raises an arithmetic trap after the writeback.
func operateV(fn func(a, b uint64) (uint64, bool)) ExecFunc {
	return func(s *Slot) error {
		a := s.CPU.ReadReg(RA(s.Raw))
		b := OperandB(s.Raw, s.CPU)
		v, overflow := fn(a, b)
		s.CPU.WriteReg(RC(s.Raw), v)
		if overflow {
			return s.CPU.RaiseArithmeticTrap(ipr.ExcSumIOV)
		}
		return nil
	}
}

// cmov conditionally moves operand B into Rc when pred holds for Ra.
func cmov(pred func(a uint64) bool) ExecFunc {
	return func(s *Slot) error {
		if pred(s.CPU.ReadReg(RA(s.Raw))) {
			s.CPU.WriteReg(RC(s.Raw), OperandB(s.Raw, s.CPU))
		}
		return nil
	}
}

func load(size int, signed bool) ExecFunc {
	return func(s *Slot) error {
		va := s.CPU.ReadReg(RB(s.Raw)) + uint64(MemDisp(s.Raw))
		v, err := s.CPU.Load(va, size)
		if err != nil {
			return err
		}
		if signed && size == 4 {
			v = sext32(v)
		}
		s.CPU.WriteReg(RA(s.Raw), v)
		return nil
	}
}

func store(size int) ExecFunc {
	return func(s *Slot) error {
		va := s.CPU.ReadReg(RB(s.Raw)) + uint64(MemDisp(s.Raw))
		return s.CPU.Store(va, size, s.CPU.ReadReg(RA(s.Raw)))
	}
}

func loadLocked(size int) ExecFunc {
	return func(s *Slot) error {
		va := s.CPU.ReadReg(RB(s.Raw)) + uint64(MemDisp(s.Raw))
		v, err := s.CPU.LoadLocked(va, size)
		if err != nil {
			return err
		}
		if size == 4 {
			v = sext32(v)
		}
		s.CPU.WriteReg(RA(s.Raw), v)
		return nil
	}
}

func storeConditional(size int) ExecFunc {
	return func(s *Slot) error {
		ra := RA(s.Raw)
		va := s.CPU.ReadReg(RB(s.Raw)) + uint64(MemDisp(s.Raw))
		ok, err := s.CPU.StoreConditional(va, size, s.CPU.ReadReg(ra))
		if err != nil {
			return err
		}
		if ok {
			s.CPU.WriteReg(ra, 1)
		} else {
			s.CPU.WriteReg(ra, 0)
		}
		return nil
	}
}

// condBranch branches to PC+4+disp when pred holds for Ra.
func condBranch(pred func(v uint64) bool) ExecFunc {
	return func(s *Slot) error {
		if pred(s.CPU.ReadReg(RA(s.Raw))) {
			s.CPU.SetNextPC(s.PC + 4 + uint64(BranchDisp(s.Raw)))
		}
		return nil
	}
}

func execBR(s *Slot) error {
	s.CPU.WriteReg(RA(s.Raw), s.PC+4)
	s.CPU.SetNextPC(s.PC + 4 + uint64(BranchDisp(s.Raw)))
	return nil
}

// All four jump subtypes share one datapath: Ra gets the return address,
// the target comes from Rb with the low bits cleared.
func execJump(s *Slot) error {
	target := s.CPU.ReadReg(RB(s.Raw)) &^ 3
	s.CPU.WriteReg(RA(s.Raw), s.PC+4)
	s.CPU.SetNextPC(target)
	return nil
}

func execLDA(s *Slot) error {
	s.CPU.WriteReg(RA(s.Raw), s.CPU.ReadReg(RB(s.Raw))+uint64(MemDisp(s.Raw)))
	return nil
}

func execLDAH(s *Slot) error {
	s.CPU.WriteReg(RA(s.Raw), s.CPU.ReadReg(RB(s.Raw))+uint64(MemDisp(s.Raw)*65536))
	return nil
}

func execLDQU(s *Slot) error {
	va := (s.CPU.ReadReg(RB(s.Raw)) + uint64(MemDisp(s.Raw))) &^ 7
	v, err := s.CPU.Load(va, 8)
	if err != nil {
		return err
	}
	s.CPU.WriteReg(RA(s.Raw), v)
	return nil
}

func execSTQU(s *Slot) error {
	va := (s.CPU.ReadReg(RB(s.Raw)) + uint64(MemDisp(s.Raw))) &^ 7
	return s.CPU.Store(va, 8, s.CPU.ReadReg(RA(s.Raw)))
}

// execMisc handles the opcode 0x18 family. The function lives in the
// displacement field, so a single grain covers every variant.
func execMisc(s *Slot) error {
	switch MiscFunction(s.Raw) {
	case MiscRPCC:
		s.CPU.WriteReg(RA(s.Raw), s.CPU.CycleCounter())
	case MiscTRAPB, MiscEXCB, MiscMB, MiscWMB, MiscFETCH:
		// Ordering barriers; the interpreter executes in program order,
		// so the architectural effect is already satisfied.
	}
	return nil
}

func callPal(fn uint32) ExecFunc {
	return func(s *Slot) error {
		return s.CPU.CallPAL(fn)
	}
}

func execHWMFPR(s *Slot) error {
	v, err := s.CPU.ReadIPR(IPRIndex(s.Raw))
	if err != nil {
		return err
	}
	s.CPU.WriteReg(RA(s.Raw), v)
	return nil
}

func execHWMTPR(s *Slot) error {
	return s.CPU.WriteIPR(IPRIndex(s.Raw), s.CPU.ReadReg(RB(s.Raw)))
}

func execHWLD(s *Slot) error {
	va := s.CPU.ReadReg(RB(s.Raw)) + uint64(HWDisp(s.Raw))
	v, err := s.CPU.Load(va, 8)
	if err != nil {
		return err
	}
	s.CPU.WriteReg(RA(s.Raw), v)
	return nil
}

func execHWST(s *Slot) error {
	va := s.CPU.ReadReg(RB(s.Raw)) + uint64(HWDisp(s.Raw))
	return s.CPU.Store(va, 8, s.CPU.ReadReg(RA(s.Raw)))
}

func execHWREI(s *Slot) error {
	return s.CPU.ReturnFromPAL()
}

// Signed overflow predicates for the trapping arithmetic variants.

func addlV(a, b uint64) (uint64, bool) {
	s := int64(int32(a)) + int64(int32(b))
	return sext32(a + b), s != int64(int32(s))
}

func sublV(a, b uint64) (uint64, bool) {
	s := int64(int32(a)) - int64(int32(b))
	return sext32(a - b), s != int64(int32(s))
}

func addqV(a, b uint64) (uint64, bool) {
	r := a + b
	return r, (a^r)&(b^r)>>63 != 0
}

func subqV(a, b uint64) (uint64, bool) {
	r := a - b
	return r, (a^b)&(a^r)>>63 != 0
}

func mullV(a, b uint64) (uint64, bool) {
	p := int64(int32(a)) * int64(int32(b))
	return sext32(uint64(p)), p != int64(int32(p))
}

// mulqV detects signed 64x64 overflow from the adjusted high word of the
// unsigned product.
func mulqV(a, b uint64) (uint64, bool) {
	hi, lo := bits.Mul64(a, b)
	if int64(a) < 0 {
		hi -= b
	}
	if int64(b) < 0 {
		hi -= a
	}
	return lo, int64(hi) != int64(lo)>>63
}

func boolToWord(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// cmpbge compares the eight bytes of a and b, setting result bit i when
// byte i of a is unsigned greater or equal.
func cmpbge(a, b uint64) uint64 {
	var r uint64
	for i := 0; i < 8; i++ {
		if uint8(a>>(i*8)) >= uint8(b>>(i*8)) {
			r |= 1 << i
		}
	}
	return r
}

// zap clears the bytes of a selected by the low 8 bits of mask.
func zap(a, mask uint64) uint64 {
	var r uint64
	for i := 0; i < 8; i++ {
		if mask&(1<<i) == 0 {
			r |= a & (0xFF << (i * 8))
		}
	}
	return r
}

func baseISA() []*Grain {
	g := []*Grain{
		// Memory format
		{Mnemonic: "LDA", Opcode: 0x08, Type: TypeMemory, Flags: FlagDualIssue, Execute: execLDA},
		{Mnemonic: "LDAH", Opcode: 0x09, Type: TypeMemory, Flags: FlagDualIssue, Execute: execLDAH},
		{Mnemonic: "LDBU", Opcode: 0x0A, Type: TypeMemory, Latency: 3, Execute: load(1, false)},
		{Mnemonic: "LDQ_U", Opcode: 0x0B, Type: TypeMemory, Latency: 3, Execute: execLDQU},
		{Mnemonic: "LDWU", Opcode: 0x0C, Type: TypeMemory, Latency: 3, Execute: load(2, false)},
		{Mnemonic: "STW", Opcode: 0x0D, Type: TypeMemory, Execute: store(2)},
		{Mnemonic: "STB", Opcode: 0x0E, Type: TypeMemory, Execute: store(1)},
		{Mnemonic: "STQ_U", Opcode: 0x0F, Type: TypeMemory, Execute: execSTQU},
		{Mnemonic: "LDL", Opcode: 0x28, Type: TypeMemory, Latency: 3, Execute: load(4, true)},
		{Mnemonic: "LDQ", Opcode: 0x29, Type: TypeMemory, Latency: 3, Execute: load(8, false)},
		{Mnemonic: "LDL_L", Opcode: 0x2A, Type: TypeMemory, Flags: FlagLocked, Latency: 3, Execute: loadLocked(4)},
		{Mnemonic: "LDQ_L", Opcode: 0x2B, Type: TypeMemory, Flags: FlagLocked, Latency: 3, Execute: loadLocked(8)},
		{Mnemonic: "STL", Opcode: 0x2C, Type: TypeMemory, Execute: store(4)},
		{Mnemonic: "STQ", Opcode: 0x2D, Type: TypeMemory, Execute: store(8)},
		{Mnemonic: "STL_C", Opcode: 0x2E, Type: TypeMemory, Flags: FlagLocked | FlagConditional, Execute: storeConditional(4)},
		{Mnemonic: "STQ_C", Opcode: 0x2F, Type: TypeMemory, Flags: FlagLocked | FlagConditional, Execute: storeConditional(8)},

		// Integer arithmetic, opcode 0x10
		{Mnemonic: "ADDL", Opcode: 0x10, Function: 0x00, Type: TypeInteger, Flags: FlagDualIssue, Execute: operate(func(a, b uint64) uint64 { return sext32(a + b) })},
		{Mnemonic: "S4ADDL", Opcode: 0x10, Function: 0x02, Type: TypeInteger, Execute: operate(func(a, b uint64) uint64 { return sext32(a*4 + b) })},
		{Mnemonic: "SUBL", Opcode: 0x10, Function: 0x09, Type: TypeInteger, Flags: FlagDualIssue, Execute: operate(func(a, b uint64) uint64 { return sext32(a - b) })},
		{Mnemonic: "S4SUBL", Opcode: 0x10, Function: 0x0B, Type: TypeInteger, Execute: operate(func(a, b uint64) uint64 { return sext32(a*4 - b) })},
		{Mnemonic: "CMPBGE", Opcode: 0x10, Function: 0x0F, Type: TypeInteger, Execute: operate(cmpbge)},
		{Mnemonic: "S8ADDL", Opcode: 0x10, Function: 0x12, Type: TypeInteger, Execute: operate(func(a, b uint64) uint64 { return sext32(a*8 + b) })},
		{Mnemonic: "S8SUBL", Opcode: 0x10, Function: 0x1B, Type: TypeInteger, Execute: operate(func(a, b uint64) uint64 { return sext32(a*8 - b) })},
		{Mnemonic: "CMPULT", Opcode: 0x10, Function: 0x1D, Type: TypeInteger, Execute: operate(func(a, b uint64) uint64 { return boolToWord(a < b) })},
		{Mnemonic: "ADDQ", Opcode: 0x10, Function: 0x20, Type: TypeInteger, Flags: FlagDualIssue, Execute: operate(func(a, b uint64) uint64 { return a + b })},
		{Mnemonic: "S4ADDQ", Opcode: 0x10, Function: 0x22, Type: TypeInteger, Execute: operate(func(a, b uint64) uint64 { return a*4 + b })},
		{Mnemonic: "SUBQ", Opcode: 0x10, Function: 0x29, Type: TypeInteger, Flags: FlagDualIssue, Execute: operate(func(a, b uint64) uint64 { return a - b })},
		{Mnemonic: "S4SUBQ", Opcode: 0x10, Function: 0x2B, Type: TypeInteger, Execute: operate(func(a, b uint64) uint64 { return a*4 - b })},
		{Mnemonic: "CMPEQ", Opcode: 0x10, Function: 0x2D, Type: TypeInteger, Execute: operate(func(a, b uint64) uint64 { return boolToWord(a == b) })},
		{Mnemonic: "S8ADDQ", Opcode: 0x10, Function: 0x32, Type: TypeInteger, Execute: operate(func(a, b uint64) uint64 { return a*8 + b })},
		{Mnemonic: "S8SUBQ", Opcode: 0x10, Function: 0x3B, Type: TypeInteger, Execute: operate(func(a, b uint64) uint64 { return a*8 - b })},
		{Mnemonic: "CMPULE", Opcode: 0x10, Function: 0x3D, Type: TypeInteger, Execute: operate(func(a, b uint64) uint64 { return boolToWord(a <= b) })},
		{Mnemonic: "ADDL/V", Opcode: 0x10, Function: 0x40, Type: TypeInteger, Execute: operateV(addlV)},
		{Mnemonic: "SUBL/V", Opcode: 0x10, Function: 0x49, Type: TypeInteger, Execute: operateV(sublV)},
		{Mnemonic: "CMPLT", Opcode: 0x10, Function: 0x4D, Type: TypeInteger, Execute: operate(func(a, b uint64) uint64 { return boolToWord(int64(a) < int64(b)) })},
		{Mnemonic: "ADDQ/V", Opcode: 0x10, Function: 0x60, Type: TypeInteger, Execute: operateV(addqV)},
		{Mnemonic: "SUBQ/V", Opcode: 0x10, Function: 0x69, Type: TypeInteger, Execute: operateV(subqV)},
		{Mnemonic: "CMPLE", Opcode: 0x10, Function: 0x6D, Type: TypeInteger, Execute: operate(func(a, b uint64) uint64 { return boolToWord(int64(a) <= int64(b)) })},

		// Integer logical, opcode 0x11
		{Mnemonic: "AND", Opcode: 0x11, Function: 0x00, Type: TypeInteger, Flags: FlagDualIssue, Execute: operate(func(a, b uint64) uint64 { return a & b })},
		{Mnemonic: "BIC", Opcode: 0x11, Function: 0x08, Type: TypeInteger, Flags: FlagDualIssue, Execute: operate(func(a, b uint64) uint64 { return a &^ b })},
		{Mnemonic: "CMOVLBS", Opcode: 0x11, Function: 0x14, Type: TypeInteger, Flags: FlagConditional, Execute: cmov(func(a uint64) bool { return a&1 != 0 })},
		{Mnemonic: "CMOVLBC", Opcode: 0x11, Function: 0x16, Type: TypeInteger, Flags: FlagConditional, Execute: cmov(func(a uint64) bool { return a&1 == 0 })},
		{Mnemonic: "BIS", Opcode: 0x11, Function: 0x20, Type: TypeInteger, Flags: FlagDualIssue, Execute: operate(func(a, b uint64) uint64 { return a | b })},
		{Mnemonic: "CMOVEQ", Opcode: 0x11, Function: 0x24, Type: TypeInteger, Flags: FlagConditional, Execute: cmov(func(a uint64) bool { return a == 0 })},
		{Mnemonic: "CMOVNE", Opcode: 0x11, Function: 0x26, Type: TypeInteger, Flags: FlagConditional, Execute: cmov(func(a uint64) bool { return a != 0 })},
		{Mnemonic: "ORNOT", Opcode: 0x11, Function: 0x28, Type: TypeInteger, Execute: operate(func(a, b uint64) uint64 { return a | ^b })},
		{Mnemonic: "XOR", Opcode: 0x11, Function: 0x40, Type: TypeInteger, Flags: FlagDualIssue, Execute: operate(func(a, b uint64) uint64 { return a ^ b })},
		{Mnemonic: "CMOVLT", Opcode: 0x11, Function: 0x44, Type: TypeInteger, Flags: FlagConditional, Execute: cmov(func(a uint64) bool { return int64(a) < 0 })},
		{Mnemonic: "CMOVGE", Opcode: 0x11, Function: 0x46, Type: TypeInteger, Flags: FlagConditional, Execute: cmov(func(a uint64) bool { return int64(a) >= 0 })},
		{Mnemonic: "EQV", Opcode: 0x11, Function: 0x48, Type: TypeInteger, Execute: operate(func(a, b uint64) uint64 { return a ^ ^b })},
		{Mnemonic: "CMOVLE", Opcode: 0x11, Function: 0x64, Type: TypeInteger, Flags: FlagConditional, Execute: cmov(func(a uint64) bool { return int64(a) <= 0 })},
		{Mnemonic: "CMOVGT", Opcode: 0x11, Function: 0x66, Type: TypeInteger, Flags: FlagConditional, Execute: cmov(func(a uint64) bool { return int64(a) > 0 })},

		// Shifts and byte zapping, opcode 0x12
		{Mnemonic: "ZAP", Opcode: 0x12, Function: 0x30, Type: TypeInteger, Execute: operate(func(a, b uint64) uint64 { return zap(a, b) })},
		{Mnemonic: "ZAPNOT", Opcode: 0x12, Function: 0x31, Type: TypeInteger, Execute: operate(func(a, b uint64) uint64 { return zap(a, ^b) })},
		{Mnemonic: "SRL", Opcode: 0x12, Function: 0x34, Type: TypeInteger, Execute: operate(func(a, b uint64) uint64 { return a >> (b & 0x3F) })},
		{Mnemonic: "SLL", Opcode: 0x12, Function: 0x39, Type: TypeInteger, Execute: operate(func(a, b uint64) uint64 { return a << (b & 0x3F) })},
		{Mnemonic: "SRA", Opcode: 0x12, Function: 0x3C, Type: TypeInteger, Execute: operate(func(a, b uint64) uint64 { return uint64(int64(a) >> (b & 0x3F)) })},

		// Integer multiply, opcode 0x13
		{Mnemonic: "MULL", Opcode: 0x13, Function: 0x00, Type: TypeInteger, Latency: 7, Execute: operate(func(a, b uint64) uint64 { return sext32(a * b) })},
		{Mnemonic: "MULQ", Opcode: 0x13, Function: 0x20, Type: TypeInteger, Latency: 7, Execute: operate(func(a, b uint64) uint64 { return a * b })},
		{Mnemonic: "UMULH", Opcode: 0x13, Function: 0x30, Type: TypeInteger, Latency: 7, Execute: operate(func(a, b uint64) uint64 {
			hi, _ := bits.Mul64(a, b)
			return hi
		})},
		{Mnemonic: "MULL/V", Opcode: 0x13, Function: 0x40, Type: TypeInteger, Latency: 7, Execute: operateV(mullV)},
		{Mnemonic: "MULQ/V", Opcode: 0x13, Function: 0x60, Type: TypeInteger, Latency: 7, Execute: operateV(mulqV)},

		// Sign extension, opcode 0x1C
		{Mnemonic: "SEXTB", Opcode: 0x1C, Function: 0x00, Type: TypeInteger, Execute: operate(func(_, b uint64) uint64 { return uint64(int64(int8(b))) })},
		{Mnemonic: "SEXTW", Opcode: 0x1C, Function: 0x01, Type: TypeInteger, Execute: operate(func(_, b uint64) uint64 { return uint64(int64(int16(b))) })},

		// Miscellaneous, opcode 0x18
		{Mnemonic: "MISC", Opcode: 0x18, Type: TypeMisc, Flags: FlagBarrier | FlagSerialize, Execute: execMisc},

		// Branch format
		{Mnemonic: "BR", Opcode: 0x30, Type: TypeBranch, Execute: execBR},
		{Mnemonic: "BSR", Opcode: 0x34, Type: TypeBranch, Execute: execBR},
		{Mnemonic: "BLBC", Opcode: 0x38, Type: TypeBranch, Execute: condBranch(func(v uint64) bool { return v&1 == 0 })},
		{Mnemonic: "BEQ", Opcode: 0x39, Type: TypeBranch, Execute: condBranch(func(v uint64) bool { return v == 0 })},
		{Mnemonic: "BLT", Opcode: 0x3A, Type: TypeBranch, Execute: condBranch(func(v uint64) bool { return int64(v) < 0 })},
		{Mnemonic: "BLE", Opcode: 0x3B, Type: TypeBranch, Execute: condBranch(func(v uint64) bool { return int64(v) <= 0 })},
		{Mnemonic: "BLBS", Opcode: 0x3C, Type: TypeBranch, Execute: condBranch(func(v uint64) bool { return v&1 != 0 })},
		{Mnemonic: "BNE", Opcode: 0x3D, Type: TypeBranch, Execute: condBranch(func(v uint64) bool { return v != 0 })},
		{Mnemonic: "BGE", Opcode: 0x3E, Type: TypeBranch, Execute: condBranch(func(v uint64) bool { return int64(v) >= 0 })},
		{Mnemonic: "BGT", Opcode: 0x3F, Type: TypeBranch, Execute: condBranch(func(v uint64) bool { return int64(v) > 0 })},

		// Jump format, subtype in bits [15:14]
		{Mnemonic: "JMP", Opcode: 0x1A, Function: 0, Type: TypeBranch, Execute: execJump},
		{Mnemonic: "JSR", Opcode: 0x1A, Function: 1, Type: TypeBranch, Execute: execJump},
		{Mnemonic: "RET", Opcode: 0x1A, Function: 2, Type: TypeBranch, Execute: execJump},
		{Mnemonic: "JSR_COROUTINE", Opcode: 0x1A, Function: 3, Type: TypeBranch, Execute: execJump},

		// Hardware-internal opcodes; one grain per opcode, the function
		// code is folded by the registry key.
		{Mnemonic: "HW_MFPR", Opcode: 0x19, Type: TypePAL, Flags: FlagSerialize, Execute: execHWMFPR},
		{Mnemonic: "HW_LD", Opcode: 0x1B, Type: TypePAL, Execute: execHWLD},
		{Mnemonic: "HW_MTPR", Opcode: 0x1D, Type: TypePAL, Flags: FlagSerialize, Execute: execHWMTPR},
		{Mnemonic: "HW_REI", Opcode: 0x1E, Type: TypePAL, Flags: FlagSerialize, Execute: execHWREI},
		{Mnemonic: "HW_ST", Opcode: 0x1F, Type: TypePAL, Execute: execHWST},
	}

	// CALL_PAL functions, each its own key under opcode 0x00.
	callPals := []struct {
		mnemonic string
		fn       uint32
	}{
		{"HALT", 0x00},
		{"CFLUSH", 0x01},
		{"DRAINA", 0x02},
		{"SWPCTX", 0x30},
		{"WRVAL", 0x31},
		{"RDVAL", 0x32},
		{"TBI", 0x33},
		{"WRENT", 0x34},
		{"SWPIPL", 0x35},
		{"RDPS", 0x36},
		{"WRKGP", 0x37},
		{"WRUSP", 0x38},
		{"RDUSP", 0x3A},
		{"WHAMI", 0x3C},
		{"RETSYS", 0x3D},
		{"RTI", 0x3F},
		{"BPT", 0x80},
		{"BUGCHK", 0x81},
		{"CALLSYS", 0x83},
		{"IMB", 0x86},
		{"RDUNIQUE", 0x9E},
		{"WRUNIQUE", 0x9F},
	}
	for _, cp := range callPals {
		g = append(g, &Grain{
			Mnemonic: "CALL_PAL " + cp.mnemonic,
			Opcode:   0x00,
			Function: uint16(cp.fn),
			Type:     TypePAL,
			Flags:    FlagSerialize,
			Execute:  callPal(cp.fn),
		})
	}

	return g
}

// RegisterBaseISA populates a registry with the base Alpha instruction
// set at the base platform.
func RegisterBaseISA(reg *Registry) {
	for _, g := range baseISA() {
		reg.Register(g)
	}
}
