package ipr

import "testing"

func TestPSFields(t *testing.T) {
	ps := SetPSIPL(0, 21)
	ps = SetPSMode(ps, 3)

	if got := PSIPL(ps); got != 21 {
		t.Errorf("ipl = %d, want 21", got)
	}
	if got := PSMode(ps); got != 3 {
		t.Errorf("mode = %d, want 3", got)
	}

	// Setters mask their input.
	if got := PSIPL(SetPSIPL(0, 0xFF)); got != 0x1F {
		t.Errorf("unmasked ipl stored: %d", got)
	}
	if got := PSMode(SetPSMode(0, 0xFF)); got != 0x3 {
		t.Errorf("unmasked mode stored: %d", got)
	}
}

func TestSIRRBits(t *testing.T) {
	if SIRRBit(0) != 0 {
		t.Error("level 0 has a request bit")
	}
	if SIRRBit(16) != 0 {
		t.Error("level 16 has a request bit")
	}
	if SIRRBit(1) != 1<<1 || SIRRBit(15) != 1<<15 {
		t.Error("wrong bit positions")
	}
	if SIRRField(^uint64(0)) != 0xFFFE {
		t.Errorf("field mask = %#x, want 0xFFFE", SIRRField(^uint64(0)))
	}
}

func TestPctxFields(t *testing.T) {
	p := SetPctxASN(0, 0xAB)
	if got := PctxASN(p); got != 0xAB {
		t.Errorf("asn = %#x, want 0xAB", got)
	}
	// ASN occupies bits [46:39] exactly.
	if p != uint64(0xAB)<<39 {
		t.Errorf("pctx = %#x, want asn at bit 39", p)
	}

	p = SetPctxASTEnable(p, 0b1010)
	if got := PctxASTEnable(p); got != 0b1010 {
		t.Errorf("aster = %04b, want 1010", got)
	}
	// Enable bits must not disturb the ASN.
	if got := PctxASN(p); got != 0xAB {
		t.Errorf("asn clobbered: %#x", got)
	}

	p = SetPctxASTRequest(p, 0xFF)
	if got := PctxASTRequest(p); got != 0xF {
		t.Errorf("astrr = %04b, want masked to 4 bits", got)
	}

	p = SetPctxFPEnabled(p, true)
	if !PctxFPEnabled(p) {
		t.Error("fpe not set")
	}
	if got := PctxASTEnable(p); got != 0b1010 {
		t.Errorf("fpe clobbered aster: %04b", got)
	}
	p = SetPctxFPEnabled(p, false)
	if PctxFPEnabled(p) {
		t.Error("fpe not cleared")
	}
}

func TestPALBaseMasking(t *testing.T) {
	// Low 15 bits and bits above 43 are dropped.
	if got := PALBaseField(0xFFFF_FFFF_FFFF_FFFF); got != PALBaseMask {
		t.Errorf("pal base = %#x, want %#x", got, PALBaseMask)
	}
	if got := PALBaseField(0x8000); got != 0x8000 {
		t.Errorf("aligned base changed: %#x", got)
	}
	if got := PALBaseField(0x8001); got != 0x8000 {
		t.Errorf("unaligned bits kept: %#x", got)
	}
}

func TestMMStat(t *testing.T) {
	v := MakeMMStat(3, true, 5, 0x2D)

	if got := MMStatFaultBits(v); got != 3 {
		t.Errorf("fault bits = %d, want 3", got)
	}
	if !MMStatIsWrite(v) {
		t.Error("write bit not set")
	}
	if got := (v & MMStatRAMask) >> MMStatRAShift; got != 5 {
		t.Errorf("ra = %d, want 5", got)
	}
	if got := (v & MMStatOpcodeMask) >> MMStatOpcodeShift; got != 0x2D {
		t.Errorf("opcode = %#x, want 0x2D", got)
	}

	if MMStatIsWrite(MakeMMStat(0, false, 0, 0)) {
		t.Error("write bit set on a read")
	}
}

func TestASTHelpers(t *testing.T) {
	if ASTBit(0) != 1 || ASTBit(3) != 8 {
		t.Error("wrong ast bit positions")
	}
	if ASTField(0xFF) != 0xF {
		t.Error("ast field not masked")
	}
}
