package fault

import (
	"testing"

	"github.com/alphaserve/axp/internal/ipr"
)

func TestDecodeExcSum(t *testing.T) {
	cases := []struct {
		in   uint64
		want ArithmeticFaultType
	}{
		{0, ArithmeticNone},
		{ipr.ExcSumSWC, ArithmeticSoftwareCompletion},
		{ipr.ExcSumINV, ArithmeticInvalidOp},
		{ipr.ExcSumDZE, ArithmeticDivByZero},
		{ipr.ExcSumFOV, ArithmeticFPOverflow},
		{ipr.ExcSumUNF, ArithmeticFPUnderflow},
		{ipr.ExcSumINE, ArithmeticInexact},
		{ipr.ExcSumIOV, ArithmeticIntegerOverflow},

		// Priority: the most severe pending condition wins.
		{ipr.ExcSumINV | ipr.ExcSumINE, ArithmeticInvalidOp},
		{ipr.ExcSumDZE | ipr.ExcSumIOV, ArithmeticDivByZero},
		{ipr.ExcSumFOV | ipr.ExcSumUNF | ipr.ExcSumINE, ArithmeticFPOverflow},
		{ipr.ExcSumUNF | ipr.ExcSumINE, ArithmeticFPUnderflow},
		{ipr.ExcSumINE | ipr.ExcSumIOV, ArithmeticInexact},
		{ipr.ExcSumIOV | ipr.ExcSumSWC, ArithmeticIntegerOverflow},

		// Reserved high bits are ignored.
		{1 << 7, ArithmeticNone},
		{0xFFFF_FFFF_FFFF_FF80, ArithmeticNone},
		{0xFF00 | ipr.ExcSumDZE, ArithmeticDivByZero},
	}
	for _, tc := range cases {
		if got := DecodeExcSum(tc.in); got != tc.want {
			t.Errorf("DecodeExcSum(%#x) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestDecodeExcSumTotal(t *testing.T) {
	// Every combination of the defined bits yields a defined sub-kind, and
	// only the empty summary yields none.
	for sum := uint64(0); sum <= ipr.ExcSumMask; sum++ {
		got := DecodeExcSum(sum)
		if got.String() == "invalid" {
			t.Fatalf("DecodeExcSum(%#x) = undefined %d", sum, got)
		}
		if (got == ArithmeticNone) != (sum == 0) {
			t.Errorf("DecodeExcSum(%#x) = %v", sum, got)
		}
	}
}
