package fault

import "github.com/alphaserve/axp/internal/ipr"

// ArithmeticFaultType is the decoded sub-kind of an arithmetic trap.
type ArithmeticFaultType uint8

const (
	ArithmeticNone ArithmeticFaultType = iota
	ArithmeticInvalidOp
	ArithmeticDivByZero
	ArithmeticFPOverflow
	ArithmeticFPUnderflow
	ArithmeticInexact
	ArithmeticIntegerOverflow
	ArithmeticSoftwareCompletion
)

// String implements fmt.Stringer
func (a ArithmeticFaultType) String() string {
	switch a {
	case ArithmeticNone:
		return "none"
	case ArithmeticInvalidOp:
		return "invalid-op"
	case ArithmeticDivByZero:
		return "div-by-zero"
	case ArithmeticFPOverflow:
		return "fp-overflow"
	case ArithmeticFPUnderflow:
		return "fp-underflow"
	case ArithmeticInexact:
		return "inexact"
	case ArithmeticIntegerOverflow:
		return "integer-overflow"
	case ArithmeticSoftwareCompletion:
		return "software-completion"
	default:
		return "invalid"
	}
}

// DecodeExcSum maps an exception summary word to its most severe pending
// arithmetic sub-kind. A summary carrying only the software-completion
// bit reports that. Reserved high bits are ignored and an empty summary
// maps to none.
func DecodeExcSum(sum uint64) ArithmeticFaultType {
	sum = ipr.ExcSumField(sum)
	switch {
	case sum&ipr.ExcSumINV != 0:
		return ArithmeticInvalidOp
	case sum&ipr.ExcSumDZE != 0:
		return ArithmeticDivByZero
	case sum&ipr.ExcSumFOV != 0:
		return ArithmeticFPOverflow
	case sum&ipr.ExcSumUNF != 0:
		return ArithmeticFPUnderflow
	case sum&ipr.ExcSumINE != 0:
		return ArithmeticInexact
	case sum&ipr.ExcSumIOV != 0:
		return ArithmeticIntegerOverflow
	case sum&ipr.ExcSumSWC != 0:
		return ArithmeticSoftwareCompletion
	default:
		return ArithmeticNone
	}
}
