package machine

import (
	"fmt"
	"sync/atomic"

	"github.com/alphaserve/axp/internal/arch"
	"github.com/alphaserve/axp/internal/fault"
)

// Translator maps virtual to physical addresses. The core consumes only
// the TranslationResult outcome; page-table structure stays behind this
// interface.
type Translator interface {
	Translate(va uint64, access arch.Access, asn uint8) (uint64, arch.TranslationResult)
	// Invalidate discards cached translations after a TLB-modifying
	// privileged operation.
	Invalidate()
}

// TrapError is an architectural exception carried as an error value from
// a grain or the fetch path to the decode stage, which classifies it into
// a pending event.
type TrapError struct {
	Class fault.TrapClass
	VA    uint64
	Write bool
	Fetch bool
}

// Error implements error
func (e TrapError) Error() string {
	return fmt.Sprintf("%s at va=0x%x", e.Class, e.VA)
}

// Trap builds a TrapError.
func Trap(class fault.TrapClass, va uint64) error {
	return TrapError{Class: class, VA: va}
}

// identityTranslator maps virtual addresses straight onto the physical
// bus. Virtual addresses must be canonical: bits [63:48] must be the
// sign extension of bit 47.
type identityTranslator struct {
	invalidations atomic.Uint64
}

const vaMask = uint64(1)<<48 - 1

func canonical(va uint64) bool {
	top := int64(va) >> 47
	return top == 0 || top == -1
}

// Translate implements Translator
func (t *identityTranslator) Translate(va uint64, access arch.Access, asn uint8) (uint64, arch.TranslationResult) {
	if !canonical(va) {
		return 0, arch.TranslationNonCanonical
	}
	return va & vaMask, arch.TranslationSuccess
}

// Invalidate implements Translator
func (t *identityTranslator) Invalidate() {
	t.invalidations.Add(1)
}

// Invalidations returns how many TLB invalidations were applied.
func (t *identityTranslator) Invalidations() uint64 {
	return t.invalidations.Load()
}
