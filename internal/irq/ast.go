// Package irq implements the per-CPU interrupt, AST and IPI pending state
// of the AXP core, and the pure AST eligibility computation.
package irq

import "github.com/alphaserve/axp/internal/arch"

// ASTResult is the outcome of an AST eligibility check.
type ASTResult struct {
	Eligible   bool
	TargetMode uint8
}

// ComputeASTEligibility decides whether an AST is deliverable and for
// which privilege level. Pure function over its inputs.
//
// ASTs are gated at IPL 2: any higher level suppresses delivery for all
// modes. A mode's AST is a candidate when both its summary and enable
// bits are set. Candidates are evaluated most-privileged-first (Kernel,
// Executive, Supervisor, User) and the first one whose target mode is
// equal or more privileged than the current mode wins; numerically,
// currentMode >= targetMode. A pending User AST while running in Kernel
// mode is therefore not deliverable and stays queued until a mode change.
func ComputeASTEligibility(astEnable, astSummary uint8, currentMode uint8, currentIPL uint8) ASTResult {
	if currentIPL > arch.IPLASTGate {
		return ASTResult{}
	}

	candidate := astSummary & astEnable & 0xF
	if candidate == 0 {
		return ASTResult{}
	}

	for mode := arch.ModeKernel; mode <= arch.ModeUser; mode++ {
		if candidate&(1<<mode) != 0 && currentMode >= mode {
			return ASTResult{Eligible: true, TargetMode: mode}
		}
	}

	return ASTResult{}
}
