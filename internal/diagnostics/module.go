// Package diagnostics implements the universal, pattern-based diagnostic
// engine: a registry of failure-mode modules that decide whether they apply
// to an investigation, optionally gather additional evidence, and emit
// ranked hypotheses with confidence scores and remediation steps.
package diagnostics

import (
	"sort"

	"github.com/codeready-toolchain/tarka/internal/domain"
)

// Module is the universal diagnostic module contract. Implementations must
// be deterministic, explainable, and safe: Collect is read-only, and
// Diagnose only ever proposes hypotheses/actions, never executes them.
type Module interface {
	ID() string
	Applies(inv *domain.Investigation) bool
	Collect(inv *domain.Investigation)
	Diagnose(inv *domain.Investigation) []domain.Hypothesis
}

// maxHypotheses caps the number of ranked hypotheses kept per run, to keep
// the report concise.
const maxHypotheses = 10

// Registry holds the set of registered diagnostic modules.
type Registry struct {
	modules []Module
}

// NewRegistry builds a registry from the given modules, in registration
// order (ties in hypothesis confidence break by hypothesis ID, not module
// order, so registration order itself is not semantically load-bearing).
func NewRegistry(modules ...Module) *Registry {
	return &Registry{modules: modules}
}

// Applicable returns the modules whose Applies predicate matched, recording
// any panic as a non-fatal investigation error rather than propagating it.
func (r *Registry) Applicable(inv *domain.Investigation) []Module {
	var out []Module
	for _, m := range r.modules {
		if safeApplies(m, inv) {
			out = append(out, m)
		}
	}
	return out
}

func safeApplies(m Module, inv *domain.Investigation) (applies bool) {
	defer func() {
		if r := recover(); r != nil {
			inv.AddError("diagnostics:"+m.ID(), panicErr(r))
			applies = false
		}
	}()
	return m.Applies(inv)
}

// Run executes every applicable module's Collect (if doCollect) then
// Diagnose, merges their hypotheses, sorts them deterministically
// (confidence descending, then hypothesis ID ascending), applies the
// optional memory-based calibration boost, and caps the result at
// maxHypotheses. It never returns an error.
func (r *Registry) Run(inv *domain.Investigation, doCollect bool, calibrator Calibrator) {
	mods := r.Applicable(inv)

	var hyps []domain.Hypothesis
	for _, m := range mods {
		if doCollect {
			safeCollect(m, inv)
		}
		hyps = append(hyps, safeDiagnose(m, inv)...)
	}

	sortHypotheses(hyps)

	if calibrator != nil {
		calibrator.Calibrate(inv, hyps)
		sortHypotheses(hyps)
	}

	if len(hyps) > maxHypotheses {
		hyps = hyps[:maxHypotheses]
	}
	inv.Analysis.Hypotheses = hyps
}

func sortHypotheses(hyps []domain.Hypothesis) {
	sort.SliceStable(hyps, func(i, j int) bool {
		if hyps[i].Confidence0To100 != hyps[j].Confidence0To100 {
			return hyps[i].Confidence0To100 > hyps[j].Confidence0To100
		}
		return hyps[i].HypothesisID < hyps[j].HypothesisID
	})
}

func safeCollect(m Module, inv *domain.Investigation) {
	defer func() {
		if r := recover(); r != nil {
			inv.AddError("diagnostics:"+m.ID(), panicErr(r))
		}
	}()
	m.Collect(inv)
}

func safeDiagnose(m Module, inv *domain.Investigation) (hyps []domain.Hypothesis) {
	defer func() {
		if r := recover(); r != nil {
			inv.AddError("diagnostics:"+m.ID(), panicErr(r))
			hyps = nil
		}
	}()
	return m.Diagnose(inv)
}

func panicErr(r any) error {
	return panicError{r}
}

type panicError struct{ v any }

func (p panicError) Error() string {
	if err, ok := p.v.(error); ok {
		return err.Error()
	}
	return "panic"
}
