package engine

// Phase is the readiness of one render call.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoadingSources
	PhaseComposing
	PhasePostProcessing
	PhaseReady
	PhaseFailed
)

// String returns the phase name used in logs and tool results.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoadingSources:
		return "loading-sources"
	case PhaseComposing:
		return "composing"
	case PhasePostProcessing:
		return "post-processing"
	case PhaseReady:
		return "ready"
	case PhaseFailed:
		return "failed"
	}
	return "unknown"
}

// Terminal reports whether no further transition follows p.
func (p Phase) Terminal() bool {
	return p == PhaseReady || p == PhaseFailed
}

// Observer receives every phase transition of a render call, in order.
type Observer func(Phase)

// tracker forwards transitions to an optional observer and remembers the
// current phase.
type tracker struct {
	phase    Phase
	observer Observer
}

func (t *tracker) enter(p Phase) {
	if t.phase == p {
		return
	}
	t.phase = p
	if t.observer != nil {
		t.observer(p)
	}
}
