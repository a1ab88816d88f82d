package engine

import "sync"

// Generations lets a caller discard superseded renders. Each new render
// takes a generation from Begin; only the newest may commit its output.
//
// The engine itself never cancels a render. A caller that starts a second
// render before the first finishes uses Commit so the slower, older render
// cannot overwrite the newer result.
type Generations struct {
	mu      sync.Mutex
	current uint64
}

// Begin starts a new generation and returns it.
func (g *Generations) Begin() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.current++
	return g.current
}

// IsCurrent reports whether gen is still the newest generation.
func (g *Generations) IsCurrent(gen uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return gen == g.current
}

// Commit runs fn only if gen is still the newest generation, and reports
// whether it ran. No newer generation can begin while fn runs.
func (g *Generations) Commit(gen uint64, fn func()) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if gen != g.current {
		return false
	}
	fn()
	return true
}
