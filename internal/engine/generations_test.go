package engine

import (
	"sync"
	"testing"
)

func TestGenerations(t *testing.T) {
	var g Generations
	first := g.Begin()
	if !g.IsCurrent(first) {
		t.Fatal("fresh generation should be current")
	}
	second := g.Begin()
	if g.IsCurrent(first) {
		t.Error("superseded generation still current")
	}

	var committed []uint64
	if g.Commit(first, func() { committed = append(committed, first) }) {
		t.Error("stale generation committed")
	}
	if !g.Commit(second, func() { committed = append(committed, second) }) {
		t.Error("current generation did not commit")
	}
	if len(committed) != 1 || committed[0] != second {
		t.Errorf("committed = %v", committed)
	}
}

func TestGenerations_Concurrent(t *testing.T) {
	var g Generations
	var wg sync.WaitGroup
	var mu sync.Mutex
	commits := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			gen := g.Begin()
			g.Commit(gen, func() {
				mu.Lock()
				commits++
				mu.Unlock()
			})
		}()
	}
	wg.Wait()

	last := g.Begin() - 1
	if last != 50 {
		t.Errorf("generations handed out = %d, want 50", last)
	}
	if commits < 1 || commits > 50 {
		t.Errorf("commits = %d", commits)
	}
}
