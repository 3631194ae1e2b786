package update

import (
	"fmt"
	"sync"
)

// Phase is the updater's current operation phase.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseChecking    Phase = "checking"
	PhasePatching    Phase = "patching"
	PhaseRollingBack Phase = "rolling-back"
)

// Guard serializes update operations. A check, patch apply, full download,
// and rollback must never overlap: concurrent callers get ErrBusy instead of
// racing to write the same files.
type Guard struct {
	mu    sync.Mutex
	phase Phase
}

// NewGuard returns an idle guard.
func NewGuard() *Guard {
	return &Guard{phase: PhaseIdle}
}

// Begin transitions the guard from idle into the given phase. It returns
// ErrBusy (wrapped with the conflicting phase) when another operation is
// already running.
func (g *Guard) Begin(p Phase) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != PhaseIdle {
		return fmt.Errorf("cannot start %s while %s: %w", p, g.phase, ErrBusy)
	}
	g.phase = p
	return nil
}

// End returns the guard to idle.
func (g *Guard) End() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.phase = PhaseIdle
}

// Phase reports the current phase.
func (g *Guard) Phase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}
