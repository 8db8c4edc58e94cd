package system

import "time"

// Phase defines execution ordering within a single frame. The frame
// contract is strict: queues are cleared and entities updated before any
// late update runs, late updates complete before render, and destruction
// is flushed last.
type Phase int

const (
	PhaseUpdate     Phase = iota // 0: clear per-frame queues, main entity pass
	PhaseLateUpdate              // 1: late-update queue, deferred player moves
	PhaseRender                  // 2: draw active containers
	PhaseCleanup                 // 3: flush destroyed entities
)

// System is the interface every frame system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
