package level

import (
	"time"

	"github.com/dart-bird/opensurge/internal/core/event"
	"github.com/dart-bird/opensurge/internal/core/system"
)

// The four frame phases, in order: update, late update, render, cleanup.
// Each phase walks every container before the next phase starts.

type updateSystem struct{ l *Level }

func (s *updateSystem) Phase() system.Phase { return system.PhaseUpdate }

func (s *updateSystem) Update(dt time.Duration) {
	l := s.l
	l.mgr.BeginFrame()

	for _, b := range l.bridges {
		b.Pull()
	}
	if len(l.bridges) > 0 {
		l.camera = l.bridges[0].Proxy().Position
	}
	l.applyROI()

	l.mgr.Update()

	for i, b := range l.bridges {
		dying := b.Player().Dying()
		if dying && !l.wasDead[i] {
			event.Emit(l.bus, event.PlayerDied{Name: b.Player().Name()})
		}
		l.wasDead[i] = dying
	}
}

type lateUpdateSystem struct{ l *Level }

func (s *lateUpdateSystem) Phase() system.Phase { return system.PhaseLateUpdate }

func (s *lateUpdateSystem) Update(dt time.Duration) {
	s.l.mgr.LateUpdate()
	for _, b := range s.l.bridges {
		b.LateUpdate(dt.Seconds())
	}
}

type renderSystem struct{ l *Level }

func (s *renderSystem) Phase() system.Phase { return system.PhaseRender }

func (s *renderSystem) Update(dt time.Duration) {
	s.l.mgr.Render()
}

type cleanupSystem struct{ l *Level }

func (s *cleanupSystem) Phase() system.Phase { return system.PhaseCleanup }

func (s *cleanupSystem) Update(dt time.Duration) {
	s.l.mgr.Cleanup()
}
