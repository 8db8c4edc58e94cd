package entity

import "github.com/dart-bird/opensurge/internal/geom"

// ContainerKind is the activation class of a container.
type ContainerKind int

const (
	KindAwake   ContainerKind = iota // always active, never spatially culled
	KindUnawake                      // one per tree node, ROI-culled
	KindDebug                        // active only while debug mode is engaged
)

// UpdateEnv carries the per-frame state a container needs to select and
// update its active entities.
type UpdateEnv struct {
	ROI          geom.Rect
	Table        *Table
	SkipInactive bool
	// Relocate re-buckets an unawake entity after its position changed
	// outside the normal movement path (spawn-point reset).
	Relocate func(h Handle)
	// Kill disposes a non-persistent entity that drifted off the ROI.
	Kill func(h Handle)
}

// Container is an ordered collection of entity handles sharing one
// activation class. Dead handles are compacted away during iteration;
// nothing is removed eagerly, because destruction is only detected lazily.
type Container struct {
	kind      ContainerKind
	pool      *Pool
	handles   []Handle
	paused    bool
	debugMode bool // meaningful for the debug container only
}

func NewContainer(kind ContainerKind, pool *Pool) *Container {
	return &Container{
		kind:    kind,
		pool:    pool,
		handles: make([]Handle, 0, 16),
	}
}

func (c *Container) Kind() ContainerKind { return c.kind }
func (c *Container) Len() int            { return len(c.handles) }
func (c *Container) Empty() bool         { return len(c.handles) == 0 }

// Store appends an entity to the container.
func (c *Container) Store(h Handle) {
	c.handles = append(c.handles, h)
}

// Remove drops the first stored occurrence of the handle. Reports whether
// anything was removed.
func (c *Container) Remove(h Handle) bool {
	for i, stored := range c.handles {
		if stored == h {
			c.handles = append(c.handles[:i], c.handles[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Container) Has(h Handle) bool {
	for _, stored := range c.handles {
		if stored == h {
			return true
		}
	}
	return false
}

// Each visits every live, non-killed entity in insertion order, compacting
// dead handles as it goes.
func (c *Container) Each(fn func(*Entity)) {
	kept := c.handles[:0]
	for _, h := range c.handles {
		e := c.pool.Resolve(h)
		if e == nil {
			continue // reclaimed slot, drop the handle
		}
		kept = append(kept, h)
		if !e.Killed() {
			fn(e)
		}
	}
	c.handles = kept
}

// Update runs the per-frame update on this container's active entities.
// A paused container does nothing; the debug container only runs while
// debug mode is engaged.
func (c *Container) Update(env *UpdateEnv) {
	if c.paused {
		return
	}
	if c.kind == KindDebug && !c.debugMode {
		return
	}
	c.Each(func(e *Entity) {
		if env.SkipInactive && !e.Active() {
			return
		}
		if c.kind == KindUnawake && !env.ROI.ContainsPoint(e.Position()) {
			c.handleOffROI(e, env)
			return
		}
		e.Class().Behavior.Update(e)
	})
}

// handleOffROI applies the off-screen policy to a sleeping entity whose
// position left the ROI while its bucket still intersects it: persistent
// entities go back to their spawn point and wait to be reactivated;
// runtime-spawned disposables are destroyed.
func (c *Container) handleOffROI(e *Entity, env *UpdateEnv) {
	info := env.Table.Get(e.Handle())
	if info == nil {
		return
	}
	if !info.Persistent {
		if env.Kill != nil {
			env.Kill(e.Handle())
		}
		return
	}
	if e.Position() != info.SpawnPoint {
		e.SetPosition(info.SpawnPoint)
		e.Class().Behavior.OnReset(e)
		if env.Relocate != nil {
			env.Relocate(e.Handle())
		}
	}
}

// Render invokes the render callback on every live entity. The debug
// container renders only while debug mode is engaged; rendering is not
// gated on pause, a paused level still draws.
func (c *Container) Render(flags RenderFlags) {
	if c.kind == KindDebug && !c.debugMode {
		return
	}
	c.Each(func(e *Entity) {
		e.Class().Behavior.Render(e, flags)
	})
}

// Notify broadcasts a named zero-argument callback to every live entity,
// independent of ROI, pause state, or debug mode.
func (c *Container) Notify(fn string) {
	c.Each(func(e *Entity) {
		e.Class().Behavior.Notify(e, fn)
	})
}

func (c *Container) Pause()       { c.paused = true }
func (c *Container) Resume()      { c.paused = false }
func (c *Container) Paused() bool { return c.paused }

// Debug-mode state lives on the debug container itself; other containers
// ignore these.
func (c *Container) EnterDebugMode()   { c.debugMode = true }
func (c *Container) ExitDebugMode()    { c.debugMode = false }
func (c *Container) InDebugMode() bool { return c.debugMode }
