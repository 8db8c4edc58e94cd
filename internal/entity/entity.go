package entity

import "github.com/dart-bird/opensurge/internal/geom"

// Entity is one live scripted game object. Entities are owned by the Pool;
// everything else (containers, the spatial tree, scripts) holds weak
// Handles and must resolve them before use.
type Entity struct {
	handle Handle
	class  *Class
	pos    geom.Vector2
	active bool
	killed bool
}

func (e *Entity) Handle() Handle             { return e.handle }
func (e *Entity) Class() *Class              { return e.class }
func (e *Entity) Position() geom.Vector2     { return e.pos }
func (e *Entity) SetPosition(p geom.Vector2) { e.pos = p }

// Active reports whether the entity participates in the update pass.
// Deactivated entities are skipped unless the level runs in debug mode.
func (e *Entity) Active() bool      { return e.active }
func (e *Entity) SetActive(on bool) { e.active = on }

// Killed reports whether the entity has been marked for destruction.
// The slot is reclaimed at the end of the frame, not immediately.
func (e *Entity) Killed() bool { return e.killed }

// Pool owns every live entity in a level. It is the single ownership root:
// there is no tracing collector to appease, so the original's append-only
// anchor container is replaced by this arena with generational handles.
type Pool struct {
	slots        []*Entity
	generations  []uint32
	freeList     []uint32
	nextIndex    uint32
	destroyQueue []Handle
}

func NewPool() *Pool {
	return &Pool{
		slots:        make([]*Entity, 0, 256),
		generations:  make([]uint32, 0, 256),
		freeList:     make([]uint32, 0, 64),
		destroyQueue: make([]Handle, 0, 16),
	}
}

// Create allocates an entity of the given class at a world position.
func (p *Pool) Create(class *Class, pos geom.Vector2) *Entity {
	var idx uint32
	if n := len(p.freeList); n > 0 {
		idx = p.freeList[n-1]
		p.freeList = p.freeList[:n-1]
	} else {
		idx = p.nextIndex
		p.nextIndex++
		p.slots = append(p.slots, nil)
		p.generations = append(p.generations, 1) // generation 0 is never valid
	}
	e := &Entity{
		handle: NewHandle(idx, p.generations[idx]),
		class:  class,
		pos:    pos,
		active: true,
	}
	p.slots[idx] = e
	return e
}

func (p *Pool) Alive(h Handle) bool {
	idx := h.Index()
	if idx >= p.nextIndex {
		return false
	}
	return p.generations[idx] == h.Generation() && p.slots[idx] != nil
}

// Resolve returns the entity for the handle, or nil if the handle is stale
// or the slot has been reclaimed. Killed entities still resolve until their
// slot is flushed; callers that must skip them check Killed.
func (p *Pool) Resolve(h Handle) *Entity {
	idx := h.Index()
	if idx >= p.nextIndex || p.generations[idx] != h.Generation() {
		return nil
	}
	return p.slots[idx]
}

// Kill marks an entity for destruction at the end of the current frame.
// Safe to call more than once.
func (p *Pool) Kill(h Handle) {
	e := p.Resolve(h)
	if e == nil || e.killed {
		return
	}
	e.killed = true
	p.destroyQueue = append(p.destroyQueue, h)
}

// Flush reclaims all killed slots and returns their handles so the caller
// can drop identity records and fire destruction events. Called once per
// frame in the cleanup phase.
func (p *Pool) Flush() []Handle {
	if len(p.destroyQueue) == 0 {
		return nil
	}
	flushed := make([]Handle, 0, len(p.destroyQueue))
	for _, h := range p.destroyQueue {
		idx := h.Index()
		if idx >= p.nextIndex || p.generations[idx] != h.Generation() {
			continue
		}
		p.slots[idx] = nil
		p.generations[idx]++
		p.freeList = append(p.freeList, idx)
		flushed = append(flushed, h)
	}
	p.destroyQueue = p.destroyQueue[:0]
	return flushed
}

// Each visits every live, not-yet-killed entity in slot order.
func (p *Pool) Each(fn func(*Entity)) {
	for _, e := range p.slots {
		if e != nil && !e.killed {
			fn(e)
		}
	}
}

// Count returns the number of live entities, killed ones included until
// the next flush.
func (p *Pool) Count() int {
	n := 0
	for _, e := range p.slots {
		if e != nil {
			n++
		}
	}
	return n
}
