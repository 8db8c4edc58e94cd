package entity

import (
	"errors"
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"github.com/dart-bird/opensurge/internal/core/event"
	"github.com/dart-bird/opensurge/internal/geom"
)

// Spawning errors are modder-facing contract violations: the level driver
// escalates them to a fatal diagnostic instead of recovering.
var (
	ErrNoSuchClass = errors.New("no such entity class")
	ErrNotAnEntity = errors.New("class is not tagged as an entity")
)

// Spawned is published when an entity is created.
type Spawned struct {
	ID    uint64
	Class string
}

// Destroyed is published when a killed entity's slot is reclaimed.
type Destroyed struct {
	ID    uint64
	Class string
}

// DebugModeChanged is published when the debug/editor mode toggles.
type DebugModeChanged struct {
	Enabled bool
}

// Manager owns the identity table and the spatial partition, routes
// entities into containers at spawn time, and exposes the per-frame
// spawn/query/notify/render protocol to the level driver and the scripts.
//
// All methods run on the game-loop goroutine. No locks: ordering is
// guaranteed by single-threaded execution.
type Manager struct {
	log      *zap.Logger
	pool     *Pool
	registry *Registry
	table    *Table
	bus      *event.Bus
	rng      *rand.Rand

	awake *Container
	debug *Container
	tree  *Tree

	roi          geom.Rect
	activeLeaves []*Container // ROI-intersection cache, rebuilt on refresh
	dirty        bool         // partition changed since the cache was built

	lateUpdate []Handle
	bricklike  []Handle

	setupNames map[string]struct{}
	gizmos     bool
}

func NewManager(pool *Pool, registry *Registry, bus *event.Bus, rng *rand.Rand, log *zap.Logger) *Manager {
	return &Manager{
		log:          log,
		pool:         pool,
		registry:     registry,
		table:        NewTable(pool),
		bus:          bus,
		rng:          rng,
		awake:        NewContainer(KindAwake, pool),
		debug:        NewContainer(KindDebug, pool),
		tree:         NewTree(pool),
		activeLeaves: make([]*Container, 0, 32),
		lateUpdate:   make([]Handle, 0, 16),
		bricklike:    make([]Handle, 0, 32),
		setupNames:   make(map[string]struct{}, 4),
		dirty:        true,
	}
}

func (m *Manager) Pool() *Pool    { return m.pool }
func (m *Manager) Table() *Table  { return m.table }
func (m *Manager) ROI() geom.Rect { return m.roi }

// MarkSetupObject registers a class name as a level-setup object. Setup
// objects configure the level and are never persisted.
func (m *Manager) MarkSetupObject(name string) {
	m.setupNames[name] = struct{}{}
}

// SetGizmos toggles the gizmo overlay bit passed to render callbacks.
func (m *Manager) SetGizmos(on bool) { m.gizmos = on }

// SpawnEntity validates the class, spawns an entity at a world position,
// records its identity and routes it into the awake container or the
// spatial partition. The returned error means the modder broke the
// contract; callers must treat it as fatal.
func (m *Manager) SpawnEntity(className string, pos geom.Vector2) (*Entity, error) {
	class := m.registry.Lookup(className)
	if class == nil {
		return nil, fmt.Errorf("spawn %q: %w", className, ErrNoSuchClass)
	}
	if !class.Flags.Has(FlagEntity) {
		return nil, fmt.Errorf("spawn %q: %w", className, ErrNotAnEntity)
	}

	e := m.pool.Create(class, pos)
	class.Behavior.OnSpawn(e)

	sleeping := !class.Flags.Has(FlagAwake) && !class.Flags.Has(FlagDetached)
	_, isSetup := m.setupNames[className]
	persistent := !class.Flags.Has(FlagPrivate) && !isSetup

	id := newEntityID(m.rng)
	m.table.Add(e.Handle(), id, pos, persistent, sleeping)

	if sleeping {
		m.tree.BubbleDown(e.Handle())
		m.dirty = true
	} else {
		m.awake.Store(e.Handle())
	}

	event.Emit(m.bus, Spawned{ID: id, Class: className})
	return e, nil
}

// Spawn is a convenience wrapper spawning at the world origin.
func (m *Manager) Spawn(className string) (*Entity, error) {
	return m.SpawnEntity(className, geom.Vector2{})
}

// Entity resolves a persistent ID string to a live entity, or nil.
func (m *Manager) Entity(idString string) *Entity {
	id, ok := ParseEntityID(idString)
	if !ok {
		return nil
	}
	h := m.table.ByID(id)
	if h.IsZero() {
		return nil
	}
	e := m.pool.Resolve(h)
	if e == nil || e.Killed() {
		return nil
	}
	return e
}

// EntityID returns the persistent ID of an entity as scripts see it, or
// the empty string if the entity has no identity record.
func (m *Manager) EntityID(e *Entity) string {
	if e == nil {
		return ""
	}
	info := m.table.Get(e.Handle())
	if info == nil {
		return ""
	}
	return FormatEntityID(info.ID)
}

// FindEntity returns the first live entity of the named class, or nil.
// Names not registered as entities yield nil, never an error.
func (m *Manager) FindEntity(className string) *Entity {
	class := m.registry.Lookup(className)
	if class == nil || !class.Flags.Has(FlagEntity) {
		return nil
	}
	var found *Entity
	m.pool.Each(func(e *Entity) {
		if found == nil && e.Class() == class {
			found = e
		}
	})
	return found
}

// FindEntities returns every live entity of the named class.
func (m *Manager) FindEntities(className string) []*Entity {
	class := m.registry.Lookup(className)
	if class == nil || !class.Flags.Has(FlagEntity) {
		return nil
	}
	var out []*Entity
	m.pool.Each(func(e *Entity) {
		if e.Class() == class {
			out = append(out, e)
		}
	})
	return out
}

// ActiveEntities returns the union of awake entities, debug entities while
// debug mode is engaged, and unawake entities inside ROI-intersecting
// cells. Inactive entities are skipped unless debug mode is engaged.
func (m *Manager) ActiveEntities() []*Entity {
	skipInactive := !m.debug.InDebugMode()
	var out []*Entity
	collect := func(e *Entity) {
		if skipInactive && !e.Active() {
			return
		}
		out = append(out, e)
	}
	m.awake.Each(collect)
	if m.debug.InDebugMode() {
		m.debug.Each(collect)
	}
	for _, leaf := range m.activeLeaves {
		leaf.Each(func(e *Entity) {
			if !m.roi.ContainsPoint(e.Position()) {
				return
			}
			collect(e)
		})
	}
	return out
}

// SetROI updates the region of interest. A call with an unchanged
// rectangle is a no-op unless the partition is dirty; otherwise the
// partition refresh runs.
func (m *Manager) SetROI(x, y, width, height float64) {
	rect := geom.NewRect(x, y, width, height)
	if rect == m.roi && !m.dirty {
		return
	}
	m.roi = rect
	m.refresh()
}

// refresh rebuilds the ROI-intersection cache:
//  1. bubble up the leaves that were active last frame, so that entities
//     that moved get re-bucketed (only a camera-local region, amortized);
//  2. recompute the world size; if it changed, every cell boundary may
//     have shifted, so bubble the whole tree;
//  3. drop the old cache and the identity table's query cache;
//  4. query the partition for the new ROI;
//  5. clear the dirty flag.
func (m *Manager) refresh() {
	for _, leaf := range m.activeLeaves {
		m.tree.Bubble(leaf)
	}
	if m.tree.UpdateWorldSize() {
		m.tree.BubbleAll()
	}
	m.activeLeaves = m.activeLeaves[:0]
	m.table.ClearCache()
	m.tree.Query(m.roi, func(c *Container) {
		m.activeLeaves = append(m.activeLeaves, c)
	})
	m.dirty = false
}

// BeginFrame clears the per-frame queues. Called at the start of the main
// update pass, before any entity runs.
func (m *Manager) BeginFrame() {
	m.lateUpdate = m.lateUpdate[:0]
	m.bricklike = m.bricklike[:0]
}

// Update runs the main update pass over all active containers. Paused
// containers skip themselves, so the debug container keeps running on a
// paused level.
func (m *Manager) Update() {
	env := m.updateEnv()
	m.awake.Update(env)
	for _, leaf := range m.activeLeaves {
		leaf.Update(env)
	}
	m.debug.Update(env)
}

func (m *Manager) updateEnv() *UpdateEnv {
	return &UpdateEnv{
		ROI:          m.roi,
		Table:        m.table,
		SkipInactive: !m.debug.InDebugMode(),
		Relocate: func(h Handle) {
			m.tree.Relocate(h)
			m.dirty = true
		},
		Kill: m.Kill,
	}
}

// AddToLateUpdateQueue schedules an entity for a late-update callback this
// frame. The queue is cleared at the start of the next main pass.
func (m *Manager) AddToLateUpdateQueue(h Handle) {
	m.lateUpdate = append(m.lateUpdate, h)
}

// AddBricklikeObject forwards a brick-like entity into the per-frame
// collision list. Anything that is not a valid, enabled brick-like object
// is silently skipped.
func (m *Manager) AddBricklikeObject(h Handle) {
	e := m.pool.Resolve(h)
	if e == nil || e.Killed() {
		return
	}
	brick, ok := e.Class().Behavior.(Bricklike)
	if !ok || !brick.BrickEnabled(e) {
		return
	}
	m.bricklike = append(m.bricklike, h)
}

// Bricklikes exposes this frame's brick-like list to the collision
// subsystem.
func (m *Manager) Bricklikes() []Handle { return m.bricklike }

// LateUpdate invokes the late-update callback on every still-live,
// non-killed queued entity, in insertion order.
func (m *Manager) LateUpdate() {
	for _, h := range m.lateUpdate {
		e := m.pool.Resolve(h)
		if e == nil || e.Killed() {
			continue
		}
		e.Class().Behavior.LateUpdate(e)
	}
}

// NotifyEntities broadcasts a named zero-argument callback to every entity
// in the debug, awake, and all unawake containers. This is a broadcast,
// independent of spatial activation.
func (m *Manager) NotifyEntities(fn string) {
	m.debug.Notify(fn)
	m.awake.Notify(fn)
	m.tree.EachContainer(func(c *Container) {
		c.Notify(fn)
	})
}

// Render invokes render on the debug, awake, and ROI-intersecting unawake
// containers, passing the debug-mode and gizmo bits.
func (m *Manager) Render() {
	var flags RenderFlags
	if m.debug.InDebugMode() {
		flags |= RenderDebugMode
	}
	if m.gizmos {
		flags |= RenderGizmos
	}
	m.awake.Render(flags)
	for _, leaf := range m.activeLeaves {
		leaf.Render(flags)
	}
	m.debug.Render(flags)
}

// PauseContainers suspends the awake and unawake containers. The debug
// container never pauses: the editor keeps working on a paused level.
func (m *Manager) PauseContainers() {
	m.awake.Pause()
	m.tree.EachContainer(func(c *Container) { c.Pause() })
}

// ResumeContainers undoes PauseContainers.
func (m *Manager) ResumeContainers() {
	m.awake.Resume()
	m.tree.EachContainer(func(c *Container) { c.Resume() })
}

// Debug-mode passthrough: the debug container owns the state.
func (m *Manager) InDebugMode() bool { return m.debug.InDebugMode() }

func (m *Manager) EnterDebugMode() {
	if m.debug.InDebugMode() {
		return
	}
	m.debug.EnterDebugMode()
	event.Emit(m.bus, DebugModeChanged{Enabled: true})
}

func (m *Manager) ExitDebugMode() {
	if !m.debug.InDebugMode() {
		return
	}
	m.debug.ExitDebugMode()
	event.Emit(m.bus, DebugModeChanged{Enabled: false})
}

// DebugContainer exposes the debug container so the editor can store its
// own helper entities.
func (m *Manager) DebugContainer() *Container { return m.debug }

// Kill marks an entity for end-of-frame destruction.
func (m *Manager) Kill(h Handle) {
	m.pool.Kill(h)
}

// Cleanup reclaims killed entities and drops their identity records.
// Runs once per frame, after render.
func (m *Manager) Cleanup() {
	// An OnDestroy callback may kill further entities, growing the queue
	// mid-walk; index the live slice so those are drained too.
	for i := 0; i < len(m.pool.destroyQueue); i++ {
		h := m.pool.destroyQueue[i]
		e := m.pool.Resolve(h)
		if e == nil {
			continue
		}
		e.Class().Behavior.OnDestroy(e)
		m.tree.Remove(h)
		if info := m.table.infos[h]; info != nil {
			event.Emit(m.bus, Destroyed{ID: info.ID, Class: e.Class().Name})
		}
		m.table.Remove(h)
	}
	m.pool.Flush()
}
