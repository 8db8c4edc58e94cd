package entity

import (
	"go.uber.org/zap"
)

// Flags is the capability bitset of an entity class. Script-facing string
// tags are resolved into it once, at registration time.
type Flags uint8

const (
	FlagEntity Flags = 1 << iota
	FlagAwake
	FlagDetached
	FlagPrivate
	FlagCompanion
)

func (f Flags) Has(flag Flags) bool { return f&flag != 0 }

// RenderFlags is passed to render callbacks each frame.
type RenderFlags uint8

const (
	RenderDebugMode RenderFlags = 1 << iota // a debug/editor mode is engaged
	RenderGizmos                            // gizmo overlay enabled
)

// Behavior receives lifecycle callbacks for entities of one class.
// Notify dispatches an arbitrary named zero-argument callback; classes
// without that callback treat it as a no-op.
type Behavior interface {
	OnSpawn(e *Entity)
	OnDestroy(e *Entity)
	Update(e *Entity)
	LateUpdate(e *Entity)
	Render(e *Entity, flags RenderFlags)
	Notify(e *Entity, fn string)
	OnReset(e *Entity)
}

// NopBehavior implements Behavior with no-ops. Embed it to override only
// the callbacks a class cares about.
type NopBehavior struct{}

func (NopBehavior) OnSpawn(*Entity)             {}
func (NopBehavior) OnDestroy(*Entity)           {}
func (NopBehavior) Update(*Entity)              {}
func (NopBehavior) LateUpdate(*Entity)          {}
func (NopBehavior) Render(*Entity, RenderFlags) {}
func (NopBehavior) Notify(*Entity, string)      {}
func (NopBehavior) OnReset(*Entity)             {}

// BrickType classifies brick-like collision geometry.
type BrickType int

const (
	BrickSolid BrickType = iota
	BrickCloud
)

// BrickLayer is the collision layer of a brick-like object.
type BrickLayer int

const (
	LayerDefault BrickLayer = iota
	LayerGreen
	LayerYellow
)

// Bricklike is implemented by behaviors whose entities contribute
// static/dynamic collision geometry. The manager only forwards valid,
// enabled instances to the collision subsystem; it never interprets the
// mask itself.
type Bricklike interface {
	BrickType(e *Entity) BrickType
	BrickLayer(e *Entity) BrickLayer
	BrickEnabled(e *Entity) bool
}

// Class is a registered entity type.
type Class struct {
	Name     string
	Flags    Flags
	Behavior Behavior
}

// Registry maps class names to descriptors. Registration resolves tags and
// applies the tag auto-corrections the original performed at load time.
type Registry struct {
	classes map[string]*Class
	log     *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		classes: make(map[string]*Class, 64),
		log:     log,
	}
}

// Register creates a class from its script-facing tag list. A class tagged
// "detached" but not "private" is corrected with a warning: detached
// objects live outside the spatial partition and must not be placed by
// level files.
func (r *Registry) Register(name string, tags []string, b Behavior) *Class {
	flags := Flags(0)
	for _, tag := range tags {
		switch tag {
		case "entity":
			flags |= FlagEntity
		case "awake":
			flags |= FlagAwake
		case "detached":
			flags |= FlagDetached
		case "private":
			flags |= FlagPrivate
		case "companion":
			flags |= FlagCompanion
		default:
			r.log.Warn("unknown class tag ignored",
				zap.String("class", name), zap.String("tag", tag))
		}
	}
	if flags.Has(FlagDetached) && !flags.Has(FlagPrivate) {
		r.log.Warn("detached class should also be tagged private; tagging it now",
			zap.String("class", name))
		flags |= FlagPrivate
	}
	if b == nil {
		b = NopBehavior{}
	}
	c := &Class{Name: name, Flags: flags, Behavior: b}
	r.classes[name] = c
	return c
}

// Lookup returns the class descriptor, or nil if the name is unknown.
func (r *Registry) Lookup(name string) *Class {
	return r.classes[name]
}

// AddFlags forcibly grants capability flags to an already-registered
// class, warning the modder. Used when a companion class turns out not to
// abide by the entity rules.
func (r *Registry) AddFlags(name string, flags Flags) {
	c := r.classes[name]
	if c == nil || c.Flags&flags == flags {
		return
	}
	r.log.Warn("class is missing required tags; tagging it now",
		zap.String("class", name))
	c.Flags |= flags
}

func (r *Registry) Count() int { return len(r.classes) }
