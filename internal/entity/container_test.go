package entity

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dart-bird/opensurge/internal/geom"
)

// countingBehavior records lifecycle callbacks for assertions.
type countingBehavior struct {
	NopBehavior
	updates   int
	resets    int
	destroyed int
	rendered  int
	lastFlags RenderFlags
	notified  []string
}

func (b *countingBehavior) Update(*Entity)    { b.updates++ }
func (b *countingBehavior) OnReset(*Entity)   { b.resets++ }
func (b *countingBehavior) OnDestroy(*Entity) { b.destroyed++ }
func (b *countingBehavior) Render(_ *Entity, flags RenderFlags) {
	b.rendered++
	b.lastFlags = flags
}
func (b *countingBehavior) Notify(_ *Entity, fn string) { b.notified = append(b.notified, fn) }

func countingClass(name string, flags Flags) (*Class, *countingBehavior) {
	b := &countingBehavior{}
	return &Class{Name: name, Flags: flags, Behavior: b}, b
}

func wideEnv(table *Table) *UpdateEnv {
	return &UpdateEnv{
		ROI:          geom.Rect{Left: -1 << 20, Top: -1 << 20, Right: 1 << 20, Bottom: 1 << 20},
		Table:        table,
		SkipInactive: true,
	}
}

func TestContainer_EachCompactsDeadHandles(t *testing.T) {
	pool := NewPool()
	c := NewContainer(KindAwake, pool)
	class := testClass("crate", FlagEntity)

	a := pool.Create(class, geom.Vector2{})
	b := pool.Create(class, geom.Vector2{})
	c.Store(a.Handle())
	c.Store(b.Handle())

	pool.Kill(a.Handle())
	pool.Flush()

	var seen []Handle
	c.Each(func(e *Entity) { seen = append(seen, e.Handle()) })
	require.Equal(t, []Handle{b.Handle()}, seen)
	require.Equal(t, 1, c.Len(), "the dead handle is compacted away")
}

func TestContainer_UpdateSkipsInactive(t *testing.T) {
	pool := NewPool()
	table := NewTable(pool)
	c := NewContainer(KindAwake, pool)
	class, counts := countingClass("crate", FlagEntity)

	e := pool.Create(class, geom.Vector2{})
	c.Store(e.Handle())
	e.SetActive(false)

	c.Update(wideEnv(table))
	require.Zero(t, counts.updates)

	// Debug mode keeps inactive entities running.
	env := wideEnv(table)
	env.SkipInactive = false
	c.Update(env)
	require.Equal(t, 1, counts.updates)
}

func TestContainer_OffROIPolicy(t *testing.T) {
	t.Run("Persistent Resets To Spawn Point", func(t *testing.T) {
		pool := NewPool()
		table := NewTable(pool)
		c := NewContainer(KindUnawake, pool)
		class, counts := countingClass("crate", FlagEntity)

		e := pool.Create(class, geom.V2(50, 50))
		table.Add(e.Handle(), 1, geom.V2(50, 50), true, true)
		c.Store(e.Handle())

		// Drifted outside the ROI.
		e.SetPosition(geom.V2(900, 900))

		relocated := 0
		env := &UpdateEnv{
			ROI:          geom.NewRect(0, 0, 100, 100),
			Table:        table,
			SkipInactive: true,
			Relocate:     func(Handle) { relocated++ },
			Kill:         func(h Handle) { pool.Kill(h) },
		}
		c.Update(env)

		require.Equal(t, geom.V2(50, 50), e.Position())
		require.Equal(t, 1, counts.resets)
		require.Equal(t, 1, relocated)
		require.Zero(t, counts.updates)
		require.False(t, e.Killed())

		// Already at the spawn point: nothing fires again.
		c.Update(env)
		require.Equal(t, 1, counts.resets)
	})

	t.Run("Disposable Is Killed", func(t *testing.T) {
		pool := NewPool()
		table := NewTable(pool)
		c := NewContainer(KindUnawake, pool)
		class, _ := countingClass("dust", FlagEntity)

		e := pool.Create(class, geom.V2(900, 900))
		table.Add(e.Handle(), 2, geom.V2(900, 900), false, true)
		c.Store(e.Handle())

		env := &UpdateEnv{
			ROI:          geom.NewRect(0, 0, 100, 100),
			Table:        table,
			SkipInactive: true,
			Kill:         func(h Handle) { pool.Kill(h) },
		}
		c.Update(env)

		require.True(t, e.Killed())
	})
}

func TestContainer_PauseGatesUpdateNotRender(t *testing.T) {
	pool := NewPool()
	table := NewTable(pool)
	c := NewContainer(KindAwake, pool)
	class, counts := countingClass("crate", FlagEntity)

	e := pool.Create(class, geom.Vector2{})
	c.Store(e.Handle())

	c.Pause()
	require.True(t, c.Paused())

	c.Update(wideEnv(table))
	require.Zero(t, counts.updates)

	c.Render(0)
	require.Equal(t, 1, counts.rendered, "a paused level still draws")

	c.Resume()
	c.Update(wideEnv(table))
	require.Equal(t, 1, counts.updates)
}

func TestContainer_DebugKind(t *testing.T) {
	pool := NewPool()
	table := NewTable(pool)
	c := NewContainer(KindDebug, pool)
	class, counts := countingClass("gizmo", FlagEntity)

	e := pool.Create(class, geom.Vector2{})
	c.Store(e.Handle())

	// Dormant until debug mode engages.
	c.Update(wideEnv(table))
	c.Render(0)
	require.Zero(t, counts.updates)
	require.Zero(t, counts.rendered)

	c.EnterDebugMode()
	require.True(t, c.InDebugMode())
	c.Update(wideEnv(table))
	c.Render(RenderDebugMode)
	require.Equal(t, 1, counts.updates)
	require.Equal(t, 1, counts.rendered)

	c.ExitDebugMode()
	c.Update(wideEnv(table))
	require.Equal(t, 1, counts.updates)
}

func TestContainer_Notify(t *testing.T) {
	pool := NewPool()
	c := NewContainer(KindUnawake, pool)
	class, counts := countingClass("button", FlagEntity)

	e := pool.Create(class, geom.V2(99999, 99999)) // far off any ROI
	c.Store(e.Handle())
	c.Pause()

	c.Notify("pressed")
	require.Equal(t, []string{"pressed"}, counts.notified, "broadcasts ignore ROI and pause")
}
