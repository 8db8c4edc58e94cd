package player

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dart-bird/opensurge/internal/core/event"
	"github.com/dart-bird/opensurge/internal/entity"
	"github.com/dart-bird/opensurge/internal/geom"
)

type companionBehavior struct {
	entity.NopBehavior
	spawned int
}

func (b *companionBehavior) OnSpawn(*entity.Entity) { b.spawned++ }

func newTestBridge(t *testing.T, companions []string) (*Bridge, *entity.Manager, *entity.Registry) {
	t.Helper()
	log := zap.NewNop()
	reg := entity.NewRegistry(log)
	mgr := entity.NewManager(entity.NewPool(), reg, event.NewBus(), rand.New(rand.NewSource(1)), log)
	body := NewKinematicBody(geom.V2(100, 50))
	p := New("Surge", body, NewSession(5), companions)
	return NewBridge(p, mgr, reg, log), mgr, reg
}

func TestBridge_PullInvertsY(t *testing.T) {
	b, _, _ := newTestBridge(t, nil)
	body := b.Player().Body().(*KinematicBody)
	body.SetPosition(geom.V2(100, 50)) // native: 50 above the origin

	b.Pull()

	require.Equal(t, geom.V2(100, -50), b.Proxy().Position, "the scripted side is Y-down")
}

func TestBridge_PullAngleDegrees(t *testing.T) {
	b, _, _ := newTestBridge(t, nil)
	body := b.Player().Body().(*KinematicBody)

	// 90 degrees counterclockwise in native radians reads as 270 degrees
	// on the scripted (clockwise) side.
	body.SetAngle(math.Pi / 2)
	b.Pull()
	require.InDelta(t, 270, b.Proxy().Angle, 1e-9)

	body.SetAngle(-math.Pi / 2)
	b.Pull()
	require.InDelta(t, 90, b.Proxy().Angle, 1e-9)

	body.SetAngle(0)
	b.Pull()
	require.InDelta(t, 0, b.Proxy().Angle, 1e-9)

	// Multiple turns normalize into [0, 360).
	body.SetAngle(-5 * math.Pi)
	b.Pull()
	require.InDelta(t, 180, b.Proxy().Angle, 1e-9)
}

func TestBridge_PullCollider(t *testing.T) {
	b, _, _ := newTestBridge(t, nil)
	body := b.Player().Body().(*KinematicBody)
	body.SetBoundingBox(20, 40, geom.V2(0, 0))

	b.Pull()
	require.Equal(t, 20, b.Proxy().Collider.Width)
	require.Equal(t, 40, b.Proxy().Collider.Height)
	require.InDelta(t, 0.5, b.Proxy().Collider.AnchorX, 1e-9)
	require.InDelta(t, 0.5, b.Proxy().Collider.AnchorY, 1e-9)

	// A box centered 10 native units above the position shifts the anchor
	// down on the scripted side.
	body.SetBoundingBox(20, 40, geom.V2(0, 10))
	b.Pull()
	require.InDelta(t, 0.75, b.Proxy().Collider.AnchorY, 1e-9)
}

func TestBridge_PushRoundTrip(t *testing.T) {
	b, _, _ := newTestBridge(t, nil)
	body := b.Player().Body()

	b.Proxy().SetTransform(geom.V2(200, 80), 90, geom.V2(2, 2))

	require.Equal(t, geom.V2(200, -80), body.Position())
	require.InDelta(t, -math.Pi/2, body.Angle(), 1e-9)
	require.Equal(t, geom.V2(2, 2), body.Scale())

	// Pull reproduces exactly what the script wrote.
	b.Pull()
	require.Equal(t, geom.V2(200, 80), b.Proxy().Position)
	require.InDelta(t, 90, b.Proxy().Angle, 1e-9)
}

func TestBridge_DeferredMove(t *testing.T) {
	b, _, _ := newTestBridge(t, nil)
	body := b.Player().Body().(*KinematicBody)
	body.SetPosition(geom.V2(0, 0))

	// All requests within a frame accumulate; nothing moves yet.
	b.MoveBy(3, 4)
	b.Move(geom.V2(2, 1))
	require.Equal(t, geom.V2(0, 0), body.Position())

	dx, dy := b.PendingMove()
	require.Equal(t, 5.0, dx)
	require.Equal(t, 5.0, dy)

	// Late update applies the sum once. Scripted +Y is native -Y.
	b.LateUpdate(1.0 / 60)
	require.Equal(t, geom.V2(5, -5), body.Position())

	// The accumulator resets: a second late update moves nothing.
	b.LateUpdate(1.0 / 60)
	require.Equal(t, geom.V2(5, -5), body.Position())
}

func TestBridge_LateUpdateTicksHlock(t *testing.T) {
	b, _, _ := newTestBridge(t, nil)
	b.Player().Hlock(1.0)

	b.LateUpdate(0.25)
	require.InDelta(t, 0.75, b.Player().HlockRemaining(), 1e-9)
}

func TestBridge_CompanionLifecycle(t *testing.T) {
	b, mgr, reg := newTestBridge(t, []string{"Shield"})
	counts := &companionBehavior{}
	reg.Register("Shield", []string{"entity", "private", "companion", "awake"}, counts)

	b.Init()

	require.Equal(t, 1, counts.spawned)
	shield := b.Companion(0)
	require.NotNil(t, shield)
	require.Equal(t, "Shield", shield.Class().Name)

	t.Run("Respawn Pass Is Idempotent", func(t *testing.T) {
		b.SpawnCompanions()
		require.Equal(t, 1, counts.spawned, "a live companion is not spawned twice")
	})

	t.Run("Destroy Clears The Slot", func(t *testing.T) {
		b.DestroyCompanions()
		require.Nil(t, b.Companion(0))
		mgr.Cleanup()
	})

	t.Run("Spawn After Destroy Creates Exactly One", func(t *testing.T) {
		b.SpawnCompanions()
		require.Equal(t, 2, counts.spawned)
		require.NotNil(t, b.Companion(0))
		require.Len(t, mgr.FindEntities("Shield"), 1)
	})
}

func TestBridge_CompanionFallbacks(t *testing.T) {
	t.Run("Unknown Companion Warns And Leaves The Slot Empty", func(t *testing.T) {
		b, _, _ := newTestBridge(t, []string{"Ghost"})
		b.Init()
		require.Nil(t, b.Companion(0))
	})

	t.Run("Legacy Hook Handles Unscripted Companions", func(t *testing.T) {
		b, _, _ := newTestBridge(t, []string{"OldSidekick"})
		var legacy []string
		b.LegacySpawn = func(name string) bool {
			legacy = append(legacy, name)
			return true
		}
		b.Init()
		require.Equal(t, []string{"OldSidekick"}, legacy)
		require.Nil(t, b.Companion(0))
	})

	t.Run("Missing Tags Are Corrected", func(t *testing.T) {
		b, _, reg := newTestBridge(t, []string{"Tagless"})
		reg.Register("Tagless", []string{"entity"}, &companionBehavior{})
		b.Init()

		class := reg.Lookup("Tagless")
		require.True(t, class.Flags.Has(entity.FlagCompanion))
		require.NotNil(t, b.Companion(0))
	})

	t.Run("Non Entity Companion Gains Entity And Private", func(t *testing.T) {
		b, _, reg := newTestBridge(t, []string{"Aura"})
		reg.Register("Aura", []string{"companion"}, &companionBehavior{})
		b.Init()

		class := reg.Lookup("Aura")
		require.True(t, class.Flags.Has(entity.FlagEntity))
		require.True(t, class.Flags.Has(entity.FlagPrivate))
		require.NotNil(t, b.Companion(0))
	})
}

func TestBridge_TransformInto(t *testing.T) {
	b, mgr, reg := newTestBridge(t, []string{"Shield"})
	reg.Register("Shield", []string{"entity", "private", "companion", "awake"}, &companionBehavior{})
	reg.Register("Jetpack", []string{"entity", "private", "companion", "awake"}, &companionBehavior{})
	b.Init()

	require.False(t, b.TransformInto("", nil), "empty character name is rejected")

	ok := b.TransformInto("Neon", []string{"Jetpack"})
	require.True(t, ok)
	require.Equal(t, "Neon", b.Player().Name())

	jet := b.Companion(0)
	require.NotNil(t, jet)
	require.Equal(t, "Jetpack", jet.Class().Name)

	mgr.Cleanup()
	require.Empty(t, mgr.FindEntities("Shield"), "the old companions are destroyed")
	require.Len(t, mgr.FindEntities("Jetpack"), 1)
}
