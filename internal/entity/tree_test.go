package entity

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dart-bird/opensurge/internal/geom"
)

func TestTree_BubbleDown(t *testing.T) {
	pool := NewPool()
	tree := NewTree(pool)
	class := testClass("crate", FlagEntity)

	e := pool.Create(class, geom.V2(100, 100))
	tree.BubbleDown(e.Handle())

	n := tree.residence[e.Handle()]
	require.NotNil(t, n)
	require.Equal(t, maxTreeDepth, n.depth, "entities sink to the deepest cell")
	require.True(t, n.rect.ContainsPoint(e.Position()))
	require.True(t, n.bucket.Has(e.Handle()))
}

func TestTree_OutOfWorldStaysInRoot(t *testing.T) {
	pool := NewPool()
	tree := NewTree(pool)
	class := testClass("crate", FlagEntity)

	e := pool.Create(class, geom.V2(20000, 100))
	tree.BubbleDown(e.Handle())

	require.Equal(t, tree.root, tree.residence[e.Handle()])
}

func TestTree_RemoveRelocate(t *testing.T) {
	pool := NewPool()
	tree := NewTree(pool)
	class := testClass("crate", FlagEntity)

	e := pool.Create(class, geom.V2(100, 100))
	tree.BubbleDown(e.Handle())

	t.Run("Relocate Rebuckets After Movement", func(t *testing.T) {
		before := tree.residence[e.Handle()]
		e.SetPosition(geom.V2(7000, 3000))
		tree.Relocate(e.Handle())

		after := tree.residence[e.Handle()]
		require.NotEqual(t, before, after)
		require.True(t, after.rect.ContainsPoint(e.Position()))
		require.False(t, before.bucket.Has(e.Handle()))
	})

	t.Run("Remove Detaches Entirely", func(t *testing.T) {
		tree.Remove(e.Handle())
		require.Nil(t, tree.residence[e.Handle()])

		// Removing twice is harmless.
		tree.Remove(e.Handle())
	})
}

func TestTree_Bubble(t *testing.T) {
	pool := NewPool()
	tree := NewTree(pool)
	class := testClass("crate", FlagEntity)

	moved := pool.Create(class, geom.V2(100, 100))
	still := pool.Create(class, geom.V2(101, 101))
	tree.BubbleDown(moved.Handle())
	tree.BubbleDown(still.Handle())

	node := tree.residence[moved.Handle()]
	require.Equal(t, node, tree.residence[still.Handle()])

	moved.SetPosition(geom.V2(7000, 3000))
	tree.Bubble(node.bucket)

	require.Equal(t, node, tree.residence[still.Handle()])
	require.NotEqual(t, node, tree.residence[moved.Handle()])
	require.True(t, tree.residence[moved.Handle()].rect.ContainsPoint(moved.Position()))
}

func TestTree_BubbleDropsDeadHandles(t *testing.T) {
	pool := NewPool()
	tree := NewTree(pool)
	class := testClass("crate", FlagEntity)

	e := pool.Create(class, geom.V2(100, 100))
	tree.BubbleDown(e.Handle())
	node := tree.residence[e.Handle()]

	pool.Kill(e.Handle())
	pool.Flush()
	tree.Bubble(node.bucket)

	require.Nil(t, tree.residence[e.Handle()])
	require.False(t, node.bucket.Has(e.Handle()))
}

func TestTree_UpdateWorldSize(t *testing.T) {
	pool := NewPool()
	tree := NewTree(pool)
	class := testClass("crate", FlagEntity)

	t.Run("No Growth Below Minimum", func(t *testing.T) {
		e := pool.Create(class, geom.V2(100, 100))
		tree.BubbleDown(e.Handle())
		require.False(t, tree.UpdateWorldSize())
		require.Equal(t, minWorldWidth, tree.World().Width())
		require.Equal(t, minWorldHeight, tree.World().Height())
	})

	t.Run("Growth Rebuilds The Whole Tree", func(t *testing.T) {
		far := pool.Create(class, geom.V2(20000, 5000))
		tree.BubbleDown(far.Handle())
		require.Equal(t, tree.root, tree.residence[far.Handle()], "outside the world: parked in the root")

		require.True(t, tree.UpdateWorldSize())
		require.Equal(t, 20001, tree.World().Width())
		require.Equal(t, 5001, tree.World().Height())

		// After the rebuild every entity sits in a cell containing it.
		for h, n := range tree.residence {
			e := pool.Resolve(h)
			require.NotNil(t, e)
			require.True(t, n.rect.ContainsPoint(e.Position()))
			require.Equal(t, maxTreeDepth, n.depth)
		}

		// Stable afterwards.
		require.False(t, tree.UpdateWorldSize())
	})
}

func TestTree_Query(t *testing.T) {
	pool := NewPool()
	tree := NewTree(pool)
	class := testClass("crate", FlagEntity)

	near := pool.Create(class, geom.V2(10, 10))
	far := pool.Create(class, geom.V2(8000, 4000))
	tree.BubbleDown(near.Handle())
	tree.BubbleDown(far.Handle())

	roi := geom.NewRect(0, 0, 500, 500)
	found := map[Handle]bool{}
	tree.Query(roi, func(c *Container) {
		c.Each(func(e *Entity) { found[e.Handle()] = true })
	})

	require.True(t, found[near.Handle()])
	require.False(t, found[far.Handle()])
}

func TestTree_EachContainerVisitsEverything(t *testing.T) {
	pool := NewPool()
	tree := NewTree(pool)
	class := testClass("crate", FlagEntity)

	a := pool.Create(class, geom.V2(10, 10))
	b := pool.Create(class, geom.V2(8000, 4000))
	tree.BubbleDown(a.Handle())
	tree.BubbleDown(b.Handle())

	found := map[Handle]bool{}
	tree.EachContainer(func(c *Container) {
		c.Each(func(e *Entity) { found[e.Handle()] = true })
	})
	require.Len(t, found, 2)
}
