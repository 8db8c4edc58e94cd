package entity

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dart-bird/opensurge/internal/geom"
)

func TestTable_AddGet(t *testing.T) {
	pool := NewPool()
	table := NewTable(pool)
	class := testClass("crate", FlagEntity)

	e := pool.Create(class, geom.V2(5, 6))
	table.Add(e.Handle(), 0xbeef, geom.V2(5, 6), true, true)

	info := table.Get(e.Handle())
	require.NotNil(t, info)
	require.Equal(t, uint64(0xbeef), info.ID)
	require.Equal(t, geom.V2(5, 6), info.SpawnPoint)
	require.True(t, info.Persistent)
	require.True(t, info.Sleeping)

	// Repeated lookups hit the one-slot cache and return the same record.
	require.Same(t, info, table.Get(e.Handle()))

	require.Equal(t, e.Handle(), table.ByID(0xbeef))
	require.Equal(t, Handle(0), table.ByID(0xdead))
	require.Equal(t, 1, table.Len())
}

func TestTable_LazyRemoval(t *testing.T) {
	pool := NewPool()
	table := NewTable(pool)
	class := testClass("crate", FlagEntity)

	e := pool.Create(class, geom.Vector2{})
	h := e.Handle()
	table.Add(h, 0xbeef, geom.Vector2{}, true, true)

	pool.Kill(h)
	// Killed but not yet flushed: the record still answers.
	require.NotNil(t, table.Get(h))

	pool.Flush()
	// The entity is gone; the record vanishes on the next lookup.
	require.Nil(t, table.Get(h))
	require.Equal(t, Handle(0), table.ByID(0xbeef))
	require.Equal(t, 0, table.Len())
}

func TestTable_SetID(t *testing.T) {
	pool := NewPool()
	table := NewTable(pool)
	class := testClass("crate", FlagEntity)

	e := pool.Create(class, geom.Vector2{})
	table.Add(e.Handle(), 0x11, geom.Vector2{}, true, true)

	table.SetID(e.Handle(), 0x22)

	require.Equal(t, uint64(0x22), table.Get(e.Handle()).ID)
	require.Equal(t, e.Handle(), table.ByID(0x22))
	require.Equal(t, Handle(0), table.ByID(0x11), "the old ID must not resolve anymore")
}

func TestTable_ClearCache(t *testing.T) {
	pool := NewPool()
	table := NewTable(pool)
	class := testClass("crate", FlagEntity)

	e := pool.Create(class, geom.Vector2{})
	table.Add(e.Handle(), 0x11, geom.Vector2{}, true, true)
	require.NotNil(t, table.Get(e.Handle()))

	table.ClearCache()
	require.NotNil(t, table.Get(e.Handle()))
}

func TestTable_FlagSetters(t *testing.T) {
	pool := NewPool()
	table := NewTable(pool)
	class := testClass("crate", FlagEntity)

	e := pool.Create(class, geom.Vector2{})
	table.Add(e.Handle(), 0x11, geom.Vector2{}, true, true)

	table.SetPersistent(e.Handle(), false)
	table.SetSleeping(e.Handle(), false)

	info := table.Get(e.Handle())
	require.False(t, info.Persistent)
	require.False(t, info.Sleeping)
}
