package entity

import "github.com/dart-bird/opensurge/internal/geom"

// Info is the persistent identity record of one live entity.
type Info struct {
	Handle     Handle
	ID         uint64
	SpawnPoint geom.Vector2
	Persistent bool // serialized by the level saver
	Sleeping   bool // subject to spatial-partition culling
}

// Table maps live entity handles to identity records and maintains the
// reverse ID index. Handles are weak: records whose entity no longer
// resolves are dropped lazily on lookup, never kept stale.
//
// A one-slot cache memoizes the most recent lookup. Scripts tend to issue
// several queries about the same entity back to back, so this covers the
// hot path without a real cache.
type Table struct {
	pool  *Pool
	infos map[Handle]*Info
	byID  map[uint64]Handle
	cache *Info
}

func NewTable(pool *Pool) *Table {
	return &Table{
		pool:  pool,
		infos: make(map[Handle]*Info, 256),
		byID:  make(map[uint64]Handle, 256),
	}
}

// Add records identity info for a freshly spawned entity.
func (t *Table) Add(h Handle, id uint64, spawn geom.Vector2, persistent, sleeping bool) *Info {
	info := &Info{
		Handle:     h,
		ID:         id,
		SpawnPoint: spawn,
		Persistent: persistent,
		Sleeping:   sleeping,
	}
	t.infos[h] = info
	t.byID[id] = h
	return info
}

// Get returns the record for a handle, or nil. A record whose entity has
// been reclaimed is removed on the way out.
func (t *Table) Get(h Handle) *Info {
	if t.cache != nil && t.cache.Handle == h {
		if t.pool.Alive(h) {
			return t.cache
		}
		t.remove(t.cache)
		return nil
	}
	info := t.infos[h]
	if info == nil {
		return nil
	}
	if !t.pool.Alive(h) {
		t.remove(info)
		return nil
	}
	t.cache = info
	return info
}

// ByID resolves a persistent ID to a live handle. Returns the zero handle
// if the ID is unknown or its entity is gone.
func (t *Table) ByID(id uint64) Handle {
	h, ok := t.byID[id]
	if !ok {
		return 0
	}
	if t.pool.Alive(h) {
		return h
	}
	if info := t.infos[h]; info != nil {
		t.remove(info)
	} else {
		delete(t.byID, id)
	}
	return 0
}

// SetID reassigns an entity's persistent ID, keeping the reverse index
// consistent. Used by the level loader to restore saved IDs.
func (t *Table) SetID(h Handle, id uint64) {
	info := t.Get(h)
	if info == nil {
		return
	}
	delete(t.byID, info.ID)
	info.ID = id
	t.byID[id] = h
}

func (t *Table) SetPersistent(h Handle, on bool) {
	if info := t.Get(h); info != nil {
		info.Persistent = on
	}
}

func (t *Table) SetSleeping(h Handle, on bool) {
	if info := t.Get(h); info != nil {
		info.Sleeping = on
	}
}

// Remove drops the record of a destroyed entity.
func (t *Table) Remove(h Handle) {
	if info := t.infos[h]; info != nil {
		t.remove(info)
	}
}

// ClearCache invalidates the one-slot cache. Called during partition
// refresh, when handles may have moved wholesale.
func (t *Table) ClearCache() { t.cache = nil }

func (t *Table) Len() int { return len(t.infos) }

func (t *Table) remove(info *Info) {
	delete(t.infos, info.Handle)
	if h, ok := t.byID[info.ID]; ok && h == info.Handle {
		delete(t.byID, info.ID)
	}
	if t.cache == info {
		t.cache = nil
	}
}
