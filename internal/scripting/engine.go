package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/dart-bird/opensurge/internal/entity"
	"github.com/dart-bird/opensurge/internal/geom"
	"github.com/dart-bird/opensurge/internal/player"
)

// Engine wraps a single gopher-lua VM hosting the entity behavior
// scripts. Single-goroutine access only (game loop).
//
// Scripts declare entity classes through surge.register(name, def):
// def.tags is the tag list resolved into the class flag bitset, every
// function-valued field becomes a lifecycle or notify callback, called
// with the per-entity instance table.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
	reg *entity.Registry
	mgr *entity.Manager

	instances map[entity.Handle]*lua.LTable
	behaviors map[string]*luaBehavior
	fatal     error
}

// NewEngine creates a Lua engine, installs the registration API and loads
// every script in the given directory.
func NewEngine(scriptsDir string, reg *entity.Registry, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{
		vm:        vm,
		log:       log,
		reg:       reg,
		instances: make(map[entity.Handle]*lua.LTable, 256),
		behaviors: make(map[string]*luaBehavior, 64),
	}
	e.installAPI()

	if err := e.loadDir(scriptsDir); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load scripts: %w", err)
	}
	return e, nil
}

// loadDir loads all .lua files in a directory. Missing directories are
// skipped so a bare install still boots.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// DoString runs a chunk of Lua source directly. Used by tests and the
// developer console.
func (e *Engine) DoString(src string) error {
	return e.vm.DoString(src)
}

// Bind attaches the entity manager. Must be called before the first
// frame; scripts that spawn or query entities go through it.
func (e *Engine) Bind(mgr *entity.Manager) {
	e.mgr = mgr
}

// Err returns the pending fatal scripting error, if any. Contract
// violations by the modder (bad spawns, structural errors) are recorded
// here; the level driver halts on them at the frame boundary.
func (e *Engine) Err() error { return e.fatal }

// Close shuts down the VM.
func (e *Engine) Close() {
	e.vm.Close()
}

// installAPI publishes the "surge" module: class registration plus the
// level and player calls scripts may issue.
func (e *Engine) installAPI() {
	surge := e.vm.NewTable()
	e.vm.SetGlobal("surge", surge)

	surge.RawSetString("register", e.vm.NewFunction(e.apiRegister))

	level := e.vm.NewTable()
	surge.RawSetString("level", level)
	level.RawSetString("spawn", e.vm.NewFunction(e.apiSpawn))
	level.RawSetString("spawn_entity", e.vm.NewFunction(e.apiSpawnEntity))
	level.RawSetString("entity", e.vm.NewFunction(e.apiEntity))
	level.RawSetString("entity_id", e.vm.NewFunction(e.apiEntityID))
	level.RawSetString("find_entity", e.vm.NewFunction(e.apiFindEntity))
	level.RawSetString("kill", e.vm.NewFunction(e.apiKill))
	level.RawSetString("late_update", e.vm.NewFunction(e.apiLateUpdate))
	level.RawSetString("move", e.vm.NewFunction(e.apiMove))
}

// apiRegister implements surge.register(name, def).
func (e *Engine) apiRegister(L *lua.LState) int {
	name := L.CheckString(1)
	def := L.CheckTable(2)

	var tags []string
	if tagsVal, ok := def.RawGetString("tags").(*lua.LTable); ok {
		tagsVal.ForEach(func(_, v lua.LValue) {
			if s, ok := v.(lua.LString); ok {
				tags = append(tags, string(s))
			}
		})
	}

	b := &luaBehavior{engine: e, class: name, fns: make(map[string]*lua.LFunction, 8)}
	def.ForEach(func(k, v lua.LValue) {
		key, ok := k.(lua.LString)
		if !ok {
			return
		}
		if fn, ok := v.(*lua.LFunction); ok {
			b.fns[string(key)] = fn
		}
	})

	e.behaviors[name] = b
	e.reg.Register(name, tags, b)
	e.log.Debug("registered entity class", zap.String("class", name))
	return 0
}

func (e *Engine) apiSpawn(L *lua.LState) int {
	return e.spawnAt(L, L.CheckString(1), geom.Vector2{})
}

func (e *Engine) apiSpawnEntity(L *lua.LState) int {
	name := L.CheckString(1)
	pos := geom.V2(float64(L.CheckNumber(2)), float64(L.CheckNumber(3)))
	return e.spawnAt(L, name, pos)
}

func (e *Engine) spawnAt(L *lua.LState, name string, pos geom.Vector2) int {
	if e.mgr == nil {
		L.RaiseError("level is not ready")
		return 0
	}
	ent, err := e.mgr.SpawnEntity(name, pos)
	if err != nil {
		// Modder contract violation: record it and halt at the frame
		// boundary, like the original's fatal scripting errors.
		e.fatal = err
		L.RaiseError("%v", err)
		return 0
	}
	L.Push(e.instance(ent))
	return 1
}

func (e *Engine) apiEntity(L *lua.LState) int {
	id := L.CheckString(1)
	if e.mgr == nil {
		L.Push(lua.LNil)
		return 1
	}
	ent := e.mgr.Entity(id)
	if ent == nil {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(e.instance(ent))
	return 1
}

func (e *Engine) apiEntityID(L *lua.LState) int {
	ent := e.entityArg(L, 1)
	if ent == nil || e.mgr == nil {
		L.Push(lua.LString(""))
		return 1
	}
	L.Push(lua.LString(e.mgr.EntityID(ent)))
	return 1
}

func (e *Engine) apiFindEntity(L *lua.LState) int {
	name := L.CheckString(1)
	if e.mgr == nil {
		L.Push(lua.LNil)
		return 1
	}
	ent := e.mgr.FindEntity(name)
	if ent == nil {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(e.instance(ent))
	return 1
}

func (e *Engine) apiKill(L *lua.LState) int {
	if ent := e.entityArg(L, 1); ent != nil && e.mgr != nil {
		e.mgr.Kill(ent.Handle())
	}
	return 0
}

func (e *Engine) apiLateUpdate(L *lua.LState) int {
	if ent := e.entityArg(L, 1); ent != nil && e.mgr != nil {
		e.mgr.AddToLateUpdateQueue(ent.Handle())
	}
	return 0
}

func (e *Engine) apiMove(L *lua.LState) int {
	ent := e.entityArg(L, 1)
	if ent == nil {
		return 0
	}
	x := float64(L.CheckNumber(2))
	y := float64(L.CheckNumber(3))
	ent.SetPosition(geom.V2(x, y))
	return 0
}

// entityArg resolves a script-facing instance table back to its entity.
// Stale instances yield nil, never an error.
func (e *Engine) entityArg(L *lua.LState, n int) *entity.Entity {
	inst, ok := L.Get(n).(*lua.LTable)
	if !ok || e.mgr == nil {
		return nil
	}
	h, ok := unpackHandle(inst.RawGetString("handle"))
	if !ok {
		return nil
	}
	ent := e.mgr.Pool().Resolve(h)
	if ent == nil || ent.Killed() {
		return nil
	}
	return ent
}

// Handles cross into Lua as hex strings: a Lua number is a float64 and
// would drop low bits of a 64-bit handle once generations grow large.
func packHandle(h entity.Handle) lua.LString {
	return lua.LString(strconv.FormatUint(uint64(h), 16))
}

func unpackHandle(v lua.LValue) (entity.Handle, bool) {
	s, ok := v.(lua.LString)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(string(s), 16, 64)
	if err != nil {
		return 0, false
	}
	return entity.Handle(n), true
}

// instance returns (creating on first use) the per-entity Lua table.
func (e *Engine) instance(ent *entity.Entity) *lua.LTable {
	h := ent.Handle()
	if inst, ok := e.instances[h]; ok {
		return inst
	}
	inst := e.vm.NewTable()
	inst.RawSetString("handle", packHandle(h))
	inst.RawSetString("class", lua.LString(ent.Class().Name))
	e.instances[h] = inst
	return e.syncInstance(ent, inst)
}

// syncInstance copies the entity position into the script view.
func (e *Engine) syncInstance(ent *entity.Entity, inst *lua.LTable) *lua.LTable {
	pos := ent.Position()
	inst.RawSetString("x", lua.LNumber(pos.X))
	inst.RawSetString("y", lua.LNumber(pos.Y))
	return inst
}

// BindPlayers publishes the player API. Index 1 is the first player.
func (e *Engine) BindPlayers(bridges []*player.Bridge) {
	surge, _ := e.vm.GetGlobal("surge").(*lua.LTable)
	if surge == nil {
		return
	}
	at := func(L *lua.LState) *player.Bridge {
		i := int(L.CheckNumber(1)) - 1
		if i < 0 || i >= len(bridges) {
			return nil
		}
		return bridges[i]
	}

	p := e.vm.NewTable()
	surge.RawSetString("player", p)

	p.RawSetString("move_by", e.vm.NewFunction(func(L *lua.LState) int {
		if b := at(L); b != nil {
			b.MoveBy(float64(L.CheckNumber(2)), float64(L.CheckNumber(3)))
		}
		return 0
	}))
	p.RawSetString("activity", e.vm.NewFunction(func(L *lua.LState) int {
		if b := at(L); b != nil {
			L.Push(lua.LString(b.Player().Activity()))
			return 1
		}
		L.Push(lua.LString(""))
		return 1
	}))
	p.RawSetString("kill", e.vm.NewFunction(func(L *lua.LState) int {
		if b := at(L); b != nil {
			b.Player().Kill()
		}
		return 0
	}))
	p.RawSetString("shield", e.vm.NewFunction(func(L *lua.LState) int {
		if b := at(L); b != nil {
			L.Push(lua.LString(b.Player().Shield().String()))
			return 1
		}
		L.Push(lua.LNil)
		return 1
	}))
	p.RawSetString("set_shield", e.vm.NewFunction(func(L *lua.LState) int {
		if b := at(L); b != nil {
			b.Player().GrantShield(player.ShieldByName(L.CheckString(2)))
		}
		return 0
	}))
	p.RawSetString("hlock", e.vm.NewFunction(func(L *lua.LState) int {
		if b := at(L); b != nil {
			b.Player().Hlock(float64(L.CheckNumber(2)))
		}
		return 0
	}))
	p.RawSetString("transform_into", e.vm.NewFunction(func(L *lua.LState) int {
		b := at(L)
		if b == nil {
			L.Push(lua.LFalse)
			return 1
		}
		name := L.CheckString(2)
		var companions []string
		if t, ok := L.Get(3).(*lua.LTable); ok {
			t.ForEach(func(_, v lua.LValue) {
				if s, ok := v.(lua.LString); ok {
					companions = append(companions, string(s))
				}
			})
		}
		if b.TransformInto(name, companions) {
			L.Push(lua.LTrue)
		} else {
			L.Push(lua.LFalse)
		}
		return 1
	}))
}

// luaBehavior adapts one registered class's Lua callbacks to the Behavior
// interface. Script failures are logged and swallowed: a broken behavior
// must not take the frame loop down.
type luaBehavior struct {
	engine *Engine
	class  string
	fns    map[string]*lua.LFunction
}

func (b *luaBehavior) OnSpawn(ent *entity.Entity) {
	b.engine.instance(ent)
	b.call(ent, "on_spawn")
}

func (b *luaBehavior) OnDestroy(ent *entity.Entity) {
	b.call(ent, "on_destroy")
	delete(b.engine.instances, ent.Handle())
}

func (b *luaBehavior) Update(ent *entity.Entity)     { b.call(ent, "update") }
func (b *luaBehavior) LateUpdate(ent *entity.Entity) { b.call(ent, "late_update") }
func (b *luaBehavior) OnReset(ent *entity.Entity)    { b.call(ent, "on_reset") }

func (b *luaBehavior) Render(ent *entity.Entity, flags entity.RenderFlags) {
	fn := b.fns["render"]
	if fn == nil {
		return
	}
	e := b.engine
	inst := e.syncInstance(ent, e.instance(ent))
	if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true},
		inst, lua.LNumber(flags)); err != nil {
		e.log.Error("lua render error",
			zap.String("class", b.class), zap.Error(err))
	}
}

// Notify dispatches an arbitrary named callback. Classes without that
// callback ignore the broadcast.
func (b *luaBehavior) Notify(ent *entity.Entity, fn string) {
	b.call(ent, fn)
}

func (b *luaBehavior) call(ent *entity.Entity, name string) {
	fn := b.fns[name]
	if fn == nil {
		return
	}
	e := b.engine
	inst := e.syncInstance(ent, e.instance(ent))
	if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, inst); err != nil {
		e.log.Error("lua callback error",
			zap.String("class", b.class), zap.String("fn", name), zap.Error(err))
		return
	}
	// Scripts move entities by writing inst.x / inst.y.
	x := lua.LVAsNumber(inst.RawGetString("x"))
	y := lua.LVAsNumber(inst.RawGetString("y"))
	ent.SetPosition(geom.V2(float64(x), float64(y)))
}
