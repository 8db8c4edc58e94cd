package level

import (
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/dart-bird/opensurge/internal/config"
	"github.com/dart-bird/opensurge/internal/core/event"
	"github.com/dart-bird/opensurge/internal/core/system"
	"github.com/dart-bird/opensurge/internal/data"
	"github.com/dart-bird/opensurge/internal/entity"
	"github.com/dart-bird/opensurge/internal/geom"
	"github.com/dart-bird/opensurge/internal/player"
	"github.com/dart-bird/opensurge/internal/scripting"
)

// Level drives one loaded level: the entity manager, the player bridges
// and the phase runner. Everything here runs on the game goroutine.
type Level struct {
	log    *zap.Logger
	cfg    *config.Config
	name   string
	mgr    *entity.Manager
	pool   *entity.Pool
	reg    *entity.Registry
	bus    *event.Bus
	runner *system.Runner
	engine *scripting.Engine

	session *player.Session
	bridges []*player.Bridge
	wasDead []bool

	camera geom.Vector2
	paused bool
	frame  uint64
}

// New wires an empty level around an already-loaded script engine and
// class registry. Call Load before stepping.
func New(cfg *config.Config, reg *entity.Registry, engine *scripting.Engine, log *zap.Logger) *Level {
	pool := entity.NewPool()
	bus := event.NewBus()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	mgr := entity.NewManager(pool, reg, bus, rng, log)
	mgr.SetGizmos(cfg.Render.Gizmos)
	engine.Bind(mgr)

	l := &Level{
		log:     log,
		cfg:     cfg,
		mgr:     mgr,
		pool:    pool,
		reg:     reg,
		bus:     bus,
		runner:  system.NewRunner(),
		engine:  engine,
		session: player.NewSession(cfg.Level.Lives),
	}

	l.runner.Register(&updateSystem{l})
	l.runner.Register(&lateUpdateSystem{l})
	l.runner.Register(&renderSystem{l})
	l.runner.Register(&cleanupSystem{l})

	event.Subscribe(bus, func(e entity.Spawned) {
		log.Debug("entity spawned",
			zap.String("id", entity.FormatEntityID(e.ID)), zap.String("class", e.Class))
	})
	event.Subscribe(bus, func(e entity.Destroyed) {
		log.Debug("entity destroyed",
			zap.String("id", entity.FormatEntityID(e.ID)), zap.String("class", e.Class))
	})
	event.Subscribe(bus, func(e entity.DebugModeChanged) {
		log.Info("debug mode", zap.Bool("enabled", e.Enabled))
	})
	event.Subscribe(bus, func(e event.PlayerDied) {
		l.session.SetLives(l.session.Lives() - 1)
		log.Info("player died",
			zap.String("player", e.Name), zap.Int("lives", l.session.Lives()))
		event.Emit(bus, event.SessionChanged{
			Collectibles: l.session.Collectibles(),
			Lives:        l.session.Lives(),
			Score:        l.session.Score(),
		})
	})

	return l
}

func (l *Level) Name() string              { return l.name }
func (l *Level) Manager() *entity.Manager  { return l.mgr }
func (l *Level) Bus() *event.Bus           { return l.bus }
func (l *Level) Session() *player.Session  { return l.session }
func (l *Level) Bridges() []*player.Bridge { return l.bridges }
func (l *Level) Frame() uint64             { return l.frame }

// Load populates the level from its file: setup objects first, then the
// placed entities, then the players. Any spawn failure here is fatal.
func (l *Level) Load(lvl *data.LevelFile, chars *data.CharacterTable) error {
	l.name = lvl.Name

	for _, name := range lvl.SetupObjects {
		l.mgr.MarkSetupObject(name)
	}
	for _, name := range lvl.SetupObjects {
		if _, err := l.mgr.Spawn(name); err != nil {
			return fmt.Errorf("setup object %q: %w", name, err)
		}
	}

	for _, spawn := range lvl.Entities {
		e, err := l.mgr.SpawnEntity(spawn.Class, geom.V2(spawn.X, spawn.Y))
		if err != nil {
			return fmt.Errorf("entity %q: %w", spawn.Class, err)
		}
		if spawn.ID != "" {
			id, ok := entity.ParseEntityID(spawn.ID)
			if !ok {
				l.log.Warn("bad entity id in level file",
					zap.String("class", spawn.Class), zap.String("id", spawn.ID))
				continue
			}
			l.mgr.Table().SetID(e.Handle(), id)
		}
	}

	for _, spawn := range lvl.Players {
		def := chars.Get(spawn.Character)
		if def == nil {
			return fmt.Errorf("unknown character %q", spawn.Character)
		}
		// Physics bodies live in a Y-up space; level files use Y-down.
		body := player.NewKinematicBody(geom.V2(spawn.X, -spawn.Y))
		p := player.New(def.Name, body, l.session, def.Companions)
		b := player.NewBridge(p, l.mgr, l.reg, l.log)
		b.Init()
		l.bridges = append(l.bridges, b)
		l.wasDead = append(l.wasDead, false)
	}
	l.engine.BindPlayers(l.bridges)

	if len(l.bridges) > 0 {
		l.camera = l.bridges[0].Proxy().Position
	}
	l.applyROI()

	event.Emit(l.bus, event.LevelLoaded{Name: l.name, Players: len(l.bridges)})
	l.log.Info("level loaded",
		zap.String("level", l.name),
		zap.Int("entities", len(lvl.Entities)),
		zap.Int("players", len(l.bridges)))
	return nil
}

// Step advances one frame. Events emitted during frame N are dispatched
// at the start of frame N+1. A paused level still renders.
func (l *Level) Step(dt time.Duration) error {
	l.bus.SwapBuffers()
	l.bus.DispatchAll()

	if l.paused {
		// Gameplay containers skip themselves while paused; this keeps
		// the debug container and rendering alive.
		l.mgr.BeginFrame()
		l.mgr.Update()
		l.mgr.LateUpdate()
		l.runner.TickPhase(system.PhaseRender, dt)
		l.mgr.Cleanup()
	} else {
		l.runner.Tick(dt)
	}
	l.frame++

	if err := l.engine.Err(); err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	return nil
}

// Pause freezes gameplay. Rendering continues, and the debug container
// keeps running regardless.
func (l *Level) Pause() {
	if l.paused {
		return
	}
	l.paused = true
	l.mgr.PauseContainers()
}

func (l *Level) Resume() {
	if !l.paused {
		return
	}
	l.paused = false
	l.mgr.ResumeContainers()
}

func (l *Level) Paused() bool { return l.paused }

func (l *Level) EnterDebugMode() { l.mgr.EnterDebugMode() }
func (l *Level) ExitDebugMode()  { l.mgr.ExitDebugMode() }
func (l *Level) InDebugMode() bool {
	return l.mgr.InDebugMode()
}

// applyROI recomputes the region of interest from the camera. The window
// is the visible screen plus a margin so off-screen neighbors stay live.
func (l *Level) applyROI() {
	w := float64(l.cfg.Render.ROIWidth + 2*l.cfg.Render.ROIMarginX)
	h := float64(l.cfg.Render.ROIHeight + 2*l.cfg.Render.ROIMarginY)
	l.mgr.SetROI(l.camera.X-w/2, l.camera.Y-h/2, w, h)
}
