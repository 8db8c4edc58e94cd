package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dart-bird/opensurge/internal/config"
	"github.com/dart-bird/opensurge/internal/data"
	"github.com/dart-bird/opensurge/internal/entity"
	"github.com/dart-bird/opensurge/internal/level"
	"github.com/dart-bird/opensurge/internal/scripting"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(title string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m            Open Surge  v0.1.0             \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mgame:\033[0m %s\n\n", title)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main game logic ────────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/surge.toml"
	if p := os.Getenv("SURGE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Game.Title)

	// 3. Load data tables
	printSection("data")

	chars, err := data.LoadCharacterTable(cfg.Level.Characters)
	if err != nil {
		return fmt.Errorf("load characters: %w", err)
	}
	printStat("characters", chars.Count())

	lvlFile, err := data.LoadLevel(cfg.Level.Path)
	if err != nil {
		return fmt.Errorf("load level: %w", err)
	}
	printStat("placed entities", len(lvlFile.Entities))

	// 4. Boot the Lua scripting engine; scripts register entity classes.
	reg := entity.NewRegistry(log)
	engine, err := scripting.NewEngine(cfg.Scripts.Dir, reg, log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer engine.Close()
	printStat("entity classes", reg.Count())
	printOK("lua scripts loaded")

	// 5. Build the level
	lvl := level.New(cfg, reg, engine, log)
	if err := lvl.Load(lvlFile, chars); err != nil {
		return fmt.Errorf("level %s: %w", lvlFile.Name, err)
	}
	fmt.Println()

	// 6. Start game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Game.TickRate)
	defer ticker.Stop()

	printSection("ready")
	printReady(fmt.Sprintf("level %q", lvl.Name()))
	printReady(fmt.Sprintf("game loop started (tick: %s)", cfg.Game.TickRate))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			if err := lvl.Step(cfg.Game.TickRate); err != nil {
				return err
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			return nil
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
