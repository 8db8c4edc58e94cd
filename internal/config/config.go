package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Game    GameConfig    `toml:"game"`
	Level   LevelConfig   `toml:"level"`
	Scripts ScriptsConfig `toml:"scripts"`
	Render  RenderConfig  `toml:"render"`
	Logging LoggingConfig `toml:"logging"`
}

type GameConfig struct {
	Title    string        `toml:"title"`
	TickRate time.Duration `toml:"tick_rate"`
}

type LevelConfig struct {
	Path       string `toml:"path"`       // level file to boot into
	Characters string `toml:"characters"` // character table path
	Lives      int    `toml:"lives"`      // starting lives for a fresh session
}

type ScriptsConfig struct {
	Dir string `toml:"dir"`
}

type RenderConfig struct {
	Gizmos     bool `toml:"gizmos"`
	ROIWidth   int  `toml:"roi_width"`
	ROIHeight  int  `toml:"roi_height"`
	ROIMarginX int  `toml:"roi_margin_x"` // extra cells around the camera window
	ROIMarginY int  `toml:"roi_margin_y"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func Defaults() *Config {
	return &Config{
		Game: GameConfig{
			Title:    "Open Surge",
			TickRate: time.Second / 60,
		},
		Level: LevelConfig{
			Path:       "levels/sunshine.yaml",
			Characters: "characters.yaml",
			Lives:      5,
		},
		Scripts: ScriptsConfig{
			Dir: "scripts",
		},
		Render: RenderConfig{
			Gizmos:     false,
			ROIWidth:   426,
			ROIHeight:  240,
			ROIMarginX: 256,
			ROIMarginY: 256,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
