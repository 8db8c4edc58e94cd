package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EntitySpawn is one placed entity in a level file. An explicit ID pins
// the entity's persistent identity across saves; when empty the spawner
// assigns a random one.
type EntitySpawn struct {
	Class string  `yaml:"class"`
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
	ID    string  `yaml:"id"`
}

// PlayerSpawn places one playable character in a level.
type PlayerSpawn struct {
	Character string  `yaml:"character"`
	X         float64 `yaml:"x"`
	Y         float64 `yaml:"y"`
}

// LevelFile is the on-disk description of a level.
type LevelFile struct {
	Name   string `yaml:"name"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`

	// SetupObjects are class names spawned once at level setup and never
	// respawned when scrolled away from.
	SetupObjects []string `yaml:"setup_objects"`

	Entities []EntitySpawn `yaml:"entities"`
	Players  []PlayerSpawn `yaml:"players"`
}

// LoadLevel reads and validates a level file.
func LoadLevel(path string) (*LevelFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read level %s: %w", path, err)
	}
	var lvl LevelFile
	if err := yaml.Unmarshal(raw, &lvl); err != nil {
		return nil, fmt.Errorf("parse level %s: %w", path, err)
	}
	if lvl.Name == "" {
		return nil, fmt.Errorf("level %s: missing name", path)
	}
	if len(lvl.Players) == 0 {
		return nil, fmt.Errorf("level %s: no player spawn", path)
	}
	for i, spawn := range lvl.Entities {
		if spawn.Class == "" {
			return nil, fmt.Errorf("level %s: entity %d has no class", path, i)
		}
	}
	return &lvl, nil
}
