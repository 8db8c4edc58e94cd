package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Character describes one playable character: its name and the companion
// entity classes that follow it around.
type Character struct {
	Name       string   `yaml:"name"`
	Companions []string `yaml:"companions"`
}

// CharacterTable provides character definitions by name.
type CharacterTable struct {
	chars map[string]*Character
}

type characterFile struct {
	Characters []Character `yaml:"characters"`
}

// LoadCharacterTable loads the character table from YAML.
func LoadCharacterTable(path string) (*CharacterTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read characters %s: %w", path, err)
	}
	var file characterFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse characters %s: %w", path, err)
	}

	table := &CharacterTable{
		chars: make(map[string]*Character, len(file.Characters)),
	}
	for i := range file.Characters {
		c := &file.Characters[i]
		if c.Name == "" {
			return nil, fmt.Errorf("characters %s: entry %d has no name", path, i)
		}
		table.chars[c.Name] = c
	}
	return table, nil
}

// Get returns a character definition, or nil if not found.
func (t *CharacterTable) Get(name string) *Character {
	return t.chars[name]
}

// Count returns the number of characters loaded.
func (t *CharacterTable) Count() int {
	return len(t.chars)
}
