// Package healthcfg loads user-editable balance health tiering from a TOML
// file. A missing file falls back to the built-in defaults; a broken file is
// an error so the caller can decide whether to fall back or refuse to start.
package healthcfg

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"flowcast/internal/core"
)

// File is the on-disk shape of the health level configuration.
type File struct {
	Levels []Level `toml:"level"`
}

// Level is one tier. Min and Max are in currency units; nil means unbounded
// on that side. Min is inclusive, Max exclusive.
type Level struct {
	Label string   `toml:"label"`
	Color string   `toml:"color"`
	Min   *float64 `toml:"min,omitempty"`
	Max   *float64 `toml:"max,omitempty"`
}

// Load reads the health levels at path. An empty path or a missing file
// yields the built-in defaults.
func Load(path string) ([]core.HealthLevel, error) {
	if path == "" {
		return core.DefaultHealthLevels(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return core.DefaultHealthLevels(), nil
		}
		return nil, fmt.Errorf("reading health levels: %w", err)
	}

	var f File
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing health levels: %w", err)
	}
	return f.ToCore()
}

// ToCore converts the file shape into domain health levels, turning unit
// bounds into cents.
func (f File) ToCore() ([]core.HealthLevel, error) {
	levels := make([]core.HealthLevel, 0, len(f.Levels))
	for i, l := range f.Levels {
		level := core.HealthLevel{Label: l.Label, Color: l.Color}
		if l.Min != nil {
			cents, err := core.CentsFromFloat(*l.Min)
			if err != nil {
				return nil, fmt.Errorf("level %d (%s) min: %w", i, l.Label, err)
			}
			level.MinCents = &cents
		}
		if l.Max != nil {
			cents, err := core.CentsFromFloat(*l.Max)
			if err != nil {
				return nil, fmt.Errorf("level %d (%s) max: %w", i, l.Label, err)
			}
			level.MaxCents = &cents
		}
		levels = append(levels, level)
	}
	if len(levels) == 0 {
		return core.DefaultHealthLevels(), nil
	}
	return levels, nil
}
