// Package config loads profile overlays: YAML files that add model
// profiles to a registry or retune built-in ones.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/LynnColeArt/gemmshapes"
)

// File is a parsed overlay document.
type File struct {
	Profiles []Profile `yaml:"profiles"`
}

// Profile is one overlay entry. Shapes are keyed by projection name and
// hold a [rows, cols] pair.
type Profile struct {
	Name    string             `yaml:"name"`
	Aliases []string           `yaml:"aliases,omitempty"`
	Active  *bool              `yaml:"active,omitempty"`
	Shapes  map[string][]int64 `yaml:"shapes"`
}

// Load reads and parses the overlay at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, gemmshapes.NewIOError("config.Load", "reading overlay "+path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes an overlay document. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &File{}, nil
		}
		return nil, gemmshapes.NewDecodeError("config.Parse", "invalid overlay YAML", err)
	}
	return &f, nil
}

// ModelProfile converts the entry, checking that every projection has
// exactly one [rows, cols] pair and that the result validates.
// Projection keys are matched ignoring case.
func (p Profile) ModelProfile() (gemmshapes.ModelProfile, error) {
	m := gemmshapes.ModelProfile{
		Name:    p.Name,
		Aliases: p.Aliases,
		Active:  p.Active == nil || *p.Active,
	}

	keys := make([]string, 0, len(p.Shapes))
	for key := range p.Shapes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	shapes := make(map[gemmshapes.Projection][]int64, len(keys))
	var unknown []string
	for _, key := range keys {
		proj, err := gemmshapes.ParseProjection(key)
		if err != nil {
			unknown = append(unknown, strconv.Quote(key))
			continue
		}
		if _, dup := shapes[proj]; dup {
			return m, gemmshapes.NewInvalidArgError("config.Profile",
				fmt.Sprintf("profile %q: %s shape given more than once", p.Name, proj))
		}
		shapes[proj] = p.Shapes[key]
	}
	if len(unknown) > 0 {
		return m, gemmshapes.NewInvalidArgError("config.Profile",
			fmt.Sprintf("profile %q: unknown projection %s", p.Name, strings.Join(unknown, ", ")))
	}

	for _, proj := range gemmshapes.Projections {
		pair, ok := shapes[proj]
		if !ok {
			return m, gemmshapes.NewInvalidArgError("config.Profile",
				fmt.Sprintf("profile %q: missing %s shape", p.Name, proj))
		}
		if len(pair) != 2 {
			return m, gemmshapes.NewInvalidArgError("config.Profile",
				fmt.Sprintf("profile %q: %s shape needs [rows, cols], got %d values", p.Name, proj, len(pair)))
		}
		m.Shapes[proj] = gemmshapes.Shape{Rows: pair[0], Cols: pair[1]}
	}
	if err := gemmshapes.Validate(m); err != nil {
		return m, err
	}
	return m, nil
}

// ModelProfiles converts every entry in document order.
func (f *File) ModelProfiles() ([]gemmshapes.ModelProfile, error) {
	out := make([]gemmshapes.ModelProfile, 0, len(f.Profiles))
	for i, p := range f.Profiles {
		m, err := p.ModelProfile()
		if err != nil {
			return nil, fmt.Errorf("profiles[%d]: %w", i, err)
		}
		out = append(out, m)
	}
	return out, nil
}

// Apply merges the overlay into reg: profiles whose name is already
// registered are replaced in place, the rest are appended. The overlay
// is applied as a whole; on error reg is left unchanged.
func Apply(reg *gemmshapes.Registry, f *File, logger *zap.Logger) error {
	profiles, err := f.ModelProfiles()
	if err != nil {
		return err
	}
	replaced := make([]bool, len(profiles))
	err = reg.Update(func(tx *gemmshapes.Registry) error {
		for i, m := range profiles {
			if existing, err := tx.Get(m.Name); err == nil && strings.EqualFold(existing.Name, m.Name) {
				if err := tx.Replace(m); err != nil {
					return fmt.Errorf("replacing %s: %w", m.Name, err)
				}
				replaced[i] = true
				continue
			}
			if err := tx.Register(m); err != nil {
				return fmt.Errorf("registering %s: %w", m.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for i, m := range profiles {
		if replaced[i] {
			logger.Info("replaced profile", zap.String("name", m.Name), zap.Bool("active", m.Active))
			continue
		}
		logger.Info("registered profile",
			zap.String("name", m.Name),
			zap.Strings("aliases", m.Aliases),
			zap.Bool("active", m.Active))
	}
	return nil
}
