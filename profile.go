package gemmshapes

import (
	"fmt"
	"slices"
	"strings"
)

// ModelProfile is the set of characteristic linear-layer shapes of one
// transformer block of a published model architecture.
type ModelProfile struct {
	Name    string                `json:"name" yaml:"name"`
	Aliases []string              `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Shapes  [NumProjections]Shape `json:"shapes" yaml:"shapes"`

	// Active is false for entries kept in the table but excluded from
	// Config and ActiveProfiles.
	Active bool `json:"active" yaml:"active"`
}

// Shape returns the shape at projection p. It panics if p is not one of
// Projections, like an out-of-range index.
func (m ModelProfile) Shape(p Projection) Shape {
	return m.Shapes[p]
}

// Matches reports whether name equals the profile name or one of its
// aliases, ignoring case.
func (m ModelProfile) Matches(name string) bool {
	name = strings.TrimSpace(name)
	if strings.EqualFold(m.Name, name) {
		return true
	}
	for _, a := range m.Aliases {
		if strings.EqualFold(a, name) {
			return true
		}
	}
	return false
}

// Names returns the profile name followed by its aliases.
func (m ModelProfile) Names() []string {
	return append([]string{m.Name}, m.Aliases...)
}

// Label joins the name and aliases the way the shape table comments
// do, e.g. "llama3-8b / internlm2.5-7b".
func (m ModelProfile) Label() string {
	return strings.Join(m.Names(), " / ")
}

// Clone returns a deep copy of m.
func (m ModelProfile) Clone() ModelProfile {
	m.Aliases = slices.Clone(m.Aliases)
	return m
}

func (m ModelProfile) String() string {
	parts := make([]string, NumProjections)
	for i, s := range m.Shapes {
		parts[i] = s.String()
	}
	return fmt.Sprintf("%s[%s]", m.Name, strings.Join(parts, " "))
}

// Validate checks that m has a name and four strictly positive shapes.
func Validate(m ModelProfile) error {
	if strings.TrimSpace(m.Name) == "" {
		return ErrEmptyName
	}
	for _, p := range Projections {
		if s := m.Shapes[p]; !s.Valid() {
			return NewInvalidArgError("Validate",
				fmt.Sprintf("profile %q: %s shape %s must be positive", m.Name, p, s))
		}
	}
	for _, a := range m.Aliases {
		if strings.TrimSpace(a) == "" {
			return NewInvalidArgError("Validate", fmt.Sprintf("profile %q: empty alias", m.Name))
		}
	}
	return nil
}
