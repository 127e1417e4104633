package gemmshapes

import (
	"fmt"
	"strings"
)

// Shape is the (rows, cols) size of one linear-projection weight matrix:
// rows output features by cols input features.
type Shape struct {
	Rows int64 `json:"rows" yaml:"rows"`
	Cols int64 `json:"cols" yaml:"cols"`
}

// Elements returns rows*cols.
func (s Shape) Elements() int64 {
	return s.Rows * s.Cols
}

// Valid reports whether both dimensions are strictly positive.
func (s Shape) Valid() bool {
	return s.Rows > 0 && s.Cols > 0
}

// Pair returns the shape as a two-element array, the layout GEMM test
// tables conventionally use.
func (s Shape) Pair() [2]int64 {
	return [2]int64{s.Rows, s.Cols}
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%d", s.Rows, s.Cols)
}

// Projection is the positional role of a shape within a ModelProfile.
type Projection int

const (
	// GateUp is the fused gate and up projection of the feed-forward block.
	GateUp Projection = iota
	// Down is the feed-forward down projection.
	Down
	// QKV is the fused query/key/value projection.
	QKV
	// Output is the attention output projection.
	Output

	// NumProjections is the number of shapes in every profile.
	NumProjections = 4
)

// Projections lists every projection in profile order.
var Projections = [NumProjections]Projection{GateUp, Down, QKV, Output}

var projectionNames = [NumProjections]string{"gate_up", "down", "qkv", "output"}

func (p Projection) String() string {
	if p < 0 || int(p) >= NumProjections {
		return fmt.Sprintf("Projection(%d)", int(p))
	}
	return projectionNames[p]
}

// ParseProjection returns the projection named s, as printed by String.
func ParseProjection(s string) (Projection, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range projectionNames {
		if name == s {
			return Projection(i), nil
		}
	}
	return 0, NewInvalidArgError("ParseProjection", fmt.Sprintf("unknown projection %q", s))
}

// MarshalText implements encoding.TextMarshaler.
func (p Projection) MarshalText() ([]byte, error) {
	if p < 0 || int(p) >= NumProjections {
		return nil, NewInvalidArgError("MarshalText", p.String())
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Projection) UnmarshalText(text []byte) error {
	v, err := ParseProjection(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
