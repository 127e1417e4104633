package gemmshapes

import (
	"fmt"
	"math"
	"math/bits"
	"strings"
)

// Problem is one GEMM C[M×N] = A[M×K]·B[K×N] sized from a profile shape:
// the weight (rows, cols) contributes N=rows and K=cols, and M is the
// number of tokens in the activation batch.
type Problem struct {
	Profile    string     `json:"profile" yaml:"profile"`
	Projection Projection `json:"projection" yaml:"projection"`
	M          int64      `json:"m" yaml:"m"`
	N          int64      `json:"n" yaml:"n"`
	K          int64      `json:"k" yaml:"k"`
}

// Label names the problem so a failing case maps back to its model,
// e.g. "llama2-7b/gate_up/m128_n22016_k4096".
func (p Problem) Label() string {
	return fmt.Sprintf("%s/%s/m%d_n%d_k%d", p.Profile, p.Projection, p.M, p.N, p.K)
}

// Dims returns {M, N, K}.
func (p Problem) Dims() [3]int64 {
	return [3]int64{p.M, p.N, p.K}
}

// FLOPs returns the multiply-add count of the problem, 2·M·N·K.
func (p Problem) FLOPs() int64 {
	return 2 * p.M * p.N * p.K
}

// Bytes returns the footprint of A, B and C at the given element type.
// Sub-byte types are rounded up to whole bytes per matrix. An unknown
// DType has zero width and yields 0.
func (p Problem) Bytes(dt DType) int64 {
	bits := int64(dt.Bits())
	mat := func(elems int64) int64 { return (elems*bits + 7) / 8 }
	return mat(p.M*p.K) + mat(p.K*p.N) + mat(p.M*p.N)
}

// Problems sizes the four shapes of m for a batch of tokens. Token
// counts whose FLOP or F32 byte count would overflow int64 are rejected.
func (m ModelProfile) Problems(tokens int64) ([]Problem, error) {
	if tokens <= 0 {
		return nil, ErrNonPositiveTokens
	}
	out := make([]Problem, NumProjections)
	for i, p := range Projections {
		s := m.Shapes[p]
		pr := Problem{Profile: m.Name, Projection: p, M: tokens, N: s.Rows, K: s.Cols}
		if !pr.fits() {
			return nil, NewInvalidArgError("Problems",
				fmt.Sprintf("%d tokens overflow the %s problem of %s", tokens, p, m.Name))
		}
		out[i] = pr
	}
	return out, nil
}

// fits reports whether FLOPs and Bytes at the widest DType are
// representable.
func (p Problem) fits() bool {
	if _, ok := mul(2, p.M, p.N, p.K); !ok {
		return false
	}
	var total int64
	for _, elems := range [][2]int64{{p.M, p.K}, {p.K, p.N}, {p.M, p.N}} {
		b, ok := mul(elems[0], elems[1], int64(F32.Bits()))
		if !ok || b > math.MaxInt64-7 || total > math.MaxInt64-b {
			return false
		}
		total += b
	}
	return true
}

// mul multiplies non-negative factors, reporting false on int64 overflow.
func mul(factors ...int64) (int64, bool) {
	acc := uint64(1)
	for _, f := range factors {
		hi, lo := bits.Mul64(acc, uint64(f))
		if hi != 0 || lo > math.MaxInt64 {
			return 0, false
		}
		acc = lo
	}
	return int64(acc), true
}

// Problems sizes every profile for every token count. The result is
// ordered by profile, then token count, then projection.
//
// Example:
//
//	probs, err := gemmshapes.Problems(gemmshapes.ActiveProfiles(), 1, 128, 2048)
func Problems(profiles []ModelProfile, tokens ...int64) ([]Problem, error) {
	if len(tokens) == 0 {
		return nil, NewInvalidArgError("Problems", "at least one token count is required")
	}
	out := make([]Problem, 0, len(profiles)*len(tokens)*NumProjections)
	for _, m := range profiles {
		for _, t := range tokens {
			probs, err := m.Problems(t)
			if err != nil {
				return nil, fmt.Errorf("profile %s: %w", m.Name, err)
			}
			out = append(out, probs...)
		}
	}
	return out, nil
}

// DType is the element type a GEMM driver runs a problem at.
type DType int

const (
	F32 DType = iota
	F16
	BF16
	Int8
	Int4
)

var dtypeNames = []string{"f32", "f16", "bf16", "int8", "int4"}

// Bits returns the storage width of one element.
func (d DType) Bits() int {
	switch d {
	case F32:
		return 32
	case F16, BF16:
		return 16
	case Int8:
		return 8
	case Int4:
		return 4
	default:
		return 0
	}
}

func (d DType) String() string {
	if d < 0 || int(d) >= len(dtypeNames) {
		return fmt.Sprintf("DType(%d)", int(d))
	}
	return dtypeNames[d]
}

// ParseDType returns the element type named s.
func ParseDType(s string) (DType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range dtypeNames {
		if name == s {
			return DType(i), nil
		}
	}
	return 0, NewInvalidArgError("ParseDType", fmt.Sprintf("unknown dtype %q", s))
}
