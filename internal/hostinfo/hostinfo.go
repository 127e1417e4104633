// Package hostinfo reports the SIMD capabilities of the machine a shape
// export was generated on, so downstream GEMM results can be grouped by
// host class.
package hostinfo

import (
	"runtime"
	"strings"

	"golang.org/x/sys/cpu"
)

// Info tracks available CPU instruction set extensions.
type Info struct {
	GOOS   string `json:"goos" yaml:"goos"`
	GOARCH string `json:"goarch" yaml:"goarch"`
	NumCPU int    `json:"num_cpu" yaml:"num_cpu"`

	HasSSE4     bool `json:"sse4,omitempty" yaml:"sse4,omitempty"`
	HasAVX      bool `json:"avx,omitempty" yaml:"avx,omitempty"`
	HasAVX2     bool `json:"avx2,omitempty" yaml:"avx2,omitempty"`
	HasFMA      bool `json:"fma,omitempty" yaml:"fma,omitempty"`
	HasAVX512F  bool `json:"avx512f,omitempty" yaml:"avx512f,omitempty"`   // Foundation
	HasAVX512DQ bool `json:"avx512dq,omitempty" yaml:"avx512dq,omitempty"` // Double/Quad precision
	HasAVX512BW bool `json:"avx512bw,omitempty" yaml:"avx512bw,omitempty"` // Byte/Word
	HasAVX512VL bool `json:"avx512vl,omitempty" yaml:"avx512vl,omitempty"` // Vector Length

	HasASIMD   bool `json:"asimd,omitempty" yaml:"asimd,omitempty"`
	HasFPHP    bool `json:"fphp,omitempty" yaml:"fphp,omitempty"`
	HasASIMDHP bool `json:"asimdhp,omitempty" yaml:"asimdhp,omitempty"`
	HasSVE     bool `json:"sve,omitempty" yaml:"sve,omitempty"`
}

// Detect reads the feature flags of the running CPU.
func Detect() Info {
	return Info{
		GOOS:   runtime.GOOS,
		GOARCH: runtime.GOARCH,
		NumCPU: runtime.NumCPU(),

		HasSSE4:     cpu.X86.HasSSE41 || cpu.X86.HasSSE42,
		HasAVX:      cpu.X86.HasAVX,
		HasAVX2:     cpu.X86.HasAVX2,
		HasFMA:      cpu.X86.HasFMA,
		HasAVX512F:  cpu.X86.HasAVX512F,
		HasAVX512DQ: cpu.X86.HasAVX512DQ,
		HasAVX512BW: cpu.X86.HasAVX512BW,
		HasAVX512VL: cpu.X86.HasAVX512VL,

		HasASIMD:   cpu.ARM64.HasASIMD,
		HasFPHP:    cpu.ARM64.HasFPHP,
		HasASIMDHP: cpu.ARM64.HasASIMDHP,
		HasSVE:     cpu.ARM64.HasSVE,
	}
}

// Tier returns the widest SIMD class usable for float GEMM.
func (i Info) Tier() string {
	switch {
	case i.HasAVX512F:
		return "avx512"
	case i.HasAVX2 && i.HasFMA:
		return "avx2"
	case i.HasSSE4:
		return "sse4"
	case i.HasASIMD:
		return "neon"
	default:
		return "scalar"
	}
}

// Features lists the detected extensions in a fixed order.
func (i Info) Features() []string {
	flags := []struct {
		on   bool
		name string
	}{
		{i.HasSSE4, "SSE4"},
		{i.HasAVX, "AVX"},
		{i.HasAVX2, "AVX2"},
		{i.HasFMA, "FMA"},
		{i.HasAVX512F, "AVX512F"},
		{i.HasAVX512DQ, "AVX512DQ"},
		{i.HasAVX512BW, "AVX512BW"},
		{i.HasAVX512VL, "AVX512VL"},
		{i.HasASIMD, "ASIMD"},
		{i.HasFPHP, "FPHP"},
		{i.HasASIMDHP, "ASIMDHP"},
		{i.HasSVE, "SVE"},
	}
	var out []string
	for _, f := range flags {
		if f.on {
			out = append(out, f.name)
		}
	}
	return out
}

// String returns a one-line description of the host.
func (i Info) String() string {
	features := i.Features()
	if len(features) == 0 {
		return i.GOOS + "/" + i.GOARCH + ": no SIMD extensions detected"
	}
	return i.GOOS + "/" + i.GOARCH + ": " + strings.Join(features, ", ")
}
