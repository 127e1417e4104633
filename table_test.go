package gemmshapes

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigSize(t *testing.T) {
	cfg := Config()
	assert.Len(t, cfg, 32)
	assert.Len(t, ActiveProfiles(), 8)
	assert.Len(t, Profiles(), 9)
	assert.Equal(t, len(ActiveProfiles())*NumProjections, len(cfg))
}

func TestConfigPositive(t *testing.T) {
	for i, s := range Config() {
		if s.Rows <= 0 || s.Cols <= 0 {
			t.Errorf("entry %d: non-positive shape %s", i, s)
		}
	}
	for _, m := range Profiles() {
		assert.NoError(t, Validate(m), m.Name)
	}
}

func TestProfileOrder(t *testing.T) {
	want := []string{
		"llama2-7b",
		"llama3-8b",
		"internlm2-20b",
		"glm4-9b",
		"qwen2-7b",
		"yi-34b",
		"llama2-70b",
		"qwen2-72b-instruct-awq",
	}
	var got []string
	for _, m := range ActiveProfiles() {
		got = append(got, m.Name)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("active profile order mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigGolden(t *testing.T) {
	want := [][2]int64{
		{22016, 4096}, {4096, 11008}, {12288, 4096}, {4096, 4096}, // llama2-7b
		{28672, 4096}, {4096, 14336}, {6144, 4096}, {4096, 4096},  // llama3-8b / internlm2.5-7b
		{32768, 6144}, {6144, 16384}, {8192, 6144}, {6144, 6144},  // internlm2-20b
		{27392, 4096}, {4096, 13696}, {4608, 4096}, {4096, 4096},  // glm4-9b
		{37888, 3584}, {3584, 18944}, {4608, 3584}, {3584, 3584},  // qwen2-7b
		{40960, 7168}, {7168, 20480}, {9216, 7168}, {7168, 7168},  // yi-34b
		{57344, 8192}, {8192, 28672}, {10240, 8192}, {8192, 8192}, // llama2-70b / llama3-70b
		{59392, 8192}, {8192, 29696}, {10240, 8192}, {8192, 8192}, // qwen2-72b-instruct-awq
	}
	var got [][2]int64
	for _, s := range Config() {
		got = append(got, s.Pair())
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Config() mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigGroupsMatchProfiles(t *testing.T) {
	cfg := Config()
	for g, m := range ActiveProfiles() {
		group := cfg[g*NumProjections : (g+1)*NumProjections]
		assert.Equal(t, m.Shapes[:], group, "group %d (%s)", g, m.Name)
	}
}

func TestFirstAndLastGroups(t *testing.T) {
	cfg := Config()

	first := []Shape{{22016, 4096}, {4096, 11008}, {12288, 4096}, {4096, 4096}}
	assert.Equal(t, first, cfg[:4])
	m, proj, err := ProfileAt(0)
	require.NoError(t, err)
	assert.Equal(t, "llama2-7b", m.Name)
	assert.Equal(t, GateUp, proj)

	last := []Shape{{59392, 8192}, {8192, 29696}, {10240, 8192}, {8192, 8192}}
	assert.Equal(t, last, cfg[len(cfg)-4:])
	m, proj, err = ProfileAt(len(cfg) - 1)
	require.NoError(t, err)
	assert.Equal(t, "qwen2-72b-instruct-awq", m.Name)
	assert.Equal(t, Output, proj)
}

func TestFusedGateUpRows(t *testing.T) {
	// gate_up rows are twice the down projection's input width in every
	// built-in entry.
	for _, m := range Profiles() {
		assert.Equal(t, 2*m.Shape(Down).Cols, m.Shape(GateUp).Rows, m.Name)
		assert.Equal(t, m.Shape(Down).Rows, m.Shape(GateUp).Cols, m.Name)
	}
}

func TestDisabledProfilePreserved(t *testing.T) {
	all := Profiles()
	disabled := all[len(all)-1]
	assert.Equal(t, "qwen2-72b", disabled.Name)
	assert.False(t, disabled.Active)
	assert.Equal(t, [NumProjections]Shape{{59136, 8192}, {8192, 29568}, {10240, 8192}, {8192, 8192}}, disabled.Shapes)

	for _, s := range Config() {
		assert.NotEqual(t, int64(29568), s.Cols, "disabled shapes must not appear in Config")
	}
	for _, m := range ActiveProfiles() {
		assert.NotEqual(t, "qwen2-72b", m.Name)
	}

	m, err := Lookup("qwen2-72b")
	require.NoError(t, err)
	assert.False(t, m.Active)
}

func TestTableIsImmutable(t *testing.T) {
	a := Config()
	b := Config()
	assert.Equal(t, a, b)

	a[0] = Shape{1, 1}
	assert.Equal(t, b, Config())

	p := Profiles()
	p[1].Aliases[0] = "mutated"
	p[1].Shapes[0] = Shape{1, 1}
	m, err := Lookup("llama3-8b")
	require.NoError(t, err)
	assert.Equal(t, []string{"internlm2.5-7b"}, m.Aliases)
	assert.Equal(t, Shape{28672, 4096}, m.Shapes[0])
}

func TestLookup(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"llama2-7b", "llama2-7b"},
		{"LLaMA2-7B", "llama2-7b"},
		{"internlm2.5-7b", "llama3-8b"},
		{"llama3-70b", "llama2-70b"},
		{"  glm4-9b ", "glm4-9b"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			m, err := Lookup(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Name)
		})
	}

	_, err := Lookup("gpt-5")
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}

func TestProfileAtRange(t *testing.T) {
	_, _, err := ProfileAt(-1)
	assert.True(t, IsInvalidArgError(err))
	_, _, err = ProfileAt(len(Config()))
	assert.True(t, IsInvalidArgError(err))

	for i := range Config() {
		m, proj, err := ProfileAt(i)
		require.NoError(t, err)
		assert.Equal(t, Config()[i], m.Shape(proj))
	}
}
