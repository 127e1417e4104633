package gemmshapes

import "fmt"

// table is the built-in shape table. Shapes are listed as
// {GateUp, Down, QKV, Output}; gate_up rows are the intermediate size
// times two.
var table = []ModelProfile{
	{
		Name:   "llama2-7b",
		Shapes: [NumProjections]Shape{{11008 * 2, 4096}, {4096, 11008}, {12288, 4096}, {4096, 4096}},
		Active: true,
	},
	{
		Name:    "llama3-8b",
		Aliases: []string{"internlm2.5-7b"},
		Shapes:  [NumProjections]Shape{{14336 * 2, 4096}, {4096, 14336}, {6144, 4096}, {4096, 4096}},
		Active:  true,
	},
	{
		Name:   "internlm2-20b",
		Shapes: [NumProjections]Shape{{16384 * 2, 6144}, {6144, 16384}, {8192, 6144}, {6144, 6144}},
		Active: true,
	},
	{
		Name:   "glm4-9b",
		Shapes: [NumProjections]Shape{{13696 * 2, 4096}, {4096, 13696}, {4608, 4096}, {4096, 4096}},
		Active: true,
	},
	{
		Name:   "qwen2-7b",
		Shapes: [NumProjections]Shape{{18944 * 2, 3584}, {3584, 18944}, {4608, 3584}, {3584, 3584}},
		Active: true,
	},
	{
		Name:   "yi-34b",
		Shapes: [NumProjections]Shape{{20480 * 2, 7168}, {7168, 20480}, {9216, 7168}, {7168, 7168}},
		Active: true,
	},
	{
		Name:    "llama2-70b",
		Aliases: []string{"llama3-70b"},
		Shapes:  [NumProjections]Shape{{28672 * 2, 8192}, {8192, 28672}, {10240, 8192}, {8192, 8192}},
		Active:  true,
	},
	{
		Name:   "qwen2-72b-instruct-awq",
		Shapes: [NumProjections]Shape{{29696 * 2, 8192}, {8192, 29696}, {10240, 8192}, {8192, 8192}},
		Active: true,
	},
	{
		// Disabled: the AWQ variant above pads the intermediate size to 29696.
		Name:   "qwen2-72b",
		Shapes: [NumProjections]Shape{{29568 * 2, 8192}, {8192, 29568}, {10240, 8192}, {8192, 8192}},
		Active: false,
	},
}

func init() {
	for _, m := range table {
		if err := Validate(m); err != nil {
			panic(fmt.Sprintf("gemmshapes: built-in table: %v", err))
		}
	}
}

// Profiles returns every built-in profile, disabled ones included, in
// table order. The result is a copy and may be modified freely.
func Profiles() []ModelProfile {
	out := make([]ModelProfile, len(table))
	for i, m := range table {
		out[i] = m.Clone()
	}
	return out
}

// ActiveProfiles returns the built-in profiles that are enabled, in
// table order.
func ActiveProfiles() []ModelProfile {
	out := make([]ModelProfile, 0, len(table))
	for _, m := range table {
		if m.Active {
			out = append(out, m.Clone())
		}
	}
	return out
}

// Config returns the flattened shape list of the active profiles: four
// consecutive entries per profile, in table and projection order.
//
// Example:
//
//	for i, s := range gemmshapes.Config() {
//		runCase(i, s.Rows, s.Cols)
//	}
func Config() []Shape {
	out := make([]Shape, 0, len(table)*NumProjections)
	for _, m := range table {
		if m.Active {
			out = append(out, m.Shapes[:]...)
		}
	}
	return out
}

// Lookup finds a built-in profile by name or alias, ignoring case.
// Disabled profiles are returned too; check Active.
func Lookup(name string) (ModelProfile, error) {
	for _, m := range table {
		if m.Matches(name) {
			return m.Clone(), nil
		}
	}
	return ModelProfile{}, NewNotFoundError("Lookup", name)
}

// ProfileAt maps an index into Config back to the profile and projection
// it came from.
func ProfileAt(index int) (ModelProfile, Projection, error) {
	if index < 0 {
		return ModelProfile{}, 0, NewInvalidArgError("ProfileAt", fmt.Sprintf("negative index %d", index))
	}
	group := index / NumProjections
	for _, m := range table {
		if !m.Active {
			continue
		}
		if group == 0 {
			return m.Clone(), Projection(index % NumProjections), nil
		}
		group--
	}
	return ModelProfile{}, 0, NewInvalidArgError("ProfileAt", fmt.Sprintf("index %d out of range", index))
}
