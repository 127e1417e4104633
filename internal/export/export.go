// Package export writes the shape table, or GEMM problems derived from
// it, in formats an external test or benchmark driver can consume.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/LynnColeArt/gemmshapes"
	"github.com/LynnColeArt/gemmshapes/internal/hostinfo"
)

// Format is an output encoding.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
	CSV  Format = "csv"
)

// Formats lists the supported encodings.
var Formats = []Format{JSON, YAML, CSV}

// ParseFormat returns the format named s. "yml" is accepted for YAML.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "yml" {
		return YAML, nil
	}
	if f, ok := lo.Find(Formats, func(f Format) bool { return string(f) == s }); ok {
		return f, nil
	}
	return "", gemmshapes.NewInvalidArgError("export.ParseFormat",
		fmt.Sprintf("unknown format %q, want one of %s", s, strings.Join(lo.Map(Formats, func(f Format, _ int) string { return string(f) }), ", ")))
}

// Manifest records where and when an export was produced.
type Manifest struct {
	Generator string        `json:"generator" yaml:"generator"`
	Version   string        `json:"version,omitempty" yaml:"version,omitempty"`
	Host      hostinfo.Info `json:"host" yaml:"host"`
	Generated time.Time     `json:"generated" yaml:"generated"`
}

// NewManifest stamps the current module version and host.
func NewManifest(generator string) Manifest {
	version, _ := gemmshapes.Version()
	return Manifest{
		Generator: generator,
		Version:   version,
		Host:      hostinfo.Detect(),
		Generated: time.Now().UTC(),
	}
}

type profileDoc struct {
	Manifest Manifest     `json:"manifest" yaml:"manifest"`
	Profiles []profileRow `json:"profiles" yaml:"profiles"`
}

type problemDoc struct {
	Manifest Manifest             `json:"manifest" yaml:"manifest"`
	Problems []gemmshapes.Problem `json:"problems" yaml:"problems"`
}

// profileRow flattens the shape array into named projections so the
// output is self-describing.
type profileRow struct {
	Name    string              `json:"name" yaml:"name"`
	Aliases []string            `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Active  bool                `json:"active" yaml:"active"`
	Shapes  map[string][2]int64 `json:"shapes" yaml:"shapes"`
}

func toRow(m gemmshapes.ModelProfile) profileRow {
	shapes := make(map[string][2]int64, gemmshapes.NumProjections)
	for _, p := range gemmshapes.Projections {
		shapes[p.String()] = m.Shape(p).Pair()
	}
	return profileRow{Name: m.Name, Aliases: m.Aliases, Active: m.Active, Shapes: shapes}
}

// WriteProfiles encodes profiles to w.
func WriteProfiles(w io.Writer, format Format, manifest Manifest, profiles []gemmshapes.ModelProfile) error {
	switch format {
	case JSON, YAML:
		doc := profileDoc{Manifest: manifest, Profiles: lo.Map(profiles, func(m gemmshapes.ModelProfile, _ int) profileRow { return toRow(m) })}
		return encode(w, format, doc)
	case CSV:
		cw := csv.NewWriter(w)
		header := []string{"profile", "projection", "rows", "cols", "active"}
		if err := cw.Write(header); err != nil {
			return err
		}
		for _, m := range profiles {
			for _, p := range gemmshapes.Projections {
				s := m.Shape(p)
				rec := []string{m.Name, p.String(), itoa(s.Rows), itoa(s.Cols), strconv.FormatBool(m.Active)}
				if err := cw.Write(rec); err != nil {
					return err
				}
			}
		}
		cw.Flush()
		return cw.Error()
	default:
		return gemmshapes.NewInvalidArgError("export.WriteProfiles", fmt.Sprintf("unsupported format %q", format))
	}
}

// WriteProblems encodes problems to w. CSV rows carry the label and
// FLOP count in addition to the dimensions.
func WriteProblems(w io.Writer, format Format, manifest Manifest, problems []gemmshapes.Problem) error {
	switch format {
	case JSON, YAML:
		return encode(w, format, problemDoc{Manifest: manifest, Problems: problems})
	case CSV:
		cw := csv.NewWriter(w)
		header := []string{"label", "profile", "projection", "m", "n", "k", "flops"}
		if err := cw.Write(header); err != nil {
			return err
		}
		for _, p := range problems {
			rec := []string{p.Label(), p.Profile, p.Projection.String(), itoa(p.M), itoa(p.N), itoa(p.K), itoa(p.FLOPs())}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	default:
		return gemmshapes.NewInvalidArgError("export.WriteProblems", fmt.Sprintf("unsupported format %q", format))
	}
}

func encode(w io.Writer, format Format, v any) error {
	if format == YAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to marshal yaml: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal json: %w", err)
	}
	return nil
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}

// WriteFile creates path through a temporary file in the same directory
// and renames it into place once write succeeds, so readers never see a
// partial export.
func WriteFile(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return gemmshapes.NewIOError("export.WriteFile", "failed to create output directory", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return gemmshapes.NewIOError("export.WriteFile", "failed to create temp file", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return gemmshapes.NewIOError("export.WriteFile", "failed to close temp file", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return gemmshapes.NewIOError("export.WriteFile", "failed to set permissions", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return gemmshapes.NewIOError("export.WriteFile", "failed to move export into place", err)
	}
	return nil
}

// SessionPath returns a timestamped file name under dir, in the form
// <name>_20060102_150405.<format>.
func SessionPath(dir, name string, format Format, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.%s", name, now.Format("20060102_150405"), format))
}
