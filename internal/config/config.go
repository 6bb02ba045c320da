package config

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"maps"
	"os"
	"reflect"
	"slices"
	"sort"
	"time"

	"github.com/gobwas/glob"
	"github.com/goccy/go-yaml"

	"github.com/tsbridge/tsbridge/internal/util"
)

// Internal configuration data structures for the tsbridge build manifest.

// Root is the top-level configuration structure used by the tsbridge CLI.
// Entries name the compilation units; the root-level compiler options and
// service act as defaults for entries that do not set their own.
type Root struct {
	Entries         map[string]*Entry `json:"entries,omitempty"`
	CompilerOptions map[string]any    `json:"compiler_options,omitempty"`
	Service         string            `json:"service,omitempty" enum:"esbuild,tsc"`
}

// Transpiler backends an entry may name.
const (
	ServiceESBuild = "esbuild"
	ServiceTSC     = "tsc"
)

// UnmarshalYAML implements the yaml.Unmarshaler interface for the Root struct.
// This lets us define entries in a more user-friendly way with mappings where
// keys are the entry names.
func (r *Root) UnmarshalYAML(bs []byte) error {
	type rawRoot Root // avoid recursive calls to UnmarshalYAML by type aliasing
	var raw rawRoot

	if err := yaml.Unmarshal(bs, &raw); err != nil {
		return fmt.Errorf("failed to decode Root: %w", err)
	}

	*r = Root(raw) // Assign the unmarshaled data back to the original struct
	return r.unmarshal(r)
}

func (r *Root) UnmarshalJSON(bs []byte) error {
	type rawRoot Root // avoid recursive calls to UnmarshalJSON by type aliasing
	var raw rawRoot

	if err := json.Unmarshal(bs, &raw); err != nil {
		return fmt.Errorf("failed to decode Root: %w", err)
	}

	*r = Root(raw) // Assign the unmarshaled data back to the original struct
	return r.unmarshal(r)
}

func (r *Root) Unmarshal() error {
	return r.unmarshal(r)
}

func (*Root) unmarshal(raw *Root) error {
	for name := range raw.Entries {
		raw.Entries[name] = cmp.Or(raw.Entries[name], &Entry{})
		raw.Entries[name].Name = name
	}

	return nil
}

func (r *Root) SortedEntries() iter.Seq2[int, *Entry] {
	return iterator(r.Entries, func(e *Entry) string { return e.Name })
}

// ServiceFor resolves the transpiler backend for an entry, falling back to
// the root-level default and finally to esbuild.
func (r *Root) ServiceFor(e *Entry) string {
	return cmp.Or(e.Service, r.Service, ServiceESBuild)
}

// CompilerOptionsFor layers the root-level compiler options under the
// entry's own. The entry wins where both set a key.
func (r *Root) CompilerOptionsFor(e *Entry) map[string]any {
	if len(r.CompilerOptions) == 0 {
		return e.CompilerOptions
	}

	merged := make(map[string]any, len(r.CompilerOptions)+len(e.CompilerOptions))
	maps.Copy(merged, r.CompilerOptions)
	maps.Copy(merged, e.CompilerOptions)
	return merged
}

func iterator[V any](m map[string]V, name func(V) string) func(func(int, V) bool) {
	names := make([]string, 0, len(m))
	for _, v := range m {
		names = append(names, name(v))
	}

	sort.Strings(names)

	return func(yield func(int, V) bool) {
		for i, name := range names {
			if !yield(i, m[name]) {
				return
			}
		}
	}
}

func Validate(data []byte) error {
	var config any
	if err := yaml.Unmarshal(data, &config); err != nil {
		return err
	}

	return rootSchema.Validate(config)
}

// Entry defines a single compilation unit: a source tree rooted at Root,
// compiled with the resolved compiler options and written below Out.
type Entry struct {
	Name            string         `json:"-"`
	Root            string         `json:"root,omitempty"`
	Out             string         `json:"out,omitempty"`
	Tsconfig        string         `json:"tsconfig,omitempty"`
	NoTsconfig      bool           `json:"no_tsconfig,omitempty"`
	IncludedFiles   StringSet      `json:"included_files,omitempty"`
	ExcludedFiles   StringSet      `json:"excluded_files,omitempty"`
	CompilerOptions map[string]any `json:"compiler_options,omitempty"`
	Tslib           string         `json:"tslib,omitempty"`
	Service         string         `json:"service,omitempty" enum:"esbuild,tsc"`
	Interval        Duration       `json:"rebuild_interval,omitzero"`

	_ struct{} `additionalProperties:"false"`
}

// Instead of marshaling and unmarshaling as int64 it uses strings, like "5m" or "0.5s".
type Duration time.Duration

func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	val, err := time.ParseDuration(str)
	*d = Duration(val)
	return err
}

func (d *Duration) UnmarshalYAML(bs []byte) error {
	var s string
	if err := yaml.Unmarshal(bs, &s); err != nil {
		return err
	}
	val, err := time.ParseDuration(s)
	*d = Duration(val)
	return err
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (e *Entry) UnmarshalJSON(bs []byte) error {
	type rawEntry Entry // avoid recursive calls to UnmarshalJSON by type aliasing
	var raw rawEntry

	if err := json.Unmarshal(bs, &raw); err != nil {
		return fmt.Errorf("failed to decode entry: %w", err)
	}

	*e = Entry(raw)
	return e.validate()
}

func (e *Entry) UnmarshalYAML(bs []byte) error {
	type rawEntry Entry // avoid recursive calls to UnmarshalYAML by type aliasing
	var raw rawEntry

	if err := yaml.Unmarshal(bs, &raw); err != nil {
		return fmt.Errorf("failed to decode entry: %w", err)
	}

	*e = Entry(raw)
	return e.validate()
}

func (e *Entry) validate() error {
	for _, pattern := range slices.Concat(e.IncludedFiles, e.ExcludedFiles) {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			return fmt.Errorf("failed to compile file pattern %q: %w", pattern, err)
		}
	}

	if e.NoTsconfig && e.Tsconfig != "" {
		return errors.New("tsconfig and no_tsconfig are mutually exclusive")
	}

	if e.Interval < 0 {
		return errors.New("rebuild_interval must not be negative")
	}

	return nil
}

func (e *Entry) Equal(other *Entry) bool {
	return util.FastEqual(e, other, func(e, other *Entry) bool {
		return e.Name == other.Name &&
			e.Root == other.Root &&
			e.Out == other.Out &&
			e.Tsconfig == other.Tsconfig &&
			e.NoTsconfig == other.NoTsconfig &&
			e.IncludedFiles.Equal(other.IncludedFiles) &&
			e.ExcludedFiles.Equal(other.ExcludedFiles) &&
			reflect.DeepEqual(e.CompilerOptions, other.CompilerOptions) &&
			e.Tslib == other.Tslib &&
			e.Service == other.Service &&
			e.Interval == other.Interval
	})
}

type StringSet []string

func (a StringSet) Equal(b StringSet) bool {
	return util.SetEqual(a, b, func(s string) string { return s }, func(a, b string) bool { return a == b })
}

func ParseFile(filename string) (root *Root, err error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	return Parse(bs)
}

func Parse(bs []byte) (*Root, error) {
	if err := Validate(bs); err != nil {
		return nil, err
	}

	var root Root
	if err := yaml.Unmarshal(bs, &root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &root, nil
}
