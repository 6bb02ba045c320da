// Package tsconfig locates and parses TypeScript project configuration
// files. Load reads one file; LoadChain follows its extends references.
// tsconfig files are JSON with comments and trailing commas allowed, so the
// text is scrubbed before decoding.
package tsconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultName is the file name probed during default discovery.
const DefaultName = "tsconfig.json"

// File is one parsed project configuration file. Extends is the raw,
// unresolved reference to a base config; LoadChain resolves it.
type File struct {
	Path            string
	Extends         string
	CompilerOptions map[string]any
	Files           []string
	Include         []string
	Exclude         []string
}

// Find walks up from dir looking for a tsconfig.json. It returns the empty
// string when no config exists anywhere up the tree.
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, DefaultName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Load reads and parses a single config file without resolving its extends
// reference.
func Load(path string) (*File, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parse(path, bs)
}

func parse(path string, bs []byte) (*File, error) {
	var raw struct {
		Extends         string         `json:"extends"`
		CompilerOptions map[string]any `json:"compilerOptions"`
		Files           []string       `json:"files"`
		Include         []string       `json:"include"`
		Exclude         []string       `json:"exclude"`
	}

	if err := json.Unmarshal(stripTrailingCommas(stripComments(bs)), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return &File{
		Path:            path,
		Extends:         raw.Extends,
		CompilerOptions: raw.CompilerOptions,
		Files:           raw.Files,
		Include:         raw.Include,
		Exclude:         raw.Exclude,
	}, nil
}

// LoadChain loads the config at path and resolves its extends chain. Per
// compiler-option key the nearest file wins; the files/include/exclude
// blocks are taken wholesale from the nearest file that sets them.
func LoadChain(path string) (*File, error) {
	seen := map[string]bool{}

	var load func(path string) (*File, error)
	load = func(path string) (*File, error) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}
		if seen[abs] {
			return nil, fmt.Errorf("tsconfig extends cycle via %s", abs)
		}
		seen[abs] = true

		f, err := Load(abs)
		if err != nil {
			return nil, err
		}
		if f.Extends == "" {
			return f, nil
		}

		basePath, err := resolveExtends(f.Extends, filepath.Dir(abs))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", abs, err)
		}
		base, err := load(basePath)
		if err != nil {
			return nil, err
		}

		merged := make(map[string]any, len(base.CompilerOptions)+len(f.CompilerOptions))
		for k, v := range base.CompilerOptions {
			merged[k] = v
		}
		for k, v := range f.CompilerOptions {
			merged[k] = v
		}
		f.CompilerOptions = merged

		if f.Files == nil {
			f.Files = base.Files
		}
		if f.Include == nil {
			f.Include = base.Include
		}
		if f.Exclude == nil {
			f.Exclude = base.Exclude
		}
		return f, nil
	}

	return load(path)
}

// resolveExtends maps an extends reference to a config file path. Relative
// and absolute references resolve against the extending file's directory;
// bare names resolve like node packages, walking node_modules upwards.
func resolveExtends(spec, dir string) (string, error) {
	if strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") || filepath.IsAbs(spec) {
		p := spec
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, p)
		}
		if found := probeConfig(p); found != "" {
			return found, nil
		}
		return "", fmt.Errorf("cannot resolve extends %q", spec)
	}

	for d := dir; ; {
		if found := probeConfig(filepath.Join(d, "node_modules", filepath.FromSlash(spec))); found != "" {
			return found, nil
		}
		parent := filepath.Dir(d)
		if parent == d {
			return "", fmt.Errorf("cannot resolve extends %q", spec)
		}
		d = parent
	}
}

func probeConfig(p string) string {
	if fi, err := os.Stat(p); err == nil {
		if !fi.IsDir() {
			return p
		}
		if q := filepath.Join(p, DefaultName); fileExists(q) {
			return q
		}
		return ""
	}
	if q := p + ".json"; fileExists(q) {
		return q
	}
	return ""
}

func fileExists(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && !fi.IsDir()
}

func stripComments(bs []byte) []byte {
	out := make([]byte, 0, len(bs))
	for i := 0; i < len(bs); {
		switch {
		case bs[i] == '"':
			i = copyString(bs, i, &out)
		case bs[i] == '/' && i+1 < len(bs) && bs[i+1] == '/':
			for i < len(bs) && bs[i] != '\n' {
				i++
			}
		case bs[i] == '/' && i+1 < len(bs) && bs[i+1] == '*':
			i += 2
			for i+1 < len(bs) && !(bs[i] == '*' && bs[i+1] == '/') {
				i++
			}
			i += 2
		default:
			out = append(out, bs[i])
			i++
		}
	}
	return out
}

func stripTrailingCommas(bs []byte) []byte {
	out := make([]byte, 0, len(bs))
	for i := 0; i < len(bs); {
		switch {
		case bs[i] == '"':
			i = copyString(bs, i, &out)
		case bs[i] == ',':
			j := i + 1
			for j < len(bs) && (bs[j] == ' ' || bs[j] == '\t' || bs[j] == '\r' || bs[j] == '\n') {
				j++
			}
			if j < len(bs) && (bs[j] == '}' || bs[j] == ']') {
				i++ // drop the comma, keep the whitespace
				continue
			}
			out = append(out, bs[i])
			i++
		default:
			out = append(out, bs[i])
			i++
		}
	}
	return out
}

// copyString copies the string literal starting at bs[i] (an opening quote)
// into out and returns the index just past the closing quote.
func copyString(bs []byte, i int, out *[]byte) int {
	*out = append(*out, bs[i])
	i++
	for i < len(bs) {
		*out = append(*out, bs[i])
		if bs[i] == '\\' && i+1 < len(bs) {
			*out = append(*out, bs[i+1])
			i += 2
			continue
		}
		if bs[i] == '"' {
			return i + 1
		}
		i++
	}
	return i
}
