// Package resolve implements node-style module resolution with the
// TypeScript conventions layered on top: typed extensions probe first,
// package.json "types" entries win over "main", and tsconfig baseUrl and
// paths mappings are honored.
package resolve

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Extensions lists the file extensions probed for extensionless imports, in
// priority order.
var Extensions = []string{".ts", ".tsx", ".d.ts", ".js", ".jsx"}

// Host abstracts the filesystem probes the resolver performs, so tests can
// resolve against a synthetic tree.
type Host interface {
	FileExists(path string) bool
	DirExists(path string) bool
	ReadFile(path string) ([]byte, error)
}

type osHost struct{}

func (osHost) FileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

func (osHost) DirExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.IsDir()
}

func (osHost) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// OSHost resolves against the real filesystem.
var OSHost Host = osHost{}

// Options carries the resolution-affecting compiler options.
type Options struct {
	// BaseDir anchors BaseURL and Paths, normally the directory holding the
	// project config. Empty means the current working directory.
	BaseDir string

	BaseURL string
	Paths   map[string][]string
}

type Resolver struct {
	host Host
}

func New() *Resolver {
	return &Resolver{host: OSHost}
}

func (r *Resolver) WithHost(host Host) *Resolver {
	r.host = host
	return r
}

// Resolve resolves an import specifier against the importing file. It
// returns the empty string when the specifier does not resolve; resolution
// failures are misses, never errors.
func (r *Resolver) Resolve(importee, importer string, opts Options) string {
	switch {
	case importee == "":
		return ""
	case strings.HasPrefix(importee, "./"), strings.HasPrefix(importee, "../"):
		return r.loadFileOrDir(filepath.Join(filepath.Dir(importer), importee))
	case filepath.IsAbs(importee):
		return r.loadFileOrDir(importee)
	}

	if found := r.matchPaths(importee, opts); found != "" {
		return found
	}
	if found := r.loadNodeModules(importee, filepath.Dir(importer)); found != "" {
		return found
	}
	if opts.BaseURL != "" {
		return r.loadFileOrDir(filepath.Join(opts.BaseDir, opts.BaseURL, importee))
	}
	return ""
}

// loadFileOrDir probes path as a file first: an exact hit wins, then the
// typed extensions. A directory is consulted last, so "./util" prefers
// util.ts over util/.
func (r *Resolver) loadFileOrDir(path string) string {
	if found := r.loadFile(path); found != "" {
		return found
	}
	if r.host.DirExists(path) {
		return r.loadDir(path)
	}
	return ""
}

func (r *Resolver) loadFile(path string) string {
	if r.host.FileExists(path) {
		return path
	}
	for _, ext := range Extensions {
		if r.host.FileExists(path + ext) {
			return path + ext
		}
	}
	return ""
}

// loadDir resolves a directory import through its package.json entry
// points, preferring typed entries the way the compiler does, and falls
// back to an index file.
func (r *Resolver) loadDir(dir string) string {
	if bs, err := r.host.ReadFile(filepath.Join(dir, "package.json")); err == nil {
		var pkg struct {
			Types   string `json:"types"`
			Typings string `json:"typings"`
			Module  string `json:"module"`
			Main    string `json:"main"`
		}
		if err := json.Unmarshal(bs, &pkg); err == nil {
			for _, entry := range []string{pkg.Types, pkg.Typings, pkg.Module, pkg.Main} {
				if entry == "" {
					continue
				}
				if found := r.loadFileOrDir(filepath.Join(dir, entry)); found != "" {
					return found
				}
			}
		}
	}
	return r.loadFile(filepath.Join(dir, "index"))
}

// loadNodeModules walks node_modules directories upwards from the importing
// file's directory.
func (r *Resolver) loadNodeModules(name, dir string) string {
	for {
		if found := r.loadFileOrDir(filepath.Join(dir, "node_modules", name)); found != "" {
			return found
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// matchPaths applies the tsconfig paths mapping. The pattern with the
// longest literal prefix wins; its substitutions are tried in order.
func (r *Resolver) matchPaths(importee string, opts Options) string {
	if len(opts.Paths) == 0 {
		return ""
	}

	patterns := make([]string, 0, len(opts.Paths))
	for pattern := range opts.Paths {
		patterns = append(patterns, pattern)
	}
	sort.Slice(patterns, func(i, j int) bool {
		return prefixLen(patterns[i]) > prefixLen(patterns[j])
	})

	root := filepath.Join(opts.BaseDir, opts.BaseURL)
	for _, pattern := range patterns {
		star, ok := matchStar(pattern, importee)
		if !ok {
			continue
		}
		for _, subst := range opts.Paths[pattern] {
			candidate := strings.Replace(subst, "*", star, 1)
			if found := r.loadFileOrDir(filepath.Join(root, candidate)); found != "" {
				return found
			}
		}
	}
	return ""
}

func matchStar(pattern, name string) (string, bool) {
	i := strings.IndexByte(pattern, '*')
	if i < 0 {
		return "", name == pattern
	}
	prefix, suffix := pattern[:i], pattern[i+1:]
	if len(name) < len(prefix)+len(suffix) ||
		!strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
		return "", false
	}
	return name[len(prefix) : len(name)-len(suffix)], true
}

func prefixLen(pattern string) int {
	if i := strings.IndexByte(pattern, '*'); i >= 0 {
		return i
	}
	return len(pattern)
}
