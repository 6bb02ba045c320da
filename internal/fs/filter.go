package fs

import (
	"fmt"
	"path"
	"strings"

	"github.com/gobwas/glob"
)

// Filter decides whether a path takes part in a build, based on include and
// exclude glob patterns. Patterns are compiled once; Match is a pure
// function of the compiled patterns and safe for concurrent use.
//
// Patterns use '/' as the separator regardless of platform: `*` does not
// cross separators, `**` does. An empty include list admits every path.
// Exclusion wins over inclusion.
type Filter struct {
	include []glob.Glob
	exclude []glob.Glob
}

func NewFilter(include, exclude []string) (*Filter, error) {
	f := &Filter{}
	var err error
	if f.include, err = compilePatterns(include); err != nil {
		return nil, err
	}
	if f.exclude, err = compilePatterns(exclude); err != nil {
		return nil, err
	}
	return f, nil
}

func compilePatterns(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("failed to compile file pattern %q: %w", pattern, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

func (f *Filter) Match(p string) bool {
	p = normalize(p)

	for _, g := range f.exclude {
		if g.Match(p) {
			return false
		}
	}

	if len(f.include) == 0 {
		return true
	}
	for _, g := range f.include {
		if g.Match(p) {
			return true
		}
	}
	return false
}

// normalize converts a candidate path to the slash-separated, relative-ish
// shape the patterns are written against.
func normalize(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimPrefix(p, "./")
	return path.Clean(p)
}
