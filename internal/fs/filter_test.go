package fs_test

import (
	"io/fs"
	"slices"
	"testing"

	tsb_fs "github.com/tsbridge/tsbridge/internal/fs"
	"github.com/tsbridge/tsbridge/internal/util"
)

func TestFilterMatch(t *testing.T) {
	cases := []struct {
		note    string
		include []string
		exclude []string
		path    string
		exp     bool
	}{
		{
			note:    "include at root",
			include: []string{"*.ts", "**/*.ts"},
			path:    "main.ts",
			exp:     true,
		},
		{
			note:    "include at depth",
			include: []string{"*.ts", "**/*.ts"},
			path:    "src/lib/util.ts",
			exp:     true,
		},
		{
			note:    "include absolute path",
			include: []string{"*.ts", "**/*.ts"},
			path:    "/home/project/src/main.ts",
			exp:     true,
		},
		{
			note:    "backslash separators",
			include: []string{"*.ts", "**/*.ts"},
			path:    `src\main.ts`,
			exp:     true,
		},
		{
			note:    "unmatched suffix",
			include: []string{"*.ts", "**/*.ts"},
			path:    "src/main.js",
			exp:     false,
		},
		{
			note:    "exclusion wins over inclusion",
			include: []string{"*.ts", "**/*.ts"},
			exclude: []string{"*.d.ts", "**/*.d.ts"},
			path:    "src/types.d.ts",
			exp:     false,
		},
		{
			note:    "empty include admits everything",
			exclude: []string{"**/*.md"},
			path:    "src/anything.js",
			exp:     true,
		},
		{
			note:    "empty include still honors exclusion",
			exclude: []string{"**/*.md"},
			path:    "docs/readme.md",
			exp:     false,
		},
		{
			note:    "leading dot-slash is ignored",
			include: []string{"*.ts", "**/*.ts"},
			path:    "./main.ts",
			exp:     true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.note, func(t *testing.T) {
			f, err := tsb_fs.NewFilter(tc.include, tc.exclude)
			if err != nil {
				t.Fatal(err)
			}
			if act := f.Match(tc.path); act != tc.exp {
				t.Fatalf("Match(%q): expected %v, got %v", tc.path, tc.exp, act)
			}
			// Same configuration, same path, same answer.
			if again := f.Match(tc.path); again != tc.exp {
				t.Fatalf("Match(%q) is not stable: got %v after %v", tc.path, again, tc.exp)
			}
		})
	}
}

func TestFilterBadPattern(t *testing.T) {
	if _, err := tsb_fs.NewFilter([]string{"["}, nil); err == nil {
		t.Fatal("expected compile error for malformed pattern")
	}
	if _, err := tsb_fs.NewFilter(nil, []string{"["}); err == nil {
		t.Fatal("expected compile error for malformed exclude pattern")
	}
}

func TestFilterFS(t *testing.T) {
	fsys := util.MapFS(map[string]string{
		"src/main.ts":     "export {};",
		"src/types.d.ts":  "declare const x: number;",
		"src/helper.tsx":  "export {};",
		"src/notes.md":    "notes",
		"vendor/dep.ts":   "export {};",
		"vendor/extra.js": "module.exports = {};",
	})

	filtered, err := tsb_fs.NewFilterFS(fsys, []string{"**/*.ts", "**/*.tsx"}, []string{"**/*.d.ts"})
	if err != nil {
		t.Fatal(err)
	}

	var paths []string
	if err := fs.WalkDir(filtered, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			paths = append(paths, p)
		}
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	exp := []string{"src/helper.tsx", "src/main.ts", "vendor/dep.ts"}
	slices.Sort(paths)
	if !slices.Equal(paths, exp) {
		t.Fatalf("expected %v, got %v", exp, paths)
	}

	if _, err := filtered.Open("src/notes.md"); err == nil {
		t.Fatal("expected filtered file to fail to open")
	}
	if _, err := filtered.Open("src/main.ts"); err != nil {
		t.Fatalf("expected admitted file to open, got %v", err)
	}
}

func TestFSContainsFiles(t *testing.T) {
	fsys := util.MapFS(map[string]string{"a/b.ts": "export {};"})

	ok, err := tsb_fs.FSContainsFiles(fsys)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected files to be found")
	}

	empty, err := tsb_fs.NewFilterFS(fsys, []string{"**/*.js"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	ok, err = tsb_fs.FSContainsFiles(empty)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected no files after filtering")
	}
}
