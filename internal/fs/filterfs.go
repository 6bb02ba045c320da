package fs

import (
	"io/fs"
	"path"
)

type filterFS struct {
	fsys   fs.FS
	filter *Filter
}

// NewFilterFS wraps fsys so that only regular files admitted by the
// included/excluded patterns are visible. Directories always remain
// visible so that walks can descend; files filtered out disappear from
// directory listings and fail to open with fs.ErrNotExist.
func NewFilterFS(fsys fs.FS, included, excluded []string) (fs.FS, error) {
	filter, err := NewFilter(included, excluded)
	if err != nil {
		return nil, err
	}
	return &filterFS{fsys: fsys, filter: filter}, nil
}

func (f *filterFS) Open(name string) (fs.File, error) {
	file, err := f.fsys.Open(name)
	if err != nil {
		return nil, err
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}

	if !info.IsDir() && !f.filter.Match(name) {
		file.Close()
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}

	return file, nil
}

func (f *filterFS) ReadDir(name string) ([]fs.DirEntry, error) {
	entries, err := fs.ReadDir(f.fsys, name)
	if err != nil {
		return nil, err
	}

	filtered := entries[:0]
	for _, entry := range entries {
		if entry.IsDir() || f.filter.Match(path.Join(name, entry.Name())) {
			filtered = append(filtered, entry)
		}
	}
	return filtered, nil
}
