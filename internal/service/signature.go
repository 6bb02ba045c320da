package service

import (
	"fmt"
	"io/fs"

	"github.com/cespare/xxhash/v2"
)

// treeSignature hashes the name, size and modification time of every file in
// the filesystem into a single value. Workers compare signatures between runs
// to skip rebuilds when nothing changed. WalkDir visits files in lexical
// order, so the signature is deterministic.
func treeSignature(fsys fs.FS) (uint64, error) {
	d := xxhash.New()

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(d, "%s|%d|%d;", path, info.Size(), info.ModTime().UnixNano())
		return nil
	})
	if err != nil {
		return 0, err
	}

	return d.Sum64(), nil
}
