package util

import (
	"io/fs"

	"github.com/tsbridge/tsbridge/internal/logging"
)

type TraceFS struct {
	fsys fs.FS
	log  *logging.Logger
}

func NewTraceFS(fsys fs.FS, log *logging.Logger) fs.FS {
	return &TraceFS{fsys: fsys, log: log}
}

func (t *TraceFS) Open(p string) (fs.File, error) {
	f, err := t.fsys.Open(p)
	if err != nil {
		t.log.Debugf("Open(%s) => %v, %v", p, f, err)
	} else {
		fi, _ := f.Stat()
		if !fi.IsDir() {
			t.log.Debugf("Open(%s) => %v size=%d", p, fi.Name(), fi.Size())
		} else {
			t.log.Debugf("Open(%s) => %v dir", p, fi.Name())
		}
	}
	return f, err
}
