package fsutil

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// FaultyFileSystem wraps a FileSystem and fails selected operations.
// Fail is consulted with the operation name ("open", "create", "mkdir",
// "write") and the cleaned path; a non-nil result is returned in place of
// the real call.
type FaultyFileSystem struct {
	FileSystem
	Fail func(op, path string) error
}

func (f FaultyFileSystem) check(op, path string) error {
	if f.Fail == nil {
		return nil
	}
	if err := f.Fail(op, filepath.Clean(path)); err != nil {
		return &fs.PathError{Op: op, Path: path, Err: err}
	}
	return nil
}

// Open implements FileSystem.
func (f FaultyFileSystem) Open(name string) (fs.File, error) {
	if err := f.check("open", name); err != nil {
		return nil, err
	}
	return f.FileSystem.Open(name)
}

// Create implements FileSystem. A "write" fault lets the file open and
// fails its first Write instead.
func (f FaultyFileSystem) Create(name string) (io.WriteCloser, error) {
	if err := f.check("create", name); err != nil {
		return nil, err
	}
	w, err := f.FileSystem.Create(name)
	if err != nil {
		return nil, err
	}
	if werr := f.check("write", name); werr != nil {
		return failingWriter{WriteCloser: w, err: werr}, nil
	}
	return w, nil
}

// MkdirAll implements FileSystem.
func (f FaultyFileSystem) MkdirAll(path string, perm os.FileMode) error {
	if err := f.check("mkdir", path); err != nil {
		return err
	}
	return f.FileSystem.MkdirAll(path, perm)
}

type failingWriter struct {
	io.WriteCloser
	err error
}

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }
