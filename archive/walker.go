// Package archive finds HTML sources on disk and inside zip archives.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/h2non/filetype"
)

// WalkFunc is called by Walk for every file inside archive matching the
// prefix. Returned error stops the walk.
type WalkFunc func(archive string, file *zip.File) error

// Walk visits files of the archive whose names start with prefix. Archive
// with absolute entry names or names escaping the root is rejected as a
// whole.
func Walk(archive, prefix string, walkFn WalkFunc) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		name := f.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if f.FileInfo().IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}
		if err := walkFn(archive, f); err != nil {
			return err
		}
	}
	return nil
}

func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, `\`) {
		return false
	}
	for part := range strings.SplitSeq(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}

// IsArchive reports whether file at path is a zip archive judging by its
// content.
func IsArchive(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head := make([]byte, 262)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, err
	}
	return filetype.Is(head[:n], "zip"), nil
}

// openEntry opens single named file of the archive. Archive stays open until
// returned reader is closed.
func openEntry(archive, name string) (io.ReadCloser, error) {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return nil, err
	}
	for _, f := range r.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			r.Close()
			return nil, err
		}
		return &entryReader{ReadCloser: rc, arc: r}, nil
	}
	r.Close()
	return nil, fmt.Errorf("%s: %w", name, os.ErrNotExist)
}

type entryReader struct {
	io.ReadCloser
	arc *zip.ReadCloser
}

func (e *entryReader) Close() error {
	err := e.ReadCloser.Close()
	if er := e.arc.Close(); err == nil {
		err = er
	}
	return err
}
