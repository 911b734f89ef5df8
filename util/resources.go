// util/resources.go
// Copyright(c) 2025 radiopanel contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// Unlike io.ReadCloser, the zstd Decoder's Close() method doesn't return
// an error, so we need our own ReadCloser interface.
type ResourceReadCloser interface {
	io.Reader
	Close()
}

type bytesReadCloser struct {
	*bytes.Reader
}

func (bytesReadCloser) Close() {}

// OpenResource returns a reader for the specified file in fsys; if the
// file has a .zst extension, the reader handles decompression
// transparently.
func OpenResource(fsys fs.FS, path string) (ResourceReadCloser, error) {
	b, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, err
	}
	br := bytesReadCloser{bytes.NewReader(b)}

	if filepath.Ext(path) == ".zst" {
		zr, err := zstd.NewReader(br, zstd.WithDecoderConcurrency(0))
		if err != nil {
			return nil, err
		}
		return zr, nil
	}

	return br, nil
}

// ReadResource returns the (decompressed) contents of the given file in fsys.
func ReadResource(fsys fs.FS, path string) ([]byte, error) {
	r, err := OpenResource(fsys, path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return io.ReadAll(r)
}

// ReadFile is ReadResource for a path in the host filesystem.
func ReadFile(path string) ([]byte, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return ReadResource(os.DirFS(filepath.Dir(abs)), filepath.Base(abs))
}
