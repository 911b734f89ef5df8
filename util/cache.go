// util/cache.go
// Copyright(c) 2025 radiopanel contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"compress/flate"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Cached objects live under the user's cache directory, grouped into
// subdirectories by the leading element of their path (e.g. "airports").
func cachePath(path string) (string, error) {
	cd, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cd, "radiopanel", path), nil
}

// CacheStoreObject msgpack-encodes obj, flate compressed, at path. The
// object is written to a temporary file that then replaces any previous
// version so that concurrent readers never see a partial object.
func CacheStoreObject(path string, obj any) error {
	path, err := cachePath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()

	fw, err := flate.NewWriter(f, flate.BestSpeed)
	if err == nil {
		err = msgpack.NewEncoder(fw).Encode(obj)
	}
	if err == nil {
		err = fw.Close()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp, path)
	}
	if err != nil {
		os.Remove(tmp)
	}
	return err
}

// CacheRetrieveObject decodes an object stored with CacheStoreObject into
// obj. Retrieval counts as a use of the object for CacheCullObjects.
func CacheRetrieveObject(path string, obj any) error {
	path, err := cachePath(path)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	fr := flate.NewReader(f)
	defer fr.Close()
	if err := msgpack.NewDecoder(fr).Decode(obj); err != nil {
		return err
	}

	now := time.Now()
	return os.Chtimes(path, now, now)
}

// CacheCullObjects removes the objects in the cache subdirectory dir that
// have not been stored or retrieved within maxAge, returning how many
// were removed. A missing directory is not an error.
func CacheCullObjects(dir string, maxAge time.Duration) (int, error) {
	root, err := cachePath(dir)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if !info.ModTime().After(cutoff) && os.Remove(path) == nil {
			removed++
		}
		return nil
	})
	return removed, err
}
