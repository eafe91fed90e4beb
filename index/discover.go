package index

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/manx"
)

// maxWalkDepth bounds directory recursion below the root.
const maxWalkDepth = 10

// skipDirs are directory names never descended into.
var skipDirs = map[string]bool{
	"target":       true,
	".git":         true,
	"node_modules": true,
	"__pycache__":  true,
	".cache":       true,
	"dist":         true,
	"build":        true,
}

// FindDocuments returns the supported files under root, in lexical order.
// Symlinks are not followed, hidden files and files larger than maxSize
// bytes are skipped. A maxSize of zero disables the size check.
func FindDocuments(root string, maxSize int64) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, manx.Errorf(manx.ENOTFOUND, "directory does not exist: %s", root)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, manx.Errorf(manx.EINVALID, "path is not a directory: %s", root)
	}

	var docs []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped.
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			if skipDirs[d.Name()] || depth(root, path) > maxWalkDepth {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || depth(root, path) > maxWalkDepth {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") || !manx.IsSupportedFile(path) {
			return nil
		}
		if maxSize > 0 {
			fi, err := d.Info()
			if err != nil || fi.Size() > maxSize {
				return nil
			}
		}

		docs = append(docs, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// depth returns how many path components path lies below root.
func depth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(filepath.ToSlash(rel), "/") + 1
}
