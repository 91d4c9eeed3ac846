package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
)

// RecordEntry is one record file found by a tree scan.
type RecordEntry struct {
	// ID is the record's task id, taken from the filename.
	ID string
	// Path is the absolute path of the record file.
	Path string
}

// RecordFS is the low-level record IO layer. It moves bytes and paths;
// record semantics (decoding, layout, invariants) live above it.
type RecordFS interface {
	// ScanTree walks root and returns every record file, skipping
	// directories named in skipDirs. A missing root yields an empty
	// result, not an error.
	ScanTree(root string, skipDirs ...string) ([]RecordEntry, error)
	Read(path string) ([]byte, error)
	// WriteAtomic writes data so readers never observe a partial
	// record: temp file in the target directory, fsync, rename.
	WriteAtomic(path string, data []byte) error
	// Move renames a file or directory, creating the destination's
	// parent as needed.
	Move(oldPath, newPath string) error
	RemoveFile(path string) error
	RemoveTree(path string) error
	// RemoveDirIfEmpty removes a directory only when nothing is left
	// inside it. Non-empty and already-gone are both fine.
	RemoveDirIfEmpty(path string) error
	// RemoveEmptyDirs sweeps every empty directory under root, deepest
	// first, and reports how many it removed. root itself and
	// directories named in keep survive.
	RemoveEmptyDirs(root string, keep ...string) (int, error)
	EnsureDir(path string) error
	Exists(path string) bool
}

// fileRecordFS implements RecordFS against the local filesystem.
type fileRecordFS struct{}

// NewFileRecordFS creates the filesystem-backed RecordFS.
func NewFileRecordFS() RecordFS {
	return &fileRecordFS{}
}

const recordExt = ".md"

// ScanTree walks root collecting *.md files. Dotfiles, non-record
// files, and skipDirs subtrees are ignored.
func (r *fileRecordFS) ScanTree(root string, skipDirs ...string) ([]RecordEntry, error) {
	skip := make(map[string]bool, len(skipDirs))
	for _, d := range skipDirs {
		skip[d] = true
	}

	var entries []RecordEntry
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root && os.IsNotExist(err) {
				return filepath.SkipAll
			}
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && (skip[name] || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, recordExt) {
			return nil
		}
		entries = append(entries, RecordEntry{
			ID:   strings.TrimSuffix(name, recordExt),
			Path: path,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning record tree %s: %w", root, err)
	}
	return entries, nil
}

func (r *fileRecordFS) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading record %s: %w", path, err)
	}
	return data, nil
}

func (r *fileRecordFS) WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating record directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp file for %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("committing record %s: %w", path, err)
	}
	return nil
}

func (r *fileRecordFS) Move(oldPath, newPath string) error {
	if err := os.MkdirAll(filepath.Dir(newPath), 0o755); err != nil {
		return fmt.Errorf("creating destination directory for %s: %w", newPath, err)
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("moving %s to %s: %w", oldPath, newPath, err)
	}
	return nil
}

func (r *fileRecordFS) RemoveFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing record %s: %w", path, err)
	}
	return nil
}

func (r *fileRecordFS) RemoveTree(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("removing subtree %s: %w", path, err)
	}
	return nil
}

func (r *fileRecordFS) RemoveDirIfEmpty(path string) error {
	err := os.Remove(path)
	if err == nil || os.IsNotExist(err) {
		return nil
	}
	if errors.Is(err, syscall.ENOTEMPTY) || errors.Is(err, syscall.EEXIST) {
		return nil
	}
	return fmt.Errorf("removing directory %s: %w", path, err)
}

func (r *fileRecordFS) RemoveEmptyDirs(root string, keep ...string) (int, error) {
	kept := make(map[string]bool, len(keep))
	for _, k := range keep {
		kept[k] = true
	}

	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root && os.IsNotExist(err) {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() && path != root && !kept[d.Name()] {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("sweeping empty directories under %s: %w", root, err)
	}

	// Deepest first, so a chain of nested empty directories collapses
	// in one sweep.
	sort.Slice(dirs, func(i, j int) bool {
		return strings.Count(dirs[i], string(filepath.Separator)) > strings.Count(dirs[j], string(filepath.Separator))
	})

	removed := 0
	for _, dir := range dirs {
		if err := os.Remove(dir); err == nil {
			removed++
		}
	}
	return removed, nil
}

func (r *fileRecordFS) EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", path, err)
	}
	return nil
}

func (r *fileRecordFS) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
