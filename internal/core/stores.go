package core

// RecordEntry is one record file found by a tree scan.
// This mirrors storage.RecordEntry but is defined here to avoid the import.
type RecordEntry struct {
	ID   string
	Path string
}

// RecordFS is the filesystem surface the store needs.
// This interface is defined locally in core to avoid importing storage.
type RecordFS interface {
	ScanTree(root string, skipDirs ...string) ([]RecordEntry, error)
	Read(path string) ([]byte, error)
	WriteAtomic(path string, data []byte) error
	Move(oldPath, newPath string) error
	RemoveFile(path string) error
	RemoveTree(path string) error
	RemoveDirIfEmpty(path string) error
	RemoveEmptyDirs(root string, keep ...string) (int, error)
	EnsureDir(path string) error
	Exists(path string) bool
}
