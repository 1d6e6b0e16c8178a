// Package capability defines the small interfaces the engine uses to reach
// outside itself: local filesystem, cloud object storage, credential
// persistence, external process launching, progress reporting, and DAT
// catalogue parsing. Every pipeline context holds these as shared handles
// rather than constructing them, so production code wires real adapters
// and tests wire fakes from capabilitytest.
package capability

import (
	"io"
	"os"
	"path/filepath"
)

// FileSystemOps is the local filesystem boundary. Production pipelines use
// osFileSystem; tests use capabilitytest.FileSystem.
type FileSystemOps interface {
	Exists(path string) (bool, error)
	Remove(path string) error
	Copy(src, dst string) error
	Move(src, dst string) error
	CreateDirAll(path string) error
	Open(path string) (io.ReadCloser, error)
	Create(path string) (io.WriteCloser, error)
	// ReadDir lists the regular files directly under path (not recursive,
	// no subdirectory entries), used by mass import to enumerate a source
	// directory's candidate files.
	ReadDir(path string) ([]string, error)
}

// osFileSystem is the production FileSystemOps backed by the real OS
// filesystem.
type osFileSystem struct{}

// NewOSFileSystem returns a FileSystemOps backed by the host filesystem.
func NewOSFileSystem() FileSystemOps { return osFileSystem{} }

func (osFileSystem) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}

	if os.IsNotExist(err) {
		return false, nil
	}

	return false, err
}

func (osFileSystem) Remove(path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}

	return err
}

func (osFileSystem) Copy(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}

	return out.Sync()
}

func (osFileSystem) Move(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	if err := os.Rename(src, dst); err != nil {
		// Cross-device rename fails on Linux with EXDEV; fall back to
		// copy-then-delete, the same strategy the migration pipeline
		// uses for moving cloud-backed files across type directories.
		if copyErr := osFileSystem{}.Copy(src, dst); copyErr != nil {
			return copyErr
		}

		return os.Remove(src)
	}

	return nil
}

func (osFileSystem) CreateDirAll(path string) error {
	return os.MkdirAll(path, 0o755)
}

func (osFileSystem) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

func (osFileSystem) Create(path string) (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	return os.Create(path)
}

func (osFileSystem) ReadDir(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(entries))

	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		paths = append(paths, filepath.Join(path, e.Name()))
	}

	return paths, nil
}
