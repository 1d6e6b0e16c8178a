// Package capabilitytest provides hand-written in-memory fakes for the
// capability interfaces, used across the engine's package tests so pipeline
// behaviour can be asserted without touching a real filesystem, S3 bucket,
// or credential store. Collected here because the same fakes are reused by
// several packages (importing, cloudsync, exporting, maintenance) rather
// than re-declared per package.
package capabilitytest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/arcadekeep/arcadekeep/internal/capability"
)

// FileSystem is an in-memory capability.FileSystemOps. Paths are opaque
// map keys; directories are implicit (CreateDirAll is a no-op and is not
// recorded).
type FileSystem struct {
	mu    sync.Mutex
	files map[string][]byte

	RemoveCalls []string
	CopyCalls   [][2]string
	MoveCalls   [][2]string

	RemoveErr error
	CopyErr   error
	MoveErr   error

	// FailOpenPaths maps a path to the error Open should return for it,
	// without removing the path from the fake (so ReadDir still lists it),
	// used to simulate a file vanishing or becoming unreadable between scan
	// and read.
	FailOpenPaths map[string]error
}

// NewFileSystem returns an empty in-memory filesystem fake.
func NewFileSystem() *FileSystem {
	return &FileSystem{files: make(map[string][]byte)}
}

// Put seeds the fake with file content, as if it had been written earlier.
func (f *FileSystem) Put(path string, content []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = append([]byte(nil), content...)
}

// Get returns the current content at path, or (nil, false) if absent.
func (f *FileSystem) Get(path string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.files[path]
	return b, ok
}

func (f *FileSystem) Exists(path string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.files[path]
	return ok, nil
}

func (f *FileSystem) Remove(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.RemoveCalls = append(f.RemoveCalls, path)

	if f.RemoveErr != nil {
		return f.RemoveErr
	}

	delete(f.files, path)

	return nil
}

func (f *FileSystem) Copy(src, dst string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CopyCalls = append(f.CopyCalls, [2]string{src, dst})

	if f.CopyErr != nil {
		return f.CopyErr
	}

	b, ok := f.files[src]
	if !ok {
		return fmt.Errorf("capabilitytest: copy: %s not found", src)
	}

	f.files[dst] = append([]byte(nil), b...)

	return nil
}

func (f *FileSystem) Move(src, dst string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.MoveCalls = append(f.MoveCalls, [2]string{src, dst})

	if f.MoveErr != nil {
		return f.MoveErr
	}

	b, ok := f.files[src]
	if !ok {
		return fmt.Errorf("capabilitytest: move: %s not found", src)
	}

	f.files[dst] = b
	delete(f.files, src)

	return nil
}

func (f *FileSystem) CreateDirAll(string) error { return nil }

func (f *FileSystem) Open(path string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err, ok := f.FailOpenPaths[path]; ok {
		return nil, err
	}

	b, ok := f.files[path]
	if !ok {
		return nil, fmt.Errorf("capabilitytest: open: %s not found", path)
	}

	return io.NopCloser(bytes.NewReader(b)), nil
}

type writeCloser struct {
	buf  *bytes.Buffer
	path string
	fs   *FileSystem
}

func (w *writeCloser) Write(p []byte) (int, error) { return w.buf.Write(p) }

func (w *writeCloser) Close() error {
	w.fs.Put(w.path, w.buf.Bytes())
	return nil
}

func (f *FileSystem) Create(path string) (io.WriteCloser, error) {
	return &writeCloser{buf: &bytes.Buffer{}, path: path, fs: f}, nil
}

// ReadDir lists the direct children of dir among the fake's seeded paths,
// treating "/" as the path separator regardless of host OS.
func (f *FileSystem) ReadDir(dir string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	prefix := strings.TrimSuffix(dir, "/") + "/"

	var children []string

	for p := range f.files {
		if !strings.HasPrefix(p, prefix) {
			continue
		}

		rest := strings.TrimPrefix(p, prefix)
		if rest == "" || strings.Contains(rest, "/") {
			continue
		}

		children = append(children, p)
	}

	return children, nil
}

var _ capability.FileSystemOps = (*FileSystem)(nil)

// CloudObject is one object held by the CloudStorage fake.
type CloudObject struct {
	Content []byte
}

// CloudStorage is an in-memory capability.CloudStorageOps that records every
// call so sync-pipeline tests can assert exact upload/delete/copy ordering,
// and supports injected per-key errors to exercise partial-failure paths.
type CloudStorage struct {
	mu      sync.Mutex
	objects map[string]CloudObject

	UploadCalls []string
	DeleteCalls []string
	CopyCalls   [][2]string

	// FailUploadKeys / FailDeleteKeys map a key to the error returned for
	// that specific operation, letting tests fail exactly one file among
	// several to exercise partial-success handling.
	FailUploadKeys map[string]error
	FailDeleteKeys map[string]error

	Connected bool
}

// NewCloudStorage returns an empty in-memory cloud storage fake.
func NewCloudStorage() *CloudStorage {
	return &CloudStorage{
		objects:        make(map[string]CloudObject),
		FailUploadKeys: make(map[string]error),
		FailDeleteKeys: make(map[string]error),
	}
}

func (c *CloudStorage) Connect(context.Context, string, string, string) error {
	c.Connected = true
	return nil
}

func (c *CloudStorage) Upload(_ context.Context, localPath, key string, progress capability.ProgressFunc) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.UploadCalls = append(c.UploadCalls, key)

	if err, ok := c.FailUploadKeys[key]; ok {
		return err
	}

	// localPath is read from the same in-memory FileSystem fake by callers
	// that construct one; this fake stores a content stand-in so Head/Copy
	// have something to report on.
	if progress != nil {
		progress(int64(len(localPath)))
	}

	c.objects[key] = CloudObject{Content: []byte(localPath)}

	return nil
}

// UploadContent lets a test seed cloud content directly, bypassing the
// localPath convention Upload uses.
func (c *CloudStorage) UploadContent(key string, content []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.objects[key] = CloudObject{Content: content}
}

// Download writes the object's bytes to localPath on the real filesystem.
// Unlike FileSystem, CloudStorageOps always addresses real disk paths (the
// production s3CloudStorage writes via os.Create), so this fake does too
// rather than going through the in-memory FileSystem fake.
func (c *CloudStorage) Download(_ context.Context, key, localPath string) error {
	c.mu.Lock()
	obj, ok := c.objects[key]
	c.mu.Unlock()

	if !ok {
		return &capability.CloudError{Kind: capability.CloudErrorObjectNotFound, Key: key}
	}

	return os.WriteFile(localPath, obj.Content, 0o600)
}

func (c *CloudStorage) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.DeleteCalls = append(c.DeleteCalls, key)

	if err, ok := c.FailDeleteKeys[key]; ok {
		return err
	}

	delete(c.objects, key)

	return nil
}

func (c *CloudStorage) Head(_ context.Context, key string) (capability.ObjectMetadata, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	obj, ok := c.objects[key]
	if !ok {
		return capability.ObjectMetadata{}, &capability.CloudError{Kind: capability.CloudErrorObjectNotFound, Key: key}
	}

	return capability.ObjectMetadata{ContentLength: int64(len(obj.Content))}, nil
}

func (c *CloudStorage) Copy(_ context.Context, srcKey, dstKey string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CopyCalls = append(c.CopyCalls, [2]string{srcKey, dstKey})

	obj, ok := c.objects[srcKey]
	if !ok {
		return &capability.CloudError{Kind: capability.CloudErrorObjectNotFound, Key: srcKey}
	}

	c.objects[dstKey] = obj

	return nil
}

// Has reports whether key currently exists in the fake bucket.
func (c *CloudStorage) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.objects[key]
	return ok
}

var _ capability.CloudStorageOps = (*CloudStorage)(nil)

// CredentialService is an in-memory capability.CredentialService.
type CredentialService struct {
	creds *capability.Credentials
}

func NewCredentialService(creds *capability.Credentials) *CredentialService {
	return &CredentialService{creds: creds}
}

func (c *CredentialService) Store(creds capability.Credentials) error {
	c.creds = &creds
	return nil
}

func (c *CredentialService) Load() (*capability.Credentials, error) { return c.creds, nil }

func (c *CredentialService) Delete() error {
	c.creds = nil
	return nil
}

var _ capability.CredentialService = (*CredentialService)(nil)

// ProcessRunner is an in-memory capability.ProcessRunner that records
// launches instead of spawning real subprocesses.
type ProcessRunner struct {
	Launches []LaunchCall
	Err      error
}

type LaunchCall struct {
	Executable string
	Args       []string
	WorkDir    string
}

func NewProcessRunner() *ProcessRunner { return &ProcessRunner{} }

func (p *ProcessRunner) Launch(executable string, args []string, workDir string) error {
	p.Launches = append(p.Launches, LaunchCall{Executable: executable, Args: args, WorkDir: workDir})
	return p.Err
}

var _ capability.ProcessRunner = (*ProcessRunner)(nil)

// DatParser is a fixture-backed capability.DatCatalogParser fake.
type DatParser struct {
	Result capability.DatFile
	Err    error
}

func (d *DatParser) Parse(io.Reader) (capability.DatFile, error) {
	return d.Result, d.Err
}

var _ capability.DatCatalogParser = (*DatParser)(nil)
