package capability

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Credentials is an S3 access-key pair.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
}

// CredentialService resolves and persists S3 credentials. Production
// resolution order is OS credential store (the file-backed cache below)
// then environment variables; Load returning (nil, nil) is not an error,
// it means no credentials are configured anywhere.
type CredentialService interface {
	Store(creds Credentials) error
	Load() (*Credentials, error)
	Delete() error
}

// credentialFilePerms restricts the cache file to owner-only read/write;
// credentials are secrets and must never be group- or world-readable.
const credentialFilePerms = 0o600

// credentialDirPerms is used when creating the cache file's parent
// directory.
const credentialDirPerms = 0o700

// fileCredentialService is the production CredentialService: a single
// JSON file under the collection's config directory, written atomically
// (temp file + rename) and chmod 0600.
type fileCredentialService struct {
	path string
}

// NewFileCredentialService returns a CredentialService backed by a JSON
// file at path.
func NewFileCredentialService(path string) CredentialService {
	return &fileCredentialService{path: path}
}

func (f *fileCredentialService) Store(creds Credentials) error {
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("credentials: encoding: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, credentialDirPerms); err != nil {
		return fmt.Errorf("credentials: creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*.tmp")
	if err != nil {
		return fmt.Errorf("credentials: creating temp file: %w", err)
	}

	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := os.Chmod(tmpPath, credentialFilePerms); err != nil {
		tmp.Close()
		return fmt.Errorf("credentials: setting permissions: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("credentials: writing: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("credentials: syncing: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("credentials: closing: %w", err)
	}

	if err := os.Rename(tmpPath, f.path); err != nil {
		return fmt.Errorf("credentials: renaming: %w", err)
	}

	success = true

	return nil
}

func (f *fileCredentialService) Load() (*Credentials, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil //nolint:nilnil // sentinel for "not configured"
	}

	if err != nil {
		return nil, fmt.Errorf("credentials: reading %s: %w", f.path, err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("credentials: decoding %s: %w", f.path, err)
	}

	return &creds, nil
}

func (f *fileCredentialService) Delete() error {
	err := os.Remove(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return err
}

// LoadCredentialsForSync resolves credentials via the OS-store tier (svc)
// falling back to environment variables. Returns (nil, nil) when neither
// tier has credentials; the sync pipeline treats that as a ConfigError,
// never a panic or a silent skip.
func LoadCredentialsForSync(svc CredentialService, getenv func(string) string) (*Credentials, error) {
	creds, err := svc.Load()
	if err != nil {
		return nil, err
	}

	if creds != nil {
		return creds, nil
	}

	accessKey := getenv("AWS_ACCESS_KEY_ID")
	secretKey := getenv("AWS_SECRET_ACCESS_KEY")

	if accessKey == "" || secretKey == "" {
		return nil, nil //nolint:nilnil // sentinel for "not configured"
	}

	return &Credentials{AccessKeyID: accessKey, SecretAccessKey: secretKey}, nil
}
