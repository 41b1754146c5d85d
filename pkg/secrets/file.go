package secrets

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// FileConfig configures the "file" resolver.
type FileConfig struct {
	SecretsDir string `yaml:"secrets_dir" toml:"secrets_dir" json:"secrets_dir"`
}

// Validate checks that SecretsDir names an existing directory.
func (f FileConfig) Validate() error {
	if f.SecretsDir == "" {
		return errors.New("file resolver needs a secrets_dir")
	}

	info, err := os.Stat(f.SecretsDir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return errors.Errorf("secrets_dir %q does not exist", f.SecretsDir)
	case err != nil:
		return errors.Wrapf(err, "cannot stat secrets_dir %q", f.SecretsDir)
	case !info.IsDir():
		return errors.Errorf("secrets_dir %q is not a directory", f.SecretsDir)
	}
	return nil
}

func (f FileConfig) CreateClient() (*FileResolver, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return NewFileResolver(f.SecretsDir), nil
}

// FileResolver reads values from files in a directory, as mounted by Docker or
// Kubernetes secrets. Contents are trimmed of surrounding whitespace.
//
//	cert_path: ${file:docker_cert_path}
type FileResolver struct {
	dir string
}

func NewFileResolver(dir string) *FileResolver {
	return &FileResolver{dir: dir}
}

// Resolve reads the file named key below the secrets directory. Reads go through an
// os.Root, so neither ".." nor a symlink can leave the directory.
func (f *FileResolver) Resolve(key string) (string, error) {
	if f.dir == "" {
		return "", errors.New("file resolver has no secrets directory")
	}
	if key == "" {
		return "", errors.New("empty file secret key")
	}
	if filepath.IsAbs(key) {
		return "", errors.Errorf("file secret key %q must be relative", key)
	}
	if !filepath.IsLocal(key) {
		return "", errors.Errorf("file secret key %q escapes the secrets directory", key)
	}

	root, err := os.OpenRoot(f.dir)
	if err != nil {
		return "", errors.Wrapf(err, "cannot open secrets directory %q", f.dir)
	}
	defer func() { _ = root.Close() }()

	file, err := root.Open(key)
	if errors.Is(err, fs.ErrNotExist) {
		return "", errors.Errorf("secret %q not found", key)
	}
	if err != nil {
		return "", errors.Wrapf(err, "cannot open secret %q", key)
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", errors.Wrapf(err, "cannot read secret %q", key)
	}

	log.Debug().Str("dir", f.dir).Str("key", key).Msg("Secret read from file")
	return strings.TrimSpace(string(content)), nil
}

func (f *FileResolver) Name() string {
	return "File"
}
