package secret

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Provider resolves secrets by reference string.
//
// Implementations must be safe for concurrent use and must not log secret values.
type Provider interface {
	Name() string
	Resolve(ctx context.Context, ref string) (string, error)
}

// EnvProvider resolves a reference as an environment variable name.
type EnvProvider struct{}

func (EnvProvider) Name() string { return "env" }

func (EnvProvider) Resolve(_ context.Context, ref string) (string, error) {
	v, ok := os.LookupEnv(ref)
	if !ok {
		return "", fmt.Errorf("%w: env %s", ErrNotFound, ref)
	}
	return v, nil
}

// DefaultSecretsDir is where container runtimes mount secrets.
const DefaultSecretsDir = "/run/secrets"

// FileProvider resolves a reference as a file below Dir. Trailing newlines
// are trimmed.
type FileProvider struct {
	// Dir is the secrets directory. Default DefaultSecretsDir.
	Dir string
}

func (FileProvider) Name() string { return "file" }

func (p FileProvider) Resolve(ctx context.Context, ref string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dir := p.Dir
	if dir == "" {
		dir = DefaultSecretsDir
	}
	if !filepath.IsLocal(ref) {
		return "", fmt.Errorf("%w: file %q escapes %s", ErrInvalidRef, ref, dir)
	}

	data, err := os.ReadFile(filepath.Join(dir, ref))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: file %s", ErrNotFound, ref)
		}
		return "", fmt.Errorf("secret: read file %s: %w", ref, err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}
