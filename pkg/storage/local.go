package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Local stores course files on disk below a root directory. Returned
// locations are slash separated and relative to that root.
type Local struct {
	root   string
	prefix string
	logger zerolog.Logger
}

// NewLocal prepares the root directory and returns a disk storage.
func NewLocal(root, prefix string, logger zerolog.Logger) (*Local, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("storage directory must be provided")
	}
	prefix = strings.Trim(prefix, "/")
	if err := os.MkdirAll(filepath.Join(root, filepath.FromSlash(prefix)), 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	return &Local{
		root:   root,
		prefix: prefix,
		logger: logger.With().Str("component", "local_storage").Logger(),
	}, nil
}

// Root returns the directory served as static content.
func (l *Local) Root() string {
	return l.root
}

// Upload copies reader into a new file and returns its relative location.
// Partial files are removed when the copy fails.
func (l *Local) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	location := path.Join(l.prefix, uuid.NewString()+"-"+cleanName(name))
	target := filepath.Join(l.root, filepath.FromSlash(location))

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, reader); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("move file: %w", err)
	}

	l.logger.Debug().Str("location", location).Msg("file stored")
	return location, nil
}

// Delete removes a file previously returned by Upload. Missing files are ignored.
func (l *Local) Delete(_ context.Context, location string) error {
	clean := path.Clean("/" + location)
	if !strings.HasPrefix(clean, "/"+l.prefix+"/") {
		return fmt.Errorf("location %q is outside the storage area", location)
	}

	err := os.Remove(filepath.Join(l.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func cleanName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, base)
	base = strings.Trim(base, "-.")
	if base == "" {
		return "file"
	}
	if len(base) > 120 {
		base = base[len(base)-120:]
	}
	return base
}

// PublicURL turns a stored location into an absolute URL. Absolute locations
// are returned unchanged; relative ones are served under /storage of baseURL.
func PublicURL(baseURL, location string) string {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return location
	}
	return strings.TrimRight(baseURL, "/") + "/storage/" + strings.TrimLeft(location, "/")
}
