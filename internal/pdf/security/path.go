package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// PathValidator confines file access to a set of workspace directories
type PathValidator struct {
	directories []string
}

// NewPathValidator creates a validator for the given directories. At least
// one directory is required; the first one is the default for relative
// paths.
func NewPathValidator(directories ...string) (*PathValidator, error) {
	if len(directories) == 0 {
		return nil, fmt.Errorf("configured directory cannot be empty")
	}
	clean := make([]string, 0, len(directories))
	for _, d := range directories {
		if d == "" {
			return nil, fmt.Errorf("configured directory cannot be empty")
		}
		abs, err := filepath.Abs(d)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve directory %s: %w", d, err)
		}
		clean = append(clean, filepath.Clean(abs))
	}
	return &PathValidator{directories: clean}, nil
}

// ValidatePath checks if a path is within one of the configured directories
func (v *PathValidator) ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if strings.ContainsRune(path, 0) {
		return fmt.Errorf("path contains a null byte")
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	for _, dir := range v.directories {
		if isWithin(absPath, dir) {
			return nil
		}
	}
	return fmt.Errorf("path is outside configured directory: %s", path)
}

// isWithin checks path against dir both lexically and after resolving
// symlinks, so a link inside dir cannot point outside it
func isWithin(path, dir string) bool {
	cleanPath := filepath.Clean(path)

	realDir := dir
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		realDir = resolved
	}

	realPath := cleanPath
	if resolved, err := filepath.EvalSymlinks(cleanPath); err == nil {
		realPath = resolved
	} else if parent, err := filepath.EvalSymlinks(filepath.Dir(cleanPath)); err == nil {
		// the file does not exist yet, resolve its directory instead
		realPath = filepath.Join(parent, filepath.Base(cleanPath))
	}

	pathOk := hasDirPrefix(cleanPath, dir) || hasDirPrefix(cleanPath, realDir)
	realPathOk := hasDirPrefix(realPath, dir) || hasDirPrefix(realPath, realDir)
	return pathOk && realPathOk
}

func hasDirPrefix(path, dir string) bool {
	if path == dir {
		return true
	}
	if !strings.HasSuffix(dir, string(filepath.Separator)) {
		dir += string(filepath.Separator)
	}
	return strings.HasPrefix(path, dir)
}

// Directories returns the configured directories
func (v *PathValidator) Directories() []string {
	return append([]string(nil), v.directories...)
}

// NormalizePath returns an absolute path inside the configured directories.
// Relative paths are resolved against the first directory.
func (v *PathValidator) NormalizePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(v.directories[0], path)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	if err := v.ValidatePath(absPath); err != nil {
		return "", err
	}
	return absPath, nil
}

// ResolveName joins a bare file name onto dir, which must be one of the
// configured directories. Names carrying any path component are rejected.
func (v *PathValidator) ResolveName(dir, name string) (string, error) {
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return "", fmt.Errorf("file name must not contain path separators: %q", name)
	}
	path := filepath.Join(dir, name)
	if err := v.ValidatePath(path); err != nil {
		return "", err
	}
	return path, nil
}

// SanitizeFilename reduces an uploaded file name to a safe base name made of
// letters, digits, '.', '-' and '_'. Spaces become underscores and leading
// dots are dropped. An empty result yields "".
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	if name == "." || name == "/" {
		return ""
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsSpace(r):
			b.WriteRune('_')
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		}
	}

	out := strings.TrimLeft(b.String(), "._")
	out = strings.ReplaceAll(out, "..", "_")
	return out
}

// EnsureDirectory creates dir with owner-only group access if missing
func EnsureDirectory(dir string) error {
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("path is not a directory: %s", dir)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("cannot access directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
