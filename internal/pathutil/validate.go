// Package pathutil confines user-supplied output paths to verdant's data
// directories.
package pathutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// dataDir mirrors store.DirName without importing the store package.
const dataDir = ".verdant"

// Subdirectories of the data dir that file-writing commands may target.
const (
	BackupsDir = "backups"
	ExportsDir = "exports"
)

// ErrOutside is returned for paths that escape every allowed directory.
var ErrOutside = errors.New("outside allowed directories")

// Sandbox is a set of directories that output files must stay within.
// Directories are compared after symlink resolution.
type Sandbox struct {
	roots []string
}

// NewSandbox resolves dirs once. Directories that cannot be made absolute
// are dropped.
func NewSandbox(dirs ...string) Sandbox {
	var s Sandbox
	for _, d := range dirs {
		abs, err := filepath.Abs(d)
		if err != nil {
			continue
		}
		if resolved, err := resolve(abs); err == nil {
			s.roots = append(s.roots, resolved)
		}
	}
	return s
}

// Check reports whether path, once cleaned and with symlinks in its
// existing ancestors resolved, lies within one of the sandbox roots.
func (s Sandbox) Check(path string) error {
	switch {
	case path == "":
		return fmt.Errorf("path validation failed: path is empty")
	case strings.ContainsRune(path, 0):
		return fmt.Errorf("path validation failed: path contains null byte")
	case len(s.roots) == 0:
		return fmt.Errorf("path validation failed: no allowed directories configured")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("path validation failed: %w", err)
	}
	// The file itself may not exist yet; resolve its directory.
	dir, err := resolve(filepath.Dir(abs))
	if err != nil {
		return fmt.Errorf("path validation failed: %w", err)
	}
	target := filepath.Join(dir, filepath.Base(abs))

	for _, root := range s.roots {
		if within(target, root) {
			return nil
		}
	}
	return fmt.Errorf("path validation failed: %q is %w", RedactPath(abs), ErrOutside)
}

// ValidatePath checks path against allowedDirs.
func ValidatePath(path string, allowedDirs []string) error {
	return NewSandbox(allowedDirs...).Check(path)
}

// resolve evaluates symlinks on the deepest existing ancestor of p and
// re-appends the missing tail.
func resolve(p string) (string, error) {
	var tail []string
	for {
		resolved, err := filepath.EvalSymlinks(p)
		if err == nil {
			for i := len(tail) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, tail[i])
			}
			return resolved, nil
		}
		parent := filepath.Dir(p)
		if parent == p {
			return "", fmt.Errorf("cannot resolve %s", RedactPath(p))
		}
		tail = append(tail, filepath.Base(p))
		p = parent
	}
}

// within reports whether path is root or below it.
func within(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// RedactPath keeps only the last two elements of path, for error messages.
func RedactPath(path string) string {
	if path == "" {
		return ""
	}
	clean := filepath.Clean(path)
	parent := filepath.Base(filepath.Dir(clean))
	if parent == "." || parent == string(filepath.Separator) {
		return filepath.Base(clean)
	}
	return ".../" + parent + "/" + filepath.Base(clean)
}

// AllowedDirs returns ~/.verdant/<sub> and, when projectRoot is set,
// <projectRoot>/.verdant/<sub>.
func AllowedDirs(projectRoot, sub string) ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	dirs := []string{filepath.Join(home, dataDir, sub)}
	if projectRoot != "" {
		dirs = append(dirs, filepath.Join(projectRoot, dataDir, sub))
	}
	return dirs, nil
}

func validateUnder(path, projectRoot, sub string) error {
	dirs, err := AllowedDirs(projectRoot, sub)
	if err != nil {
		return err
	}
	return ValidatePath(path, dirs)
}

// ValidateBackupPath checks that path lies in a backups directory.
func ValidateBackupPath(path, projectRoot string) error {
	return validateUnder(path, projectRoot, BackupsDir)
}

// ValidateExportPath checks that path lies in an exports directory.
func ValidateExportPath(path, projectRoot string) error {
	return validateUnder(path, projectRoot, ExportsDir)
}
