// Copyright (C) 2025 Dyne.org foundation
// designed, written and maintained by Denis Roio <jaromil@dyne.org>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package paths confines file names supplied by the model to a workspace root.
//
// Every name is resolved lexically first and then against the real filesystem, so
// both "../" traversal and symlinks pointing outside the root are rejected. The
// root itself counts as inside.
package paths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	apperrors "quill/internal/errors"
)

// MaxPathLength bounds the length of a requested name.
const MaxPathLength = 4096

var (
	// ErrInvalidPath reports a name that cannot be a path at all.
	ErrInvalidPath = errors.New("invalid path")

	// ErrOutsideWorkspace reports a name that resolves outside the workspace root.
	ErrOutsideWorkspace = errors.New("path escapes workspace")
)

// Sandbox resolves relative names against a canonical workspace root.
type Sandbox struct {
	root string
}

// NewSandbox creates dir if needed and returns a sandbox rooted at its canonical path.
func NewSandbox(dir string) (*Sandbox, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("%w: workspace directory is empty", ErrInvalidPath)
	}
	abs, err := filepath.Abs(ExpandHome(dir))
	if err != nil {
		return nil, fmt.Errorf("invalid workspace directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create workspace %s: %w", abs, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace %s: %w", abs, err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to stat workspace %s: %w", resolved, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace %s is not a directory", resolved)
	}
	return &Sandbox{root: resolved}, nil
}

// Root returns the canonical workspace root.
func (s *Sandbox) Root() string {
	return s.root
}

// Resolve maps a requested name to an absolute path inside the root.
// It never touches anything but metadata, and returns a sandbox-coded error on rejection.
func (s *Sandbox) Resolve(name string) (string, error) {
	if err := ValidatePathString(name, MaxPathLength); err != nil {
		return "", reject(name, fmt.Errorf("%w: %v", ErrInvalidPath, err))
	}
	if filepath.IsAbs(name) || filepath.VolumeName(name) != "" {
		return "", reject(name, fmt.Errorf("%w: absolute paths are not allowed", ErrOutsideWorkspace))
	}

	joined := filepath.Join(s.root, name)
	if !HasPathPrefix(joined, s.root) {
		return "", reject(name, ErrOutsideWorkspace)
	}

	canonical, err := canonicalize(joined)
	if err != nil {
		return "", reject(name, fmt.Errorf("%w: %v", ErrInvalidPath, err))
	}
	if !HasPathPrefix(canonical, s.root) {
		return "", reject(name, ErrOutsideWorkspace)
	}
	return canonical, nil
}

// Contains reports whether an absolute path is the root or below it.
func (s *Sandbox) Contains(path string) bool {
	return HasPathPrefix(path, s.root)
}

// Rel renders an absolute path below the root as a slash-separated relative name.
func (s *Sandbox) Rel(path string) (string, error) {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

func reject(name string, err error) error {
	return apperrors.Wrap(apperrors.CodeSandbox, fmt.Sprintf("path %q rejected", name), err)
}

// canonicalize evaluates symlinks on the deepest existing ancestor of path and
// re-appends the components that do not exist yet.
func canonicalize(path string) (string, error) {
	existing := path
	var missing []string
	for {
		_, err := os.Lstat(existing)
		if err == nil {
			break
		}
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to stat path: %v", err)
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			break
		}
		missing = append(missing, filepath.Base(existing))
		existing = parent
	}

	resolved, err := filepath.EvalSymlinks(existing)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %v", err)
	}
	for i := len(missing) - 1; i >= 0; i-- {
		resolved = filepath.Join(resolved, missing[i])
	}
	return resolved, nil
}

// ValidatePathString validates raw path input before resolution.
func ValidatePathString(path string, maxLen int) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if strings.IndexByte(path, 0) != -1 {
		return fmt.Errorf("path contains null byte")
	}
	if !utf8.ValidString(path) {
		return fmt.Errorf("path is not valid UTF-8")
	}
	if maxLen > 0 && len(path) > maxLen {
		return fmt.Errorf("path exceeds maximum length of %d characters", maxLen)
	}
	return nil
}

// HasPathPrefix returns true when path is within base.
// Comparison is per component, so "/work2" is not within "/work".
func HasPathPrefix(path, base string) bool {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, ".."+string(os.PathSeparator)) && rel != "..")
}

// ExpandHome replaces a leading "~/" or a bare "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}
