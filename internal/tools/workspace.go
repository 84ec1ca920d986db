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

package tools

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	apperrors "quill/internal/errors"
	"quill/internal/paths"
)

const (
	defaultListPattern = "*"
	timestampLayout    = "2006-01-02 15:04:05"
)

// Workspace runs the file operations. Every name goes through the sandbox
// before any filesystem access, and every failure comes back as an error
// whose user message starts with "Error:".
type Workspace struct {
	sandbox *paths.Sandbox
	limits  Limits
	logger  zerolog.Logger
}

// NewWorkspace creates a workspace over an existing sandbox.
func NewWorkspace(sandbox *paths.Sandbox, limits Limits, logger zerolog.Logger) *Workspace {
	return &Workspace{
		sandbox: sandbox,
		limits:  normalizeLimits(limits),
		logger:  logger,
	}
}

// Root returns the canonical workspace root.
func (w *Workspace) Root() string {
	return w.sandbox.Root()
}

func (w *Workspace) resolve(name string) (string, error) {
	path, err := w.sandbox.Resolve(name)
	if err != nil {
		w.logger.Warn().Str("path", name).Err(err).Msg("Sandbox rejected path")
		return "", invalidPathError(name, err)
	}
	return path, nil
}

// ReadFile returns the content of a text file, truncated to Limits.ReadMaxChars.
func (w *Workspace) ReadFile(ctx context.Context, arg string) (string, error) {
	name := strings.TrimSpace(arg)
	path, err := w.resolve(name)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", NewToolExecutionError("read", name, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", notFoundError(name, err)
		}
		return "", NewToolExecutionError("read", name, err)
	}
	if info.IsDir() {
		return "", directoryError(name)
	}

	data, cut, err := readPrefix(path, int64(w.limits.ReadMaxChars)*utf8.UTFMax+1)
	if err != nil {
		return "", NewToolExecutionError("read", name, err)
	}
	if !utf8.Valid(data) {
		return "", NewToolExecutionError("read", name, ErrNotText)
	}

	content, truncated := truncateString(string(data), w.limits.ReadMaxChars)
	truncated = truncated || cut
	if truncated {
		content += fmt.Sprintf("\n... [truncated to %d characters]", w.limits.ReadMaxChars)
	}
	return content, nil
}

// readPrefix reads at most limit bytes. When the file is longer, cut is true
// and a rune split by the limit is dropped.
func readPrefix(path string, limit int64) (data []byte, cut bool, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, false, err
	}
	defer file.Close()

	data, err = io.ReadAll(io.LimitReader(file, limit))
	if err != nil {
		return nil, false, err
	}
	if int64(len(data)) < limit {
		return data, false, nil
	}
	var next [1]byte
	if n, _ := file.Read(next[:]); n == 0 {
		return data, false, nil
	}
	return trimPartialRune(data), true, nil
}

func trimPartialRune(data []byte) []byte {
	for i := 0; i < utf8.UTFMax-1 && len(data) > 0; i++ {
		if r, size := utf8.DecodeLastRune(data); r != utf8.RuneError || size != 1 {
			return data
		}
		data = data[:len(data)-1]
	}
	return data
}

// WriteFile creates or overwrites a file from a "filename|content" argument,
// creating parent directories as needed.
func (w *Workspace) WriteFile(ctx context.Context, arg string) (string, error) {
	args, err := parseFileContent(arg)
	if err != nil {
		return "", formatError(err)
	}
	path, err := w.resolve(args.Name)
	if err != nil {
		return "", err
	}

	n, err := w.writeContent(ctx, args.Name, path, args.Content, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return "", err
	}
	w.logger.Info().Str("path", args.Name).Int("bytes", n).Msg("File written")
	return fmt.Sprintf("Successfully wrote %d bytes to '%s'", n, args.Name), nil
}

// AppendFile adds content to the end of a file. A missing file is written fresh.
func (w *Workspace) AppendFile(ctx context.Context, arg string) (string, error) {
	args, err := parseFileContent(arg)
	if err != nil {
		return "", formatError(err)
	}
	path, err := w.resolve(args.Name)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return w.WriteFile(ctx, arg)
	}
	if err != nil {
		return "", NewToolExecutionError("append to", args.Name, err)
	}
	if info.IsDir() {
		return "", directoryError(args.Name)
	}

	n, err := w.writeContent(ctx, args.Name, path, args.Content, os.O_WRONLY|os.O_APPEND)
	if err != nil {
		return "", err
	}
	w.logger.Info().Str("path", args.Name).Int("bytes", n).Msg("File appended")
	return fmt.Sprintf("Successfully appended %d bytes to '%s'", n, args.Name), nil
}

func (w *Workspace) writeContent(ctx context.Context, name, path, content string, flag int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, NewToolExecutionError("write", name, err)
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return 0, directoryError(name)
	}
	if err := w.sandbox.MkdirAll(filepath.Dir(path)); err != nil {
		return 0, NewToolExecutionError("create directories for", name, err)
	}

	file, err := openNoFollow(path, flag)
	if err != nil {
		return 0, NewToolExecutionError("write", name, err)
	}
	n, writeErr := file.WriteString(content)
	closeErr := file.Close()
	if writeErr != nil {
		return n, NewToolExecutionError("write", name, writeErr)
	}
	if closeErr != nil {
		return n, NewToolExecutionError("write", name, closeErr)
	}
	return n, nil
}

// ListFiles lists regular files matching a glob pattern relative to the root.
// An empty pattern lists the top level ("*"); "**" matches across directories.
func (w *Workspace) ListFiles(ctx context.Context, arg string) (string, error) {
	pattern := filepath.ToSlash(strings.TrimSpace(arg))
	if pattern == "" {
		pattern = defaultListPattern
	}
	if !validListPattern(pattern) {
		return "", invalidPatternError(pattern, nil)
	}

	matches, err := doublestar.Glob(os.DirFS(w.sandbox.Root()), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return "", invalidPatternError(pattern, err)
	}
	sort.Strings(matches)

	var lines []string
	total := 0
	for _, match := range matches {
		if err := ctx.Err(); err != nil {
			return "", NewToolExecutionError("list files", "", err)
		}
		path, err := w.sandbox.Resolve(match)
		if err != nil {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		total++
		if len(lines) < w.limits.MaxListEntries {
			lines = append(lines, fmt.Sprintf("- %s (%d bytes)", match, info.Size()))
		}
	}

	if total == 0 {
		return fmt.Sprintf("No files found matching pattern '%s'", pattern), nil
	}
	out := "Files in workspace:\n" + strings.Join(lines, "\n")
	if total > len(lines) {
		out += fmt.Sprintf("\n... and %d more files", total-len(lines))
	}
	return out, nil
}

func validListPattern(pattern string) bool {
	if strings.HasPrefix(pattern, "/") || !doublestar.ValidatePattern(pattern) {
		return false
	}
	for _, segment := range strings.Split(pattern, "/") {
		if segment == ".." {
			return false
		}
	}
	return true
}

func invalidPatternError(pattern string, err error) *apperrors.Error {
	if err == nil {
		err = ErrInvalidArguments
	}
	return apperrors.Wrap(apperrors.CodeProtocol, fmt.Sprintf("Invalid pattern '%s'", pattern), err)
}

// DeleteFile permanently removes a file. Directories are refused.
func (w *Workspace) DeleteFile(ctx context.Context, arg string) (string, error) {
	name := strings.TrimSpace(arg)
	path, err := w.resolve(name)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", notFoundError(name, err)
		}
		return "", NewToolExecutionError("delete", name, err)
	}
	if info.IsDir() {
		return "", directoryError(name)
	}
	if err := ctx.Err(); err != nil {
		return "", NewToolExecutionError("delete", name, err)
	}

	if err := removeFile(ctx, w.sandbox.Root(), path); err != nil {
		return "", NewToolExecutionError("delete", name, err)
	}
	w.logger.Info().Str("path", name).Msg("File deleted")
	return fmt.Sprintf("Successfully deleted '%s'", name), nil
}

// FileInfo reports size, timestamps and, for text files, the line count.
func (w *Workspace) FileInfo(ctx context.Context, arg string) (string, error) {
	name := strings.TrimSpace(arg)
	path, err := w.resolve(name)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", NewToolExecutionError("inspect", name, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", notFoundError(name, err)
		}
		return "", NewToolExecutionError("inspect", name, err)
	}
	if info.IsDir() {
		return "", directoryError(name)
	}

	lines := []string{
		"File: " + name,
		fmt.Sprintf("Size: %d bytes (%s)", info.Size(), humanize.Bytes(uint64(info.Size()))),
		"Modified: " + info.ModTime().Format(timestampLayout),
		"Created: " + createdTime(path, info).Format(timestampLayout),
	}
	if info.Mode().IsRegular() && info.Size() <= w.limits.MaxFileSizeBytes {
		if count, ok := countLines(path); ok {
			lines = append(lines, fmt.Sprintf("Lines: %d", count))
		}
	}
	return strings.Join(lines, "\n"), nil
}

// SearchInFiles does a case-insensitive substring search over every text file
// below the root and reports at most Limits.SearchMaxResults matches.
func (w *Workspace) SearchInFiles(ctx context.Context, arg string) (string, error) {
	term := strings.TrimSpace(arg)
	if term == "" {
		return "", apperrors.Wrap(apperrors.CodeProtocol, "Search term cannot be empty", ErrInvalidArguments)
	}
	needle := strings.ToLower(term)

	var matches []string
	total := 0
	err := filepath.WalkDir(w.sandbox.Root(), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}
		rel, err := w.sandbox.Rel(path)
		if err != nil {
			return nil
		}
		target, err := w.sandbox.Resolve(rel)
		if err != nil {
			return nil
		}
		data, ok := w.readSearchable(target)
		if !ok {
			return nil
		}
		for i, line := range strings.Split(string(data), "\n") {
			if !strings.Contains(strings.ToLower(line), needle) {
				continue
			}
			total++
			if len(matches) < w.limits.SearchMaxResults {
				shown, _ := truncateString(strings.TrimSpace(line), w.limits.SearchLineWidth)
				matches = append(matches, fmt.Sprintf("%s:%d: %s", rel, i+1, shown))
			}
		}
		return nil
	})
	if err != nil {
		return "", NewToolExecutionError("search files", "", err)
	}

	if total == 0 {
		return fmt.Sprintf("No matches found for '%s'", term), nil
	}
	out := fmt.Sprintf("Search results for '%s':\n%s", term, strings.Join(matches, "\n"))
	if total > len(matches) {
		out += fmt.Sprintf("\n... and %d more matches", total-len(matches))
	}
	return out, nil
}

func (w *Workspace) readSearchable(path string) ([]byte, bool) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() || info.Size() > w.limits.MaxFileSizeBytes {
		return nil, false
	}
	data, err := os.ReadFile(path)
	if err != nil || !isText(data) {
		return nil, false
	}
	return data, true
}
