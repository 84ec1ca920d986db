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
	"errors"
	"fmt"

	apperrors "quill/internal/errors"
)

// Common tool errors
var (
	// ErrToolNotFound indicates the requested tool doesn't exist in the registry.
	ErrToolNotFound = errors.New("tool not found")

	// ErrInvalidArguments indicates the argument string does not have the expected form.
	ErrInvalidArguments = errors.New("invalid tool arguments")

	// ErrFileNotFound indicates the target file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrIsDirectory indicates a file operation was pointed at a directory.
	ErrIsDirectory = errors.New("path is a directory")

	// ErrNotText indicates the file content is not valid text.
	ErrNotText = errors.New("file is not text")
)

func invalidPathError(name string, err error) *apperrors.Error {
	return apperrors.Wrap(apperrors.CodeSandbox, fmt.Sprintf("Invalid file path '%s'", name), err)
}

func notFoundError(name string, err error) *apperrors.Error {
	if err == nil {
		err = ErrFileNotFound
	}
	return apperrors.Wrap(apperrors.CodeOperation, fmt.Sprintf("File '%s' does not exist", name), fmt.Errorf("%w: %v", ErrFileNotFound, err))
}

func directoryError(name string) *apperrors.Error {
	return apperrors.Wrap(apperrors.CodeOperation, fmt.Sprintf("'%s' is a directory", name), ErrIsDirectory)
}

func formatError(err error) *apperrors.Error {
	return apperrors.Wrap(apperrors.CodeProtocol, "Use format 'filename|content'", fmt.Errorf("%w: %v", ErrInvalidArguments, err))
}

// NewToolExecutionError wraps an I/O failure of a tool with a shared error code.
func NewToolExecutionError(operation, name string, err error) *apperrors.Error {
	if name != "" {
		return apperrors.Wrap(apperrors.CodeOperation, fmt.Sprintf("failed to %s '%s': %v", operation, name, err), err)
	}
	return apperrors.Wrap(apperrors.CodeOperation, fmt.Sprintf("failed to %s: %v", operation, err), err)
}

// NewUnknownToolError reports a tool name that is not registered.
func NewUnknownToolError(name string, available []string) *apperrors.Error {
	return apperrors.Wrap(apperrors.CodeProtocol,
		fmt.Sprintf("Unknown tool: %s. Available tools: %s", name, joinNames(available)),
		fmt.Errorf("%w: %q", ErrToolNotFound, name))
}
