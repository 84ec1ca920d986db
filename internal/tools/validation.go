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
	"strings"
)

// pipeSeparator splits a filename from its content in write_file and append_file arguments.
const pipeSeparator = "|"

var (
	errMissingSeparator = errors.New("missing '|' between filename and content")
	errMissingFilename  = errors.New("filename is empty")
)

// fileContentArgs is the parsed form of a "filename|content" argument.
type fileContentArgs struct {
	Name    string
	Content string
}

// parseFileContent splits arg on the first '|' only, so content may itself
// contain pipes. The filename is trimmed; content is kept verbatim and may be empty.
func parseFileContent(arg string) (fileContentArgs, error) {
	name, content, found := strings.Cut(arg, pipeSeparator)
	if !found {
		return fileContentArgs{}, errMissingSeparator
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fileContentArgs{}, errMissingFilename
	}
	return fileContentArgs{Name: name, Content: content}, nil
}

func joinNames(names []string) string {
	return strings.Join(names, ", ")
}
