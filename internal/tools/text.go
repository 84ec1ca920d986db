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
	"bytes"
	"os"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
)

// isText reports whether data is UTF-8 and detected as some text/plain subtype.
func isText(data []byte) bool {
	if !utf8.Valid(data) {
		return false
	}
	for mtype := mimetype.Detect(data); mtype != nil; mtype = mtype.Parent() {
		if mtype.Is("text/plain") {
			return true
		}
	}
	return false
}

// countLines counts lines the way a line iterator does: a final line without a
// trailing newline still counts. It reports false for content that is not UTF-8.
func countLines(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil || !utf8.Valid(data) {
		return 0, false
	}
	if len(data) == 0 {
		return 0, true
	}
	count := bytes.Count(data, []byte{'\n'})
	if data[len(data)-1] != '\n' {
		count++
	}
	return count, true
}
