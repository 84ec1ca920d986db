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

// Limits configures size and result bounds for file operations.
type Limits struct {
	// ReadMaxChars caps the characters of file content returned by read_file.
	ReadMaxChars int
	// SearchMaxResults caps the matches listed by search_in_files.
	SearchMaxResults int
	// SearchLineWidth caps the characters shown per matching line.
	SearchLineWidth int
	// MaxFileSizeBytes skips larger files in search and in the file_info line count.
	MaxFileSizeBytes int64
	// MaxListEntries caps the files listed by list_files.
	MaxListEntries int
}

const (
	defaultReadMaxChars           = 2000
	defaultSearchMaxResults       = 20
	defaultSearchLineWidth        = 80
	defaultMaxFileSizeBytes int64 = 10 * 1024 * 1024
	defaultMaxListEntries         = 2000
)

// DefaultLimits returns the default bounds for file operations.
func DefaultLimits() Limits {
	return Limits{
		ReadMaxChars:     defaultReadMaxChars,
		SearchMaxResults: defaultSearchMaxResults,
		SearchLineWidth:  defaultSearchLineWidth,
		MaxFileSizeBytes: defaultMaxFileSizeBytes,
		MaxListEntries:   defaultMaxListEntries,
	}
}

func normalizeLimits(l Limits) Limits {
	if l.ReadMaxChars <= 0 {
		l.ReadMaxChars = defaultReadMaxChars
	}
	if l.SearchMaxResults <= 0 {
		l.SearchMaxResults = defaultSearchMaxResults
	}
	if l.SearchLineWidth <= 0 {
		l.SearchLineWidth = defaultSearchLineWidth
	}
	if l.MaxFileSizeBytes <= 0 {
		l.MaxFileSizeBytes = defaultMaxFileSizeBytes
	}
	if l.MaxListEntries <= 0 {
		l.MaxListEntries = defaultMaxListEntries
	}
	return l
}
