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

//go:build linux

package paths

import (
	"fmt"

	securejoin "github.com/cyphar/filepath-securejoin"
)

// MkdirAll creates dir (an absolute path already resolved by Resolve) and its
// parents without following a symlink out of the root, even one swapped in concurrently.
func (s *Sandbox) MkdirAll(dir string) error {
	if !s.Contains(dir) {
		return ErrOutsideWorkspace
	}
	rel, err := s.Rel(dir)
	if err != nil {
		return err
	}
	if rel == "." {
		return nil
	}
	if err := securejoin.MkdirAll(s.root, rel, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", rel, err)
	}
	return nil
}
