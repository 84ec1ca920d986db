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

package chat

import (
	"context"

	"quill/internal/backend"
	"quill/internal/tools"
)

// Dispatcher abstracts the tool registry for testing.
//
// Usage:
//   - Production: pass the *tools.Registry built at startup
//   - Testing: pass a fake that records dispatches
type Dispatcher interface {
	Describe() []tools.Descriptor
	Dispatch(ctx context.Context, name, args string) tools.Result
}

// Verify that the concrete types implement the interfaces at compile time.
var (
	_ Dispatcher        = (*tools.Registry)(nil)
	_ backend.Generator = (*backend.OllamaClient)(nil)
	_ backend.Generator = (*backend.OpenAIClient)(nil)
)
