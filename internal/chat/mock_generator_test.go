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

// GenerateCall records one request made to MockGenerator.
type GenerateCall struct {
	Prompt      string
	Options     backend.Options
	HasDeadline bool
}

// MockGenerator is a mock implementation of backend.Generator for testing.
type MockGenerator struct {
	// Responses are returned in order; Errors[i], when set, replaces Responses[i].
	Responses []string
	Errors    []error
	// GenerateFunc overrides the canned responses.
	GenerateFunc func(ctx context.Context, prompt string, opts backend.Options) (string, error)

	// Call tracking
	Calls []GenerateCall
}

// Name implements backend.Generator.
func (m *MockGenerator) Name() string {
	return "mock"
}

// Generate implements backend.Generator.
func (m *MockGenerator) Generate(ctx context.Context, prompt string, opts backend.Options) (string, error) {
	_, hasDeadline := ctx.Deadline()
	idx := len(m.Calls)
	m.Calls = append(m.Calls, GenerateCall{Prompt: prompt, Options: opts, HasDeadline: hasDeadline})
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt, opts)
	}
	if idx < len(m.Errors) && m.Errors[idx] != nil {
		return "", m.Errors[idx]
	}
	if idx < len(m.Responses) {
		return m.Responses[idx], nil
	}
	return "mock response", nil
}

// MockDispatcher records dispatches and answers with a fixed result.
type MockDispatcher struct {
	Descriptors []tools.Descriptor
	Result      tools.Result
	Dispatched  []string
}

// Describe implements Dispatcher.
func (m *MockDispatcher) Describe() []tools.Descriptor {
	return m.Descriptors
}

// Dispatch implements Dispatcher.
func (m *MockDispatcher) Dispatch(ctx context.Context, name, args string) tools.Result {
	m.Dispatched = append(m.Dispatched, name+"("+args+")")
	result := m.Result
	result.Tool = name
	return result
}
