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

	"github.com/rs/zerolog"

	apperrors "quill/internal/errors"
)

// Options tunes a registry. Zero fields fall back to the defaults.
type Options struct {
	Filters  OutputFilterConfig
	Timeouts TimeoutConfig
}

// Registry holds the built-in tools in registration order. It is built once
// and never changes afterwards, so it is safe for concurrent readers.
type Registry struct {
	workspace   *Workspace
	descriptors []Descriptor
	index       map[string]int
	filters     OutputFilterConfig
	timeouts    TimeoutConfig
	logger      zerolog.Logger
}

// NewRegistry creates a registry with the seven file tools over ws.
func NewRegistry(ws *Workspace) *Registry {
	return NewRegistryWithOptions(ws, Options{})
}

// NewRegistryWithOptions creates a registry with custom output filtering and timeouts.
func NewRegistryWithOptions(ws *Workspace, opts Options) *Registry {
	timeouts := opts.Timeouts
	if timeouts.Default <= 0 && len(timeouts.PerTool) == 0 {
		timeouts = DefaultTimeoutConfig()
	}
	filters := opts.Filters
	if filters == (OutputFilterConfig{}) {
		filters = DefaultOutputFilterConfig()
	}
	r := &Registry{
		workspace: ws,
		filters:   normalizeOutputFilterConfig(filters),
		timeouts:  timeouts,
		logger:    ws.logger,
	}
	for _, d := range builtinDescriptors() {
		r.register(d)
	}
	return r
}

func (r *Registry) register(d Descriptor) {
	if r.index == nil {
		r.index = make(map[string]int)
	}
	r.index[d.Name] = len(r.descriptors)
	r.descriptors = append(r.descriptors, d)
}

func builtinDescriptors() []Descriptor {
	return []Descriptor{
		{
			Op:          OpRead,
			Name:        OpRead.String(),
			Description: "Read the contents of a text file. ARGS: filename (e.g. notes.txt or data/info.txt)",
		},
		{
			Op:          OpWrite,
			Name:        OpWrite.String(),
			Description: "Create or overwrite a text file. ARGS: filename|content (everything after the first | is written, newlines included)",
		},
		{
			Op:          OpAppend,
			Name:        OpAppend.String(),
			Description: "Add content to the end of a text file, creating it if needed. ARGS: filename|content",
		},
		{
			Op:          OpList,
			Name:        OpList.String(),
			Description: "List files in the workspace. ARGS: optional glob pattern (default *, e.g. *.txt, notes/*, **/*.md)",
		},
		{
			Op:          OpDelete,
			Name:        OpDelete.String(),
			Description: "Permanently delete a file. ARGS: filename",
		},
		{
			Op:          OpInfo,
			Name:        OpInfo.String(),
			Description: "Show size, modification time, creation time and line count of a file. ARGS: filename",
		},
		{
			Op:          OpSearch,
			Name:        OpSearch.String(),
			Description: "Search every text file for a term, ignoring case. ARGS: search term",
		},
	}
}

// Describe returns the tool descriptors in registration order.
func (r *Registry) Describe() []Descriptor {
	out := make([]Descriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}

// Get looks a tool up by exact name.
func (r *Registry) Get(name string) (Descriptor, bool) {
	i, ok := r.index[name]
	if !ok {
		return Descriptor{}, false
	}
	return r.descriptors[i], true
}

// Names returns the tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		names = append(names, d.Name)
	}
	return names
}

// Dispatch runs the named tool with its raw argument string. It never fails:
// problems come back as a Result whose Output starts with "Error:".
func (r *Registry) Dispatch(ctx context.Context, name, args string) (result Result) {
	d, ok := r.Get(name)
	if !ok {
		err := NewUnknownToolError(name, r.Names())
		r.logger.Warn().Str("tool", name).Msg("Unknown tool requested")
		return failedResult(name, err)
	}

	defer func() {
		if rec := recover(); rec != nil {
			err := apperrors.New(apperrors.CodeOperation, fmt.Sprintf("tool %s failed unexpectedly: %v", name, rec))
			r.logger.Error().Str("tool", name).Interface("panic", rec).Msg("Tool panicked")
			result = failedResult(name, err)
		}
	}()

	if timeout := r.timeouts.TimeoutForTool(name); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	r.logger.Debug().Str("tool", name).Int("args_len", len(args)).Msg("Dispatching tool")
	output, err := r.run(ctx, d.Op, args)
	if err != nil {
		r.logger.Debug().Str("tool", name).Err(err).Msg("Tool failed")
		return failedResult(name, err)
	}
	return Result{Tool: name, Output: sanitizeToolOutput(r.filtersFor(d.Op), output)}
}

// filtersFor keeps read_file content byte for byte; only its length is capped.
func (r *Registry) filtersFor(op Op) OutputFilterConfig {
	filters := r.filters
	if op == OpRead {
		filters.StripANSI = false
		filters.StripControl = false
	}
	return filters
}

func (r *Registry) run(ctx context.Context, op Op, args string) (string, error) {
	ws := r.workspace
	switch op {
	case OpRead:
		return ws.ReadFile(ctx, args)
	case OpWrite:
		return ws.WriteFile(ctx, args)
	case OpAppend:
		return ws.AppendFile(ctx, args)
	case OpList:
		return ws.ListFiles(ctx, args)
	case OpDelete:
		return ws.DeleteFile(ctx, args)
	case OpInfo:
		return ws.FileInfo(ctx, args)
	case OpSearch:
		return ws.SearchInFiles(ctx, args)
	default:
		return "", NewUnknownToolError(op.String(), r.Names())
	}
}

func failedResult(name string, err error) Result {
	return Result{Tool: name, Output: apperrors.UserMessage(err), Err: err}
}
