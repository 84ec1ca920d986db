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

// Package protocol parses the plain-text tool call a model embeds in its reply.
//
// A call is two tagged lines:
//
//	TOOL: <name>
//	ARGS: <argument text>
//
// Argument text may continue over the following lines up to the end of the
// reply, which is how file content spanning several lines reaches write_file.
package protocol

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// ToolMarker starts the line naming the tool.
	ToolMarker = "TOOL:"
	// ArgsMarker starts the line carrying the argument string.
	ArgsMarker = "ARGS:"
)

var (
	// ErrProtocol is the root of every parse fault.
	ErrProtocol = errors.New("protocol fault")

	// ErrNoToolCall reports a reply that does not mention ToolMarker at all.
	ErrNoToolCall = &ParseError{Kind: FaultNoToolCall}
)

// FaultKind classifies a parse fault.
type FaultKind int

const (
	// FaultNoToolCall means the reply is a plain answer.
	FaultNoToolCall FaultKind = iota + 1
	// FaultMissingName means ToolMarker appears but no line names a tool.
	FaultMissingName
)

func (k FaultKind) String() string {
	switch k {
	case FaultNoToolCall:
		return "no tool call"
	case FaultMissingName:
		return "missing tool name"
	default:
		return "unknown fault"
	}
}

// ParseError is a typed protocol fault.
type ParseError struct {
	Kind FaultKind
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v: %s", ErrProtocol, e.Kind)
}

// Unwrap returns ErrProtocol.
func (e *ParseError) Unwrap() error {
	return ErrProtocol
}

// Is matches any ParseError of the same kind.
func (e *ParseError) Is(target error) bool {
	t, ok := target.(*ParseError)
	return ok && t.Kind == e.Kind
}

// Invocation is a parsed, not yet validated tool request.
type Invocation struct {
	Name    string
	Args    string
	HasArgs bool
}

// HasToolCall reports whether text mentions the tool marker anywhere.
func HasToolCall(text string) bool {
	return strings.Contains(text, ToolMarker)
}

// Parse extracts the tool invocation from a model reply.
//
// The first line starting with ToolMarker names the tool and the first line
// starting with ArgsMarker starts the arguments. When the line after ARGS is
// not itself a TOOL line and the rest of the reply is not blank, the rest is
// appended to the arguments after a newline and scanning stops. A reply
// without ARGS yields empty arguments with HasArgs false.
func Parse(text string) (Invocation, error) {
	if !HasToolCall(text) {
		return Invocation{}, ErrNoToolCall
	}

	var inv Invocation
	nameSet := false
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, ToolMarker):
			if !nameSet {
				inv.Name = strings.TrimSpace(strings.TrimPrefix(trimmed, ToolMarker))
				nameSet = true
			}
		case strings.HasPrefix(trimmed, ArgsMarker):
			if inv.HasArgs {
				continue
			}
			inv.Args = strings.TrimSpace(strings.TrimPrefix(trimmed, ArgsMarker))
			inv.HasArgs = true
			if i+1 < len(lines) && !strings.HasPrefix(strings.TrimSpace(lines[i+1]), ToolMarker) {
				rest := strings.Join(lines[i+1:], "\n")
				if strings.TrimSpace(rest) != "" {
					inv.Args += "\n" + rest
					return finish(inv)
				}
			}
		}
	}
	return finish(inv)
}

func finish(inv Invocation) (Invocation, error) {
	if inv.Name == "" {
		return inv, &ParseError{Kind: FaultMissingName}
	}
	return inv, nil
}
