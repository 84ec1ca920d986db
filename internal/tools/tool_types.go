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

// Op identifies one of the built-in file operations. The set is closed: a tool
// name the model invents never becomes an Op.
type Op int

const (
	OpRead Op = iota + 1
	OpWrite
	OpAppend
	OpList
	OpDelete
	OpInfo
	OpSearch
)

// String returns the tool name the model uses for the operation.
func (o Op) String() string {
	switch o {
	case OpRead:
		return "read_file"
	case OpWrite:
		return "write_file"
	case OpAppend:
		return "append_file"
	case OpList:
		return "list_files"
	case OpDelete:
		return "delete_file"
	case OpInfo:
		return "file_info"
	case OpSearch:
		return "search_in_files"
	default:
		return "unknown_tool"
	}
}

// Descriptor describes a registered tool. Every tool takes a single string argument.
type Descriptor struct {
	Op          Op
	Name        string
	Description string
}

// Result is the outcome of one dispatch. Output is always the text handed back
// to the model; on failure it starts with "Error:" and Err holds the cause.
type Result struct {
	Tool   string
	Output string
	Err    error
}

// Failed reports whether the tool did not complete.
func (r Result) Failed() bool {
	return r.Err != nil
}
