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
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	apperrors "quill/internal/errors"
)

func TestRegistryOrderAndLookup(t *testing.T) {
	registry := NewRegistry(newTestWorkspace(t))

	want := []string{"read_file", "write_file", "append_file", "list_files", "delete_file", "file_info", "search_in_files"}
	if diff := cmp.Diff(want, registry.Names()); diff != "" {
		t.Fatalf("unexpected tool names (-want +got):\n%s", diff)
	}

	for _, d := range registry.Describe() {
		if d.Description == "" {
			t.Fatalf("tool %s has no description", d.Name)
		}
		if d.Op.String() != d.Name {
			t.Fatalf("descriptor %s bound to op %s", d.Name, d.Op)
		}
	}

	if _, ok := registry.Get("READ_FILE"); ok {
		t.Fatal("lookup must be an exact match")
	}
	if d, ok := registry.Get("file_info"); !ok || d.Op != OpInfo {
		t.Fatalf("expected file_info descriptor, got %+v, %v", d, ok)
	}
}

func TestRegistryDescribeReturnsCopy(t *testing.T) {
	registry := NewRegistry(newTestWorkspace(t))
	described := registry.Describe()
	described[0].Name = "mutated"
	if registry.Names()[0] != "read_file" {
		t.Fatal("Describe must not expose internal state")
	}
}

func TestDispatchUnknownToolDoesNoIO(t *testing.T) {
	ws := newTestWorkspace(t)
	registry := NewRegistry(ws)

	result := registry.Dispatch(context.Background(), "make_coffee", "notes.txt|x")
	if !result.Failed() {
		t.Fatal("expected failure for unknown tool")
	}
	want := "Error: Unknown tool: make_coffee. Available tools: read_file, write_file, append_file, list_files, delete_file, file_info, search_in_files"
	if result.Output != want {
		t.Fatalf("expected %q, got %q", want, result.Output)
	}
	if !errors.Is(result.Err, ErrToolNotFound) {
		t.Fatalf("expected ErrToolNotFound, got %v", result.Err)
	}
	if apperrors.CodeOf(result.Err) != apperrors.CodeProtocol {
		t.Fatalf("expected protocol code, got %q", apperrors.CodeOf(result.Err))
	}

	entries, err := os.ReadDir(ws.Root())
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("unknown tool touched the workspace: %v", entries)
	}
}

func TestDispatchRoundTrip(t *testing.T) {
	registry := NewRegistry(newTestWorkspace(t))
	ctx := context.Background()

	write := registry.Dispatch(ctx, "write_file", "a/b.txt|hello\nworld")
	if write.Failed() {
		t.Fatalf("write failed: %s", write.Output)
	}
	read := registry.Dispatch(ctx, "read_file", "a/b.txt")
	if read.Failed() {
		t.Fatalf("read failed: %s", read.Output)
	}
	if read.Output != "hello\nworld" {
		t.Fatalf("expected round-trip content, got %q", read.Output)
	}
	if read.Tool != "read_file" {
		t.Fatalf("unexpected tool name %q", read.Tool)
	}
}

func TestDispatchInvalidPath(t *testing.T) {
	registry := NewRegistry(newTestWorkspace(t))
	result := registry.Dispatch(context.Background(), "read_file", "../secret.txt")
	if result.Output != "Error: Invalid file path '../secret.txt'" {
		t.Fatalf("unexpected output %q", result.Output)
	}
	if apperrors.CodeOf(result.Err) != apperrors.CodeSandbox {
		t.Fatalf("expected sandbox code, got %q", apperrors.CodeOf(result.Err))
	}
}

func TestDispatchSanitizesOutput(t *testing.T) {
	ws := newTestWorkspace(t)
	writeTestFile(t, ws, "color.txt", "\x1b[31mred\x1b[0m\x07 text")
	registry := NewRegistry(ws)

	result := registry.Dispatch(context.Background(), "search_in_files", "text")
	if result.Failed() {
		t.Fatalf("search failed: %s", result.Output)
	}
	if result.Output != "Search results for 'text':\ncolor.txt:1: red text" {
		t.Fatalf("expected escape sequences stripped, got %q", result.Output)
	}
}

func TestDispatchReadKeepsRawContent(t *testing.T) {
	registry := NewRegistry(newTestWorkspace(t))
	ctx := context.Background()

	content := "a\x1b[31mred\x07b"
	if result := registry.Dispatch(ctx, "write_file", "raw.txt|"+content); result.Failed() {
		t.Fatalf("write failed: %s", result.Output)
	}
	result := registry.Dispatch(ctx, "read_file", "raw.txt")
	if result.Failed() {
		t.Fatalf("read failed: %s", result.Output)
	}
	if result.Output != content {
		t.Fatalf("expected content to read back unchanged, got %q", result.Output)
	}
}

func TestDispatchRecoversFromPanic(t *testing.T) {
	registry := NewRegistry(newTestWorkspace(t))
	registry.workspace = nil

	result := registry.Dispatch(context.Background(), "read_file", "a.txt")
	if !result.Failed() {
		t.Fatal("expected failure after panic")
	}
	if !strings.HasPrefix(result.Output, "Error: tool read_file failed unexpectedly") {
		t.Fatalf("unexpected output %q", result.Output)
	}
}

func TestDispatchEveryToolReturnsText(t *testing.T) {
	ws := newTestWorkspace(t)
	writeTestFile(t, ws, "notes.txt", "buy milk\n")
	registry := NewRegistry(ws)
	ctx := context.Background()

	calls := []struct {
		tool string
		args string
		want string
	}{
		{tool: "list_files", args: "", want: "Files in workspace:\n- notes.txt (9 bytes)"},
		{tool: "search_in_files", args: "MILK", want: "Search results for 'MILK':\nnotes.txt:1: buy milk"},
		{tool: "append_file", args: "notes.txt|eggs\n", want: "Successfully appended 5 bytes to 'notes.txt'"},
		{tool: "read_file", args: "notes.txt", want: "buy milk\neggs\n"},
		{tool: "delete_file", args: "notes.txt", want: "Successfully deleted 'notes.txt'"},
		{tool: "file_info", args: "notes.txt", want: "Error: File 'notes.txt' does not exist"},
	}
	for _, call := range calls {
		result := registry.Dispatch(ctx, call.tool, call.args)
		if result.Output != call.want {
			t.Fatalf("%s(%q): expected %q, got %q", call.tool, call.args, call.want, result.Output)
		}
	}
}

func TestTimeoutForTool(t *testing.T) {
	config := DefaultTimeoutConfig()
	if got := config.TimeoutForTool("search_in_files"); got != 30*time.Second {
		t.Fatalf("expected search timeout of 30s, got %s", got)
	}
	if got := config.TimeoutForTool("read_file"); got != 10*time.Second {
		t.Fatalf("expected default timeout, got %s", got)
	}
	if got := (TimeoutConfig{}).TimeoutForTool("read_file"); got != 0 {
		t.Fatalf("expected no timeout, got %s", got)
	}
}

func TestParseFileContent(t *testing.T) {
	tests := []struct {
		arg     string
		want    fileContentArgs
		wantErr error
	}{
		{arg: "a.txt|hello", want: fileContentArgs{Name: "a.txt", Content: "hello"}},
		{arg: "  a.txt |  spaced ", want: fileContentArgs{Name: "a.txt", Content: "  spaced "}},
		{arg: "a.txt|x|y", want: fileContentArgs{Name: "a.txt", Content: "x|y"}},
		{arg: "a.txt|", want: fileContentArgs{Name: "a.txt"}},
		{arg: "a.txt", wantErr: errMissingSeparator},
		{arg: " |x", wantErr: errMissingFilename},
	}
	for _, tt := range tests {
		got, err := parseFileContent(tt.arg)
		if !errors.Is(err, tt.wantErr) {
			t.Fatalf("parseFileContent(%q) error = %v, want %v", tt.arg, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("parseFileContent(%q) = %+v, want %+v", tt.arg, got, tt.want)
		}
	}
}

func TestSanitizeToolOutputTruncates(t *testing.T) {
	config := OutputFilterConfig{MaxChars: 5, StripControl: true}
	got := sanitizeToolOutput(config, "abc\x00defgh")
	if got != "abcde\n... [output truncated]" {
		t.Fatalf("unexpected sanitized output %q", got)
	}
}
