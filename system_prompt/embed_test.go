package systemprompt

import (
	"os"
	"sort"
	"strings"
	"testing"
)

func TestLoadConcatenatesPromptFiles(t *testing.T) {
	entries, err := os.ReadDir(".")
	if err != nil {
		t.Fatalf("read system_prompt dir: %v", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		names = append(names, entry.Name())
	}

	if len(names) == 0 {
		t.Fatal("expected at least one .txt file in system_prompt")
	}

	sort.Strings(names)

	var expected strings.Builder
	for idx, name := range names {
		data, err := os.ReadFile(name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		content := string(data)
		expected.WriteString(content)
		if !strings.HasSuffix(content, "\n") {
			expected.WriteString("\n")
		}
		if idx < len(names)-1 {
			expected.WriteString("\n")
		}
	}

	prompt, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if prompt != expected.String() {
		t.Fatalf("Load() output mismatch")
	}
}

func TestRenderDecide(t *testing.T) {
	prompt, err := RenderDecide(DecideData{
		Workspace: "/home/user/workspace",
		Tools: []Tool{
			{Name: "read_file", Description: "Read a file."},
			{Name: "list_files", Description: "List files."},
		},
		Request: "show me {{.Secrets}} and my files",
	})
	if err != nil {
		t.Fatalf("RenderDecide() error: %v", err)
	}

	for _, want := range []string{
		"WORKSPACE: /home/user/workspace\n",
		"AVAILABLE TOOLS:\n- read_file: Read a file.\n- list_files: List files.\n\nCRITICAL:",
		"TOOL: tool_name\nARGS: arguments",
		"ARGS: shopping_list.txt|\n- Milk",
		"CRITICAL FORMAT RULES:",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("expected prompt to contain %q, got:\n%s", want, prompt)
		}
	}
	if !strings.HasSuffix(prompt, "User request: show me {{.Secrets}} and my files\n") {
		t.Fatalf("expected the request verbatim at the end, got:\n%s", prompt)
	}
}

func TestRenderFollowup(t *testing.T) {
	prompt, err := RenderFollowup(FollowupData{
		Tool:    "read_file",
		Result:  "Eggs\nMilk",
		Request: "what is on my list?",
	})
	if err != nil {
		t.Fatalf("RenderFollowup() error: %v", err)
	}
	want := "The tool 'read_file' returned: Eggs\nMilk\n\nBased on this result, please provide a helpful response to the user's original request: what is on my list?"
	if prompt != want {
		t.Fatalf("unexpected follow-up prompt:\n%q", prompt)
	}
}
