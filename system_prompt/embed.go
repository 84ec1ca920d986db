package systemprompt

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"
	"text/template"
)

//go:embed *.txt
var promptFiles embed.FS

//go:embed followup.tmpl
var followupText string

// Tool is one catalogue entry shown to the model.
type Tool struct {
	Name        string
	Description string
}

// DecideData fills the prompt of the first call of a turn.
type DecideData struct {
	Workspace string
	Tools     []Tool
	Request   string
}

// FollowupData fills the prompt that asks the model to summarize a tool result.
type FollowupData struct {
	Tool    string
	Result  string
	Request string
}

var parseTemplates = sync.OnceValues(func() (*template.Template, error) {
	text, err := Load()
	if err != nil {
		return nil, err
	}
	root, err := template.New("decide").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse system prompt: %w", err)
	}
	if _, err := root.New("followup").Parse(followupText); err != nil {
		return nil, fmt.Errorf("failed to parse follow-up prompt: %w", err)
	}
	return root, nil
})

// Load concatenates all embedded prompt files in lexical order.
func Load() (string, error) {
	entries, err := fs.ReadDir(promptFiles, ".")
	if err != nil {
		return "", fmt.Errorf("failed to read embedded system prompt files: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		names = append(names, entry.Name())
	}

	if len(names) == 0 {
		return "", fmt.Errorf("no system prompt files found in embedded set")
	}

	sort.Strings(names)

	var builder strings.Builder
	for idx, name := range names {
		data, err := promptFiles.ReadFile(name)
		if err != nil {
			return "", fmt.Errorf("failed to read system prompt file %q: %w", name, err)
		}
		builder.WriteString(string(data))
		if !strings.HasSuffix(builder.String(), "\n") {
			builder.WriteString("\n")
		}
		if idx < len(names)-1 {
			// Separate prompts with a newline for clarity.
			builder.WriteString("\n")
		}
	}

	return builder.String(), nil
}

// RenderDecide renders the prompt for the tool-deciding call.
func RenderDecide(data DecideData) (string, error) {
	return render("decide", data)
}

// RenderFollowup renders the prompt for the result-summarizing call.
func RenderFollowup(data FollowupData) (string, error) {
	return render("followup", data)
}

func render(name string, data any) (string, error) {
	tmpl, err := parseTemplates()
	if err != nil {
		return "", err
	}
	var builder strings.Builder
	if err := tmpl.ExecuteTemplate(&builder, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", name, err)
	}
	return builder.String(), nil
}
