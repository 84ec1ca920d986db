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

package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/chzyer/readline"
)

// Command represents a shell command
type Command struct {
	Name        string
	Aliases     []string
	Description string
}

// getAvailableCommands returns the list of all shell commands
func getAvailableCommands() []Command {
	return []Command{
		{Name: "help", Description: "List the file tools and shell commands"},
		{Name: "debug", Description: "Toggle the turn trace (model response, tool call, tool result)"},
		{Name: "quit", Aliases: []string{"exit", "q"}, Description: "Exit the shell"},
	}
}

var exampleRequests = []string{
	"List all files",
	"Create a file called todo.txt with my tasks",
	"Read todo.txt",
	"Add a new line to todo.txt",
	"Search for keyword in all files",
}

// lookupCommand reports whether line is a shell command and returns its
// canonical name. A leading slash is accepted.
func lookupCommand(line string) (string, bool) {
	name := strings.ToLower(strings.TrimSpace(line))
	name = strings.TrimPrefix(name, "/")
	for _, cmd := range getAvailableCommands() {
		if name == cmd.Name {
			return cmd.Name, true
		}
		for _, alias := range cmd.Aliases {
			if name == alias {
				return cmd.Name, true
			}
		}
	}
	return "", false
}

// handleCommand processes shell commands, returns true if should quit
func (s *shell) handleCommand(name string) bool {
	s.logger.Debug().Str("command", name).Msg("Executing command")

	switch name {
	case "help":
		s.showHelp()
		return false

	case "debug":
		s.setDebug(!s.debug)
		if s.debug {
			s.colors.Tool.Fprintln(s.out, "Debug mode: ON")
		} else {
			s.colors.Tool.Fprintln(s.out, "Debug mode: OFF")
		}
		return false

	case "quit":
		return true

	default:
		s.colors.Error.Fprintf(s.out, "Unknown command: %s (type help for available commands)\n", name)
		return false
	}
}

func (s *shell) printBanner() {
	fmt.Fprintln(s.out, s.colors.Header.Sprint("quill: local file agent"))
	fmt.Fprintf(s.out, "Workspace: %s\n", s.workspace.Root())
	fmt.Fprintf(s.out, "Model:     %s (%s at %s)\n", s.cfg.Model, s.cfg.Backend, s.cfg.BaseURL)
	fmt.Fprintln(s.out, "\nExample requests:")
	for _, example := range exampleRequests {
		fmt.Fprintf(s.out, "- '%s'\n", example)
	}
	fmt.Fprintln(s.out, "\nType 'help' for the tool list, 'debug' to toggle the trace, 'quit' to exit")
	fmt.Fprintln(s.out)
}

func (s *shell) showHelp() {
	fmt.Fprintln(s.out, s.colors.Header.Sprint("\nFile tools:"))
	w := tabwriter.NewWriter(s.out, 0, 8, 2, ' ', 0)
	for _, d := range s.registry.Describe() {
		fmt.Fprintf(w, "  %s\t%s\n", d.Name, d.Description)
	}
	w.Flush()

	fmt.Fprintln(s.out, s.colors.Header.Sprint("\nCommands:"))
	w = tabwriter.NewWriter(s.out, 0, 8, 2, ' ', 0)
	for _, cmd := range getAvailableCommands() {
		name := cmd.Name
		if len(cmd.Aliases) > 0 {
			name += " (" + strings.Join(cmd.Aliases, ", ") + ")"
		}
		fmt.Fprintf(w, "  %s\t%s\n", name, cmd.Description)
	}
	w.Flush()

	fmt.Fprintln(s.out, "\nKeyboard Shortcuts:")
	fmt.Fprintln(s.out, "  Ctrl+C       - Cancel the running request")
	fmt.Fprintln(s.out, "  Ctrl+D       - Exit on an empty line")
	fmt.Fprintln(s.out, "  Tab          - Auto-complete commands")
	fmt.Fprintln(s.out)
}

// getCommandCompleter builds a readline completer from available commands
func getCommandCompleter() *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	for _, cmd := range getAvailableCommands() {
		items = append(items, readline.PcItem(cmd.Name))
		for _, alias := range cmd.Aliases {
			items = append(items, readline.PcItem(alias))
		}
	}
	return readline.NewPrefixCompleter(items...)
}
