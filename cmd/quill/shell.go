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
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"quill/internal/backend"
	"quill/internal/chat"
	"quill/internal/config"
	"quill/internal/paths"
	"quill/internal/theme"
	"quill/internal/tools"
)

const traceDetailLimit = 500

// shell wires the workspace, the tool registry and the turn controller to a
// terminal or a stream of requests.
type shell struct {
	cfg        *config.Config
	controller *chat.Controller
	registry   *tools.Registry
	workspace  *tools.Workspace
	colors     *theme.ColorScheme
	out        io.Writer
	logger     zerolog.Logger
	warnings   []config.ValidationWarning
	debug      bool
}

func newShell(cfg *config.Config, generator backend.Generator, colors *theme.ColorScheme, out io.Writer, logger zerolog.Logger) (*shell, error) {
	root, err := filepath.Abs(paths.ExpandHome(cfg.Workspace))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace %s: %w", cfg.Workspace, err)
	}
	sandbox, err := paths.NewSandbox(root)
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace %s: %w", root, err)
	}
	logger.Info().Str("workspace", sandbox.Root()).Msg("Workspace ready")

	workspace := tools.NewWorkspace(sandbox, cfg.ToolLimitsConfig(), logger)
	registry := tools.NewRegistryWithOptions(workspace, tools.Options{
		Filters:  cfg.ToolOutputFiltersConfig(),
		Timeouts: cfg.ToolTimeoutsConfig(),
	})
	controller := chat.NewController(generator, registry, sandbox.Root(),
		chat.WithTimeout(cfg.Timeout()),
		chat.WithLogger(logger),
	)

	return &shell{
		cfg:        cfg,
		controller: controller,
		registry:   registry,
		workspace:  workspace,
		colors:     colors,
		out:        out,
		logger:     logger,
		warnings:   cfg.Validate(registry),
	}, nil
}

// setDebug switches the turn trace on or off.
func (s *shell) setDebug(enabled bool) {
	s.debug = enabled
	if !enabled {
		s.controller.SetTrace(nil)
		return
	}
	s.controller.SetTrace(s.printEvent)
}

func (s *shell) printEvent(ev chat.Event) {
	s.colors.Debug.Fprintf(s.out, "[debug] %s: %s\n", ev.State, truncate(ev.Detail, traceDetailLimit))
}

// runOnce executes a single turn and prints its final text.
func (s *shell) runOnce(ctx context.Context, request string) *chat.Turn {
	s.logger.Info().Str("user_input", request).Msg("User input received")

	start := time.Now()
	turn := s.controller.Run(ctx, request)
	duration := time.Since(start)

	event := s.logger.Info().
		Str("turn", turn.ID).
		Dur("duration_ms", duration)
	if turn.Invocation != nil {
		event = event.Str("tool", turn.Invocation.Name)
	}
	event.Msg("Turn completed")

	s.printAnswer(turn)
	return turn
}

func (s *shell) printAnswer(turn *chat.Turn) {
	if turn.Invocation != nil {
		s.colors.Tool.Fprintf(s.out, "[%s]\n", turn.Invocation.Name)
	}
	if strings.HasPrefix(turn.FinalText, "Error:") {
		s.colors.Error.Fprintln(s.out, turn.FinalText)
		return
	}
	s.colors.Assistant.Fprintln(s.out, turn.FinalText)
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
