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
	"strings"

	"github.com/chzyer/readline"

	"quill/internal/paths"
)

func (s *shell) runInteractive(ctx context.Context) error {
	s.logger.Debug().Msg("Running in interactive mode")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:              s.colors.User.Sprint("❯ "),
		HistoryFile:         paths.ExpandHome(s.cfg.CommandHistoryFile),
		AutoComplete:        getCommandCompleter(),
		InterruptPrompt:     "^C",
		EOFPrompt:           "exit",
		FuncFilterInputRune: filterInterruptRune,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()

	canceler := &operationCanceler{}
	stopInterrupts := watchInterrupts(canceler)
	defer stopInterrupts()

	s.printBanner()

	// Main event loop
	for {
		line, err := rl.Readline()
		switch classifyReadlineError(line, err) {
		case readlineContinue:
			continue
		case readlineExit:
			s.logger.Debug().Msg("Readline reached end of input")
			fmt.Fprintln(s.out, "Goodbye!")
			return nil
		case readlineUnhandled:
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
		}

		line = strings.TrimSpace(sanitizeInputLine(line))
		if line == "" {
			continue
		}

		if name, ok := lookupCommand(line); ok {
			if s.handleCommand(name) {
				fmt.Fprintln(s.out, "Goodbye!")
				s.logger.Info().Msg("Session ended")
				return nil
			}
			continue
		}

		turnCtx, cancel := context.WithCancel(ctx)
		canceler.Set(cancel)
		s.runOnce(turnCtx, line)
		canceler.Clear()
		cancel()
		fmt.Fprintln(s.out)
	}
}
