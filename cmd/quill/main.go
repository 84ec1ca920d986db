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
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"quill/internal/backend"
	"quill/internal/config"
	"quill/internal/theme"
)

type options struct {
	configPath    string
	workspace     string
	model         string
	backend       string
	baseURL       string
	debug         bool
	logFile       string
	exampleConfig bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "quill [prompt...]",
		Short: "Let a local language model work on the files of a sandboxed workspace",
		Long: `quill asks a language model to handle a request and lets it call one file tool
(read, write, append, list, delete, info, search) inside the workspace directory.

Without arguments it starts an interactive shell. With arguments it runs a
single request. With "-" or piped input it runs one request per input line.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, args, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "quill.yaml", "Config file path")
	flags.StringVarP(&opts.workspace, "workspace", "w", "", "Workspace directory (overrides config)")
	flags.StringVarP(&opts.model, "model", "m", "", "Model name (overrides config)")
	flags.StringVar(&opts.backend, "backend", "", `Model backend: "ollama" or "openai" (overrides config)`)
	flags.StringVar(&opts.baseURL, "base-url", "", "Backend base URL (overrides config)")
	flags.BoolVarP(&opts.debug, "debug", "d", false, "Enable debug mode")
	flags.StringVar(&opts.logFile, "log-file", "", "Log file path (logs disabled by default)")
	flags.BoolVar(&opts.exampleConfig, "example-config", false, "Print an example config file and exit")
	return cmd
}

func run(ctx context.Context, opts *options, args []string, in io.Reader, out io.Writer) error {
	if opts.exampleConfig {
		example, err := config.ExampleConfigYAML()
		if err != nil {
			return err
		}
		_, err = io.WriteString(out, example)
		return err
	}

	logger, closer, err := initLogger(opts.debug, opts.logFile)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}
	logger.Info().Msg("quill starting")

	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if err := cfg.ApplyOverrides(config.Overrides{
		Backend:   opts.backend,
		Model:     opts.model,
		BaseURL:   opts.baseURL,
		Workspace: opts.workspace,
	}); err != nil {
		return err
	}

	themes, err := theme.NewManager(cfg.ThemeFile)
	if err != nil {
		return err
	}
	interactive := len(args) == 0 && isTerminal(in)
	if !interactive && !isTerminal(out) {
		themes.DisableColor()
	}

	generator, err := backend.New(cfg.BackendConfig())
	if err != nil {
		return err
	}

	sh, err := newShell(cfg, generator, themes.ColorScheme(), out, logger)
	if err != nil {
		return err
	}
	for _, warning := range sh.warnings {
		logger.Warn().Str("field", warning.Field).Msg(warning.Message)
		if interactive {
			sh.colors.Error.Fprintf(out, "Warning: %s: %s\n", warning.Field, warning.Message)
		}
	}
	sh.setDebug(initialTrace(interactive, opts.debug))

	if ctx == nil {
		ctx = context.Background()
	}

	switch {
	case len(args) == 1 && args[0] == "-":
		return sh.runBatch(ctx, in)
	case len(args) > 0:
		sh.runOnce(ctx, strings.Join(args, " "))
		return nil
	case !interactive:
		return sh.runBatch(ctx, in)
	default:
		return sh.runInteractive(ctx)
	}
}

// initialTrace decides whether turns are traced from the start. The
// interactive shell starts verbose; one-shot and batch output stays clean
// unless -d is given.
func initialTrace(interactive, debug bool) bool {
	return interactive || debug
}

func initLogger(debug bool, logFilePath string) (zerolog.Logger, io.Closer, error) {
	// Set log level
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Configure output
	var output io.Writer
	var closer io.Closer
	if logFilePath != "" {
		// Log to file only
		file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("failed to open log file: %w", err)
		}
		output = file
		closer = file
	} else {
		// No logging to console by default - use io.Discard
		output = io.Discard
	}

	// Create logger with timestamp
	return zerolog.New(output).With().Timestamp().Logger(), closer, nil
}

type fileDescriptor interface {
	Fd() uintptr
}

func isTerminal(v any) bool {
	f, ok := v.(fileDescriptor)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
