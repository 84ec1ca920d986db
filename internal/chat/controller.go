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

package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"quill/internal/backend"
	apperrors "quill/internal/errors"
	"quill/internal/protocol"
	"quill/internal/tools"
	systemprompt "quill/system_prompt"
)

// State is the position of a turn in its lifecycle.
type State int

const (
	StatePrompting State = iota + 1
	StateAwaitingModel
	StateDispatch
	StateAwaitingFollowup
	StateDone
)

func (s State) String() string {
	switch s {
	case StatePrompting:
		return "prompting"
	case StateAwaitingModel:
		return "awaiting_model"
	case StateDispatch:
		return "dispatch"
	case StateAwaitingFollowup:
		return "awaiting_followup"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Turn records one request from the user and everything that happened to it.
// Turns share no state with each other.
type Turn struct {
	ID            string
	UserPrompt    string
	ModelResponse string
	Invocation    *protocol.Invocation
	Result        *tools.Result
	FinalText     string
	State         State
	// Err is the fault that shaped FinalText, if any. It is for logs only;
	// FinalText already carries the user-facing message.
	Err error
}

// Event is one step of a turn reported to a TraceFunc.
type Event struct {
	TurnID string
	State  State
	Detail string
}

// TraceFunc observes turn progress. It runs synchronously on the turn's goroutine.
type TraceFunc func(Event)

// Controller runs turns: prompt the model, parse its reply, run at most one
// tool and ask the model to summarize the result.
type Controller struct {
	generator  backend.Generator
	dispatcher Dispatcher
	workspace  string
	timeout    time.Duration
	logger     zerolog.Logger
	trace      TraceFunc
}

// Option configures a Controller.
type Option func(*Controller)

// WithTimeout bounds each backend call.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Controller) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithLogger sets the logger used for turn diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithTrace installs a hook that sees every turn event.
func WithTrace(fn TraceFunc) Option {
	return func(c *Controller) {
		c.trace = fn
	}
}

// NewController creates a controller. workspace is the absolute root shown to the model.
func NewController(generator backend.Generator, dispatcher Dispatcher, workspace string, opts ...Option) *Controller {
	c := &Controller{
		generator:  generator,
		dispatcher: dispatcher,
		workspace:  workspace,
		timeout:    backend.DefaultTimeout,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetTrace replaces the trace hook; nil disables tracing. Not safe while a turn runs.
func (c *Controller) SetTrace(fn TraceFunc) {
	c.trace = fn
}

// Run executes one turn. It always returns a finished turn whose FinalText is
// ready to show; failures are rendered as "Error: ..." text.
func (c *Controller) Run(ctx context.Context, prompt string) *Turn {
	turn := &Turn{ID: uuid.NewString(), UserPrompt: prompt}
	c.emit(turn, StatePrompting, "request: "+prompt)

	decidePrompt, err := systemprompt.RenderDecide(systemprompt.DecideData{
		Workspace: c.workspace,
		Tools:     catalogue(c.dispatcher.Describe()),
		Request:   prompt,
	})
	if err != nil {
		perr := &PromptError{Template: "decide", Err: err}
		return c.finish(turn, apperrors.UserMessage(perr), perr, "prompt rendering failed")
	}

	c.emit(turn, StateAwaitingModel, fmt.Sprintf("sending prompt (%d chars) to %s", len(decidePrompt), c.generator.Name()))
	response, err := c.generate(ctx, decidePrompt, backend.DecideProfile())
	if err != nil {
		if ctx.Err() != nil {
			return c.cancelled(turn)
		}
		apiErr := &APIError{Operation: "decide", Err: err}
		return c.finish(turn, backendFailureMessage(err), apiErr, "backend call failed")
	}
	turn.ModelResponse = response
	c.emit(turn, StateAwaitingModel, "model response: "+response)

	inv, err := protocol.Parse(response)
	if err != nil {
		// No usable tool call: the reply is the answer.
		c.logger.Debug().Str("turn", turn.ID).Err(err).Msg("No tool call in model response")
		return c.finish(turn, response, nil, "plain answer")
	}
	turn.Invocation = &inv

	if ctx.Err() != nil {
		return c.cancelled(turn)
	}

	c.emit(turn, StateDispatch, fmt.Sprintf("tool: %s, args: %s", inv.Name, inv.Args))
	result := c.dispatcher.Dispatch(ctx, inv.Name, inv.Args)
	turn.Result = &result
	c.emit(turn, StateDispatch, "tool result: "+result.Output)
	if errors.Is(result.Err, tools.ErrToolNotFound) {
		return c.finish(turn, result.Output, result.Err, "unknown tool")
	}

	followupPrompt, err := systemprompt.RenderFollowup(systemprompt.FollowupData{
		Tool:    inv.Name,
		Result:  result.Output,
		Request: prompt,
	})
	if err != nil {
		return c.finish(turn, result.Output, &PromptError{Template: "followup", Err: err}, "returning tool result")
	}

	c.emit(turn, StateAwaitingFollowup, "asking the model to summarize the result")
	final, err := c.generate(ctx, followupPrompt, backend.FollowupProfile())
	if err != nil {
		return c.finish(turn, result.Output, &APIError{Operation: "followup", Err: err}, "follow-up failed, returning tool result")
	}
	if strings.TrimSpace(final) == "" {
		return c.finish(turn, result.Output, backend.ErrEmptyResponse, "empty follow-up, returning tool result")
	}
	return c.finish(turn, final, nil, "answered")
}

func (c *Controller) generate(ctx context.Context, prompt string, opts backend.Options) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.generator.Generate(callCtx, prompt, opts)
}

func (c *Controller) cancelled(turn *Turn) *Turn {
	return c.finish(turn, apperrors.UserMessage(ErrTurnCancelled), ErrTurnCancelled, "cancelled")
}

func (c *Controller) finish(turn *Turn, text string, err error, reason string) *Turn {
	turn.FinalText = text
	turn.Err = err
	c.emit(turn, StateDone, reason)
	if err != nil {
		c.logger.Info().Str("turn", turn.ID).Err(err).Msg("Turn finished with a fault")
	}
	return turn
}

func (c *Controller) emit(turn *Turn, state State, detail string) {
	turn.State = state
	c.logger.Debug().Str("turn", turn.ID).Str("state", state.String()).Msg(detail)
	if c.trace != nil {
		c.trace(Event{TurnID: turn.ID, State: state, Detail: detail})
	}
}

func backendFailureMessage(err error) string {
	var berr *backend.Error
	if errors.As(err, &berr) && berr.Timeout() {
		err = fmt.Errorf("request timed out: %w", err)
	}
	return apperrors.UserMessage(apperrors.New(apperrors.CodeBackend, "could not reach the model backend: "+err.Error()))
}

func catalogue(descriptors []tools.Descriptor) []systemprompt.Tool {
	out := make([]systemprompt.Tool, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, systemprompt.Tool{Name: d.Name, Description: d.Description})
	}
	return out
}
