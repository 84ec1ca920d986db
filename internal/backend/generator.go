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

// Package backend talks to the text-completion service that drives a turn.
package backend

import (
	"context"
	"fmt"
	"time"
)

// Supported backend kinds.
const (
	KindOllama = "ollama"
	KindOpenAI = "openai"
)

// DefaultTimeout bounds a single completion request.
const DefaultTimeout = 30 * time.Second

// Options are the decoding options of one completion request. A zero field
// leaves the backend's own default in place.
type Options struct {
	Temperature float32
	TopK        int
	TopP        float32
	MaxTokens   int
}

// DecideProfile is used for the call that decides whether to use a tool:
// near-deterministic and with room for file content.
func DecideProfile() Options {
	return Options{Temperature: 0.1, TopK: 10, TopP: 0.8, MaxTokens: 512}
}

// FollowupProfile is used for the call that summarizes a tool result.
func FollowupProfile() Options {
	return Options{Temperature: 0.3, MaxTokens: 256}
}

// Generator produces the completion of a single prompt. Implementations make
// exactly one request per call and never retry.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
	Name() string
}

// Config selects and configures a backend.
type Config struct {
	Kind    string
	Model   string
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// New builds the Generator named by cfg.Kind.
func New(cfg Config) (Generator, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	switch cfg.Kind {
	case KindOllama, "":
		client, err := NewOllamaClient(cfg.BaseURL, cfg.Model, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		return client, nil
	case KindOpenAI:
		return NewOpenAIClient(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Timeout), nil
	default:
		return nil, &Error{Backend: cfg.Kind, Op: "configure", Err: fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Kind)}
	}
}
