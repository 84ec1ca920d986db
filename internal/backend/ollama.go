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

package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// DefaultOllamaURL is where a local Ollama server listens.
const DefaultOllamaURL = "http://localhost:11434"

// OllamaClient generates completions through Ollama's native generate endpoint.
type OllamaClient struct {
	client *api.Client
	model  string
}

// NewOllamaClient creates a client for the server at baseURL.
func NewOllamaClient(baseURL, model string, timeout time.Duration) (*OllamaClient, error) {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, &Error{Backend: KindOllama, Op: "configure", Err: err}
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, &Error{Backend: KindOllama, Op: "configure", Err: fmt.Errorf("base URL %q needs a scheme and host", baseURL)}
	}
	httpClient := &http.Client{Timeout: timeout}
	return &OllamaClient{client: api.NewClient(u, httpClient), model: model}, nil
}

// Name identifies the backend in logs.
func (c *OllamaClient) Name() string {
	return KindOllama
}

// Generate sends one non-streaming generate request.
func (c *OllamaClient) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:   c.model,
		Prompt:  prompt,
		Stream:  &stream,
		Options: ollamaOptions(opts),
	}

	var out strings.Builder
	err := c.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		out.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", &Error{Backend: KindOllama, Op: "generate", Err: err}
	}
	if out.Len() == 0 {
		return "", &Error{Backend: KindOllama, Op: "generate", Err: ErrEmptyResponse}
	}
	return out.String(), nil
}

func ollamaOptions(opts Options) map[string]any {
	options := make(map[string]any, 4)
	if opts.Temperature > 0 {
		options["temperature"] = opts.Temperature
	}
	if opts.TopK > 0 {
		options["top_k"] = opts.TopK
	}
	if opts.TopP > 0 {
		options["top_p"] = opts.TopP
	}
	if opts.MaxTokens > 0 {
		options["num_predict"] = opts.MaxTokens
	}
	return options
}
