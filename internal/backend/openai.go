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
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// ChatClient is the part of the OpenAI client the backend uses.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Verify that openai.Client implements ChatClient at compile time.
var _ ChatClient = (*openai.Client)(nil)

// OpenAIClient generates completions through an OpenAI compatible chat
// endpoint, sending the whole prompt as a single user message.
type OpenAIClient struct {
	client ChatClient
	model  string
}

// NewOpenAIClient creates a client for baseURL, or the public API when empty.
func NewOpenAIClient(baseURL, apiKey, model string, timeout time.Duration) *OpenAIClient {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	clientConfig.HTTPClient = &http.Client{Timeout: timeout}
	return NewOpenAIClientWithClient(openai.NewClientWithConfig(clientConfig), model)
}

// NewOpenAIClientWithClient wraps an existing chat client (for testing).
func NewOpenAIClientWithClient(client ChatClient, model string) *OpenAIClient {
	return &OpenAIClient{client: client, model: model}
}

// Name identifies the backend in logs.
func (c *OpenAIClient) Name() string {
	return KindOpenAI
}

// Generate sends one chat completion request. TopK has no counterpart in the
// chat completion API and is not sent.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: opts.Temperature,
		TopP:        opts.TopP,
		MaxTokens:   opts.MaxTokens,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", &Error{Backend: KindOpenAI, Op: "create_completion", Err: err}
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &Error{Backend: KindOpenAI, Op: "create_completion", Err: ErrEmptyResponse}
	}
	return resp.Choices[0].Message.Content, nil
}
