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
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
)

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  *bool          `json:"stream"`
	Options map[string]any `json:"options"`
}

func almostEqual(a any, want float64) bool {
	f, ok := a.(float64)
	return ok && math.Abs(f-want) < 1e-6
}

func TestOllamaGenerateSendsDecideProfile(t *testing.T) {
	var got generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, `{"model":"gemma3:270m","response":"TOOL: list_files\nARGS: *","done":true}`)
	}))
	defer server.Close()

	client, err := NewOllamaClient(server.URL, "gemma3:270m", 5*time.Second)
	if err != nil {
		t.Fatalf("NewOllamaClient failed: %v", err)
	}
	out, err := client.Generate(context.Background(), "list my files", DecideProfile())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if out != "TOOL: list_files\nARGS: *" {
		t.Fatalf("unexpected completion %q", out)
	}

	if got.Model != "gemma3:270m" || got.Prompt != "list my files" {
		t.Fatalf("unexpected request %+v", got)
	}
	if got.Stream == nil || *got.Stream {
		t.Fatal("expected stream=false")
	}
	if !almostEqual(got.Options["temperature"], 0.1) || !almostEqual(got.Options["top_k"], 10) ||
		!almostEqual(got.Options["top_p"], 0.8) || !almostEqual(got.Options["num_predict"], 512) {
		t.Fatalf("unexpected options %v", got.Options)
	}
}

func TestOllamaFollowupProfileOmitsUnsetOptions(t *testing.T) {
	options := ollamaOptions(FollowupProfile())
	if _, ok := options["top_k"]; ok {
		t.Fatalf("top_k should be left to the server default: %v", options)
	}
	if _, ok := options["top_p"]; ok {
		t.Fatalf("top_p should be left to the server default: %v", options)
	}
	if options["num_predict"] != 256 {
		t.Fatalf("expected num_predict 256, got %v", options["num_predict"])
	}
}

func TestOllamaGenerateFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprintln(w, `{"error":"model 'missing' not found"}`)
			},
		},
		{
			name: "malformed payload",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprintln(w, "this is not json")
			},
		},
		{
			name: "empty payload",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			},
		},
		{
			name: "done without text",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprintln(w, `{"model":"missing","response":"","done":true}`)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client, err := NewOllamaClient(server.URL, "missing", 5*time.Second)
			if err != nil {
				t.Fatalf("NewOllamaClient failed: %v", err)
			}
			_, err = client.Generate(context.Background(), "hi", DecideProfile())
			var berr *Error
			if !errors.As(err, &berr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if berr.Backend != KindOllama {
				t.Fatalf("unexpected backend %q", berr.Backend)
			}
		})
	}
}

func TestOllamaGenerateTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client, err := NewOllamaClient(server.URL, "slow", 5*time.Second)
	if err != nil {
		t.Fatalf("NewOllamaClient failed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = client.Generate(ctx, "hi", DecideProfile())
	var berr *Error
	if !errors.As(err, &berr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if !berr.Timeout() {
		t.Fatalf("expected a timeout, got %v", err)
	}
}

func TestNewOllamaClientRejectsBadURL(t *testing.T) {
	if _, err := NewOllamaClient("localhost", "m", time.Second); err == nil {
		t.Fatal("expected error for URL without scheme")
	}
}

type fakeChatClient struct {
	requests []openai.ChatCompletionRequest
	resp     openai.ChatCompletionResponse
	err      error
}

func (f *fakeChatClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.requests = append(f.requests, req)
	return f.resp, f.err
}

func TestOpenAIGenerateMapsOptions(t *testing.T) {
	fake := &fakeChatClient{resp: openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: "done"}}},
	}}
	client := NewOpenAIClientWithClient(fake, "gpt-4o-mini")

	out, err := client.Generate(context.Background(), "prompt text", DecideProfile())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if out != "done" {
		t.Fatalf("unexpected completion %q", out)
	}
	if len(fake.requests) != 1 {
		t.Fatalf("expected exactly one request, got %d", len(fake.requests))
	}
	req := fake.requests[0]
	if req.Model != "gpt-4o-mini" || len(req.Messages) != 1 || req.Messages[0].Content != "prompt text" || req.Messages[0].Role != openai.ChatMessageRoleUser {
		t.Fatalf("unexpected request %+v", req)
	}
	if req.Temperature != 0.1 || req.TopP != 0.8 || req.MaxTokens != 512 {
		t.Fatalf("unexpected decoding options %+v", req)
	}
}

func TestOpenAIGenerateFailures(t *testing.T) {
	client := NewOpenAIClientWithClient(&fakeChatClient{}, "m")
	if _, err := client.Generate(context.Background(), "p", FollowupProfile()); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}

	client = NewOpenAIClientWithClient(&fakeChatClient{resp: openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant}}},
	}}, "m")
	if _, err := client.Generate(context.Background(), "p", FollowupProfile()); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse for empty content, got %v", err)
	}

	boom := errors.New("connection refused")
	client = NewOpenAIClientWithClient(&fakeChatClient{err: boom}, "m")
	_, err := client.Generate(context.Background(), "p", FollowupProfile())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped transport error, got %v", err)
	}
}

func TestOpenAIClientOverHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","model":"m","choices":[{"index":0,"message":{"role":"assistant","content":"hello there"},"finish_reason":"stop"}]}`)
	}))
	defer server.Close()

	client := NewOpenAIClient(server.URL+"/v1", "test-key", "m", 5*time.Second)
	out, err := client.Generate(context.Background(), "hi", FollowupProfile())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if out != "hello there" {
		t.Fatalf("unexpected completion %q", out)
	}
}

func TestNewSelectsBackend(t *testing.T) {
	gen, err := New(Config{Kind: KindOpenAI, Model: "m", BaseURL: "http://localhost:1/v1"})
	if err != nil || gen.Name() != KindOpenAI {
		t.Fatalf("expected openai backend, got %v, %v", gen, err)
	}
	gen, err = New(Config{Model: "m"})
	if err != nil || gen.Name() != KindOllama {
		t.Fatalf("expected ollama default, got %v, %v", gen, err)
	}
	if _, err := New(Config{Kind: "llamafile"}); !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("expected ErrUnknownBackend, got %v", err)
	}
}
