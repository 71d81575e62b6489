// Copyright (c) 2025 The Rusted Workshop Project and its Contributors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package translator wraps the external translation model behind a small
// batch-oriented interface. Batches go out as numbered lists and come back as
// JSON arrays of equal length; anything else is an error and is retried with
// exponential backoff.
package translator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	openai "github.com/sashabaranov/go-openai"
)

// Translator translates batches of source strings and analyzes the style of
// sample text. Implementations are safe for concurrent use.
type Translator interface {
	// Translate returns one translated string per input string, in order.
	Translate(ctx context.Context, batch []string, style, targetLanguage string) ([]string, error)
	// AnalyzeStyle derives a short style hint from a sample of source text.
	AnalyzeStyle(ctx context.Context, sample string) (string, error)
}

// model and retry parameters for the translator
type Options struct {
	// the model identifier passed to the chat completion API
	Model string
	// the API key; empty selects passthrough mode
	APIKey string
	// an optional OpenAI-compatible base URL
	BaseURL string
	// maximum attempts per batch (minimum 1; 0 selects the default of 3)
	MaxAttempts int
}

const defaultMaxAttempts = 3

// backoff parameters for failed attempts
const retryInitialInterval = 500 * time.Millisecond
const retryMaxInterval = 10 * time.Second

// New creates a translator from the given options. Without an API key it
// returns the passthrough translator, which maps every input to itself: the
// pipeline still runs end to end, it just doesn't translate.
func New(options Options) Translator {
	if options.APIKey == "" {
		return Passthrough{}
	}
	if options.MaxAttempts <= 0 {
		options.MaxAttempts = defaultMaxAttempts
	}
	return &modelTranslator{options: options}
}

// Passthrough is the degraded-mode translator: identity mapping, neutral
// style.
type Passthrough struct{}

func (Passthrough) Translate(ctx context.Context, batch []string,
	style, targetLanguage string) ([]string, error) {
	out := make([]string, len(batch))
	copy(out, batch)
	return out, nil
}

func (Passthrough) AnalyzeStyle(ctx context.Context, sample string) (string, error) {
	return NeutralStyle, nil
}

// the model-backed translator
type modelTranslator struct {
	options Options
}

// each call opens its own session; sessions are never shared between
// goroutines
func (t *modelTranslator) newClient() *openai.Client {
	cfg := openai.DefaultConfig(t.options.APIKey)
	if t.options.BaseURL != "" {
		cfg.BaseURL = t.options.BaseURL
	}
	return openai.NewClientWithConfig(cfg)
}

func (t *modelTranslator) Translate(ctx context.Context, batch []string,
	style, targetLanguage string) ([]string, error) {
	if len(batch) == 0 {
		return nil, nil
	}

	var result []string
	operation := func() error {
		content, err := t.complete(ctx,
			translateSystemPrompt(len(batch), targetLanguage, style),
			numberedList(batch))
		if err != nil {
			return err
		}
		result, err = parseBatchResponse(content, len(batch))
		return err
	}
	if err := t.retry(ctx, operation); err != nil {
		return nil, err
	}
	return result, nil
}

func (t *modelTranslator) AnalyzeStyle(ctx context.Context, sample string) (string, error) {
	var result string
	operation := func() error {
		content, err := t.complete(ctx, styleSystemPrompt, sample)
		if err != nil {
			return err
		}
		result = strings.TrimSpace(content)
		if result == "" {
			return &EmptyResponseError{}
		}
		return nil
	}
	if err := t.retry(ctx, operation); err != nil {
		return "", err
	}
	return result, nil
}

// performs one chat completion round trip, returning the raw content
func (t *modelTranslator) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := t.newClient().CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: t.options.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", &EmptyResponseError{}
	}
	return resp.Choices[0].Message.Content, nil
}

// retries the operation with exponential backoff (0.5s initial, 10s cap,
// ±50% jitter) up to the configured attempt budget
func (t *modelTranslator) retry(ctx context.Context, operation func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = retryInitialInterval
	policy.MaxInterval = retryMaxInterval
	return backoff.Retry(operation,
		backoff.WithContext(
			backoff.WithMaxRetries(policy, uint64(t.options.MaxAttempts-1)), ctx))
}

// renders a batch as a 1-based numbered list, one source string per line
func numberedList(batch []string) string {
	var sb strings.Builder
	for i, text := range batch {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, text)
	}
	return sb.String()
}

// parseBatchResponse extracts a JSON array of exactly n strings from the
// model's reply, tolerating a single fenced code block around it.
func parseBatchResponse(content string, n int) ([]string, error) {
	content = stripCodeFence(strings.TrimSpace(content))

	var result []string
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, &MalformedResponseError{Reason: err.Error()}
	}
	if len(result) != n {
		return nil, &LengthMismatchError{Want: n, Got: len(result)}
	}
	return result, nil
}

// removes a leading/trailing markdown code fence if present
func stripCodeFence(content string) string {
	if !strings.HasPrefix(content, "```") {
		return content
	}
	lines := strings.Split(content, "\n")
	if len(lines) < 2 {
		return content
	}
	lines = lines[1:] // drop ```json (or bare ```)
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
