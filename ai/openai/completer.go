// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package openai

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/juris/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Completer generates text with an OpenAI-compatible chat model.
type Completer struct {
	llm     llms.Model
	timeout time.Duration
	logger  *slog.Logger
}

var _ ai.Completer = (*Completer)(nil)

func newCompleter(config *ai.Config) (*Completer, error) {
	opts := append(clientOptions(config), openai.WithModel(config.CompletionModel))
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, err
	}
	return &Completer{
		llm:     llm,
		timeout: config.CompletionTimeout,
		logger:  slog.Default().With("component", "openai-completer", "model", config.CompletionModel),
	}, nil
}

func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := llms.GenerateFromSinglePrompt(ctx, c.llm, prompt, llms.WithTemperature(0.2))
	if err != nil {
		c.logger.Error("completion failed", "err", err)
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", ai.ErrEmptyResponse
	}
	return out, nil
}
