// Copyright (C) 2023 The Clipcast Authors.
//
// This file is part of Clipcast.
//
// Clipcast is free software: you can redistribute it and/or modify it under the
// terms of the GNU Affero General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.
//
// Clipcast is distributed in the hope that it will be useful, but WITHOUT ANY
// WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS
// FOR A PARTICULAR PURPOSE.  See the GNU Affero General Public License for
// more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with Clipcast.  If not, see <https://www.gnu.org/licenses/>.

// Package openai wraps the official OpenAI client for text generation
// and for embeddings. Embeddings are requested at 1024 dimensions to
// match the vector collection.
package openai

import (
	"context"
	"errors"
	"strings"

	openaigo "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/defsub/clipcast/config"
)

type OpenAI struct {
	config config.OpenAIAPIConfig
	client openaigo.Client
}

func NewOpenAI(config *config.Config) *OpenAI {
	return &OpenAI{
		config: config.AI.OpenAI,
		client: openaigo.NewClient(option.WithAPIKey(config.AI.OpenAI.Key)),
	}
}

func (o *OpenAI) Name() string {
	return "openai"
}

func (o *OpenAI) Configured() bool {
	return o.config.Key != ""
}

func (o *OpenAI) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openaigo.ChatCompletionNewParams{
		Messages: []openaigo.ChatCompletionMessageParamUnion{
			openaigo.UserMessage(prompt),
		},
		Model: o.config.Model,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty openai response")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("empty openai response")
	}
	return text, nil
}

func (o *OpenAI) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := o.client.Embeddings.New(ctx, openaigo.EmbeddingNewParams{
		Input: openaigo.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
		Model:      openaigo.EmbeddingModel(o.config.EmbedModel),
		Dimensions: openaigo.Int(1024),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, errors.New("embedding count mismatch")
	}
	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		vector := make([]float32, len(d.Embedding))
		for i, f := range d.Embedding {
			vector[i] = float32(f)
		}
		vectors[d.Index] = vector
	}
	return vectors, nil
}
