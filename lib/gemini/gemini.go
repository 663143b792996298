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

// Package gemini talks to the Google generative language API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/defsub/clipcast/config"
	"github.com/defsub/clipcast/lib/client"
)

type Gemini struct {
	config config.GeminiAPIConfig
	client *client.Client
}

func NewGemini(config *config.Config) *Gemini {
	return &Gemini{
		config: config.AI.Gemini,
		client: client.NewClient(&config.Client),
	}
}

func (g *Gemini) Name() string {
	return "gemini"
}

func (g *Gemini) Configured() bool {
	return g.config.Key != ""
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type candidate struct {
	Content content `json:"content"`
}

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
}

type embedRequest struct {
	Model   string  `json:"model"`
	Content content `json:"content"`
}

type batchEmbedRequest struct {
	Requests []embedRequest `json:"requests"`
}

type embedding struct {
	Values []float32 `json:"values"`
}

type batchEmbedResponse struct {
	Embeddings []embedding `json:"embeddings"`
}

// Embed returns one vector per input text via the batch endpoint.
func (g *Gemini) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	url := fmt.Sprintf("%s/models/%s:batchEmbedContents?key=%s",
		strings.TrimSuffix(g.config.URL, "/"), g.config.EmbedModel, g.config.Key)
	request := batchEmbedRequest{
		Requests: make([]embedRequest, 0, len(texts)),
	}
	for _, text := range texts {
		request.Requests = append(request.Requests, embedRequest{
			Model:   "models/" + g.config.EmbedModel,
			Content: content{Parts: []part{{Text: text}}},
		})
	}
	var response batchEmbedResponse
	err := g.client.PostJsonWith(ctx, nil, url, request, &response)
	if err != nil {
		return nil, err
	}
	if len(response.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings got %d",
			len(texts), len(response.Embeddings))
	}
	vectors := make([][]float32, len(response.Embeddings))
	for i, e := range response.Embeddings {
		vectors[i] = e.Values
	}
	return vectors, nil
}

func (g *Gemini) GenerateText(ctx context.Context, prompt string) (string, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		strings.TrimSuffix(g.config.URL, "/"), g.config.Model, g.config.Key)
	request := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	}
	var response generateResponse
	err := g.client.PostJsonWith(ctx, nil, url, request, &response)
	if err != nil {
		return "", err
	}
	var text strings.Builder
	for _, c := range response.Candidates {
		for _, p := range c.Content.Parts {
			text.WriteString(p.Text)
		}
	}
	if text.Len() == 0 {
		return "", errors.New("empty gemini response")
	}
	return text.String(), nil
}
