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

// Package voyage embeds text with the Voyage AI API. Voyage vectors are
// 1024-dim which is what the vector collection is sized for.
package voyage

import (
	"context"
	"errors"

	"github.com/defsub/clipcast/config"
	"github.com/defsub/clipcast/lib/client"
)

type Voyage struct {
	config config.VoyageAPIConfig
	client *client.Client
}

func NewVoyage(config *config.Config) *Voyage {
	return &Voyage{
		config: config.AI.Voyage,
		client: client.NewClient(&config.Client),
	}
}

type embedRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embedData struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type embedResponse struct {
	Data []embedData `json:"data"`
}

func (v *Voyage) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	headers := map[string]string{
		"Authorization": "Bearer " + v.config.Key,
	}
	request := embedRequest{Input: texts, Model: v.config.Model}
	var response embedResponse
	err := v.client.PostJsonWith(ctx, headers, v.config.URL, request, &response)
	if err != nil {
		return nil, err
	}
	if len(response.Data) != len(texts) {
		return nil, errors.New("embedding count mismatch")
	}
	vectors := make([][]float32, len(texts))
	for _, d := range response.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, errors.New("embedding index out of range")
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}
