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

// Package claude talks to the Anthropic messages API.
package claude

import (
	"context"
	"errors"
	"strings"

	"github.com/defsub/clipcast/config"
	"github.com/defsub/clipcast/lib/client"
)

const (
	apiVersion = "2023-06-01"
	maxTokens  = 4096
)

type Claude struct {
	config config.ClaudeAPIConfig
	client *client.Client
}

func NewClaude(config *config.Config) *Claude {
	return &Claude{
		config: config.AI.Claude,
		client: client.NewClient(&config.Client),
	}
}

func (c *Claude) Name() string {
	return "claude"
}

func (c *Claude) Configured() bool {
	return c.config.Key != ""
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type messageResponse struct {
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
}

func (c *Claude) GenerateText(ctx context.Context, prompt string) (string, error) {
	headers := map[string]string{
		"x-api-key":         c.config.Key,
		"anthropic-version": apiVersion,
	}
	request := messageRequest{
		Model:     c.config.Model,
		MaxTokens: maxTokens,
		Messages:  []message{{Role: "user", Content: prompt}},
	}
	var response messageResponse
	err := c.client.PostJsonWith(ctx, headers, c.config.URL, request, &response)
	if err != nil {
		return "", err
	}
	var text strings.Builder
	for _, block := range response.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", errors.New("empty claude response")
	}
	return text.String(), nil
}
