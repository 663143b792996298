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

// Package qdrant is a small REST client for the Qdrant vector store,
// covering the operations the clipper needs: ensure the collection,
// upsert points, scroll by payload filter, delete by filter.
package qdrant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/defsub/clipcast/config"
	"github.com/defsub/clipcast/lib/client"
	"github.com/sethvargo/go-retry"
)

const (
	// VectorSize matches Voyage AI embeddings. OpenAI embeddings are
	// requested with dimensions=1024 to fit the same collection.
	VectorSize = 1024
	Distance   = "Cosine"
)

type Qdrant struct {
	config config.QdrantConfig
	client *client.Client
}

func NewQdrant(config *config.Config) *Qdrant {
	return &Qdrant{
		config: config.Qdrant,
		client: client.NewClient(&config.Client),
	}
}

func (q *Qdrant) headers() map[string]string {
	if q.config.Key == "" {
		return nil
	}
	return map[string]string{"api-key": q.config.Key}
}

func (q *Qdrant) url(format string, args ...interface{}) string {
	return strings.TrimSuffix(q.config.URL, "/") + fmt.Sprintf(format, args...)
}

type Point struct {
	ID      string                 `json:"id"`
	Vector  []float32              `json:"vector"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

type Match struct {
	Value interface{} `json:"value"`
}

type FieldCondition struct {
	Key   string `json:"key"`
	Match Match  `json:"match"`
}

type Filter struct {
	Must []FieldCondition `json:"must,omitempty"`
}

// MatchFilter builds a filter requiring payload key == value.
func MatchFilter(key string, value interface{}) *Filter {
	return &Filter{Must: []FieldCondition{{Key: key, Match: Match{Value: value}}}}
}

type ScrolledPoint struct {
	ID      interface{}            `json:"id"`
	Payload map[string]interface{} `json:"payload"`
}

type scrollResult struct {
	Result struct {
		Points         []ScrolledPoint `json:"points"`
		NextPageOffset interface{}     `json:"next_page_offset"`
	} `json:"result"`
}

type statusResult struct {
	Status interface{} `json:"status"`
}

// exists tolerates create calls repeated against live collections
func exists(err error) bool {
	return err != nil && strings.Contains(err.Error(), "already exists")
}

// EnsureCollection creates the collection and its keyword payload
// indexes if they are not already present.
func (q *Qdrant) EnsureCollection(ctx context.Context) error {
	var result statusResult
	body := map[string]interface{}{
		"vectors": map[string]interface{}{
			"size":     VectorSize,
			"distance": Distance,
		},
	}
	err := q.client.PutJsonWith(ctx, q.headers(),
		q.url("/collections/%s", q.config.Collection), body, &result)
	if err != nil && !exists(err) {
		return err
	}
	for _, field := range []string{"session_id", "video_path"} {
		err = q.createFieldIndex(ctx, field)
		if err != nil && !exists(err) {
			return err
		}
	}
	return nil
}

func (q *Qdrant) createFieldIndex(ctx context.Context, field string) error {
	var result statusResult
	body := map[string]interface{}{
		"field_name":   field,
		"field_schema": "keyword",
	}
	return q.client.PutJsonWith(ctx, q.headers(),
		q.url("/collections/%s/index", q.config.Collection), body, &result)
}

// Upsert writes points with bounded exponential retry. Upserts are
// idempotent per point id, so retrying a partial failure is safe.
func (q *Qdrant) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	backoff := retry.WithMaxRetries(3, retry.NewExponential(500*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		var result statusResult
		body := map[string]interface{}{"points": points}
		err := q.client.PutJsonWith(ctx, q.headers(),
			q.url("/collections/%s/points?wait=true", q.config.Collection),
			body, &result)
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}

// Scroll pages through all points matching the filter.
func (q *Qdrant) Scroll(ctx context.Context, filter *Filter, limit int) ([]ScrolledPoint, error) {
	var points []ScrolledPoint
	var offset interface{}
	for {
		body := map[string]interface{}{
			"limit":        limit,
			"with_payload": true,
			"with_vector":  false,
		}
		if filter != nil {
			body["filter"] = filter
		}
		if offset != nil {
			body["offset"] = offset
		}
		var result scrollResult
		err := q.client.PostJsonWith(ctx, q.headers(),
			q.url("/collections/%s/points/scroll", q.config.Collection),
			body, &result)
		if err != nil {
			return points, err
		}
		points = append(points, result.Result.Points...)
		if result.Result.NextPageOffset == nil {
			break
		}
		offset = result.Result.NextPageOffset
	}
	return points, nil
}

// DeleteByFilter removes all points matching the filter.
func (q *Qdrant) DeleteByFilter(ctx context.Context, filter *Filter) error {
	var result statusResult
	body := map[string]interface{}{"filter": filter}
	return q.client.PostJsonWith(ctx, q.headers(),
		q.url("/collections/%s/points/delete?wait=true", q.config.Collection),
		body, &result)
}
