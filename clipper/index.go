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

package clipper

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/defsub/clipcast/lib/qdrant"
	"github.com/defsub/clipcast/lib/str"
	"github.com/defsub/clipcast/log"
	"github.com/google/uuid"
)

// analysis sections are sliced into spans of this many seconds so each
// embedded record describes a bounded stretch of the video
const sectionSpan = 30.0

// analysisSection is one embedded record of a video's description.
type analysisSection struct {
	section int
	content string
}

// IndexVideo builds a structured description of the video, embeds each
// section, and upserts the records into the vector collection under the
// given namespace. Records are keyed deterministically by path and
// section so re-indexing overwrites rather than duplicates.
func (c *Clipper) IndexVideo(ctx context.Context, videoPath, videoID, namespace string) error {
	if c.embedder == nil {
		return fmt.Errorf("%w: no embedder configured", ErrIndexerFailed)
	}
	if err := c.vectors.EnsureCollection(ctx); err != nil {
		return fmt.Errorf("%w: %s", ErrIndexerFailed, err)
	}

	sections, err := c.describeVideo(ctx, videoPath, videoID)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrIndexerFailed, err)
	}

	texts := make([]string, len(sections))
	for i, s := range sections {
		texts[i] = s.content
	}
	vectors, err := c.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrIndexerFailed, err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	points := make([]qdrant.Point, len(sections))
	for i, s := range sections {
		points[i] = qdrant.Point{
			ID:     pointID(videoPath, s.section),
			Vector: vectors[i],
			Payload: map[string]interface{}{
				"session_id": namespace,
				"video_path": videoPath,
				"section":    s.section,
				"content":    s.content,
				"timestamp":  now,
			},
		}
	}
	err = c.vectors.Upsert(ctx, points)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrIndexerFailed, err)
	}
	log.Printf("indexed %s with %d sections\n", videoPath, len(points))
	return nil
}

// describeVideo produces the textual analysis sections: a summary of
// the container metadata followed by per-span descriptions derived
// from stream probing. The shape is what the selection prompt consumes.
func (c *Clipper) describeVideo(ctx context.Context, videoPath, videoID string) ([]analysisSection, error) {
	probe, err := c.trimmer.Probe(ctx, videoPath)
	if err != nil {
		return nil, err
	}
	duration := probe.Duration()
	if duration <= 0 {
		return nil, errors.New("video has no duration")
	}

	var summary strings.Builder
	summary.WriteString("VIDEO SUMMARY\n")
	fmt.Fprintf(&summary, "source: %s\n", videoID)
	fmt.Fprintf(&summary, "duration_seconds: %.1f\n", duration)
	if v := probe.VideoStream(); v != nil {
		fmt.Fprintf(&summary, "resolution: %dx%d\n", v.Width, v.Height)
		fmt.Fprintf(&summary, "codec: %s\n", v.CodecName)
	}
	sections := []analysisSection{{section: 0, content: summary.String()}}

	for i, start := 1, 0.0; start < duration; i, start = i+1, start+sectionSpan {
		end := start + sectionSpan
		if end > duration {
			end = duration
		}
		sections = append(sections, analysisSection{
			section: i,
			content: fmt.Sprintf("SEGMENT %d\nspan: %.1f - %.1f seconds\n", i, start, end),
		})
	}
	return sections, nil
}

// RetrieveAnalysis reassembles the indexed description of a video,
// ordered by section. A path that was never indexed yields an empty
// string, not an error.
func (c *Clipper) RetrieveAnalysis(ctx context.Context, videoPath string) (string, error) {
	points, err := c.vectors.Scroll(ctx,
		qdrant.MatchFilter("video_path", videoPath), 100)
	if err != nil {
		return "", err
	}
	if len(points) == 0 {
		return "", nil
	}

	sections := make([]analysisSection, 0, len(points))
	for _, p := range points {
		content, _ := p.Payload["content"].(string)
		sections = append(sections, analysisSection{
			section: payloadInt(p.Payload["section"]),
			content: content,
		})
	}
	sort.Slice(sections, func(i, j int) bool {
		return sections[i].section < sections[j].section
	})

	var analysis strings.Builder
	for _, s := range sections {
		analysis.WriteString(s.content)
		analysis.WriteString("\n")
	}
	return analysis.String(), nil
}

// purgeAnalysis drops a video's records; used when scratch files are
// swept so the collection does not accumulate dead paths.
func (c *Clipper) purgeAnalysis(ctx context.Context, videoPath string) {
	err := c.vectors.DeleteByFilter(ctx, qdrant.MatchFilter("video_path", videoPath))
	if err != nil {
		log.Printf("purge %s failed: %s\n", videoPath, err)
	}
}

// pointID derives a stable uuid from the path and section so repeated
// indexing of the same video is last-write-wins.
func pointID(videoPath string, section int) string {
	name := fmt.Sprintf("%s#%d", videoPath, section)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

func payloadInt(v interface{}) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	case string:
		return str.Atoi(t)
	}
	return 0
}
