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
	"strings"
	"testing"
)

func TestIndexAndRetrieve(t *testing.T) {
	c, s := testClipper(t)
	ctx := context.Background()
	err := c.IndexVideo(ctx, "/tmp/v.mp4", "V1", "video_1_V1")
	if err != nil {
		t.Fatalf("index %s\n", err)
	}
	// ten minutes in 30s spans plus the summary
	if len(s.vectors.points) != 21 {
		t.Errorf("expected 21 points got %d\n", len(s.vectors.points))
	}

	analysis, err := c.RetrieveAnalysis(ctx, "/tmp/v.mp4")
	if err != nil {
		t.Fatalf("retrieve %s\n", err)
	}
	if strings.HasPrefix(analysis, "VIDEO SUMMARY") == false {
		t.Error("summary should come first")
	}
	if strings.Contains(analysis, "source: V1") == false {
		t.Error("summary missing video id")
	}
	if strings.Contains(analysis, "SEGMENT 20") == false {
		t.Error("last segment missing")
	}
	if strings.Index(analysis, "SEGMENT 1\n") > strings.Index(analysis, "SEGMENT 2\n") {
		t.Error("segments out of order")
	}
}

func TestRetrieveNeverIndexed(t *testing.T) {
	c, _ := testClipper(t)
	analysis, err := c.RetrieveAnalysis(context.Background(), "/tmp/none.mp4")
	if err != nil {
		t.Fatalf("expected no error got %s\n", err)
	}
	if analysis != "" {
		t.Errorf("expected empty analysis got %q\n", analysis)
	}
}

// Re-indexing the same path overwrites records instead of duplicating.
func TestReindexOverwrites(t *testing.T) {
	c, s := testClipper(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := c.IndexVideo(ctx, "/tmp/v.mp4", "V1", "video_1_V1"); err != nil {
			t.Fatalf("index %s\n", err)
		}
	}
	if len(s.vectors.points) != 21 {
		t.Errorf("expected 21 points got %d\n", len(s.vectors.points))
	}
}

func TestPointID(t *testing.T) {
	a := pointID("/tmp/v.mp4", 1)
	b := pointID("/tmp/v.mp4", 1)
	if a != b {
		t.Error("same inputs should derive the same id")
	}
	if pointID("/tmp/v.mp4", 2) == a {
		t.Error("sections should not collide")
	}
	if pointID("/tmp/other.mp4", 1) == a {
		t.Error("paths should not collide")
	}
}

func TestPurgeAnalysis(t *testing.T) {
	c, _ := testClipper(t)
	ctx := context.Background()
	if err := c.IndexVideo(ctx, "/tmp/v.mp4", "V1", "video_1_V1"); err != nil {
		t.Fatalf("index %s\n", err)
	}
	if err := c.IndexVideo(ctx, "/tmp/w.mp4", "V2", "video_2_V2"); err != nil {
		t.Fatalf("index %s\n", err)
	}
	c.purgeAnalysis(ctx, "/tmp/v.mp4")

	analysis, _ := c.RetrieveAnalysis(ctx, "/tmp/v.mp4")
	if analysis != "" {
		t.Error("purged path should be empty")
	}
	analysis, _ = c.RetrieveAnalysis(ctx, "/tmp/w.mp4")
	if analysis == "" {
		t.Error("other paths should survive the purge")
	}
}
