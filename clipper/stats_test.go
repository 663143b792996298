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
	"testing"
	"time"

	"github.com/defsub/clipcast/lib/youtube"
)

func TestSyncStats(t *testing.T) {
	c, s := testClipper(t)
	_, clip := publishedJob(t, c, time.Now().Add(time.Hour))
	if err := c.markClipPublished(clip.ID, "yt1", "https://youtube.com/shorts/yt1"); err != nil {
		t.Fatalf("publish %s\n", err)
	}
	s.platform.stats = map[string]youtube.Stats{
		"yt1": {Views: 1200, Likes: 80, Comments: 9},
	}

	if err := c.SyncStats(context.Background()); err != nil {
		t.Fatalf("sync %s\n", err)
	}
	stored, _ := c.lookupClip(clip.ID)
	if stored.Views24h != 1200 || stored.Likes24h != 80 || stored.Comments24h != 9 {
		t.Errorf("wrong counts %d/%d/%d\n",
			stored.Views24h, stored.Likes24h, stored.Comments24h)
	}
	if stored.StatsCheckedAt.IsZero() {
		t.Error("check time not recorded")
	}

	// a clip checked within the interval is skipped
	s.platform.stats["yt1"] = youtube.Stats{Views: 9999}
	if err := c.SyncStats(context.Background()); err != nil {
		t.Fatalf("sync %s\n", err)
	}
	stored, _ = c.lookupClip(clip.ID)
	if stored.Views24h != 1200 {
		t.Errorf("fresh snapshot should be skipped, got %d views\n", stored.Views24h)
	}
}

func TestPipelineStats(t *testing.T) {
	c, s := testClipper(t)
	job, _ := pipelineFixture(t, c, s)
	c.processJob(context.Background(), job)

	stats := c.Stats()
	if stats.Channels != 1 || stats.Accounts != 1 || stats.Linkages != 1 {
		t.Errorf("wrong topology counts %+v\n", stats)
	}
	if stats.CompletedJobs != 1 || stats.PendingJobs != 0 || stats.ActiveJobs != 0 {
		t.Errorf("wrong job counts %+v\n", stats)
	}
	if stats.ClipsGenerated != 2 || stats.ClipsPosted != 2 {
		t.Errorf("wrong clip counts %+v\n", stats)
	}
}
