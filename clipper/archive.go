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
	"fmt"
	"net/url"

	"github.com/defsub/clipcast/log"
)

// archiveClip copies a published clip into the configured S3 bucket so
// it outlives the scratch sweep. Best-effort; the pipeline does not
// depend on the archive.
func (c *Clipper) archiveClip(clip ExtractedClip) {
	if len(c.buckets) == 0 || clip.LocalClipPath == "" {
		return
	}
	b := c.buckets[0]
	key := b.ObjectKey(fmt.Sprintf("job_%d/clip_%d.mp4", clip.JobID, clip.ClipNumber))
	err := b.Put(key, clip.LocalClipPath)
	if err != nil {
		log.Printf("archive clip %d failed: %s\n", clip.ID, err)
		return
	}
	c.setClipArchiveKey(clip.ID, key)
}

// ArchiveURL returns a presigned link for an archived clip, or nil when
// the clip was never archived.
func (c *Clipper) ArchiveURL(clipID uint) *url.URL {
	clip, err := c.lookupClip(clipID)
	if err != nil || clip.ArchiveKey == "" || len(c.buckets) == 0 {
		return nil
	}
	return c.buckets[0].Presign(clip.ArchiveKey)
}
