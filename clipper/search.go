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
	"os"

	"github.com/defsub/clipcast/lib/search"
	"github.com/defsub/clipcast/lib/str"
	"github.com/defsub/clipcast/log"
)

const (
	FieldSource = "source"
	FieldStatus = "status"
	FieldTags   = "tags"
	FieldTitle  = "title"
)

func (c *Clipper) newSearch() (*search.Search, error) {
	s := search.NewSearch(c.config)
	s.Keywords = []string{
		FieldSource,
		FieldStatus,
		FieldTags,
	}
	err := s.Open("clips")
	if err != nil {
		return nil, err
	}
	return s, nil
}

// indexClipLibrary adds a completed job's clips to the full-text
// library. Best-effort; the library lags rather than blocks.
func (c *Clipper) indexClipLibrary(job ClippingJob, clips []ExtractedClip) {
	s, err := c.newSearch()
	if err != nil {
		log.Printf("clip library unavailable: %s\n", err)
		return
	}
	defer s.Close()

	index := make(search.IndexMap)
	for _, clip := range clips {
		fields := search.FieldMap{
			FieldTitle:    clip.Title,
			FieldTags:     clip.Tags,
			FieldSource:   job.SourceVideoID,
			FieldStatus:   string(clip.UploadStatus),
			"description": clip.Description,
			"criteria":    clip.Criteria,
			"duration":    clip.Duration,
		}
		index[str.Itoa(int(clip.ID))] = fields
	}
	s.Index(index)
}

// DeleteClip removes a clip row, its scratch file, and its library
// entry. A published upload stays on the platform.
func (c *Clipper) DeleteClip(clipID uint) error {
	clip, err := c.lookupClip(clipID)
	if err != nil {
		return err
	}
	if err := c.db.Unscoped().Delete(&clip).Error; err != nil {
		return err
	}
	if clip.LocalClipPath != "" {
		os.Remove(clip.LocalClipPath)
	}
	s, err := c.newSearch()
	if err != nil {
		log.Printf("clip library unavailable: %s\n", err)
		return nil
	}
	defer s.Close()
	s.Delete([]string{str.Itoa(int(clipID))})
	return nil
}

// SearchClips queries the library and resolves hits back to clip rows.
func (c *Clipper) SearchClips(q string) ([]ExtractedClip, error) {
	s, err := c.newSearch()
	if err != nil {
		return nil, err
	}
	defer s.Close()

	keys, err := s.Search(q, c.config.Clipper.SearchLimit)
	if err != nil {
		return nil, err
	}
	var clips []ExtractedClip
	for _, key := range keys {
		clip, err := c.lookupClip(uint(str.Atoi(key)))
		if err != nil {
			continue
		}
		clips = append(clips, clip)
	}
	return clips, nil
}
