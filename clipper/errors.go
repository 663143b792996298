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

import "errors"

var (
	ErrDownloaderMissing  = errors.New("downloader not found in PATH")
	ErrDownloadFailed     = errors.New("video download failed")
	ErrIndexerFailed      = errors.New("video indexing failed")
	ErrNoCandidates       = errors.New("AI could not identify any viral moments in the video")
	ErrAllClipsRejected   = errors.New("All clip extractions failed or were rejected")
	ErrTrimFailed         = errors.New("clip extraction failed")
	ErrTokenRefreshFailed = errors.New("token refresh failed")
	ErrUploadFailed       = errors.New("clip upload failed")
	ErrCancelled          = errors.New("job cancelled")
	ErrJobConflict        = errors.New("job modified by another worker")
	ErrChannelInUse       = errors.New("channel has active linkages")
	ErrInvalidPolicy      = errors.New("invalid clip policy")
)
