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
	"database/sql/driver"
	"fmt"
)

// JobStatus is the lifecycle state of a clipping job. Jobs move through
// the pipeline states in order and stop at one of the terminal states.
type JobStatus string

const (
	StatusPending         JobStatus = "pending"
	StatusDownloading     JobStatus = "downloading"
	StatusDownloaded      JobStatus = "downloaded"
	StatusAnalyzing       JobStatus = "analyzing"
	StatusVectorized      JobStatus = "vectorized"
	StatusExtractingClips JobStatus = "extracting_clips"
	StatusClipsExtracted  JobStatus = "clips_extracted"
	StatusPosting         JobStatus = "posting"
	StatusCompleted       JobStatus = "completed"
	StatusFailed          JobStatus = "failed"
	StatusCancelled       JobStatus = "cancelled"
)

// UploadStatus is the publish state of an extracted clip.
type UploadStatus string

const (
	UploadPending   UploadStatus = "pending"
	UploadPublished UploadStatus = "published"
	UploadFailed    UploadStatus = "failed"
)

// pipeline is the forward order of job states. Failed and cancelled are
// reachable from any non-terminal state and are not part of the chain.
var pipeline = []JobStatus{
	StatusPending,
	StatusDownloading,
	StatusDownloaded,
	StatusAnalyzing,
	StatusVectorized,
	StatusExtractingClips,
	StatusClipsExtracted,
	StatusPosting,
	StatusCompleted,
}

var statusProgress = map[JobStatus]int{
	StatusPending:         0,
	StatusDownloading:     10,
	StatusDownloaded:      20,
	StatusAnalyzing:       30,
	StatusVectorized:      40,
	StatusExtractingClips: 50,
	StatusClipsExtracted:  60,
	StatusPosting:         70,
	StatusCompleted:       100,
	StatusFailed:          0,
	StatusCancelled:       0,
}

func (s JobStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Active reports whether a worker currently owns the job.
func (s JobStatus) Active() bool {
	return s != StatusPending && s.Terminal() == false
}

// Progress is the percent complete upon entering this state. The posting
// state refines this per uploaded clip.
func (s JobStatus) Progress() int {
	return statusProgress[s]
}

// Next is the state that follows s in the pipeline, or empty for
// terminal states.
func (s JobStatus) Next() JobStatus {
	for i, v := range pipeline {
		if v == s && i+1 < len(pipeline) {
			return pipeline[i+1]
		}
	}
	return ""
}

// CanBecome reports whether the transition from s to next is legal.
func (s JobStatus) CanBecome(next JobStatus) bool {
	if s.Terminal() {
		return false
	}
	if next == StatusFailed || next == StatusCancelled {
		return true
	}
	return s.Next() == next
}

// postingProgress is the percent for a posting job with uploaded of
// total clips published so far.
func postingProgress(uploaded, total int) int {
	if total <= 0 {
		return statusProgress[StatusPosting]
	}
	return statusProgress[StatusPosting] + (30*uploaded)/total
}

func (s JobStatus) Value() (driver.Value, error) {
	if _, ok := statusProgress[s]; ok == false {
		return nil, fmt.Errorf("invalid job status: %s", string(s))
	}
	return string(s), nil
}

func (s *JobStatus) Scan(value interface{}) error {
	var v string
	switch t := value.(type) {
	case string:
		v = t
	case []byte:
		v = string(t)
	default:
		return fmt.Errorf("invalid job status: %v", value)
	}
	if _, ok := statusProgress[JobStatus(v)]; ok == false {
		return fmt.Errorf("invalid job status: %s", v)
	}
	*s = JobStatus(v)
	return nil
}

func (s UploadStatus) Value() (driver.Value, error) {
	switch s {
	case UploadPending, UploadPublished, UploadFailed:
		return string(s), nil
	}
	return nil, fmt.Errorf("invalid upload status: %s", string(s))
}

func (s *UploadStatus) Scan(value interface{}) error {
	var v string
	switch t := value.(type) {
	case string:
		v = t
	case []byte:
		v = string(t)
	default:
		return fmt.Errorf("invalid upload status: %v", value)
	}
	switch UploadStatus(v) {
	case UploadPending, UploadPublished, UploadFailed:
		*s = UploadStatus(v)
		return nil
	}
	return fmt.Errorf("invalid upload status: %s", v)
}
