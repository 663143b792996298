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

package ffmpeg

import (
	"encoding/json"
	"testing"
)

const probeJson = `{
  "streams": [
    {"index": 0, "codec_name": "aac", "codec_type": "audio"},
    {"index": 1, "codec_name": "h264", "codec_type": "video", "width": 1920, "height": 1080}
  ],
  "format": {
    "filename": "source.mp4",
    "duration": "634.217000",
    "size": "123456789",
    "bit_rate": "1557312"
  }
}`

func TestProbeResult(t *testing.T) {
	var result ProbeResult
	err := json.Unmarshal([]byte(probeJson), &result)
	if err != nil {
		t.Fatal(err)
	}
	if result.Duration() != 634.217 {
		t.Errorf("expect duration 634.217, got %f", result.Duration())
	}
	v := result.VideoStream()
	if v == nil {
		t.Fatal("expect video stream")
	}
	if v.CodecName != "h264" {
		t.Errorf("expect h264, got %s", v.CodecName)
	}
	if v.Width != 1920 || v.Height != 1080 {
		t.Errorf("expect 1920x1080, got %dx%d", v.Width, v.Height)
	}
}

func TestProbeResultNoVideo(t *testing.T) {
	result := ProbeResult{
		Streams: []ProbeStream{{Index: 0, CodecType: "audio"}},
	}
	if result.VideoStream() != nil {
		t.Error("expect no video stream")
	}
}

func TestProbeResultBadDuration(t *testing.T) {
	var result ProbeResult
	if result.Duration() != 0 {
		t.Errorf("expect zero duration, got %f", result.Duration())
	}
}

func TestQuoteCommand(t *testing.T) {
	quoted := quoteCommand("ffmpeg", []string{"-i", "my video.mp4", "out.mp4"})
	if quoted != `ffmpeg -i 'my video.mp4' out.mp4` {
		t.Errorf("unexpected quoting: %s", quoted)
	}
}
