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
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/defsub/clipcast/config"
	"github.com/defsub/clipcast/lib/str"
	"github.com/defsub/clipcast/log"
	"gopkg.in/alessio/shellescape.v1"
)

type FFmpeg struct {
	config config.FFmpegConfig
}

func NewFFmpeg(config *config.Config) *FFmpeg {
	return &FFmpeg{config: config.FFmpeg}
}

// Check that ffmpeg and ffprobe are on the PATH.
func (f *FFmpeg) Check() error {
	if _, err := exec.LookPath(f.config.Command); err != nil {
		return fmt.Errorf("%s not found in PATH: %w", f.config.Command, err)
	}
	if _, err := exec.LookPath(f.config.ProbeCommand); err != nil {
		return fmt.Errorf("%s not found in PATH: %w", f.config.ProbeCommand, err)
	}
	return nil
}

// Trim renders [start, end) of the input as a standalone clip. The cut
// is re-encoded so it can begin off-keyframe. Safe to call concurrently
// with distinct outputs.
func (f *FFmpeg) Trim(ctx context.Context, inputPath, outputPath string, start, end float64) error {
	if end <= start {
		return fmt.Errorf("bad trim window %f..%f", start, end)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return err
	}
	args := []string{
		"-y",
		"-ss", fmt.Sprintf("%.3f", start),
		"-i", inputPath,
		"-t", fmt.Sprintf("%.3f", end-start),
		"-c:v", "libx264",
		"-c:a", "aac",
		"-movflags", "+faststart",
		outputPath,
	}
	cmd := exec.CommandContext(ctx, f.config.Command, args...)
	log.Printf("exec %s\n", quoteCommand(f.config.Command, args))
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("trim failed: %w: %s", err, tail(out))
	}
	return nil
}

type ProbeStream struct {
	Index     int    `json:"index"`
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

type ProbeFormat struct {
	Filename string `json:"filename"`
	Duration string `json:"duration"`
	Size     string `json:"size"`
	BitRate  string `json:"bit_rate"`
}

type ProbeResult struct {
	Streams []ProbeStream `json:"streams"`
	Format  ProbeFormat   `json:"format"`
}

func (p ProbeResult) Duration() float64 {
	return str.Atof(p.Format.Duration)
}

func (p ProbeResult) VideoStream() *ProbeStream {
	for i := range p.Streams {
		if p.Streams[i].CodecType == "video" {
			return &p.Streams[i]
		}
	}
	return nil
}

// Probe returns container and stream metadata for the given file.
func (f *FFmpeg) Probe(ctx context.Context, path string) (ProbeResult, error) {
	var result ProbeResult
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}
	cmd := exec.CommandContext(ctx, f.config.ProbeCommand, args...)
	out, err := cmd.Output()
	if err != nil {
		return result, fmt.Errorf("probe failed: %w", err)
	}
	err = json.Unmarshal(out, &result)
	return result, err
}

func quoteCommand(command string, args []string) string {
	quoted := make([]string, 0, len(args)+1)
	quoted = append(quoted, shellescape.Quote(command))
	for _, a := range args {
		quoted = append(quoted, shellescape.Quote(a))
	}
	return strings.Join(quoted, " ")
}

func tail(out []byte) string {
	s := strings.TrimSpace(string(out))
	if len(s) > 256 {
		s = s[len(s)-256:]
	}
	return s
}
