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

// Package ytdlp shells out to yt-dlp to fetch upstream videos and their
// metadata. The downloader is stateless; concurrent calls are fine.
package ytdlp

import (
	"context"
	"errors"
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

type Downloader struct {
	config config.DownloaderConfig
}

func NewDownloader(config *config.Config) *Downloader {
	return &Downloader{config: config.Downloader}
}

// Result is the metadata projection printed by yt-dlp, one field per
// line: title, duration, width, height, and for downloads the final
// file path.
type Result struct {
	Path     string
	Title    string
	Duration float64
	Width    int
	Height   int
}

// Check probes for the yt-dlp binary with --version.
func (d *Downloader) Check() error {
	out, err := exec.Command(d.config.Command, "--version").Output()
	if err != nil {
		return fmt.Errorf("%s not found: %w", d.config.Command, err)
	}
	log.Printf("%s version %s\n", d.config.Command, strings.TrimSpace(string(out)))
	return nil
}

// metadata fields printed at the pre-download stage, in this order
var printFields = []string{"title", "duration", "width", "height"}

// Download fetches url to outputPath and returns the parsed metadata.
// The spawned process is killed when ctx is cancelled.
func (d *Downloader) Download(ctx context.Context, url, outputPath string) (Result, error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return Result{}, err
	}
	args := []string{
		"-f", "best[ext=mp4]/best",
		"-o", outputPath,
		"--no-playlist",
		"--no-warnings",
		"--quiet",
		"--no-simulate",
	}
	for _, f := range printFields {
		args = append(args, "--print", f)
	}
	// after_move prints once the file is in place, so it is last
	args = append(args, "--print", "after_move:filepath", url)

	out, err := d.run(ctx, args)
	if err != nil {
		return Result{}, err
	}
	result, err := parsePrint(out, true)
	if err != nil {
		return result, err
	}
	if _, err := os.Stat(result.Path); err != nil {
		return result, fmt.Errorf("download missing output: %w", err)
	}
	return result, nil
}

// Info returns metadata without downloading anything.
func (d *Downloader) Info(ctx context.Context, url string) (Result, error) {
	args := []string{
		"--no-playlist",
		"--no-warnings",
		"--quiet",
		"--skip-download",
	}
	for _, f := range printFields {
		args = append(args, "--print", f)
	}
	args = append(args, url)

	out, err := d.run(ctx, args)
	if err != nil {
		return Result{}, err
	}
	return parsePrint(out, false)
}

func (d *Downloader) run(ctx context.Context, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, d.config.Command, args...)
	log.Printf("exec %s\n", quoteCommand(d.config.Command, args))
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		detail := strings.TrimSpace(stderr.String())
		if len(detail) > 256 {
			detail = detail[len(detail)-256:]
		}
		return "", fmt.Errorf("%s failed: %w: %s", d.config.Command, err, detail)
	}
	return string(out), nil
}

func parsePrint(out string, withPath bool) (Result, error) {
	var result Result
	lines := strings.Split(strings.TrimSpace(out), "\n")
	want := len(printFields)
	if withPath {
		want++
	}
	if len(lines) < want {
		return result, errors.New("unexpected yt-dlp output")
	}
	result.Title = strings.TrimSpace(lines[0])
	result.Duration = str.Atof(lines[1])
	result.Width = str.Atoi(strings.TrimSpace(lines[2]))
	result.Height = str.Atoi(strings.TrimSpace(lines[3]))
	if withPath {
		result.Path = strings.TrimSpace(lines[4])
	}
	return result, nil
}

func quoteCommand(command string, args []string) string {
	quoted := make([]string, 0, len(args)+1)
	quoted = append(quoted, shellescape.Quote(command))
	for _, a := range args {
		quoted = append(quoted, shellescape.Quote(a))
	}
	return strings.Join(quoted, " ")
}
