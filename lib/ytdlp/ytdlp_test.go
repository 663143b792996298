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

package ytdlp

import (
	"testing"
)

func TestParsePrint(t *testing.T) {
	out := "My Video Title\n5400.0\n1920\n1080\n/tmp/downloads/clipping_1_abc.mp4\n"
	result, err := parsePrint(out, true)
	if err != nil {
		t.Errorf("parse %s\n", err)
	}
	if result.Title != "My Video Title" {
		t.Errorf("wrong title got %s\n", result.Title)
	}
	if result.Duration != 5400 {
		t.Errorf("wrong duration got %f\n", result.Duration)
	}
	if result.Width != 1920 || result.Height != 1080 {
		t.Errorf("wrong dimensions got %dx%d\n", result.Width, result.Height)
	}
	if result.Path != "/tmp/downloads/clipping_1_abc.mp4" {
		t.Errorf("wrong path got %s\n", result.Path)
	}
}

func TestParsePrintInfo(t *testing.T) {
	out := "Title\n120\nNA\nNA\n"
	result, err := parsePrint(out, false)
	if err != nil {
		t.Errorf("parse %s\n", err)
	}
	if result.Duration != 120 {
		t.Errorf("wrong duration got %f\n", result.Duration)
	}
	// NA dimensions become zero
	if result.Width != 0 || result.Height != 0 {
		t.Errorf("wrong dimensions got %dx%d\n", result.Width, result.Height)
	}
	if result.Path != "" {
		t.Errorf("info should have no path got %s\n", result.Path)
	}
}

func TestParsePrintShort(t *testing.T) {
	_, err := parsePrint("only title\n", true)
	if err == nil {
		t.Error("short output should fail")
	}
}
