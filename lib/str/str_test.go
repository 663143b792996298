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

package str

import (
	"testing"
)

func TestSplit(t *testing.T) {
	a := Split("gaming, funny ,viral")
	if len(a) != 3 {
		t.Errorf("wrong len got %d\n", len(a))
	}
	if a[0] != "gaming" || a[1] != "funny" || a[2] != "viral" {
		t.Errorf("wrong values got %+v\n", a)
	}
	a = Split("")
	if len(a) != 0 {
		t.Errorf("empty should be empty got %d\n", len(a))
	}
}

func TestAtof(t *testing.T) {
	if Atof("5400.5") != 5400.5 {
		t.Error("bad float")
	}
	if Atof(" 120 ") != 120 {
		t.Error("bad trimmed float")
	}
	if Atof("xyz") != 0 {
		t.Error("bad value should be zero")
	}
}

func TestTruncateRunes(t *testing.T) {
	if TruncateRunes("short", 97) != "short" {
		t.Error("short should be unchanged")
	}
	s := TruncateRunes("日本語のタイトル", 3)
	if s != "日本語" {
		t.Errorf("wrong truncation got %s\n", s)
	}
	if RuneCount(s) != 3 {
		t.Errorf("wrong rune count got %d\n", RuneCount(s))
	}
}
