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

package date

import (
	"testing"
	"time"
)

func TestParseRFC3339(t *testing.T) {
	d := ParseRFC3339("2023-06-01T12:30:00Z")
	if d.Year() != 2023 {
		t.Errorf("wrong year got %d\n", d.Year())
	}
	if d.Month() != time.June {
		t.Errorf("wrong month got %s\n", d.Month())
	}
	if d.Hour() != 12 {
		t.Errorf("wrong hour got %d\n", d.Hour())
	}
	d = ParseRFC3339("junk")
	if !d.IsZero() {
		t.Error("junk should be zero")
	}
}

func TestParseDuration(t *testing.T) {
	if ParseDuration("PT4M13S") != 4*time.Minute+13*time.Second {
		t.Error("wrong PT4M13S")
	}
	if ParseDuration("PT1H2M10S") != time.Hour+2*time.Minute+10*time.Second {
		t.Error("wrong PT1H2M10S")
	}
	if ParseDuration("P1DT2H") != 26*time.Hour {
		t.Error("wrong P1DT2H")
	}
	if ParseDuration("PT55S") != 55*time.Second {
		t.Error("wrong PT55S")
	}
	if ParseDuration("") != 0 {
		t.Error("empty should be zero")
	}
	if ParseDuration("4m13s") != 0 {
		t.Error("go duration should be zero")
	}
}

func TestParseDate(t *testing.T) {
	d := ParseDate("2023-04-05")
	if d.Day() != 5 {
		t.Errorf("wrong day got %d\n", d.Day())
	}
	d = ParseDate("2023")
	if d.Year() != 2023 {
		t.Errorf("wrong year got %d\n", d.Year())
	}
}
