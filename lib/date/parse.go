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
	"regexp"
	"time"

	"github.com/defsub/clipcast/lib/str"
)

// Parse a date string to time in format yyyy-mm-dd, yyyy-mm, yyyy.
func ParseDate(date string) (t time.Time) {
	if date == "" {
		return t
	}
	var err error
	t, err = time.Parse("2006-1-2", date)
	if err != nil {
		t, err = time.Parse("2006-1", date)
		if err != nil {
			t, err = time.Parse("2006", date)
			if err != nil {
				t = time.Time{}
			}
		}
	}
	return t
}

// 2021-12-07T19:57:22Z
func ParseRFC3339(date string) (t time.Time) {
	if date == "" {
		return t
	}
	var err error
	t, err = time.Parse(time.RFC3339, date)
	if err != nil {
		t = time.Time{}
	}
	return t
}

var durationRegexp = regexp.MustCompile(
	`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// ParseDuration parses an ISO 8601 duration as used by video platform
// metadata, e.g. PT4M13S, PT1H2M10S, P1DT2H. Returns zero for anything
// that does not match.
func ParseDuration(iso string) time.Duration {
	matches := durationRegexp.FindStringSubmatch(iso)
	if matches == nil {
		return 0
	}
	days := str.Atoi(matches[1])
	hours := str.Atoi(matches[2])
	mins := str.Atoi(matches[3])
	secs := str.Atoi(matches[4])
	return time.Duration(days)*24*time.Hour +
		time.Duration(hours)*time.Hour +
		time.Duration(mins)*time.Minute +
		time.Duration(secs)*time.Second
}

func FormatJson(t time.Time) string {
	return t.Format(time.RFC3339)
}
