/*
 * Copyright 2021 National Library of Norway.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *       http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package timestamp

import (
	"fmt"
	"time"
)

const (
	layout14       = "20060102150405"
	layoutW3cIso   = "2006-01-02T15:04:05Z"
	layoutDateOnly = "2006-01-02"
)

// UTC returns t in UTC truncated to whole seconds.
func UTC(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// UTC14 formats t as a 14 digit timestamp (yyyyMMddHHmmss) in UTC.
func UTC14(t time.Time) string {
	return t.UTC().Format(layout14)
}

// UTCW3cIso8601 formats t as required by the WARC-Date field.
func UTCW3cIso8601(t time.Time) string {
	return t.UTC().Format(layoutW3cIso)
}

// To14 converts an ISO 8601 date string to a 14 digit timestamp.
func To14(s string) (string, error) {
	t, err := ParseISO8601(s)
	if err != nil {
		return "", err
	}
	return UTC14(t), nil
}

// From14ToTime parses a 14 digit timestamp.
func From14ToTime(s string) (time.Time, error) {
	return time.Parse(layout14, s)
}

// ParseISO8601 parses the ISO 8601 forms accepted on the command line:
// full RFC 3339 with or without fractional seconds and zone, and plain dates.
// Times without zone are taken to be UTC.
func ParseISO8601(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04", layoutDateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("not an ISO 8601 date: %q", s)
}
