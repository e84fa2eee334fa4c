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

package warckit

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nlnwa/whatwg-url/url"
)

const (
	// WARC header field name constants
	ContentLength             = "Content-Length"
	ContentType               = "Content-Type"
	WarcBlockDigest           = "WARC-Block-Digest"
	WarcConcurrentTo          = "WARC-Concurrent-To"
	WarcDate                  = "WARC-Date"
	WarcFilename              = "WARC-Filename"
	WarcIPAddress             = "WARC-IP-Address"
	WarcIdentifiedPayloadType = "WARC-Identified-Payload-Type"
	WarcPayloadDigest         = "WARC-Payload-Digest"
	WarcProfile               = "WARC-Profile"
	WarcRecordID              = "WARC-Record-ID"
	WarcRefersTo              = "WARC-Refers-To"
	WarcSegmentNumber         = "WARC-Segment-Number"
	WarcTargetURI             = "WARC-Target-URI"
	WarcTruncated             = "WARC-Truncated"
	WarcType                  = "WARC-Type"
	WarcWarcinfoID            = "WARC-Warcinfo-ID"
)

// mandatoryFields must be present in every well-formed record.
var mandatoryFields = []string{WarcRecordID, WarcDate, WarcType, ContentLength}

// parseContentLength returns the Content-Length field as an unsigned integer.
func parseContentLength(wf *WarcFields) (int64, error) {
	if !wf.Has(ContentLength) {
		return 0, newHeaderFieldError(ContentLength, "missing required field")
	}
	v := wf.Get(ContentLength)
	n, err := strconv.ParseUint(v, 10, 63)
	if err != nil {
		return 0, newHeaderFieldErrorf(ContentLength, "not an unsigned integer: %q", v)
	}
	return int64(n), nil
}

// validateRecordID checks that id has the shape '<scheme:rest>'. The content is accepted verbatim
// as long as it parses as an URI.
func validateRecordID(id string) error {
	v := strings.TrimSuffix(strings.TrimPrefix(id, "<"), ">")
	if len(id) != len(v)+2 {
		return fmt.Errorf("WARC id should be encapsulated by <>")
	}
	if !strings.Contains(v, ":") {
		return fmt.Errorf("WARC id is not an URI: %s", id)
	}
	if _, err := url.Parse(v); err != nil {
		return err
	}
	return nil
}

// validateTargetURI checks the WARC-Target-URI field. Some writers wrap the uri in <>, which is accepted.
func validateTargetURI(uri string) error {
	if _, err := url.Parse(strings.TrimSuffix(strings.TrimPrefix(uri, "<"), ">")); err != nil {
		return fmt.Errorf("illegal uri %q: %w", uri, err)
	}
	return nil
}

// validateHeader checks a parsed header block.
//
// A missing or malformed Content-Length is always an error since the record boundary can not be found without it.
// The other checks are only done when strict is set.
func validateHeader(wf *WarcFields, strict bool) (RecordType, int64, error) {
	length, err := parseContentLength(wf)
	if err != nil {
		return Unknown, 0, err
	}
	rt := stringToRecordType(wf.Get(WarcType))
	if !strict {
		return rt, length, nil
	}

	for _, name := range mandatoryFields {
		if !wf.Has(name) {
			return rt, length, newHeaderFieldError(name, "missing required field")
		}
	}
	if len(wf.GetAll(WarcRecordID)) > 1 {
		return rt, length, newHeaderFieldError(WarcRecordID, "field occurs more than once")
	}
	if err := validateRecordID(wf.Get(WarcRecordID)); err != nil {
		return rt, length, newHeaderFieldError(WarcRecordID, err.Error())
	}
	if _, err := time.Parse(time.RFC3339, wf.Get(WarcDate)); err != nil {
		return rt, length, newHeaderFieldError(WarcDate, err.Error())
	}
	if wf.Has(WarcTargetURI) {
		if err := validateTargetURI(wf.Get(WarcTargetURI)); err != nil {
			return rt, length, newHeaderFieldError(WarcTargetURI, err.Error())
		}
	}
	return rt, length, nil
}
