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
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/nlnwa/warckit/internal/diskbuffer"
)

// RecordBuilder is used to create new records. Content is written to the builder with the io.Writer
// family of methods and the record is created with Build.
//
// The content is buffered in memory and spills to a temporary file when large. Build can only be called once.
type RecordBuilder struct {
	opts    *recordOptions
	headers *WarcFields
	content diskbuffer.Buffer
	built   bool
}

var errBuilderUsed = errors.New("warckit: record builder already used")

// NewRecordBuilder creates a new RecordBuilder for a record of the given type.
//
// To build a record of a type not defined by the WARC standard, use Unknown and add the WARC-Type field
// with AddWarcHeader.
func NewRecordBuilder(recordType RecordType, opts ...RecordOption) *RecordBuilder {
	o := newRecordOptions(opts...)
	rb := &RecordBuilder{
		opts:    o,
		headers: &WarcFields{},
		content: diskbuffer.New(o.bufferOptions...),
	}
	if recordType != Unknown {
		rb.headers.Set(WarcType, recordType.String())
	}
	return rb
}

func (rb *RecordBuilder) Write(p []byte) (n int, err error) {
	return rb.content.Write(p)
}

func (rb *RecordBuilder) WriteString(s string) (n int, err error) {
	return rb.content.WriteString(s)
}

func (rb *RecordBuilder) ReadFrom(r io.Reader) (n int64, err error) {
	return rb.content.ReadFrom(r)
}

// AddWarcHeader adds a header field. WARC-Type replaces the type given when the builder was created.
// Content-Length is always calculated by Build and any value given here is ignored.
func (rb *RecordBuilder) AddWarcHeader(name string, value string) {
	switch {
	case strings.EqualFold(name, WarcType):
		rb.headers.Set(name, value)
	case strings.EqualFold(name, ContentLength):
		// Placeholder keeping the caller's field position. The value is replaced in Build.
		rb.headers.Set(name, value)
	default:
		rb.headers.Add(name, value)
	}
}

// Build creates the record.
//
// Missing WARC-Record-ID is generated, Content-Length is set from the content and, unless disabled with
// WithAddMissingDigest, a missing WARC-Block-Digest is calculated. WARC-Date is left to the RecordWriter
// when not added by the caller.
func (rb *RecordBuilder) Build() (*WarcRecord, error) {
	if rb.built {
		return nil, errBuilderUsed
	}
	rb.built = true

	if !rb.headers.Has(WarcType) {
		_ = rb.content.Close()
		return nil, newHeaderFieldError(WarcType, "missing required field")
	}
	if !rb.headers.Has(WarcRecordID) {
		rb.headers.Set(WarcRecordID, rb.opts.idGenerator())
	}
	rb.headers.Set(ContentLength, strconv.FormatInt(rb.content.Size(), 10))

	if rb.opts.addMissingDigest && !rb.headers.Has(WarcBlockDigest) {
		d, _ := newDigest("sha1")
		r, err := rb.content.Reader()
		if err != nil {
			_ = rb.content.Close()
			return nil, err
		}
		if _, err := io.Copy(d, r); err != nil {
			_ = rb.content.Close()
			return nil, err
		}
		rb.headers.Set(WarcBlockDigest, d.format())
	}

	return &WarcRecord{
		version:    rb.opts.version,
		headers:    rb.headers,
		recordType: stringToRecordType(rb.headers.Get(WarcType)),
		block:      &bufferedBlock{buf: rb.content},
	}, nil
}

// Close releases the content of a builder which will not be built.
func (rb *RecordBuilder) Close() error {
	if rb.built {
		return nil
	}
	rb.built = true
	return rb.content.Close()
}
