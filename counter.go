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
	"context"
	"io"
	"strings"
)

// Counts is the result of Count.
type Counts struct {
	ByType    map[string]int // records per WARC-Type
	ByMIME    map[string]int // response records per media type
	Malformed int
}

// Responses returns the number of response records.
func (c *Counts) Responses() int {
	return c.ByType[Response.String()]
}

// Total returns the number of well-formed records.
func (c *Counts) Total() int {
	n := 0
	for _, v := range c.ByType {
		n += v
	}
	return n
}

type countOptions struct {
	embeddedHTTPContentType bool
}

// CountOption configures Count.
type CountOption interface {
	apply(*countOptions)
}

// funcCountOption wraps a function that modifies countOptions into an
// implementation of the CountOption interface.
type funcCountOption struct {
	f func(*countOptions)
}

func (fo *funcCountOption) apply(po *countOptions) {
	fo.f(po)
}

func newFuncCountOption(f func(*countOptions)) *funcCountOption {
	return &funcCountOption{
		f: f,
	}
}

// WithEmbeddedHTTPContentType sets if the media type of response records with Content-Type application/http
// is taken from the Content-Type of the embedded HTTP response.
// defaults to true
func WithEmbeddedHTTPContentType(embedded bool) CountOption {
	return newFuncCountOption(func(o *countOptions) {
		o.embeddedHTTPContentType = embedded
	})
}

// Count reads all records from r and tallies them by type, and response records by media type.
//
// Malformed records are counted but otherwise ignored. Any other error from r stops the count and is
// returned together with the counts so far.
func Count(ctx context.Context, r RecordIterator, opts ...CountOption) (*Counts, error) {
	o := &countOptions{embeddedHTTPContentType: true}
	for _, opt := range opts {
		opt.apply(o)
	}

	c := &Counts{
		ByType: make(map[string]int),
		ByMIME: make(map[string]int),
	}
	for {
		if err := ctx.Err(); err != nil {
			return c, err
		}
		record, _, err := r.Next()
		if err == io.EOF {
			return c, nil
		}
		if err != nil {
			if IsMalformed(err) {
				c.Malformed++
				continue
			}
			return c, err
		}

		typeName := record.TypeName()
		if record.Type() != Unknown {
			typeName = record.Type().String()
		}
		c.ByType[typeName]++
		if record.Type() == Response {
			if mt := o.mediaType(record); mt != "" {
				c.ByMIME[mt]++
			}
		}
		_ = record.Close()
	}
}

func (o *countOptions) mediaType(record *WarcRecord) string {
	mt := NormalizeMediaType(record.WarcHeader().Get(ContentType))
	if mt != ApplicationHttp || !o.embeddedHTTPContentType {
		return mt
	}
	content, err := record.Block().RawBytes()
	if err != nil {
		return mt
	}
	resp, err := readHTTPResponseHeader(content)
	if err != nil {
		return mt
	}
	if embedded := NormalizeMediaType(resp.Header.Get(ContentType)); embedded != "" {
		return embedded
	}
	return mt
}

// NormalizeMediaType strips parameters from a Content-Type value and lower cases it.
// "text/html; charset=UTF-8" becomes "text/html".
func NormalizeMediaType(contentType string) string {
	mt, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}
