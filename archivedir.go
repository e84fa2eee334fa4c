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
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/nlnwa/warckit/internal/timestamp"
	"github.com/nlnwa/whatwg-url/url"
	log "github.com/sirupsen/logrus"
)

const applicationHttpResponse = "application/http; msgtype=response"

type archiveDirOptions struct {
	guesser     ContentTypeGuesser
	httpFraming bool
	exclude     []string
	date        time.Time
}

// ArchiveDirOption configures ArchiveDir.
type ArchiveDirOption interface {
	apply(*archiveDirOptions)
}

// funcArchiveDirOption wraps a function that modifies archiveDirOptions into an
// implementation of the ArchiveDirOption interface.
type funcArchiveDirOption struct {
	f func(*archiveDirOptions)
}

func (fo *funcArchiveDirOption) apply(po *archiveDirOptions) {
	fo.f(po)
}

func newFuncArchiveDirOption(f func(*archiveDirOptions)) *funcArchiveDirOption {
	return &funcArchiveDirOption{
		f: f,
	}
}

// WithContentTypeGuesser sets how the Content-Type of files is decided.
// defaults to ExtensionGuesser
func WithContentTypeGuesser(g ContentTypeGuesser) ArchiveDirOption {
	return newFuncArchiveDirOption(func(o *archiveDirOptions) {
		o.guesser = g
	})
}

// WithHTTPFraming sets if file content is wrapped in an HTTP 200 response.
// The records then get Content-Type application/http and the guessed type is put in the HTTP header.
// defaults to false
func WithHTTPFraming(httpFraming bool) ArchiveDirOption {
	return newFuncArchiveDirOption(func(o *archiveDirOptions) {
		o.httpFraming = httpFraming
	})
}

// WithExclude sets files which should not be archived, typically the output file itself.
func WithExclude(paths ...string) ArchiveDirOption {
	return newFuncArchiveDirOption(func(o *archiveDirOptions) {
		o.exclude = append(o.exclude, paths...)
	})
}

// WithRecordDate sets WARC-Date of the created records.
// defaults to the date of the RecordWriter
func WithRecordDate(date time.Time) ArchiveDirOption {
	return newFuncArchiveDirOption(func(o *archiveDirOptions) {
		o.date = date
	})
}

// NormalizeBaseURL checks that baseURL is an absolute URL and makes sure it ends with a slash.
func NormalizeBaseURL(baseURL string) (string, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if _, err := url.Parse(baseURL); err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	return baseURL, nil
}

// ArchiveDir writes one response record for every regular file below dir.
//
// Files are visited in lexical order. The target URI of a record is baseURL followed by the slash
// separated path of the file relative to dir. Files which can not be read are logged and skipped.
//
// Returns the number of records written.
func ArchiveDir(ctx context.Context, dir, baseURL string, w *RecordWriter, opts ...ArchiveDirOption) (int, error) {
	o := &archiveDirOptions{guesser: ExtensionGuesser{}}
	for _, opt := range opts {
		opt.apply(o)
	}

	base, err := NormalizeBaseURL(baseURL)
	if err != nil {
		return 0, err
	}

	excluded := make(map[string]bool)
	for _, p := range o.exclude {
		if abs, err := filepath.Abs(p); err == nil {
			excluded[abs] = true
		}
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if abs, err := filepath.Abs(path); err == nil && excluded[abs] {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return 0, err
	}

	count := 0
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return count, err
		}
		uri := base + filepath.ToSlash(rel)
		if err := validateTargetURI(uri); err != nil {
			log.WithField("file", path).Warnf("Skipping file: %v", err)
			continue
		}

		record, err := o.fileRecord(path, uri, w.opts.idGenerator)
		if err != nil {
			log.WithField("file", path).Warnf("Skipping file: %v", err)
			continue
		}
		err = w.Write(record)
		_ = record.Close()
		if err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func (o *archiveDirOptions) fileRecord(path, uri string, idGenerator RecordIDGenerator) (*WarcRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}

	rb := NewRecordBuilder(Response, WithRecordIDGenerator(idGenerator))
	rb.AddWarcHeader(WarcTargetURI, uri)
	if !o.date.IsZero() {
		rb.AddWarcHeader(WarcDate, timestamp.UTCW3cIso8601(o.date))
	}

	contentType := o.guesser.GuessContentType(path)
	if o.httpFraming {
		header := http.Header{}
		header.Set(ContentType, contentType)
		header.Set(ContentLength, strconv.FormatInt(fi.Size(), 10))
		rb.AddWarcHeader(ContentType, applicationHttpResponse)
		if _, err := rb.Write(httpResponseHeader(http.StatusOK, header)); err != nil {
			_ = rb.Close()
			return nil, err
		}
	} else {
		rb.AddWarcHeader(ContentType, contentType)
	}

	if _, err := rb.ReadFrom(f); err != nil {
		_ = rb.Close()
		return nil, err
	}
	return rb.Build()
}
