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
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/nlnwa/warckit/internal/diskbuffer"
)

// Allow overriding of time.Now for tests
var now = time.Now

// RecordIDGenerator returns a new WARC-Record-ID value including the enclosing <>.
type RecordIDGenerator func() string

func defaultIDGenerator() string {
	return "<urn:uuid:" + uuid.New().String() + ">"
}

// recordOptions configure RecordBuilder.
type recordOptions struct {
	version          *WarcVersion
	addMissingDigest bool
	idGenerator      RecordIDGenerator
	bufferOptions    []diskbuffer.Option
}

// RecordOption configures how new records are built.
type RecordOption interface {
	apply(*recordOptions)
}

// funcRecordOption wraps a function that modifies recordOptions into an
// implementation of the RecordOption interface.
type funcRecordOption struct {
	f func(*recordOptions)
}

func (fo *funcRecordOption) apply(po *recordOptions) {
	fo.f(po)
}

func newFuncRecordOption(f func(*recordOptions)) *funcRecordOption {
	return &funcRecordOption{
		f: f,
	}
}

func newRecordOptions(opts ...RecordOption) *recordOptions {
	o := &recordOptions{
		version:          V1_1,
		addMissingDigest: true,
		idGenerator:      defaultIDGenerator,
	}
	for _, opt := range opts {
		opt.apply(o)
	}
	return o
}

// WithVersion sets the WARC version to use for new records
// defaults to WARC/1.1
func WithVersion(version *WarcVersion) RecordOption {
	return newFuncRecordOption(func(o *recordOptions) {
		o.version = version
	})
}

// WithAddMissingDigest sets if a missing WARC-Block-Digest should be calculated and added.
// defaults to true
func WithAddMissingDigest(addMissingDigest bool) RecordOption {
	return newFuncRecordOption(func(o *recordOptions) {
		o.addMissingDigest = addMissingDigest
	})
}

// WithRecordIDGenerator sets the function used to generate WARC-Record-ID for new records.
// defaults to urn:uuid with a random uuid
func WithRecordIDGenerator(g RecordIDGenerator) RecordOption {
	return newFuncRecordOption(func(o *recordOptions) {
		o.idGenerator = g
	})
}

// WithRecordBufferOptions sets the options for the buffer holding the content of new records.
func WithRecordBufferOptions(opts ...diskbuffer.Option) RecordOption {
	return newFuncRecordOption(func(o *recordOptions) {
		o.bufferOptions = opts
	})
}

// readerOptions configure RecordReader.
type readerOptions struct {
	strict               bool
	maxConsecutiveErrors int
	bufferOptions        []diskbuffer.Option
	logMalformed         bool
	validateBlockDigest  bool
}

func (o *readerOptions) String() string {
	return fmt.Sprintf("strict: %v, max consecutive errors: %d", o.strict, o.maxConsecutiveErrors)
}

// ReaderOption configures how records are parsed.
type ReaderOption interface {
	apply(*readerOptions)
}

// funcReaderOption wraps a function that modifies readerOptions into an
// implementation of the ReaderOption interface.
type funcReaderOption struct {
	f func(*readerOptions)
}

func (fo *funcReaderOption) apply(po *readerOptions) {
	fo.f(po)
}

func newFuncReaderOption(f func(*readerOptions)) *funcReaderOption {
	return &funcReaderOption{
		f: f,
	}
}

func newReaderOptions(opts ...ReaderOption) *readerOptions {
	o := &readerOptions{
		strict:               false,
		maxConsecutiveErrors: 10,
		logMalformed:         true,
	}
	for _, opt := range opts {
		opt.apply(o)
	}
	return o
}

// WithStrict decides if records are required to strictly follow the WARC standard.
// When strict, missing carriage returns, missing mandatory fields and malformed ids make a record malformed.
// defaults to false
func WithStrict(strict bool) ReaderOption {
	return newFuncReaderOption(func(o *readerOptions) {
		o.strict = strict
	})
}

// WithMaxConsecutiveErrors sets how many malformed records in a row are accepted before the reader
// gives up with ErrIncompleteStream. Zero or less means no limit.
// defaults to 10
func WithMaxConsecutiveErrors(n int) ReaderOption {
	return newFuncReaderOption(func(o *readerOptions) {
		o.maxConsecutiveErrors = n
	})
}

// WithBufferOptions sets the options for the buffers holding the content of parsed records.
func WithBufferOptions(opts ...diskbuffer.Option) ReaderOption {
	return newFuncReaderOption(func(o *readerOptions) {
		o.bufferOptions = opts
	})
}

// WithLogMalformed sets if the reader should log malformed records.
// defaults to true
func WithLogMalformed(logMalformed bool) ReaderOption {
	return newFuncReaderOption(func(o *readerOptions) {
		o.logMalformed = logMalformed
	})
}

// WithValidateBlockDigest sets if the content of records with a WARC-Block-Digest field should be checked
// against the digest. A mismatch makes the record malformed.
// defaults to false
func WithValidateBlockDigest(validate bool) ReaderOption {
	return newFuncReaderOption(func(o *readerOptions) {
		o.validateBlockDigest = validate
	})
}

// writerOptions configure RecordWriter and WarcFileWriter.
type writerOptions struct {
	compress         bool
	compressionLevel int
	date             time.Time
	idGenerator      RecordIDGenerator
	openFileSuffix   string
	nameGenerator    WarcFileNameGenerator
	warcInfoFunc     func(recordBuilder *RecordBuilder) error
}

func (o *writerOptions) String() string {
	return fmt.Sprintf("compressed: %v, date: %s", o.compress, o.date.Format(time.RFC3339))
}

// WriterOption configures how records are written.
type WriterOption interface {
	apply(*writerOptions)
}

// funcWriterOption wraps a function that modifies writerOptions into an
// implementation of the WriterOption interface.
type funcWriterOption struct {
	f func(*writerOptions)
}

func (fo *funcWriterOption) apply(po *writerOptions) {
	fo.f(po)
}

func newFuncWriterOption(f func(*writerOptions)) *funcWriterOption {
	return &funcWriterOption{
		f: f,
	}
}

func newWriterOptions(opts ...WriterOption) *writerOptions {
	o := &writerOptions{
		compress:         true,
		compressionLevel: gzip.DefaultCompression,
		date:             now(),
		idGenerator:      defaultIDGenerator,
		openFileSuffix:   ".open",
		nameGenerator:    &PatternNameGenerator{},
	}
	for _, opt := range opts {
		opt.apply(o)
	}
	return o
}

// WithCompression sets if each record should be written as its own gzip member.
// defaults to true
func WithCompression(compress bool) WriterOption {
	return newFuncWriterOption(func(o *writerOptions) {
		o.compress = compress
	})
}

// WithCompressionLevel sets the gzip compression level.
// defaults to gzip.DefaultCompression
func WithCompressionLevel(level int) WriterOption {
	return newFuncWriterOption(func(o *writerOptions) {
		o.compressionLevel = level
	})
}

// WithDate sets the instant used for WARC-Date on records missing it.
// defaults to the time the writer was created
func WithDate(date time.Time) WriterOption {
	return newFuncWriterOption(func(o *writerOptions) {
		o.date = date
	})
}

// WithIDGenerator sets the function used to assign WARC-Record-ID to records missing it.
// defaults to urn:uuid with a random uuid
func WithIDGenerator(g RecordIDGenerator) WriterOption {
	return newFuncWriterOption(func(o *writerOptions) {
		o.idGenerator = g
	})
}

// WithOpenFileSuffix sets a suffix to be added to the file name while the file is open for writing.
// The suffix is automatically removed when the file is closed.
// defaults to ".open"
func WithOpenFileSuffix(suffix string) WriterOption {
	return newFuncWriterOption(func(o *writerOptions) {
		o.openFileSuffix = suffix
	})
}

// WithFileNameGenerator sets the WarcFileNameGenerator used when a WarcFileWriter is given a directory.
// defaults to PatternNameGenerator with the default pattern
func WithFileNameGenerator(generator WarcFileNameGenerator) WriterOption {
	return newFuncWriterOption(func(o *writerOptions) {
		o.nameGenerator = generator
	})
}

// WithWarcInfoFunc sets a warcinfo-record generator function to be called when a WarcFileWriter creates its file.
// The function receives a RecordBuilder which is prepopulated with WARC-Date, WARC-Filename and Content-Type.
//
// defaults nil (no generation of warcinfo record)
func WithWarcInfoFunc(f func(recordBuilder *RecordBuilder) error) WriterOption {
	return newFuncWriterOption(func(o *writerOptions) {
		o.warcInfoFunc = f
	})
}
