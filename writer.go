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
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/klauspost/compress/gzip"
	"github.com/nlnwa/warckit/internal/countingreader"
	"github.com/nlnwa/warckit/internal/diskbuffer"
	"github.com/nlnwa/warckit/internal/timestamp"
)

// RecordWriter serializes records to a sink.
//
// Every record is completed before it is written: Content-Length is set from the content actually
// written, and missing WARC-Type, WARC-Record-ID and WARC-Date fields are added. The header set of the
// record is not modified.
//
// When compression is enabled, each record is written as its own gzip member.
//
// A failing sink makes the writer unusable. The first failure is returned as *SinkWriteError and
// every later write fails with ErrWriterFailed.
//
// RecordWriter is not safe for concurrent use.
type RecordWriter struct {
	opts *writerOptions
	out  *countingreader.Writer
	buf  *bufio.Writer
	gz   *gzip.Writer // Holds gzip writer, enabling reuse
	err  *SinkWriteError

	warcinfoID string // added as WARC-Warcinfo-ID to records missing it
}

// NewRecordWriter creates a RecordWriter writing to w.
func NewRecordWriter(w io.Writer, opts ...WriterOption) *RecordWriter {
	return newRecordWriter(w, newWriterOptions(opts...))
}

func newRecordWriter(w io.Writer, o *writerOptions) *RecordWriter {
	out := countingreader.NewWriter(w, 0)
	return &RecordWriter{
		opts: o,
		out:  out,
		buf:  bufio.NewWriterSize(out, 64*1024),
	}
}

func (w *RecordWriter) String() string {
	return fmt.Sprintf("RecordWriter (%s)", w.opts)
}

// Offset returns the number of bytes written to the sink.
func (w *RecordWriter) Offset() int64 {
	return w.out.N()
}

// Err returns the sink error which made the writer unusable, or nil.
func (w *RecordWriter) Err() error {
	if w.err == nil {
		return nil
	}
	return w.err
}

// Write serializes record. The content of the record is consumed.
func (w *RecordWriter) Write(record *WarcRecord) error {
	block := record.Block()
	switch block.(type) {
	case *bytesBlock, *bufferedBlock:
		r, err := block.RawBytes()
		if err != nil {
			return err
		}
		return w.write(record.Version(), record.WarcHeader(), record.Type(), block.Size(), r)
	default:
		// The size reported by other Block implementations is not trusted
		r, err := block.RawBytes()
		if err != nil {
			return err
		}
		return w.WriteRaw(record.Version(), record.WarcHeader(), r)
	}
}

// WriteRaw serializes a record from a header set and a payload.
//
// The payload is read to the end before anything is written, so that Content-Length reflects its
// real size. A nil version means WARC/1.1.
func (w *RecordWriter) WriteRaw(version *WarcVersion, headers *WarcFields, payload io.Reader) error {
	if w.err != nil {
		return w.failed()
	}

	content := diskbuffer.New()
	defer func() { _ = content.Close() }()
	n, err := content.ReadFrom(payload)
	if err != nil {
		return fmt.Errorf("failed to read payload: %w", err)
	}
	r, err := content.Reader()
	if err != nil {
		return err
	}

	recordType := Unknown
	if headers != nil {
		recordType = stringToRecordType(headers.Get(WarcType))
	}
	return w.write(version, headers, recordType, n, r)
}

func (w *RecordWriter) failed() error {
	return &SinkWriteError{Offset: w.err.Offset, Err: ErrWriterFailed}
}

func (w *RecordWriter) write(version *WarcVersion, headers *WarcFields, recordType RecordType, size int64, payload io.Reader) error {
	if w.err != nil {
		return w.failed()
	}
	if version == nil {
		version = V1_1
	}
	var wf *WarcFields
	if headers == nil {
		wf = &WarcFields{}
	} else {
		wf = headers.clone()
	}
	w.completeHeader(wf, recordType, size)

	var dst io.Writer = w.buf
	if w.opts.compress {
		if w.gz == nil {
			gz, err := gzip.NewWriterLevel(w.buf, w.opts.compressionLevel)
			if err != nil {
				return err
			}
			w.gz = gz
		} else {
			w.gz.Reset(w.buf)
		}
		dst = w.gz
	}

	start := w.out.N()
	err := writeRecord(dst, version, wf, size, payload)
	if err == nil && w.opts.compress {
		err = w.gz.Close()
	}
	if err == nil {
		err = w.buf.Flush()
	}
	if err != nil {
		w.err = &SinkWriteError{Offset: start, Err: err}
		return w.err
	}
	return nil
}

// completeHeader adds the fields every written record must have.
func (w *RecordWriter) completeHeader(wf *WarcFields, recordType RecordType, size int64) {
	if !wf.Has(WarcType) {
		if recordType == Unknown {
			recordType = Resource
		}
		wf.Set(WarcType, recordType.String())
	}
	if !wf.Has(WarcRecordID) {
		wf.Set(WarcRecordID, w.opts.idGenerator())
	}
	if !wf.Has(WarcDate) {
		wf.Set(WarcDate, timestamp.UTCW3cIso8601(w.opts.date))
	}
	if w.warcinfoID != "" && recordType != Warcinfo && !wf.Has(WarcWarcinfoID) {
		wf.Set(WarcWarcinfoID, w.warcinfoID)
	}
	wf.Set(ContentLength, strconv.FormatInt(size, 10))
}

func writeRecord(w io.Writer, version *WarcVersion, wf *WarcFields, size int64, payload io.Reader) error {
	// Write WARC record version
	if _, err := fmt.Fprintf(w, "%v\r\n", version); err != nil {
		return err
	}

	// Write WARC header
	if _, err := wf.Write(w); err != nil {
		return err
	}

	// Write separator
	if _, err := io.WriteString(w, crlf); err != nil {
		return err
	}

	// Write WARC content
	if n, err := io.CopyN(w, payload, size); err != nil {
		if err == io.EOF {
			return fmt.Errorf("content ended after %d of %d bytes", n, size)
		}
		return err
	}

	// Write end of record separator
	_, err := io.WriteString(w, crlfcrlf)
	return err
}
