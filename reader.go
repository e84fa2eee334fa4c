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
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/nlnwa/warckit/internal/countingreader"
	"github.com/nlnwa/warckit/internal/diskbuffer"
	log "github.com/sirupsen/logrus"
)

var (
	warcMagic       = []byte("WARC/")
	errReaderClosed = errors.New("warckit: record reader is closed")
)

// isGzipMagic reports whether b starts with the header of a deflate compressed gzip member.
func isGzipMagic(b []byte) bool {
	return len(b) >= 3 && b[0] == 0x1f && b[1] == 0x8b && b[2] == 0x08
}

// inputReader remembers the first error other than io.EOF returned by the input.
type inputReader struct {
	r   io.Reader
	err error
}

func (i *inputReader) Read(p []byte) (int, error) {
	n, err := i.r.Read(p)
	if err != nil && err != io.EOF && i.err == nil {
		i.err = err
	}
	return n, err
}

// RecordReader is a forward only decoder of a WARC stream.
//
// The stream can be uncompressed, compressed with one gzip member per record or compressed as one or
// more gzip members holding many records each. Records which can not be parsed are reported as
// *MalformedRecordError and the reader continues at the next plausible record start.
//
// RecordReader is not safe for concurrent use.
type RecordReader struct {
	opts   *readerOptions
	parser *warcfieldsParser
	input  *inputReader
	count  *countingreader.Reader
	raw    *bufio.Reader
	base   int64

	member      *gzip.Reader
	memberBuf   *bufio.Reader
	memberStart int64

	compressed        bool
	resync            bool
	lineStart         bool // resync starts at the beginning of a line
	consecutiveErrors int
	err               error
}

// NewRecordReader creates a RecordReader reading from r.
func NewRecordReader(r io.Reader, opts ...ReaderOption) *RecordReader {
	o := newReaderOptions(opts...)
	input := &inputReader{r: r}
	c := countingreader.New(input)
	return &RecordReader{
		opts:   o,
		parser: &warcfieldsParser{strict: o.strict},
		input:  input,
		count:  c,
		raw:    bufio.NewReaderSize(c, 64*1024),
	}
}

// offset returns the offset in the input of the next unread byte.
func (rr *RecordReader) offset() int64 {
	return rr.base + rr.count.N() - int64(rr.raw.Buffered())
}

// Next returns the next record and the offset in the input where it starts.
//
// For compressed input the offset is the start of the gzip member holding the record.
//
// At the end of input, io.EOF is returned. A *MalformedRecordError means the record at the returned
// offset was skipped and Next can be called again. Any other error is terminal and is returned again
// by every subsequent call: ErrIncompleteStream when too many records in a row were malformed, or the
// error from the underlying reader.
//
// The caller owns the returned record and must close it.
func (rr *RecordReader) Next() (*WarcRecord, int64, error) {
	if rr.err != nil {
		return nil, rr.offset(), rr.err
	}

	record, offset, err := rr.next()
	if err == nil {
		rr.consecutiveErrors = 0
		return record, offset, nil
	}
	if rr.input.err != nil {
		rr.stop(fmt.Errorf("warckit: reading input failed at offset %d: %w", rr.offset(), rr.input.err))
		return nil, offset, rr.err
	}
	if err == io.EOF {
		rr.stop(io.EOF)
		return nil, offset, io.EOF
	}

	rr.resync = true
	rr.consecutiveErrors++
	if rr.opts.logMalformed {
		log.WithField("offset", offset).Warn(err)
	}
	if rr.opts.maxConsecutiveErrors > 0 && rr.consecutiveErrors >= rr.opts.maxConsecutiveErrors {
		rr.stop(ErrIncompleteStream)
	}
	return nil, offset, err
}

// Close releases resources held by the reader. The underlying reader is not closed.
func (rr *RecordReader) Close() error {
	if rr.err == nil {
		rr.stop(errReaderClosed)
	}
	return nil
}

func (rr *RecordReader) stop(err error) {
	rr.err = err
	if rr.member != nil {
		rr.endMember(io.EOF)
	}
}

func (rr *RecordReader) next() (*WarcRecord, int64, error) {
	for {
		if rr.member == nil {
			if rr.resync {
				rr.resync = false
				lineStart := rr.lineStart
				rr.lineStart = false
				if err := seek(rr.raw, rr.compressed, lineStart); err != nil {
					return nil, rr.offset(), err
				}
			}
			if err := skipLineBreaks(rr.raw); err != nil {
				return nil, rr.offset(), err
			}
			offset := rr.offset()
			magic, _ := rr.raw.Peek(len(warcMagic))
			if !isGzipMagic(magic) {
				return rr.readRecord(rr.raw, offset)
			}
			if err := rr.openMember(offset); err != nil {
				return nil, offset, newMalformedRecordError(offset, "invalid gzip member", err)
			}
		}

		if rr.resync {
			rr.resync = false
			lineStart := rr.lineStart
			rr.lineStart = false
			if err := seek(rr.memberBuf, false, lineStart); err != nil {
				rr.endMember(err)
				continue
			}
		}
		if err := skipLineBreaks(rr.memberBuf); err != nil {
			rr.endMember(err)
			if err != io.EOF {
				return nil, rr.memberStart, newMalformedRecordError(rr.memberStart, "invalid gzip member", err)
			}
			continue
		}
		return rr.readRecord(rr.memberBuf, rr.memberStart)
	}
}

func (rr *RecordReader) openMember(offset int64) error {
	rr.compressed = true
	log.WithField("offset", offset).Debug("detected gzip member")
	gz, err := gzip.NewReader(rr.raw)
	if err != nil {
		return err
	}
	gz.Multistream(false)
	rr.member = gz
	rr.memberBuf = bufio.NewReader(gz)
	rr.memberStart = offset
	return nil
}

// endMember drops the current gzip member. Unless the member ended cleanly, the raw input is
// resynchronized before the next record.
func (rr *RecordReader) endMember(err error) {
	if err != io.EOF {
		log.WithField("offset", rr.memberStart).Debugf("gzip member ended with error: %v", err)
		rr.resync = true
	}
	rr.lineStart = false
	_ = rr.member.Close()
	rr.member = nil
	rr.memberBuf = nil
}

func (rr *RecordReader) readRecord(r *bufio.Reader, offset int64) (*WarcRecord, int64, error) {
	magic, err := r.Peek(len(warcMagic))
	if !bytes.Equal(magic, warcMagic) {
		if err != nil && bytes.HasPrefix(warcMagic, magic) {
			_, _ = r.Discard(len(magic))
			return nil, offset, newMalformedRecordError(offset, "truncated start line", io.ErrUnexpectedEOF)
		}
		return nil, offset, newMalformedRecordError(offset, "expected start of record", ErrUnsupportedFraming)
	}

	pos := &position{}
	line, err := rr.parser.readLine(r, pos.incrLineNumber())
	if err != nil {
		return nil, offset, newMalformedRecordError(offset, "could not read start line", err)
	}
	version := resolveVersion(string(bytes.Trim(line[len(warcMagic):], sphtcrlf)))
	if rr.opts.strict && !version.Supported() {
		return nil, offset, newMalformedRecordError(offset, "unsupported version "+version.String(), nil)
	}

	wf, err := rr.parser.Parse(r, pos)
	if err != nil {
		return nil, offset, newMalformedRecordError(offset, "could not parse header", err)
	}
	recordType, length, err := validateHeader(wf, rr.opts.strict)
	if err != nil {
		return nil, offset, newMalformedRecordError(offset, "invalid header", err)
	}

	block, last, err := rr.readBlock(r, wf, length)
	if err != nil {
		return nil, offset, newMalformedRecordError(offset, "invalid content", err)
	}
	if err := rr.readTerminator(r, last); err != nil {
		_ = block.Close()
		return nil, offset, newMalformedRecordError(offset, "content length mismatch", err)
	}

	return &WarcRecord{
		version:    version,
		headers:    wf,
		recordType: recordType,
		block:      block,
	}, offset, nil
}

// readBlock copies exactly length bytes of content into a buffer. It also returns the last byte
// consumed from r, which is the line feed ending the header block for empty content.
func (rr *RecordReader) readBlock(r io.Reader, wf *WarcFields, length int64) (*bufferedBlock, byte, error) {
	var d *digest
	if rr.opts.validateBlockDigest && wf.Has(WarcBlockDigest) {
		var err error
		if d, err = newDigest(wf.Get(WarcBlockDigest)); err != nil {
			return nil, 0, newHeaderFieldError(WarcBlockDigest, err.Error())
		}
	}

	tail := &tailReader{r: io.LimitReader(r, length), last: lf}
	var src io.Reader = tail
	if d != nil {
		src = newDigestFilterReader(src, d)
	}

	buf := diskbuffer.New(rr.opts.bufferOptions...)
	n, err := buf.ReadFrom(src)
	if err == nil && n < length {
		err = fmt.Errorf("content truncated, expected %d bytes, got %d: %w", length, n, io.ErrUnexpectedEOF)
	}
	if err == nil && d != nil {
		err = d.validate()
	}
	if err != nil {
		_ = buf.Close()
		return nil, 0, err
	}
	return &bufferedBlock{buf: buf}, tail.last, nil
}

// tailReader remembers the last byte read through it.
type tailReader struct {
	r    io.Reader
	last byte
}

func (t *tailReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if n > 0 {
		t.last = p[n-1]
	}
	return n, err
}

// readTerminator consumes the two line breaks ending a record.
//
// When not strict, end of input in place of a line break and line breaks without carriage return are accepted.
// last is the byte consumed before the terminator. When the terminator is not found, the reader is left
// at the unexpected byte and rr.lineStart tells if that byte starts a line.
func (rr *RecordReader) readTerminator(r *bufio.Reader, last byte) error {
	for i := 0; i < 2; i++ {
		c, err := r.ReadByte()
		if err == io.EOF && !rr.opts.strict {
			return nil
		}
		if err != nil {
			return noEOF(err)
		}
		if c == cr {
			last = c
			if c, err = r.ReadByte(); err != nil {
				return noEOF(err)
			}
		} else if rr.opts.strict {
			_ = r.UnreadByte()
			rr.lineStart = last == lf
			return errors.New("missing carriage return in record terminator")
		}
		if c != lf {
			_ = r.UnreadByte()
			rr.lineStart = last == lf
			return errors.New("record terminator not found after content")
		}
		last = c
	}
	return nil
}

// seek discards input up to the next plausible record start: a WARC start line at the beginning of
// a line or, when allowGzip is set, a gzip member header. lineStart tells if r is positioned at the
// beginning of a line.
func seek(r *bufio.Reader, allowGzip, lineStart bool) error {
	for {
		b, err := r.Peek(len(warcMagic))
		if len(b) == 0 {
			return err
		}
		if allowGzip && isGzipMagic(b) {
			return nil
		}
		if lineStart && bytes.Equal(b, warcMagic) {
			return nil
		}
		lineStart = b[0] == lf
		if _, err := r.Discard(1); err != nil {
			return err
		}
	}
}

// skipLineBreaks discards empty lines between records.
func skipLineBreaks(r *bufio.Reader) error {
	for {
		b, err := r.Peek(1)
		if err != nil {
			return err
		}
		if b[0] != cr && b[0] != lf {
			return nil
		}
		_, _ = r.Discard(1)
	}
}

func noEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
