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
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedFraming is wrapped by a MalformedRecordError when the bytes at a record boundary
	// are neither a gzip member nor a WARC start line.
	ErrUnsupportedFraming = errors.New("warckit: neither gzip member nor WARC record at expected offset")

	// ErrIncompleteStream is returned by RecordReader.Next when resynchronization failed too many times
	// in a row. The reader can not be used after this error.
	ErrIncompleteStream = errors.New("warckit: giving up on stream after repeated resynchronization failures")

	// ErrWriterFailed is returned by a RecordWriter whose sink has failed earlier.
	ErrWriterFailed = errors.New("warckit: writer is unusable after earlier write error")
)

// MalformedRecordError is returned by RecordReader.Next for a record which could not be parsed.
// The error is recoverable: the reader has resynchronized and Next can be called again.
type MalformedRecordError struct {
	Offset int64 // offset of the record start in the input
	Msg    string
	Err    error
}

func newMalformedRecordError(offset int64, msg string, wrapped error) *MalformedRecordError {
	return &MalformedRecordError{Offset: offset, Msg: msg, Err: wrapped}
}

func (e *MalformedRecordError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("warckit: malformed record at offset %d: %s: %v", e.Offset, e.Msg, e.Err)
	}
	return fmt.Sprintf("warckit: malformed record at offset %d: %s", e.Offset, e.Msg)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

// SourceUnavailableError is used when an input could not be opened.
type SourceUnavailableError struct {
	Name string
	Err  error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("warckit: source %s unavailable: %v", e.Name, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}

// SinkWriteError is used when the output could not be opened or written to.
type SinkWriteError struct {
	Offset int64 // output offset when the error occurred
	Err    error
}

func (e *SinkWriteError) Error() string {
	return fmt.Sprintf("warckit: write failed at output offset %d: %v", e.Offset, e.Err)
}

func (e *SinkWriteError) Unwrap() error {
	return e.Err
}

// IsMalformed reports whether err is a recoverable record level error.
func IsMalformed(err error) bool {
	var me *MalformedRecordError
	return errors.As(err, &me)
}

// HeaderFieldError is used for violations of WARC header specification
type HeaderFieldError struct {
	fieldName string
	msg       string
}

func newHeaderFieldError(fieldName string, msg string) *HeaderFieldError {
	return &HeaderFieldError{fieldName: fieldName, msg: msg}
}

func newHeaderFieldErrorf(fieldName string, msg string, param ...interface{}) *HeaderFieldError {
	return &HeaderFieldError{fieldName: fieldName, msg: fmt.Sprintf(msg, param...)}
}

func (e *HeaderFieldError) Error() string {
	if e.fieldName != "" {
		return fmt.Sprintf("%s at header %s", e.msg, e.fieldName)
	}
	return e.msg
}

// SyntaxError is used for syntactical errors like wrong line endings
type SyntaxError struct {
	msg     string
	line    int
	wrapped error
}

func newSyntaxError(msg string, pos *position) *SyntaxError {
	return &SyntaxError{msg: msg, line: pos.lineNumber}
}

func newWrappedSyntaxError(msg string, pos *position, wrapped error) *SyntaxError {
	return &SyntaxError{msg: msg, line: pos.lineNumber, wrapped: wrapped}
}

func (e *SyntaxError) Error() string {
	if e.line > 0 {
		return fmt.Sprintf("%s at line %d", e.msg, e.line)
	}
	return e.msg
}

func (e *SyntaxError) Unwrap() error {
	return e.wrapped
}

type position struct {
	lineNumber int
}

func (p *position) incrLineNumber() *position {
	p.lineNumber++
	return p
}

type multiErr []error

func (e multiErr) Error() string {
	switch len(e) {
	case 0:
		return ""
	case 1:
		return e[0].Error()
	}

	var b strings.Builder
	b.WriteString("[")
	b.WriteString(e[0].Error())
	for _, s := range e[1:] {
		b.WriteString(", ")
		b.WriteString(s.Error())
	}
	b.WriteString("]")
	return b.String()
}

// errOrNil returns nil for an empty multiErr.
func (e multiErr) errOrNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}
