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

// Package diskbuffer implements a buffer which holds data in memory until a defined size and
// overflows extra data to a temporary file.
package diskbuffer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"os"
)

const tmpFilePrefix = "tmp-diskbuffer-"

// Buffer is written once and then read back from the start.
type Buffer interface {
	io.Writer
	io.StringWriter
	io.ReaderFrom
	io.Closer
	// Size returns the number of bytes written to the buffer.
	Size() int64
	// Reader returns a reader positioned at the start of the buffer.
	// Writing to the buffer after calling Reader is not allowed.
	Reader() (io.Reader, error)
}

// ErrReadOnly is returned when writing to a buffer which has been handed out for reading.
var ErrReadOnly = errors.New("diskbuffer.Buffer: mutating operation attempted on read only buffer")

// ErrMaxSizeExceeded is returned when the maximum allowed buffer size is reached when writing
type ErrMaxSizeExceeded int64

func (e ErrMaxSizeExceeded) Error() string {
	return fmt.Sprintf("diskbuffer.Buffer: maximum size %d exceeded", int64(e))
}

type buffer struct {
	opts     options
	mem      []byte
	file     *os.File
	fileSize int64
	readOnly bool
	closed   bool
}

// New creates a new Buffer with the supplied options.
func New(opts ...Option) Buffer {
	b := &buffer{opts: defaultOptions()}
	for _, opt := range opts {
		opt.apply(&b.opts)
	}
	if b.opts.maxTotalBytes > 0 && b.opts.maxMemBytes > b.opts.maxTotalBytes {
		b.opts.maxMemBytes = b.opts.maxTotalBytes
	}
	hint := b.opts.memBufferSizeHint
	if hint > b.opts.maxMemBytes {
		hint = b.opts.maxMemBytes
	}
	b.mem = make([]byte, 0, hint)
	return b
}

func (b *buffer) String() string {
	return fmt.Sprintf("size: %d (mem: %d, disk: %d)", b.Size(), len(b.mem), b.fileSize)
}

func (b *buffer) Size() int64 {
	return int64(len(b.mem)) + b.fileSize
}

func (b *buffer) Write(p []byte) (int, error) {
	if b.readOnly || b.closed {
		return 0, ErrReadOnly
	}

	var exceeded error
	if b.opts.maxTotalBytes > 0 {
		free := b.opts.maxTotalBytes - b.Size()
		if int64(len(p)) > free {
			p = p[:free]
			exceeded = ErrMaxSizeExceeded(b.opts.maxTotalBytes)
		}
	}

	wrote := 0
	if free := b.opts.maxMemBytes - int64(len(b.mem)); free > 0 {
		n := len(p)
		if int64(n) > free {
			n = int(free)
		}
		b.mem = append(b.mem, p[:n]...)
		wrote = n
		p = p[n:]
	}

	if len(p) > 0 {
		if b.file == nil {
			f, err := ioutil.TempFile(b.opts.tmpDir, tmpFilePrefix)
			if err != nil {
				return wrote, err
			}
			b.file = f
		}
		n, err := b.file.WriteAt(p, b.fileSize)
		b.fileSize += int64(n)
		wrote += n
		if err != nil {
			return wrote, err
		}
	}
	return wrote, exceeded
}

func (b *buffer) WriteString(s string) (int, error) {
	return b.Write([]byte(s))
}

// ReadFrom reads data from r until EOF and appends it to the buffer.
func (b *buffer) ReadFrom(r io.Reader) (n int64, err error) {
	p := make([]byte, 32*1024)
	for {
		m, e := r.Read(p)
		if m > 0 {
			w, we := b.Write(p[:m])
			n += int64(w)
			if we != nil {
				return n, we
			}
		}
		if e == io.EOF {
			return n, nil
		}
		if e != nil {
			return n, e
		}
	}
}

func (b *buffer) Reader() (io.Reader, error) {
	if b.closed {
		return nil, os.ErrClosed
	}
	b.readOnly = true
	mem := bytes.NewReader(b.mem)
	if b.file == nil {
		return mem, nil
	}
	return io.MultiReader(mem, io.NewSectionReader(b.file, 0, b.fileSize)), nil
}

// Close releases the memory and removes the temporary file if one was created.
func (b *buffer) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	b.mem = nil
	if b.file == nil {
		return nil
	}
	f := b.file
	b.file = nil
	if err := f.Close(); err != nil {
		return err
	}
	return os.Remove(f.Name())
}
