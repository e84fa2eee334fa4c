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
	"bytes"
	"errors"
	"io"

	"github.com/nlnwa/warckit/internal/diskbuffer"
)

// Block is the interface used to represent the content of a WARC record as specified by the WARC specification:
// https://iipc.github.io/warc-specifications/specifications/warc-format/warc-1.1/#warc-record-content-block
//
// The content of a Block can only be read once. Calling RawBytes a second time fails.
//
// NOTE: Blocks are not required to be thread safe.
type Block interface {
	// RawBytes returns the bytes of the Block
	RawBytes() (io.Reader, error)
	// Size returns the number of bytes in the Block
	Size() int64
	io.Closer
}

var errContentReAccessed = errors.New("warckit.Block: tried to access content twice")

// bytesBlock is a Block backed by a caller supplied byte slice.
type bytesBlock struct {
	content  []byte
	consumed bool
}

func newBytesBlock(content []byte) *bytesBlock {
	return &bytesBlock{content: content}
}

func (block *bytesBlock) RawBytes() (io.Reader, error) {
	if block.consumed {
		return nil, errContentReAccessed
	}
	block.consumed = true
	return bytes.NewReader(block.content), nil
}

func (block *bytesBlock) Size() int64 {
	return int64(len(block.content))
}

func (block *bytesBlock) Close() error {
	block.content = nil
	return nil
}

// bufferedBlock is a Block backed by a diskbuffer, which keeps small content in memory and spills
// larger content to a temporary file.
type bufferedBlock struct {
	buf      diskbuffer.Buffer
	consumed bool
}

func (block *bufferedBlock) RawBytes() (io.Reader, error) {
	if block.consumed {
		return nil, errContentReAccessed
	}
	block.consumed = true
	return block.buf.Reader()
}

func (block *bufferedBlock) Size() int64 {
	return block.buf.Size()
}

func (block *bufferedBlock) Close() error {
	return block.buf.Close()
}
