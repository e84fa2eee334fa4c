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
	"io"
	"mime"
)

const (
	maxLineLength   = 64 * 1024
	maxHeaderFields = 4096
)

var colon = []byte{':'}

type warcfieldsParser struct {
	strict bool
}

// readLine reads the next line from r without the line ending.
//
// Lines longer than maxLineLength are a syntax error. At end of input, the bytes read so far are
// returned together with io.ErrUnexpectedEOF.
func (p *warcfieldsParser) readLine(r *bufio.Reader, pos *position) ([]byte, error) {
	var line []byte
	for {
		l, err := r.ReadSlice('\n')
		line = append(line, l...)
		if err == bufio.ErrBufferFull {
			if len(line) > maxLineLength {
				return nil, newSyntaxError("line too long", pos)
			}
			continue
		}
		if err == io.EOF {
			return line, io.ErrUnexpectedEOF
		}
		if err != nil {
			return nil, err
		}
		break
	}
	if len(line) > maxLineLength {
		return nil, newSyntaxError("line too long", pos)
	}
	if len(line) < 2 || line[len(line)-2] != cr {
		if p.strict {
			return nil, newSyntaxError("missing carriage return", pos)
		}
		return line[:len(line)-1], nil
	}
	return line[:len(line)-2], nil
}

func (p *warcfieldsParser) parseLine(line []byte, wf *WarcFields, pos *position) error {
	line = bytes.TrimRight(line, sphtcrlf)

	// Support for ‘encoded-word’ mechanism of [RFC2047]
	d := mime.WordDecoder{}
	l, err := d.DecodeHeader(string(line))
	if err != nil {
		return newWrappedSyntaxError("error decoding line", pos, err)
	}
	line = []byte(l)

	fv := bytes.SplitN(line, colon, 2)
	if len(fv) != 2 {
		return newSyntaxError("could not parse header line. Missing ':' in "+string(fv[0]), pos)
	}

	name := string(bytes.Trim(fv[0], sphtcrlf))
	if name == "" {
		return newSyntaxError("empty field name", pos)
	}
	value := string(bytes.Trim(fv[1], sphtcrlf))

	wf.Add(name, value)
	return nil
}

// Parse reads header lines until the empty line terminating the header block.
//
// Lines starting with space or tab continue the previous field. Any syntax error or a block cut short
// by end of input fails the whole block.
func (p *warcfieldsParser) Parse(r *bufio.Reader, pos *position) (*WarcFields, error) {
	wf := &WarcFields{}
	var pending []byte
	var pendingPos position

	flush := func() error {
		if pending == nil {
			return nil
		}
		err := p.parseLine(pending, wf, &pendingPos)
		pending = nil
		return err
	}

	for {
		line, err := p.readLine(r, pos.incrLineNumber())
		if err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, newWrappedSyntaxError("end of input before end of header block", pos, io.ErrUnexpectedEOF)
			}
			return nil, err
		}

		if len(line) == 0 {
			if err := flush(); err != nil {
				return nil, err
			}
			return wf, nil
		}

		// Check for continuation
		if line[0] == sp || line[0] == ht {
			if pending == nil {
				return nil, newSyntaxError("continuation line without field", pos)
			}
			pending = append(pending, ' ')
			pending = append(pending, bytes.Trim(line, sphtcrlf)...)
			continue
		}

		if err := flush(); err != nil {
			return nil, err
		}
		if wf.Len() >= maxHeaderFields {
			return nil, newSyntaxError("too many header fields", pos)
		}
		pending = append([]byte{}, line...)
		pendingPos = *pos
	}
}
