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
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseWarcFields(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		strict  bool
		want    *WarcFields
		wantErr bool
	}{
		{
			"valid",
			"WARC-Type: warcinfo\r\nContent-Type: application/warc-fields\r\nContent-Length: 249\r\n\r\n",
			true,
			NewWarcFields("WARC-Type", "warcinfo", "Content-Type", "application/warc-fields", "Content-Length", "249"),
			false,
		},
		{
			"trailing whitespace is removed",
			"WARC-Type:   response \t\r\n\r\n",
			true,
			NewWarcFields("WARC-Type", "response"),
			false,
		},
		{
			"continuation line",
			"Name1: value1\r\n  more\r\nName2: value2\r\n\r\n",
			true,
			NewWarcFields("Name1", "value1 more", "Name2", "value2"),
			false,
		},
		{
			"encoded word",
			"Name1: =?utf-8?q?caf=C3=A9?=\r\n\r\n",
			true,
			NewWarcFields("Name1", "café"),
			false,
		},
		{
			"missing carriage return, lenient",
			"WARC-Type: response\nContent-Length: 0\n\n",
			false,
			NewWarcFields("WARC-Type", "response", "Content-Length", "0"),
			false,
		},
		{
			"missing carriage return, strict",
			"WARC-Type: response\nContent-Length: 0\n\n",
			true,
			nil,
			true,
		},
		{
			"missing colon",
			"WARC-Type response\r\n\r\n",
			false,
			nil,
			true,
		},
		{
			"empty field name",
			": response\r\n\r\n",
			false,
			nil,
			true,
		},
		{
			"continuation without field",
			" value\r\n\r\n",
			false,
			nil,
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := bufio.NewReader(strings.NewReader(tt.data))
			p := &warcfieldsParser{strict: tt.strict}
			got, err := p.Parse(r, &position{})

			assert := assert.New(t)
			if tt.wantErr {
				assert.Error(err)
				assert.Nil(got)
			} else {
				assert.NoError(err)
				assert.Equal(tt.want, got)
			}
		})
	}
}

func TestParseWarcFields_truncated(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("WARC-Type: response\r\nContent-Len"))
	p := &warcfieldsParser{}
	got, err := p.Parse(r, &position{})
	assert.Nil(t, got)
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF), "expected ErrUnexpectedEOF, got %v", err)

	var se *SyntaxError
	assert.True(t, errors.As(err, &se))
}

func TestParseWarcFields_lineNumber(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("Name1: value1\r\nName2\r\n\r\n"))
	p := &warcfieldsParser{}
	_, err := p.Parse(r, &position{})
	assert.EqualError(t, err, "could not parse header line. Missing ':' in Name2 at line 2")
}
