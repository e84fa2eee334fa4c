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
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDate = time.Date(2021, 1, 2, 3, 4, 5, 0, time.UTC)

func TestRecordWriter_Write(t *testing.T) {
	tests := []struct {
		name    string
		headers *WarcFields
		payload string
		want    string
	}{
		{
			"complete record",
			NewWarcFields(
				WarcType, "response",
				WarcRecordID, "<urn:uuid:1>",
				WarcDate, "2017-03-06T04:03:53Z",
				ContentLength, "5",
			),
			"hello",
			"WARC/1.1\r\n" +
				"WARC-Type: response\r\n" +
				"WARC-Record-ID: <urn:uuid:1>\r\n" +
				"WARC-Date: 2017-03-06T04:03:53Z\r\n" +
				"Content-Length: 5\r\n" +
				"\r\n" +
				"hello\r\n\r\n",
		},
		{
			"wrong content length is replaced",
			NewWarcFields(
				WarcType, "resource",
				ContentLength, "999",
				WarcRecordID, "<urn:uuid:1>",
			),
			"hello",
			"WARC/1.1\r\n" +
				"WARC-Type: resource\r\n" +
				"Content-Length: 5\r\n" +
				"WARC-Record-ID: <urn:uuid:1>\r\n" +
				"WARC-Date: 2021-01-02T03:04:05Z\r\n" +
				"\r\n" +
				"hello\r\n\r\n",
		},
		{
			"missing fields are added",
			&WarcFields{},
			"",
			"WARC/1.1\r\n" +
				"WARC-Type: resource\r\n" +
				"WARC-Record-ID: <urn:uuid:generated>\r\n" +
				"WARC-Date: 2021-01-02T03:04:05Z\r\n" +
				"Content-Length: 0\r\n" +
				"\r\n" +
				"\r\n\r\n",
		},
		{
			"unknown type is kept",
			NewWarcFields(WarcType, "x-custom", WarcRecordID, "<urn:uuid:1>", WarcDate, "2017-03-06T04:03:53Z"),
			"data",
			"WARC/1.1\r\n" +
				"WARC-Type: x-custom\r\n" +
				"WARC-Record-ID: <urn:uuid:1>\r\n" +
				"WARC-Date: 2017-03-06T04:03:53Z\r\n" +
				"Content-Length: 4\r\n" +
				"\r\n" +
				"data\r\n\r\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			w := NewRecordWriter(&out, WithCompression(false), WithDate(testDate), WithIDGenerator(fixedIDs("<urn:uuid:generated>")))

			record := NewRecord(V1_1, tt.headers, []byte(tt.payload))
			before := tt.headers.String()
			require.NoError(t, w.Write(record))

			assert.Equal(t, tt.want, out.String())
			assert.Equal(t, int64(len(tt.want)), w.Offset())
			assert.Equal(t, before, record.WarcHeader().String(), "header of written record should not change")
		})
	}
}

// untrustedBlock is a Block whose Size is wrong.
type untrustedBlock struct {
	content string
}

func (b *untrustedBlock) RawBytes() (io.Reader, error) { return strings.NewReader(b.content), nil }
func (b *untrustedBlock) Size() int64                  { return 1 }
func (b *untrustedBlock) Close() error                 { return nil }

func TestRecordWriter_WriteOtherBlock(t *testing.T) {
	var out bytes.Buffer
	w := NewRecordWriter(&out, WithCompression(false), WithDate(testDate))

	record := &WarcRecord{
		version:    V1_0,
		headers:    NewWarcFields(WarcType, "metadata", WarcRecordID, "<urn:uuid:1>"),
		recordType: Metadata,
		block:      &untrustedBlock{content: "1234567890"},
	}
	require.NoError(t, w.Write(record))
	assert.Equal(t, "WARC/1.0\r\n"+
		"WARC-Type: metadata\r\n"+
		"WARC-Record-ID: <urn:uuid:1>\r\n"+
		"WARC-Date: 2021-01-02T03:04:05Z\r\n"+
		"Content-Length: 10\r\n"+
		"\r\n"+
		"1234567890\r\n\r\n", out.String())
}

func TestRecordWriter_RoundTrip(t *testing.T) {
	for _, compress := range []bool{false, true} {
		name := "uncompressed"
		if compress {
			name = "compressed"
		}
		t.Run(name, func(t *testing.T) {
			var out bytes.Buffer
			w := NewRecordWriter(&out, WithCompression(compress), WithDate(testDate))

			payloads := []string{"first", "", "third\r\n\r\nWARC/1.1\r\n"}
			var offsets []int64
			var ids []string
			for _, p := range payloads {
				offsets = append(offsets, w.Offset())
				rb := NewRecordBuilder(Resource)
				rb.AddWarcHeader(WarcTargetURI, "http://example.com/")
				_, err := rb.WriteString(p)
				require.NoError(t, err)
				wr, err := rb.Build()
				require.NoError(t, err)
				ids = append(ids, wr.RecordID())
				require.NoError(t, w.Write(wr))
				require.NoError(t, wr.Close())
			}

			r := NewRecordReader(bytes.NewReader(out.Bytes()), WithStrict(true), WithValidateBlockDigest(true))
			got, err := readAll(t, r)
			assert.Equal(t, io.EOF, err)
			require.Len(t, got, len(payloads))
			for i, p := range payloads {
				assert.Equal(t, readResult{id: ids[i], offset: offsets[i], content: p}, got[i])
			}
		})
	}
}

// failingWriter accepts limit bytes and then fails.
type failingWriter struct {
	limit int
	err   error
}

func (f *failingWriter) Write(p []byte) (int, error) {
	if len(p) <= f.limit {
		f.limit -= len(p)
		return len(p), nil
	}
	n := f.limit
	f.limit = 0
	return n, f.err
}

func TestRecordWriter_SinkFailure(t *testing.T) {
	diskFull := errors.New("disk full")
	w := NewRecordWriter(&failingWriter{limit: 10, err: diskFull}, WithCompression(false))

	err := w.Write(NewRecord(V1_1, NewWarcFields(WarcType, "resource"), []byte("hello")))
	var se *SinkWriteError
	require.True(t, errors.As(err, &se), "expected SinkWriteError, got %v", err)
	assert.True(t, errors.Is(err, diskFull))
	assert.Equal(t, int64(0), se.Offset)
	assert.Equal(t, err, w.Err())

	err = w.Write(NewRecord(V1_1, NewWarcFields(WarcType, "resource"), []byte("hello")))
	require.True(t, errors.As(err, &se))
	assert.True(t, errors.Is(err, ErrWriterFailed))

	err = w.WriteRaw(nil, nil, strings.NewReader("hello"))
	assert.True(t, errors.Is(err, ErrWriterFailed))
}

func TestRecordWriter_WriteRaw(t *testing.T) {
	var out bytes.Buffer
	w := NewRecordWriter(&out, WithCompression(false), WithDate(testDate), WithIDGenerator(fixedIDs("<urn:uuid:1>")))

	require.NoError(t, w.WriteRaw(nil, NewWarcFields(WarcType, "request", ContentLength, "0"), strings.NewReader("GET / HTTP/1.1\r\n\r\n")))
	assert.Equal(t, "WARC/1.1\r\n"+
		"WARC-Type: request\r\n"+
		"Content-Length: 18\r\n"+
		"WARC-Record-ID: <urn:uuid:1>\r\n"+
		"WARC-Date: 2021-01-02T03:04:05Z\r\n"+
		"\r\n"+
		"GET / HTTP/1.1\r\n\r\n\r\n\r\n", out.String())
}
