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


package warckit_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nlnwa/warckit"
)

var httpRecord = "HTTP/1.1 200 OK\r\nDate: Tue, 19 Sep 2016 17:18:40 GMT\r\nServer: Apache/2.0.54 (Ubuntu)\r\n" +
	"Content-Length: 19\r\nConnection: close\r\nContent-Type: text/plain\r\n\r\nThis is the content"

func ExampleNewRecordBuilder() {
	builder := warckit.NewRecordBuilder(warckit.Response)
	_, err := builder.WriteString(httpRecord)
	if err != nil {
		panic(err)
	}
	builder.AddWarcHeader(warckit.WarcRecordID, "<urn:uuid:e9a0cecc-0221-11e7-adb1-0242ac120008>")
	builder.AddWarcHeader(warckit.WarcDate, "2006-01-02T15:04:05Z")
	builder.AddWarcHeader(warckit.ContentType, "application/http;msgtype=response")

	if wr, err := builder.Build(); err == nil {
		fmt.Println(wr)
		fmt.Println(wr.WarcHeader().Get(warckit.ContentLength))
		_ = wr.Close()
	}
	// Output: WARC record: version: WARC/1.1, type: response, id: <urn:uuid:e9a0cecc-0221-11e7-adb1-0242ac120008>
	// 172
}

func ExampleNewRecordReader() {
	data := "WARC/1.1\r\n" +
		"WARC-Date: 2017-03-06T04:03:53Z\r\n" +
		"WARC-Record-ID: <urn:uuid:e9a0cecc-0221-11e7-adb1-0242ac120008>\r\n" +
		"WARC-Type: warcinfo\r\n" +
		"Content-Type: application/warc-fields\r\n" +
		"Content-Length: 30\r\n" +
		"\r\n" +
		"format: WARC File Format 1.1\r\n" +
		"\r\n\r\n"

	reader := warckit.NewRecordReader(strings.NewReader(data))
	for {
		record, offset, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Println("Error reading record:", err)
			return
		}
		fmt.Printf("Offset: %d, %s\n", offset, record)
		_ = record.Close()
	}
	// Output: Offset: 0, WARC record: version: WARC/1.1, type: warcinfo, id: <urn:uuid:e9a0cecc-0221-11e7-adb1-0242ac120008>
}

func ExampleMerger() {
	source := func(name string, ids ...string) warckit.Source {
		var buf bytes.Buffer
		w := warckit.NewRecordWriter(&buf, warckit.WithCompression(false))
		for _, id := range ids {
			_ = w.Write(warckit.NewRecord(nil, warckit.NewWarcFields(warckit.WarcType, "resource", warckit.WarcRecordID, id), nil))
		}
		return warckit.ReaderSource(name, &buf)
	}

	var out bytes.Buffer
	w := warckit.NewRecordWriter(&out, warckit.WithDate(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)))
	merger := warckit.NewMerger(w, warckit.WithMergeIDGenerator(func() string { return "<urn:uuid:regenerated>" }))

	report, err := merger.Merge(context.Background(), []warckit.Source{
		source("first", "<urn:uuid:1>", "<urn:uuid:2>"),
		source("second", "<urn:uuid:2>"),
	})
	if err != nil {
		panic(err)
	}
	fmt.Printf("%s: %d records written, %d regenerated ids\n", report.Status, report.Written, report.Sources[1].Regenerated)

	counts, _ := warckit.Count(context.Background(), warckit.NewRecordReader(&out))
	fmt.Println(counts.ByType)
	// Output: clean: 3 records written, 1 regenerated ids
	// map[resource:3]
}
