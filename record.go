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
)

const (
	sphtcrlf = " \t\r\n"  // Space, Tab, Carriage return, Newline
	cr       = '\r'       // Carriage return
	lf       = '\n'       // Newline
	sp       = ' '        // Space
	ht       = '\t'       // Tab
	crlf     = "\r\n"     // Carriage return, Newline
	crlfcrlf = "\r\n\r\n" // Carriage return, Newline, Carriage return, Newline
)

// WarcVersion is the version found on the first line of a WARC record.
type WarcVersion struct {
	id    uint8
	txt   string
	major uint8
	minor uint8
}

func (v *WarcVersion) String() string {
	return "WARC/" + v.txt
}

func (v *WarcVersion) Major() uint8 {
	return v.major
}

func (v *WarcVersion) Minor() uint8 {
	return v.minor
}

// Supported reports whether the version is one this package can produce.
func (v *WarcVersion) Supported() bool {
	return v.id != 0
}

var (
	// WARC versions
	V1_0 = &WarcVersion{id: 1, txt: "1.0", major: 1, minor: 0} // WARC 1.0
	V1_1 = &WarcVersion{id: 2, txt: "1.1", major: 1, minor: 1} // WARC 1.1
)

// resolveVersion maps the text after "WARC/" to a version. Unsupported versions are echoed verbatim.
func resolveVersion(s string) *WarcVersion {
	switch s {
	case V1_0.txt:
		return V1_0
	case V1_1.txt:
		return V1_1
	default:
		return &WarcVersion{txt: s}
	}
}

// RecordType is the classification of a record from its WARC-Type field.
//
// Record types not defined by the WARC standard are classified as Unknown. The raw value is
// still available from WarcRecord.TypeName and is written back unchanged.
type RecordType uint16

const (
	// WARC record types
	Unknown      RecordType = 0
	Warcinfo     RecordType = 1
	Response     RecordType = 2
	Resource     RecordType = 4
	Request      RecordType = 8
	Metadata     RecordType = 16
	Revisit      RecordType = 32
	Conversion   RecordType = 64
	Continuation RecordType = 128
)

func (rt RecordType) String() string {
	switch rt {
	case Warcinfo:
		return "warcinfo"
	case Response:
		return "response"
	case Resource:
		return "resource"
	case Request:
		return "request"
	case Metadata:
		return "metadata"
	case Revisit:
		return "revisit"
	case Conversion:
		return "conversion"
	case Continuation:
		return "continuation"
	default:
		return "unknown"
	}
}

func stringToRecordType(rt string) RecordType {
	switch rt {
	case "warcinfo":
		return Warcinfo
	case "response":
		return Response
	case "resource":
		return Resource
	case "request":
		return Request
	case "metadata":
		return Metadata
	case "revisit":
		return Revisit
	case "conversion":
		return Conversion
	case "continuation":
		return Continuation
	default:
		return Unknown
	}
}

const (
	// Well known content types
	ApplicationWarcFields = "application/warc-fields"
	ApplicationHttp       = "application/http"
	ApplicationOctet      = "application/octet-stream"
)

// WarcRecord is one WARC record: a version, an ordered header block and a content block.
//
// A record owns its block. The block can be read once, and the record must be closed when it is no
// longer needed to release any temporary storage held by the block.
type WarcRecord struct {
	version    *WarcVersion
	headers    *WarcFields
	recordType RecordType
	block      Block
}

// NewRecord creates a record from a header set and an in-memory payload.
//
// The WARC-Type field decides the record type. The header set is used as is; missing mandatory fields
// are filled in by the RecordWriter.
func NewRecord(version *WarcVersion, headers *WarcFields, payload []byte) *WarcRecord {
	if version == nil {
		version = V1_1
	}
	if headers == nil {
		headers = &WarcFields{}
	}
	return &WarcRecord{
		version:    version,
		headers:    headers,
		recordType: stringToRecordType(headers.Get(WarcType)),
		block:      newBytesBlock(payload),
	}
}

func (wr *WarcRecord) Version() *WarcVersion { return wr.version }

func (wr *WarcRecord) Type() RecordType { return wr.recordType }

// TypeName returns the WARC-Type value exactly as found in the header.
func (wr *WarcRecord) TypeName() string {
	if name := wr.headers.Get(WarcType); name != "" {
		return name
	}
	return wr.recordType.String()
}

func (wr *WarcRecord) WarcHeader() *WarcFields { return wr.headers }

// TargetURI returns the WARC-Target-URI value or the empty string if the record has none.
func (wr *WarcRecord) TargetURI() string { return wr.headers.Get(WarcTargetURI) }

// RecordID returns the WARC-Record-ID value.
func (wr *WarcRecord) RecordID() string { return wr.headers.Get(WarcRecordID) }

func (wr *WarcRecord) Block() Block {
	return wr.block
}

func (wr *WarcRecord) String() string {
	return fmt.Sprintf("WARC record: version: %s, type: %s, id: %s", wr.version, wr.TypeName(), wr.RecordID())
}

// Close releases the record's block.
func (wr *WarcRecord) Close() error {
	if wr.block == nil {
		return nil
	}
	return wr.block.Close()
}
