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
	"net/http"
)

// Records with Content-Type application/http carry an HTTP message. Only the status line and header
// fields of such messages are ever looked at; the rest stays opaque.

var missingEndOfHeaders = errors.New("missing line separator at end of http headers")

const maxHTTPHeaderBytes = 1024 * 1024

// headerBytes reads the http-headers into a byte array.
func headerBytes(r *bufio.Reader) ([]byte, error) {
	result := bytes.Buffer{}
	for {
		line, err := r.ReadBytes('\n')
		result.Write(line)
		if err != nil {
			return result.Bytes(), missingEndOfHeaders
		}
		if len(line) < 3 {
			return result.Bytes(), nil
		}
		if result.Len() > maxHTTPHeaderBytes {
			return nil, fmt.Errorf("http header exceeds %d bytes", maxHTTPHeaderBytes)
		}
	}
}

// readHTTPResponseHeader parses the status line and header fields of the HTTP response in r.
func readHTTPResponseHeader(r io.Reader) (*http.Response, error) {
	hb, err := headerBytes(bufio.NewReader(r))
	if err == missingEndOfHeaders && len(hb) > 0 {
		// Parse what is there
		hb = append(hb, '\r', '\n', '\r', '\n')
	} else if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(hb, []byte("HTTP/")) {
		return nil, errors.New("not a http response")
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewReader(hb)), nil)
}

// httpResponseHeader returns the header block of an HTTP/1.1 response.
func httpResponseHeader(statusCode int, header http.Header) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "HTTP/1.1 %d %s\r\n", statusCode, http.StatusText(statusCode))
	_ = header.Write(&b)
	b.WriteString(crlf)
	return b.Bytes()
}
