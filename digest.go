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
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base32"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"strings"
)

// digest computes a labelled WARC digest like 'sha1:T4NG5T3U5H43DLSS5DVVQHKCBZR6QRJ2'.
//
// The expected value found in a header is kept so that the computed digest can be validated against it.
// Both base32, which is the common encoding in WARC files, and base16 values are accepted.
type digest struct {
	hash.Hash
	name     string
	expected string
}

func newDigest(digestString string) (*digest, error) {
	t := strings.SplitN(digestString, ":", 2)
	algorithm := strings.ReplaceAll(strings.ToLower(t[0]), "-", "")
	var expected string
	if len(t) > 1 {
		expected = t[1]
	}
	switch algorithm {
	case "md5":
		return &digest{md5.New(), algorithm, expected}, nil
	case "sha1", "":
		return &digest{sha1.New(), "sha1", expected}, nil
	case "sha256":
		return &digest{sha256.New(), algorithm, expected}, nil
	case "sha512":
		return &digest{sha512.New(), algorithm, expected}, nil
	default:
		return nil, fmt.Errorf("unsupported digest algorithm '%s'", algorithm)
	}
}

func (d *digest) format() string {
	return d.name + ":" + base32.StdEncoding.EncodeToString(d.Sum(nil))
}

func (d *digest) validate() error {
	sum := d.Sum(nil)
	b32 := base32.StdEncoding.EncodeToString(sum)
	if strings.EqualFold(d.expected, b32) || strings.EqualFold(d.expected, hex.EncodeToString(sum)) {
		return nil
	}
	return fmt.Errorf("wrong digest: expected %s:%s, computed: %s:%s", d.name, d.expected, d.name, b32)
}

// digestFilterReader feeds everything read through it to the digests.
type digestFilterReader struct {
	src     io.Reader
	digests []*digest
}

func newDigestFilterReader(src io.Reader, digests ...*digest) *digestFilterReader {
	return &digestFilterReader{src: src, digests: digests}
}

func (d digestFilterReader) Read(p []byte) (n int, err error) {
	n, err = d.src.Read(p)
	if n > 0 {
		pp := p[:n]
		for _, dd := range d.digests {
			_, _ = dd.Write(pp)
		}
	}
	return
}
