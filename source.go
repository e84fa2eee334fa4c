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
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// RecordIterator is a forward only sequence of records. It is implemented by RecordReader and WarcFileReader.
type RecordIterator interface {
	Next() (*WarcRecord, int64, error)
	Close() error
}

// Source is an input to the Merger.
type Source interface {
	// Name identifies the source in reports and logs.
	Name() string
	// Open starts reading the source. An error means the source is unavailable.
	Open(opts ...ReaderOption) (RecordIterator, error)
}

type fileSource string

// FileSource returns a Source reading the WARC file at path.
func FileSource(path string) Source {
	return fileSource(path)
}

func (f fileSource) Name() string {
	return string(f)
}

func (f fileSource) Open(opts ...ReaderOption) (RecordIterator, error) {
	r, err := NewWarcFileReader(string(f), 0, opts...)
	if err != nil {
		return nil, err
	}
	return r, nil
}

type readerSource struct {
	name string
	r    io.Reader
}

// ReaderSource returns a Source reading from r. The source can only be opened once.
func ReaderSource(name string, r io.Reader) Source {
	return &readerSource{name: name, r: r}
}

func (s *readerSource) Name() string {
	return s.name
}

func (s *readerSource) Open(opts ...ReaderOption) (RecordIterator, error) {
	if s.r == nil {
		return nil, &SourceUnavailableError{Name: s.name, Err: fs.ErrClosed}
	}
	r := s.r
	s.r = nil
	return NewRecordReader(r, opts...), nil
}

// FileSources returns a FileSource for every path.
func FileSources(paths []string) []Source {
	sources := make([]Source, len(paths))
	for i, p := range paths {
		sources[i] = FileSource(p)
	}
	return sources
}

// IsWarcFile reports whether name has one of the suffixes .warc or .warc.gz, ignoring case.
func IsWarcFile(name string) bool {
	n := strings.ToLower(name)
	return strings.HasSuffix(n, ".warc") || strings.HasSuffix(n, ".warc.gz")
}

// FindWarcFiles returns the WARC files below dir in lexicographic order.
func FindWarcFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && IsWarcFile(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
