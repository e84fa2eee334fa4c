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
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/nlnwa/warckit/internal"
	"github.com/nlnwa/warckit/internal/timestamp"
	"github.com/prometheus/tsdb/fileutil"
)

// WarcFileNameGenerator is the interface that wraps the NewWarcfileName function.
type WarcFileNameGenerator interface {
	// NewWarcfileName returns a directory (might be the empty string) and a file name
	NewWarcfileName() (string, string)
}

// PatternNameGenerator implements the WarcFileNameGenerator.
type PatternNameGenerator struct {
	Directory string // Directory to store warcfiles. Defaults to the empty string
	Prefix    string // Prefix available to be used in pattern. Defaults to the empty string
	Serial    int32  // Serial number available for use in pattern. It is atomically increased with every generated file name.
	Pattern   string // Pattern for generated file name. Defaults to: "%{prefix}s%{ts}s-%04{serial}d-%{host}s.warc"
}

const defaultPattern = "%{prefix}s%{ts}s-%04{serial}d-%{host}s.warc"

func (g *PatternNameGenerator) NewWarcfileName() (string, string) {
	pattern := g.Pattern
	if pattern == "" {
		pattern = defaultPattern
	}
	params := map[string]any{
		"prefix": g.Prefix,
		"ts":     timestamp.UTC14(now()),
		"serial": atomic.AddInt32(&g.Serial, 1),
		"host":   internal.GetHostNameOrIP(),
	}
	return g.Directory, internal.Sprintt(pattern, params)
}

// WarcFileReader reads records from a WARC file.
type WarcFileReader struct {
	*RecordReader
	file *os.File
}

// NewWarcFileReader opens filename for reading, starting at offset.
//
// If the file can not be opened, a *SourceUnavailableError is returned.
func NewWarcFileReader(filename string, offset int64, opts ...ReaderOption) (*WarcFileReader, error) {
	file, err := os.Open(filename) // For read access.
	if err != nil {
		return nil, &SourceUnavailableError{Name: filename, Err: err}
	}
	fi, err := file.Stat()
	if err == nil && fi.IsDir() {
		err = errors.New("is a directory")
	}
	if err == nil && offset > 0 {
		_, err = file.Seek(offset, io.SeekStart)
	}
	if err != nil {
		_ = file.Close()
		return nil, &SourceUnavailableError{Name: filename, Err: err}
	}

	rr := NewRecordReader(file, opts...)
	rr.base = offset
	return &WarcFileReader{RecordReader: rr, file: file}, nil
}

// Name returns the name of the file being read.
func (wf *WarcFileReader) Name() string {
	return wf.file.Name()
}

// Close closes the WarcFileReader.
func (wf *WarcFileReader) Close() error {
	var errs multiErr
	if err := wf.RecordReader.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := wf.file.Close(); err != nil {
		errs = append(errs, err)
	}
	return errs.errOrNil()
}

// WarcFileWriter writes records to a new WARC file.
//
// While open, the file has the suffix set by WithOpenFileSuffix. The suffix is removed by Close.
// If a write to the file failed, Close leaves the file under its open name.
type WarcFileWriter struct {
	*RecordWriter
	file *os.File
	path string
}

// NewWarcFileWriter creates a WarcFileWriter.
//
// If path is an existing directory, the file is created in it with a name from the generator set with
// WithFileNameGenerator. Compressed files get the suffix ".gz". An existing file at path is replaced when
// the writer is closed.
//
// If the file can not be created, a *SinkWriteError is returned.
func NewWarcFileWriter(path string, opts ...WriterOption) (*WarcFileWriter, error) {
	o := newWriterOptions(opts...)

	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		dir, name := o.nameGenerator.NewWarcfileName()
		if o.compress {
			name += ".gz"
		}
		path = filepath.Join(path, dir, name)
	}

	file, err := os.OpenFile(path+o.openFileSuffix, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0666)
	if err != nil {
		return nil, &SinkWriteError{Err: err}
	}

	w := &WarcFileWriter{
		RecordWriter: newRecordWriter(file, o),
		file:         file,
		path:         path,
	}
	if o.warcInfoFunc != nil {
		if err := w.writeWarcInfo(filepath.Base(path)); err != nil {
			_ = file.Close()
			_ = os.Remove(file.Name())
			return nil, err
		}
	}
	return w, nil
}

// Name returns the final name of the file.
func (w *WarcFileWriter) Name() string {
	return w.path
}

func (w *WarcFileWriter) writeWarcInfo(fileName string) error {
	r := NewRecordBuilder(Warcinfo, WithRecordIDGenerator(w.opts.idGenerator))
	r.AddWarcHeader(WarcDate, timestamp.UTCW3cIso8601(w.opts.date))
	r.AddWarcHeader(WarcFilename, fileName)
	r.AddWarcHeader(ContentType, ApplicationWarcFields)

	if err := w.opts.warcInfoFunc(r); err != nil {
		return err
	}

	warcinfo, err := r.Build()
	if err != nil {
		return err
	}
	defer func() { _ = warcinfo.Close() }()

	if err := w.Write(warcinfo); err != nil {
		return err
	}
	w.warcinfoID = warcinfo.RecordID()
	return nil
}

// Close closes the file and removes the open file suffix.
func (w *WarcFileWriter) Close() error {
	if w.file == nil {
		return nil
	}
	f := w.file
	w.file = nil
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close file: %s: %w", f.Name(), err)
	}
	if w.err != nil {
		return fmt.Errorf("file %s is incomplete: %w", f.Name(), w.err)
	}
	if f.Name() != w.path {
		if err := fileutil.Rename(f.Name(), w.path); err != nil {
			return fmt.Errorf("failed to rename file: %s: %w", f.Name(), err)
		}
	}
	return nil
}
