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
	"context"
	"fmt"
	"io"
	"sync"

	log "github.com/sirupsen/logrus"
)

// RecordIDPolicy decides what the Merger does with a WARC-Record-ID already written to the output.
type RecordIDPolicy int

const (
	// RegenerateDuplicateIDs gives records with an already written id a new id.
	RegenerateDuplicateIDs RecordIDPolicy = iota
	// KeepRecordIDs writes record ids unchanged.
	KeepRecordIDs
)

// Status is the outcome of a merge.
type Status int

const (
	StatusClean   Status = iota // every source was read completely without errors
	StatusSkipped               // completed, but records or sources were skipped
	StatusAborted               // stopped by a write error or cancellation
)

func (s Status) String() string {
	switch s {
	case StatusClean:
		return "clean"
	case StatusSkipped:
		return "completed with skipped records"
	case StatusAborted:
		return "aborted"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// SkippedRecord is a malformed record left out of the output.
type SkippedRecord struct {
	Offset int64
	Err    error
}

// SourceReport is the result of merging one source.
type SourceReport struct {
	Name        string
	Opened      bool            // false if the source could not be opened
	Written     int             // records written to the output
	Skipped     []SkippedRecord // malformed records
	Regenerated int             // records given a new WARC-Record-ID
	Incomplete  bool            // reading stopped before the end of the source
	Err         error           // why the source could not be opened or read to the end
}

// Clean reports whether every record of the source was written.
func (sr *SourceReport) Clean() bool {
	return sr.Opened && !sr.Incomplete && len(sr.Skipped) == 0
}

// Report is the result of a merge.
type Report struct {
	Sources     []*SourceReport
	Written     int
	Skipped     int
	Unavailable int // sources which could not be opened
	Status      Status
}

// Add includes the result of one source in the report. Used with Merger.Add.
func (r *Report) Add(sr *SourceReport) {
	r.Sources = append(r.Sources, sr)
	r.Written += sr.Written
	r.Skipped += len(sr.Skipped)
	if !sr.Opened {
		r.Unavailable++
	}
	if !sr.Clean() && r.Status == StatusClean {
		r.Status = StatusSkipped
	}
}

// mergeOptions configure Merger.
type mergeOptions struct {
	idPolicy      RecordIDPolicy
	idGenerator   RecordIDGenerator
	concurrency   int
	queueSize     int
	readerOptions []ReaderOption
}

// MergeOption configures the Merger.
type MergeOption interface {
	apply(*mergeOptions)
}

// funcMergeOption wraps a function that modifies mergeOptions into an
// implementation of the MergeOption interface.
type funcMergeOption struct {
	f func(*mergeOptions)
}

func (fo *funcMergeOption) apply(po *mergeOptions) {
	fo.f(po)
}

func newFuncMergeOption(f func(*mergeOptions)) *funcMergeOption {
	return &funcMergeOption{
		f: f,
	}
}

// WithRecordIDPolicy sets how duplicate record ids are handled.
// defaults to RegenerateDuplicateIDs
func WithRecordIDPolicy(policy RecordIDPolicy) MergeOption {
	return newFuncMergeOption(func(o *mergeOptions) {
		o.idPolicy = policy
	})
}

// WithMergeIDGenerator sets the function used to create new ids for duplicates.
// defaults to the id generator of the RecordWriter
func WithMergeIDGenerator(g RecordIDGenerator) MergeOption {
	return newFuncMergeOption(func(o *mergeOptions) {
		o.idGenerator = g
	})
}

// WithConcurrency sets how many sources are read at the same time. Records are still written one source
// after the other in the order the sources were given.
// defaults to 1
func WithConcurrency(n int) MergeOption {
	return newFuncMergeOption(func(o *mergeOptions) {
		o.concurrency = n
	})
}

// WithQueueSize sets how many records each concurrently read source may read ahead of the writer.
// defaults to 16
func WithQueueSize(n int) MergeOption {
	return newFuncMergeOption(func(o *mergeOptions) {
		o.queueSize = n
	})
}

// WithReaderOptions sets the options used for reading sources.
func WithReaderOptions(opts ...ReaderOption) MergeOption {
	return newFuncMergeOption(func(o *mergeOptions) {
		o.readerOptions = opts
	})
}

// Merger copies the records of many sources to one RecordWriter.
//
// Malformed records and sources which can not be opened are skipped and reported. A failing writer
// aborts the merge.
type Merger struct {
	w       *RecordWriter
	opts    *mergeOptions
	seenIDs map[string]struct{}
}

// NewMerger creates a Merger writing to w.
func NewMerger(w *RecordWriter, opts ...MergeOption) *Merger {
	o := &mergeOptions{
		idPolicy:    RegenerateDuplicateIDs,
		idGenerator: w.opts.idGenerator,
		concurrency: 1,
		queueSize:   16,
	}
	for _, opt := range opts {
		opt.apply(o)
	}
	if o.queueSize < 1 {
		o.queueSize = 1
	}
	return &Merger{
		w:       w,
		opts:    o,
		seenIDs: make(map[string]struct{}),
	}
}

// Merge copies the records of all sources, in order, to the writer.
//
// Cancelling ctx stops the merge between two records. The returned error is the write error or the
// context error which aborted the merge. The report is always returned.
func (m *Merger) Merge(ctx context.Context, sources []Source) (*Report, error) {
	report := &Report{}
	var err error
	if m.opts.concurrency > 1 && len(sources) > 1 {
		err = m.mergeConcurrent(ctx, sources, report)
	} else {
		for _, src := range sources {
			if err = ctx.Err(); err != nil {
				break
			}
			var sr *SourceReport
			sr, err = m.Add(ctx, src)
			report.Add(sr)
			if err != nil {
				break
			}
		}
	}
	if err != nil {
		report.Status = StatusAborted
	}
	return report, err
}

// Add copies the records of one source to the writer.
//
// An error is only returned when the writer failed or ctx was cancelled.
func (m *Merger) Add(ctx context.Context, src Source) (*SourceReport, error) {
	sr := &SourceReport{Name: src.Name()}
	if err := ctx.Err(); err != nil {
		sr.Err = err
		return sr, err
	}

	it, err := src.Open(m.opts.readerOptions...)
	if err != nil {
		sr.Err = err
		log.WithField("source", sr.Name).Warnf("Skipping source: %v", err)
		return sr, nil
	}
	sr.Opened = true
	defer func() { _ = it.Close() }()

	return sr, m.copyRecords(ctx, it, sr)
}

type recordSource interface {
	Next() (*WarcRecord, int64, error)
}

func (m *Merger) copyRecords(ctx context.Context, src recordSource, sr *SourceReport) error {
	for {
		if err := ctx.Err(); err != nil {
			sr.Incomplete = true
			return err
		}
		record, offset, err := src.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			if IsMalformed(err) {
				sr.Skipped = append(sr.Skipped, SkippedRecord{Offset: offset, Err: err})
				continue
			}
			sr.Incomplete = true
			sr.Err = err
			log.WithField("source", sr.Name).Warnf("Stopped reading source: %v", err)
			return nil
		}

		err = m.writeRecord(record, sr)
		_ = record.Close()
		if err != nil {
			return err
		}
		sr.Written++
	}
}

func (m *Merger) writeRecord(record *WarcRecord, sr *SourceReport) error {
	if id := record.RecordID(); id != "" && m.opts.idPolicy == RegenerateDuplicateIDs {
		if _, ok := m.seenIDs[id]; ok {
			newID := m.opts.idGenerator()
			log.WithField("source", sr.Name).Debugf("Duplicate record id %s replaced by %s", id, newID)
			record.WarcHeader().Set(WarcRecordID, newID)
			sr.Regenerated++
			id = newID
		}
		m.seenIDs[id] = struct{}{}
	}
	return m.w.Write(record)
}

type queuedRecord struct {
	record *WarcRecord
	offset int64
	err    error
}

// recordQueue is the read ahead of one source.
type recordQueue <-chan queuedRecord

func (q recordQueue) Next() (*WarcRecord, int64, error) {
	r, ok := <-q
	if !ok {
		return nil, 0, io.EOF
	}
	return r.record, r.offset, r.err
}

// discard closes queued records until the queue is closed.
func (q recordQueue) discard() {
	for r := range q {
		if r.record != nil {
			_ = r.record.Close()
		}
	}
}

type readJob struct {
	src       Source
	report    *SourceReport
	queue     chan queuedRecord
	cancelled bool // set before queue is closed
}

// mergeConcurrent reads up to concurrency sources at the same time. Sources are started in order and
// every source fills its own bounded queue. The writer empties the queues one after the other in the
// order of the sources.
func (m *Merger) mergeConcurrent(ctx context.Context, sources []Source, report *Report) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	slots := make(chan struct{}, m.opts.concurrency)
	jobs := make(chan *readJob, len(sources))
	var wg sync.WaitGroup

	go func() {
		defer close(jobs)
		for _, src := range sources {
			select {
			case slots <- struct{}{}:
			case <-ctx.Done():
				return
			}
			j := &readJob{
				src:    src,
				report: &SourceReport{Name: src.Name()},
				queue:  make(chan queuedRecord, m.opts.queueSize),
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer func() { <-slots }()
				m.readAhead(ctx, j)
			}()
			jobs <- j
		}
	}()

	var err error
	done := 0
	for j := range jobs {
		q := recordQueue(j.queue)
		if err != nil {
			q.discard()
			continue
		}
		err = m.copyRecords(ctx, q, j.report)
		if err != nil {
			cancel()
			q.discard()
		} else if j.cancelled {
			j.report.Incomplete = true
		}
		report.Add(j.report)
		done++
	}
	wg.Wait()

	if err == nil && done < len(sources) {
		// The dispatcher stopped early because ctx was cancelled
		err = ctx.Err()
	}
	return err
}

func (m *Merger) readAhead(ctx context.Context, j *readJob) {
	defer close(j.queue)

	it, err := j.src.Open(m.opts.readerOptions...)
	if err != nil {
		j.report.Err = err
		log.WithField("source", j.report.Name).Warnf("Skipping source: %v", err)
		return
	}
	j.report.Opened = true
	defer func() { _ = it.Close() }()

	for {
		record, offset, err := it.Next()
		if err == io.EOF {
			return
		}
		select {
		case j.queue <- queuedRecord{record: record, offset: offset, err: err}:
		case <-ctx.Done():
			if record != nil {
				_ = record.Close()
			}
			j.cancelled = true
			return
		}
		if err != nil && !IsMalformed(err) {
			return
		}
	}
}
