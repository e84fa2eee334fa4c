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


package diskbuffer

// options configure a Buffer. options are set by the Option values passed to New.
type options struct {
	maxMemBytes       int64
	maxTotalBytes     int64
	memBufferSizeHint int64
	tmpDir            string
}

// Option configures a Buffer.
type Option interface {
	apply(*options)
}

// funcOption wraps a function that modifies options into an
// implementation of the Option interface.
type funcOption struct {
	f func(*options)
}

func (fo *funcOption) apply(po *options) {
	fo.f(po)
}

func newFuncOption(f func(*options)) *funcOption {
	return &funcOption{
		f: f,
	}
}

func defaultOptions() options {
	return options{
		maxMemBytes:       1024 * 1024, // 1 MB
		maxTotalBytes:     0,           // No limit
		tmpDir:            "",          // Use OS default
		memBufferSizeHint: 1024 * 16,
	}
}

// WithMaxMemBytes sets the number of bytes kept in memory before overflowing to disk.
// defaults to 1 MB
func WithMaxMemBytes(size int64) Option {
	return newFuncOption(func(o *options) {
		o.maxMemBytes = size
	})
}

// WithMemBufferSizeHint sets the initial capacity of the memory buffer.
func WithMemBufferSizeHint(size int64) Option {
	return newFuncOption(func(o *options) {
		o.memBufferSizeHint = size
	})
}

// WithMaxTotalBytes sets the maximum number of bytes the buffer accepts. Zero means no limit.
func WithMaxTotalBytes(size int64) Option {
	return newFuncOption(func(o *options) {
		o.maxTotalBytes = size
	})
}

// WithTmpDir sets the directory for overflow files.
// defaults to the OS temp directory
func WithTmpDir(dir string) Option {
	return newFuncOption(func(o *options) {
		o.tmpDir = dir
	})
}
