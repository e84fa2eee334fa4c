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
	"strings"
	"testing"

	"github.com/nlnwa/warckit/internal/diskbuffer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlock(t *testing.T) {
	content := "content1\ncontent2"
	tests := []struct {
		name  string
		block func(t *testing.T) Block
	}{
		{"bytesBlock", func(t *testing.T) Block {
			return newBytesBlock([]byte(content))
		}},
		{"bufferedBlock in memory", func(t *testing.T) Block {
			buf := diskbuffer.New()
			_, err := buf.WriteString(content)
			require.NoError(t, err)
			return &bufferedBlock{buf: buf}
		}},
		{"bufferedBlock on disk", func(t *testing.T) Block {
			buf := diskbuffer.New(diskbuffer.WithMaxMemBytes(4), diskbuffer.WithTmpDir(t.TempDir()))
			_, err := buf.ReadFrom(strings.NewReader(content))
			require.NoError(t, err)
			return &bufferedBlock{buf: buf}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert := assert.New(t)
			block := tt.block(t)
			defer func() { assert.NoError(block.Close()) }()

			assert.Equal(int64(len(content)), block.Size())

			r, err := block.RawBytes()
			require.NoError(t, err)
			got, err := io.ReadAll(r)
			assert.NoError(err)
			assert.Equal(content, string(got))

			_, err = block.RawBytes()
			assert.Equal(errContentReAccessed, err)
		})
	}
}
