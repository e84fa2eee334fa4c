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


package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expectFile(t *testing.T, files <-chan string, want string) {
	t.Helper()
	select {
	case got := <-files:
		assert.Equal(t, want, got)
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", want)
	}
}

func expectNone(t *testing.T, files <-chan string) {
	t.Helper()
	select {
	case got := <-files:
		t.Errorf("unexpected file %s", got)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "existing.warc"), []byte("x"), 0644))

	files := make(chan string, 10)
	w, err := New([]string{dir}, 1, 50*time.Millisecond, func(path string) {
		files <- path
	})
	require.NoError(t, err)
	defer func() { assert.NoError(t, w.Close()) }()

	expectNone(t, files)

	// New file
	newFile := filepath.Join(dir, "new.warc")
	require.NoError(t, os.WriteFile(newFile, []byte("x"), 0644))
	expectFile(t, files, newFile)

	// Backup files are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.warc~"), []byte("x"), 0644))
	expectNone(t, files)

	// New file in new subdirectory
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0755))
	time.Sleep(200 * time.Millisecond)
	subFile := filepath.Join(sub, "sub.warc")
	require.NoError(t, os.WriteFile(subFile, []byte("x"), 0644))
	expectFile(t, files, subFile)

	// Too deep
	deep := filepath.Join(sub, "deep")
	require.NoError(t, os.Mkdir(deep, 0755))
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(deep, "deep.warc"), []byte("x"), 0644))
	expectNone(t, files)
}

func TestWatcher_CloseTwice(t *testing.T) {
	w, err := New([]string{t.TempDir()}, 0, time.Second, func(string) {})
	require.NoError(t, err)
	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}

func TestNew_missingDir(t *testing.T) {
	_, err := New([]string{filepath.Join(t.TempDir(), "missing")}, 0, time.Second, func(string) {})
	assert.Error(t, err)
}
