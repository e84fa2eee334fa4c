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

// Package watch reports files which are created or changed in a set of directories.
package watch

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// Handler is called with the path of a file which has been created or changed. Calls are never concurrent.
type Handler func(path string)

// Watcher watches directories and calls a Handler for files which have not changed for a while.
type Watcher struct {
	watcher *fsnotify.Watcher
	depth   int
	delay   time.Duration
	handler Handler
	depths  map[string]int
	ready   chan string
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// New starts watching dirs and subdirectories down to depth levels below them.
//
// A file is passed to handler when no events have been seen for it for delay. Files already
// present when New is called are not reported. Editor backup files ending with '~' are ignored.
func New(dirs []string, depth int, delay time.Duration, handler Handler) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		watcher: fw,
		depth:   depth,
		delay:   delay,
		handler: handler,
		depths:  make(map[string]int),
		ready:   make(chan string),
		done:    make(chan struct{}),
	}
	for _, dir := range dirs {
		if err := w.addDir(filepath.Clean(dir), 0); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}

	w.wg.Add(2)
	go w.run()
	go w.dispatch()
	return w, nil
}

// Close stops watching. It waits for a running handler to return.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.watcher.Close()
		w.wg.Wait()
	})
	return err
}

// addDir recursively adds a directory to the watcher.
func (w *Watcher) addDir(path string, depth int) error {
	if err := w.watcher.Add(path); err != nil {
		return err
	}
	w.depths[path] = depth
	if depth >= w.depth {
		return nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			if err := w.addDir(filepath.Join(path, e.Name()), depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *Watcher) run() {
	defer w.wg.Done()

	interval := w.delay / 4
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	tick := time.NewTicker(interval)
	defer tick.Stop()

	pending := make(map[string]time.Time)
	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if strings.HasSuffix(event.Name, "~") {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if event.Op&fsnotify.Create == fsnotify.Create {
				fi, err := os.Stat(event.Name)
				if err != nil {
					log.Debugf("Could not stat new file: %v", err)
					continue
				}
				if fi.IsDir() {
					if depth := w.depths[filepath.Dir(event.Name)] + 1; depth <= w.depth {
						if err := w.addDir(event.Name, depth); err != nil {
							log.Errorf("Error occurred when trying to watch new directory '%v': %v", event.Name, err)
						}
					}
					continue
				}
			}
			log.Debugf("modified file: %v", event.Name)
			pending[event.Name] = time.Now()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warnf("Watch error: %v", err)

		case now := <-tick.C:
			var quiet []string
			for name, last := range pending {
				if now.Sub(last) >= w.delay {
					quiet = append(quiet, name)
				}
			}
			sort.Strings(quiet)
			for _, name := range quiet {
				delete(pending, name)
				select {
				case w.ready <- name:
				case <-w.done:
					return
				}
			}
		}
	}
}

func (w *Watcher) dispatch() {
	defer w.wg.Done()
	for {
		select {
		case name := <-w.ready:
			w.handler(name)
		case <-w.done:
			return
		}
	}
}
