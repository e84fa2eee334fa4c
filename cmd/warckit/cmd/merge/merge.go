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


package merge

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/nlnwa/warckit"
	"github.com/nlnwa/warckit/pkg/watch"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type conf struct {
	inputDir   string
	outputFile string
}

func NewCommand() *cobra.Command {
	c := &conf{}
	cmd := &cobra.Command{
		Use:   "merge <input-dir> <output-file>",
		Short: "Merge all WARC files in a directory into one WARC file",
		Long: `Merge copies every record of the WARC files found below input-dir, in lexicographic
file order, to output-file. Malformed records and unreadable files are skipped and reported.`,
		Args: cobra.ExactArgs(2),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			c.inputDir = args[0]
			c.outputFile = args[1]
			return runE(c)
		},
	}

	cmd.Flags().BoolP("compress", "z", true, "gzip compress each record of the output")
	cmd.Flags().IntP("concurrency", "c", 1, "number of input files read at the same time")
	cmd.Flags().Bool("keep-ids", false, "keep duplicate WARC-Record-IDs instead of generating new ones")
	cmd.Flags().Bool("warcinfo", false, "start the output with a warcinfo record")
	cmd.Flags().BoolP("watch", "w", false, "keep running and merge WARC files added to input-dir")
	cmd.Flags().Duration("watch-delay", 5*time.Second, "time a new file must be unchanged before it is merged")
	cmd.Flags().Int("watch-depth", 4, "maximum depth of subdirectories to watch")

	return cmd
}

func runE(c *conf) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watching := viper.GetBool("watch")
	skip := outputNames(c.outputFile)

	files, err := warckit.FindWarcFiles(c.inputDir)
	if err != nil {
		return fmt.Errorf("could not list input directory: %w", err)
	}
	files = exclude(files, skip)
	if len(files) == 0 && !watching {
		return fmt.Errorf("no WARC files found in %s", c.inputDir)
	}
	log.Infof("Merging %d WARC files from %s into %s", len(files), c.inputDir, c.outputFile)

	writerOpts := []warckit.WriterOption{warckit.WithCompression(viper.GetBool("compress"))}
	if viper.GetBool("warcinfo") {
		writerOpts = append(writerOpts, warckit.WithWarcInfoFunc(warcInfo))
	}
	fw, err := warckit.NewWarcFileWriter(c.outputFile, writerOpts...)
	if err != nil {
		return err
	}
	skip[absPath(fw.Name())] = true

	mergeOpts := []warckit.MergeOption{warckit.WithConcurrency(viper.GetInt("concurrency"))}
	if viper.GetBool("keep-ids") {
		mergeOpts = append(mergeOpts, warckit.WithRecordIDPolicy(warckit.KeepRecordIDs))
	}
	merger := warckit.NewMerger(fw.RecordWriter, mergeOpts...)

	report, mergeErr := merger.Merge(ctx, warckit.FileSources(files))
	if mergeErr == nil && watching {
		mergeErr = watchDir(ctx, c.inputDir, merger, report, skip)
	}

	if err := fw.Close(); err != nil {
		log.Error(err)
		if mergeErr == nil {
			mergeErr = err
			report.Status = warckit.StatusAborted
		}
	}
	printReport(report)
	return mergeErr
}

// watchDir merges new WARC files until ctx is cancelled or the output fails.
// Cancellation is the normal way to stop watching and is not returned as an error.
func watchDir(ctx context.Context, dir string, merger *warckit.Merger, report *warckit.Report, skip map[string]bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	seen := make(map[string]bool)
	for _, sr := range report.Sources {
		seen[absPath(sr.Name)] = true
	}

	var writeErr error
	w, err := watch.New([]string{dir}, viper.GetInt("watch-depth"), viper.GetDuration("watch-delay"), func(path string) {
		abs := absPath(path)
		if writeErr != nil || seen[abs] || skip[abs] || !warckit.IsWarcFile(path) {
			return
		}
		seen[abs] = true
		log.Infof("Merging new file %s", path)
		sr, err := merger.Add(ctx, warckit.FileSource(path))
		report.Add(sr)
		if err != nil && ctx.Err() == nil {
			writeErr = err
			cancel()
		}
	})
	if err != nil {
		return fmt.Errorf("could not watch %s: %w", dir, err)
	}
	log.Infof("Watching %s for new WARC files", dir)

	<-ctx.Done()
	if err := w.Close(); err != nil {
		log.Warnf("Closing watcher: %v", err)
	}
	if writeErr != nil {
		report.Status = warckit.StatusAborted
	}
	return writeErr
}

func warcInfo(rb *warckit.RecordBuilder) error {
	fields := warckit.NewWarcFields(
		"software", "warckit",
		"format", "WARC File Format 1.1",
	)
	if host, err := os.Hostname(); err == nil {
		fields.Add("hostname", host)
	}
	_, err := fields.Write(rb)
	return err
}

func printReport(report *warckit.Report) {
	for _, sr := range report.Sources {
		for _, s := range sr.Skipped {
			fmt.Fprintf(os.Stderr, "  skipped record in %s at offset %d: %v\n", sr.Name, s.Offset, s.Err)
		}
		switch {
		case !sr.Opened:
			fmt.Fprintf(os.Stderr, "  skipped file %s: %v\n", sr.Name, sr.Err)
		case sr.Incomplete:
			fmt.Fprintf(os.Stderr, "  %s was not read to the end: %v\n", sr.Name, sr.Err)
		}
	}

	var c *color.Color
	switch report.Status {
	case warckit.StatusClean:
		c = color.New(color.FgGreen)
	case warckit.StatusSkipped:
		c = color.New(color.FgYellow)
	default:
		c = color.New(color.FgRed, color.Bold)
	}
	_, _ = c.Fprintf(os.Stderr, "Merge %s: %d records written from %d files, %d records skipped, %d files unavailable\n",
		report.Status, report.Written, len(report.Sources), report.Skipped, report.Unavailable)
}

// outputNames returns the absolute names the output file has while open and when closed.
func outputNames(outputFile string) map[string]bool {
	abs := absPath(outputFile)
	return map[string]bool{abs: true, abs + ".open": true}
}

func exclude(files []string, skip map[string]bool) []string {
	var result []string
	for _, f := range files {
		if !skip[absPath(f)] {
			result = append(result, f)
		}
	}
	return result
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
