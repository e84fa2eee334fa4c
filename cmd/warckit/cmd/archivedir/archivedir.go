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


package archivedir

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nlnwa/warckit"
	"github.com/nlnwa/warckit/internal/timestamp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type conf struct {
	inputDir   string
	outputFile string
	baseURL    string
}

func NewCommand() *cobra.Command {
	c := &conf{}
	cmd := &cobra.Command{
		Use:   "archive-dir <input-dir> <output-file> <base-url>",
		Short: "Archive the files of a directory as WARC response records",
		Long: `Archive-dir writes one response record for every file below input-dir. The target URI
of a record is base-url followed by the path of the file relative to input-dir.`,
		Args: cobra.ExactArgs(3),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			c.inputDir = args[0]
			c.outputFile = args[1]
			c.baseURL = args[2]
			return runE(c)
		},
	}

	cmd.Flags().StringP("date", "d", "", "WARC-Date of the records as ISO 8601 (default now)")
	cmd.Flags().Bool("http", false, "wrap file content in an HTTP 200 response")
	cmd.Flags().BoolP("compress", "z", true, "gzip compress each record of the output")

	return cmd
}

func runE(c *conf) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []warckit.ArchiveDirOption{
		warckit.WithHTTPFraming(viper.GetBool("http")),
	}
	if d := viper.GetString("date"); d != "" {
		date, err := timestamp.ParseISO8601(d)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", d, err)
		}
		opts = append(opts, warckit.WithRecordDate(date))
	}
	if _, err := warckit.NormalizeBaseURL(c.baseURL); err != nil {
		return err
	}

	fw, err := warckit.NewWarcFileWriter(c.outputFile, warckit.WithCompression(viper.GetBool("compress")))
	if err != nil {
		return err
	}
	opts = append(opts, warckit.WithExclude(fw.Name(), fw.Name()+".open"))

	n, archiveErr := warckit.ArchiveDir(ctx, c.inputDir, c.baseURL, fw.RecordWriter, opts...)
	if err := fw.Close(); err != nil && archiveErr == nil {
		archiveErr = err
	}
	if archiveErr != nil {
		return archiveErr
	}
	log.Infof("Archived %d files from %s as %s", n, c.inputDir, fw.Name())
	return nil
}
