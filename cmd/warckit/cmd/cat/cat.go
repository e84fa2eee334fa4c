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


package cat

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/nlnwa/warckit"
	"github.com/spf13/cobra"
)

type conf struct {
	offset      int64
	recordCount int
	header      bool
	strict      bool
	fileName    string
	id          []string
}

func NewCommand() *cobra.Command {
	c := &conf{}
	var cmd = &cobra.Command{
		Use:   "cat <input-file>",
		Short: "Write records from a warc file to stdout as uncompressed WARC",
		Long: `Cat writes the selected records of input-file to stdout as uncompressed WARC.
Records are selected with --offset, --record-count and --id. With --header only the
start line and header fields of each record are written.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("missing file name")
			}
			c.fileName = args[0]
			if c.offset >= 0 && c.recordCount == 0 {
				c.recordCount = 1
			}
			if c.offset < 0 {
				c.offset = 0
			}
			sort.Strings(c.id)
			return catFile(c, os.Stdout)
		},
	}

	cmd.Flags().Int64VarP(&c.offset, "offset", "o", -1, "record offset")
	cmd.Flags().IntVarP(&c.recordCount, "record-count", "c", 0, "The maximum number of records to show")
	cmd.Flags().BoolVar(&c.header, "header", false, "only show the header of each record")
	cmd.Flags().BoolVarP(&c.strict, "strict", "s", false, "strict parsing")
	cmd.Flags().StringArrayVar(&c.id, "id", []string{}, "specify record ids to cat")

	return cmd
}

func catFile(c *conf, out io.Writer) error {
	wf, err := warckit.NewWarcFileReader(c.fileName, c.offset, warckit.WithStrict(c.strict))
	if err != nil {
		return err
	}
	defer func() { _ = wf.Close() }()

	w := warckit.NewRecordWriter(out, warckit.WithCompression(false))
	count := 0
	for {
		wr, offset, err := wf.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			if warckit.IsMalformed(err) {
				fmt.Fprintf(os.Stderr, "Error: %v, rec num: %d, offset %d\n", err, count, offset)
				continue
			}
			return err
		}
		if len(c.id) > 0 {
			i := sort.SearchStrings(c.id, wr.RecordID())
			if i == len(c.id) || c.id[i] != wr.RecordID() {
				_ = wr.Close()
				continue
			}
		}
		count++

		if c.header {
			fmt.Fprintf(out, "%s\r\n%s\r\n", wr.Version(), wr.WarcHeader())
		} else if err := w.Write(wr); err != nil {
			_ = wr.Close()
			return err
		}
		_ = wr.Close()

		if c.recordCount > 0 && count >= c.recordCount {
			break
		}
	}
	fmt.Fprintln(os.Stderr, "Count: ", count)
	return nil
}
