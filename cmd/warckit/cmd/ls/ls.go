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


package ls

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
	strict      bool
	fileName    string
	id          []string
}

func NewCommand() *cobra.Command {
	c := &conf{}
	var cmd = &cobra.Command{
		Use:   "ls <input-file>",
		Short: "List records from warc files",
		Long: `Ls prints one line per record with its offset, WARC-Record-ID, WARC-Type and target URI.
With --offset, listing starts at that offset and shows one record unless --record-count is set.`,
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
			return listFile(c, os.Stdout)
		},
	}

	cmd.Flags().Int64VarP(&c.offset, "offset", "o", -1, "record offset")
	cmd.Flags().IntVarP(&c.recordCount, "record-count", "c", 0, "The maximum number of records to show")
	cmd.Flags().BoolVarP(&c.strict, "strict", "s", false, "strict parsing")
	cmd.Flags().StringArrayVar(&c.id, "id", []string{}, "specify record ids to ls")

	return cmd
}

func listFile(c *conf, out io.Writer) error {
	wf, err := warckit.NewWarcFileReader(c.fileName, c.offset, warckit.WithStrict(c.strict))
	if err != nil {
		return err
	}
	defer func() { _ = wf.Close() }()

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
		if len(c.id) > 0 && !contains(c.id, wr.RecordID()) {
			_ = wr.Close()
			continue
		}
		count++

		printRecord(out, offset, wr)
		_ = wr.Close()

		if c.recordCount > 0 && count >= c.recordCount {
			break
		}
	}
	fmt.Fprintln(os.Stderr, "Count: ", count)
	return nil
}

func printRecord(out io.Writer, offset int64, record *warckit.WarcRecord) {
	targetURI := cropString(record.TargetURI(), 100)
	fmt.Fprintf(out, "%9d %s %-9.9s %s\n", offset, record.RecordID(), record.TypeName(), targetURI)
}

// contains reports whether the sorted slice s contains e.
func contains(s []string, e string) bool {
	i := sort.SearchStrings(s, e)
	return i < len(s) && s[i] == e
}

func cropString(s string, size int) string {
	if len(s) > size {
		return s[:size-3] + "..."
	}
	return s
}
