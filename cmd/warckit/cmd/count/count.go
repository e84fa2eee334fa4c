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


package count

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/nlnwa/warckit"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type conf struct {
	fileName string
}

func NewCommand() *cobra.Command {
	c := &conf{}
	cmd := &cobra.Command{
		Use:   "count <input-file>",
		Short: "Count the records of a WARC file",
		Long: `Count reads every record of input-file and prints the number of response records.
With --all it also prints the number of records per WARC-Type and of response records
per media type. Malformed records are skipped and counted.`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			c.fileName = args[0]
			return runE(c, os.Stdout)
		},
	}

	cmd.Flags().BoolP("all", "a", false, "print records per type and response records per media type")
	cmd.Flags().BoolP("strict", "s", false, "strict parsing")

	return cmd
}

func runE(c *conf, out io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	wf, err := warckit.NewWarcFileReader(c.fileName, 0, warckit.WithStrict(viper.GetBool("strict")))
	if err != nil {
		return err
	}
	defer func() { _ = wf.Close() }()

	counts, err := warckit.Count(ctx, wf)
	if counts != nil {
		printCounts(out, counts, viper.GetBool("all"))
	}
	return err
}

func printCounts(out io.Writer, counts *warckit.Counts, all bool) {
	fmt.Fprintf(out, "Response records: %d\n", counts.Responses())
	if !all {
		return
	}
	fmt.Fprintln(out, "Records by type:")
	printSorted(out, counts.ByType)
	fmt.Fprintln(out, "Response records by media type:")
	printSorted(out, counts.ByMIME)
	if counts.Malformed > 0 {
		fmt.Fprintf(out, "Malformed records: %d\n", counts.Malformed)
	}
}

// printSorted prints the entries of m with the largest count first.
func printSorted(out io.Writer, m map[string]int) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		fmt.Fprintf(out, "  %-40s %d\n", k, m[k])
	}
}
