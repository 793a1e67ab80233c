// Copyright 2025 go-highway Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ajroetker/go-timsort/timsort"
)

var (
	traceStride   int
	traceKey      string
	traceMaxMerge int
	traceLimit    int
)

func init() {
	cmd := newTraceCmd()
	cmd.Flags().IntVar(&traceStride, "stride", 8, "Record size in bytes")
	cmd.Flags().StringVar(&traceKey, "key", "u32le", "Key description")
	cmd.Flags().IntVar(&traceMaxMerge, "max-merge", 0, "Largest merge performed in one step; 0 for no limit")
	cmd.Flags().IntVar(&traceLimit, "limit", 0, "Stop after this many steps; 0 for no limit")
	rootCmd.AddCommand(cmd)
}

func newTraceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace <file>",
		Short: "Show the steps of sorting a file",
		Long: `The trace command sorts an in-memory copy of a record file and prints one
row per sorting step: the kind of work done, the records it changed, the
pending runs afterwards and the estimated progress. The file is not modified.

Example:
  recsort trace data.rec --limit 50
  recsort trace data.rec --max-merge 256 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(args[0])
		},
	}
	return cmd
}

type traceStep struct {
	Step     int    `json:"step"`
	State    string `json:"state"`
	Region   string `json:"region"`
	Runs     []int  `json:"runs"`
	Progress int    `json:"progress"`
}

func runTrace(path string) error {
	if traceMaxMerge < 0 {
		return errors.Newf("--max-merge must not be negative, got %d", traceMaxMerge)
	}
	_, cmp, err := comparator(traceKey, traceStride)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading %s", path)
	}
	if err := checkRecords(path, len(data), traceStride); err != nil {
		return err
	}

	s := timsort.New(data, traceStride, cmp)
	defer s.Finish()
	if traceMaxMerge > 0 {
		s.SetMaxMergeSize(traceMaxMerge)
	}

	var steps []traceStep
	for traceLimit == 0 || len(steps) < traceLimit {
		ok, r := s.Step()
		if !ok {
			break
		}
		steps = append(steps, traceStep{
			Step:     len(steps) + 1,
			State:    s.State().String(),
			Region:   r.String(),
			Runs:     s.Runs(),
			Progress: s.Progress(),
		})
	}

	if jsonOut {
		return printJSON(map[string]any{
			"file":    path,
			"records": s.Size(),
			"done":    s.Done(),
			"steps":   steps,
			"stats":   s.Stats(),
		})
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Step", "State", "Region", "Pending runs", "Progress"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	for _, st := range steps {
		table.Append([]string{
			strconv.Itoa(st.Step),
			st.State,
			st.Region,
			formatRuns(st.Runs),
			percent(st.Progress, s.Size()),
		})
	}
	if !quiet {
		table.Render()
	}

	stats := s.Stats()
	printInfo("%s records, %d steps, done=%v: %s compares, %s moves, %s staged, %d merges, min gallop %d\n",
		humanize.Comma(int64(s.Size())), len(steps), s.Done(),
		humanize.Comma(int64(stats.Compares)), humanize.Comma(int64(stats.Moves)),
		humanize.Comma(int64(stats.Staged)), stats.Merges, s.MinGallop())
	return nil
}

// formatRuns lists run lengths, eliding the middle of long stacks.
func formatRuns(runs []int) string {
	const keep = 4
	if len(runs) <= 2*keep+1 {
		return fmt.Sprint(runs)
	}
	parts := make([]string, 0, 2*keep+1)
	for _, n := range runs[:keep] {
		parts = append(parts, strconv.Itoa(n))
	}
	parts = append(parts, "...")
	for _, n := range runs[len(runs)-keep:] {
		parts = append(parts, strconv.Itoa(n))
	}
	return fmt.Sprintf("[%s] (%d)", strings.Join(parts, " "), len(runs))
}
