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
	"os"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ajroetker/go-timsort/timsort"
)

var (
	checkStride int
	checkKey    string
)

func init() {
	cmd := newCheckCmd()
	cmd.Flags().IntVar(&checkStride, "stride", 8, "Record size in bytes")
	cmd.Flags().StringVar(&checkKey, "key", "u32le", "Key description")
	rootCmd.AddCommand(cmd)
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Check whether a record file is sorted",
		Long: `The check command reports whether a record file is sorted by the given key,
and if not, the first record that sorts before its predecessor. It exits with
a non-zero status when the file is not sorted.

Example:
  recsort check data.rec
  recsort check --stride 16 --key u64be@8 data.rec`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(args[0])
		},
	}
	return cmd
}

type checkResult struct {
	File          string `json:"file"`
	Records       int    `json:"records"`
	Sorted        bool   `json:"sorted"`
	FirstUnsorted int    `json:"first_unsorted"`
}

func runCheck(path string) error {
	_, cmp, err := comparator(checkKey, checkStride)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading %s", path)
	}
	if err := checkRecords(path, len(data), checkStride); err != nil {
		return err
	}

	res := checkResult{
		File:          path,
		Records:       len(data) / checkStride,
		FirstUnsorted: timsort.FirstUnsorted(data, checkStride, cmp),
	}
	res.Sorted = res.FirstUnsorted < 0

	if jsonOut {
		if err := printJSON(res); err != nil {
			return err
		}
	} else if res.Sorted {
		printInfo("%s: %s records, sorted\n", path, humanize.Comma(int64(res.Records)))
	}
	if !res.Sorted {
		return errors.Newf("%s: record %d sorts before record %d", path, res.FirstUnsorted, res.FirstUnsorted-1)
	}
	return nil
}
