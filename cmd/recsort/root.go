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
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/ajroetker/go-timsort/internal/logger"
	"github.com/ajroetker/go-timsort/keyspec"
	"github.com/ajroetker/go-timsort/timsort"
)

var (
	// Global flags
	verbose  bool
	quiet    bool
	jsonOut  bool
	logFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "recsort",
	Short: "Sort files of fixed-size binary records in place",
	Long: `recsort sorts files of fixed-size binary records in place with a stable,
adaptive natural merge sort. Sorting proceeds in small steps, so a sort can be
given a time budget, suspended to a checkpoint and resumed later.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logger.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		return logger.Init(logger.Options{
			Enabled: verbose || logFile != "",
			Path:    logFile,
			Level:   level,
		})
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output and log to stderr")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write JSON logs to this file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Minimum log level: debug, info, warn or error")
}

func execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logger.Close()
	if err != nil {
		printError("%v\n", err)
		for _, hint := range errors.GetAllHints(err) {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
		}
		os.Exit(1)
	}
}

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// comparator parses a key description and checks it against the stride.
func comparator(key string, stride int) (keyspec.Spec, timsort.CompareFunc, error) {
	if stride <= 0 {
		return keyspec.Spec{}, nil, errors.Newf("stride must be positive, got %d", stride)
	}
	spec, err := keyspec.Parse(key)
	if err != nil {
		return keyspec.Spec{}, nil, err
	}
	if err := spec.Check(stride); err != nil {
		return keyspec.Spec{}, nil, err
	}
	cmp, err := spec.Compare()
	if err != nil {
		return keyspec.Spec{}, nil, err
	}
	return spec, cmp, nil
}

// checkRecords verifies that a file of size bytes holds whole records.
func checkRecords(path string, size, stride int) error {
	if size%stride != 0 {
		return errors.WithHintf(
			errors.Newf("%s: size %d is not a multiple of the record size %d", path, size, stride),
			"check --stride; the file may also be truncated")
	}
	return nil
}

// percent formats progress out of size.
func percent(progress, size int) string {
	if size == 0 {
		return "100.0%"
	}
	return fmt.Sprintf("%.1f%%", 100*float64(progress)/float64(size))
}
