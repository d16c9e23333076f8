// intervals extracts the per-second throughput lines from nettest reports
// and writes them as CSV.
// Usage: go run ./cmd/intervals results/nettest_benchmark_*.txt > run.csv
//
//	nettest -m receiver :1797 - | go run ./cmd/intervals
package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/cbrunnkvist/nettest/internal/report"
	flag "github.com/spf13/pflag"
)

func main() {
	fs := flag.NewFlagSet("intervals", flag.ContinueOnError)
	output := fs.StringP("output", "o", "", "Write CSV to this file instead of stdout")
	noHeader := fs.Bool("no-header", false, "Omit the CSV header row")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	points, err := readPoints(fs.Args(), os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	var w io.Writer = os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}

	if err := writeCSV(w, points, !*noHeader); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// readPoints parses every named file in order, or stdin when none are given.
// Each file is parsed on its own, so a second repeated across files keeps one
// row per file.
func readPoints(paths []string, stdin io.Reader) ([]report.Point, error) {
	if len(paths) == 0 {
		return report.ParseIntervals(stdin)
	}
	var all []report.Point
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		points, err := report.ParseIntervals(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		all = append(all, points...)
	}
	return all, nil
}

func writeCSV(w io.Writer, points []report.Point, header bool) error {
	cw := csv.NewWriter(w)
	if header {
		if err := cw.Write([]string{"second", "KB_per_s"}); err != nil {
			return err
		}
	}
	for _, p := range points {
		row := []string{strconv.Itoa(p.Second), strconv.FormatFloat(p.KBps, 'f', 3, 64)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
