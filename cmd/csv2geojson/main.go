package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/dresden-air/airmap/internal/dataset"
	"github.com/dresden-air/airmap/internal/processor"

	"github.com/jessevdk/go-flags"
)

type Options struct {
	Input  string `short:"i" long:"in"     description:"Input CSV file path. Reads from stdin if empty"`
	Output string `short:"o" long:"out"    description:"Output file path. Writes to stdout if empty"`
	Format string `short:"f" long:"format" description:"Output format" choice:"json" choice:"yaml" default:"json"`
	Kind   string `short:"k" long:"kind"   description:"Dataset kind" choice:"no2_street" choice:"pm10_street" choice:"no2_area" choice:"pm10_area" required:"true"`
	Year   string `short:"y" long:"year"   description:"Year written to every feature (e.g. 2019)" required:"true"`
	Column string `short:"c" long:"column" description:"Value column, overrides the year-dependent default"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	kind, err := dataset.ParseKind(opts.Kind)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	assembly, err := processor.NewAssembly(kind, opts.Year, opts.Column)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Read Input
	var table *processor.Table
	if opts.Input != "" {
		table, err = processor.ReadTableFile(opts.Input)
	} else {
		table, err = processor.ReadTable(os.Stdin)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}

	fc, stats, err := processor.BuildFeatures(assembly, table)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error converting input: %v\n", err)
		os.Exit(1)
	}

	if opts.Output == "" {
		w := bufio.NewWriter(os.Stdout)
		if err := processor.Encode(w, fc, opts.Format); err != nil {
			fmt.Fprintf(os.Stderr, "Error marshaling data: %v\n", err)
			os.Exit(1)
		}
		if err := w.Flush(); err != nil {
			os.Exit(1)
		}
		return
	}

	if err := writeFile(opts.Output, func(w io.Writer) error {
		return processor.Encode(w, fc, opts.Format)
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr,
		"Successfully converted %d of %d rows to %s (format: %s, skipped: %d, no data: %d)\n",
		stats.Features, stats.Records, opts.Output, opts.Format, stats.Skipped, stats.NoData)
}

func writeFile(path string, encode func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encode(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
