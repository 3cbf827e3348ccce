package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pshenley/hollow/internal/classify"
	"github.com/pshenley/hollow/internal/config"
	"github.com/pshenley/hollow/internal/report"
)

// runScanCommand performs a one-shot synchronous scan and writes the report
// files, without starting the server or touching the database.
func runScanCommand(args []string) error {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	jsonOut := fs.String("json", "missing_files_report.json", "path for the JSON report")
	csvOut := fs.String("csv", "", "path for the CSV report of problematic folders (optional)")
	leafOnly := fs.Bool("leaf-only", false, "classify only leaf folders")
	hideValid := fs.Bool("hide-valid", false, "omit valid folders from the JSON report")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: hollow scan [flags] [root]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(configPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	root := cfg.Scan.RootPath
	if fs.NArg() > 0 {
		root = fs.Arg(0)
	}

	opts := cfg.Scan.Options()
	if *leafOnly {
		opts.LeafOnly = true
	}
	if *hideValid {
		opts.IncludeValid = false
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := classify.Scan(ctx, root, opts)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", root, err)
	}

	printResult(result)

	doc := report.NewDocument(result)

	f, err := os.Create(*jsonOut)
	if err != nil {
		return fmt.Errorf("creating json report: %w", err)
	}
	if err := report.WriteJSON(f, doc); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing json report: %w", err)
	}
	fmt.Printf("\nDetailed report saved to: %s\n", *jsonOut)

	if *csvOut != "" {
		f, err := os.Create(*csvOut)
		if err != nil {
			return fmt.Errorf("creating csv report: %w", err)
		}
		if err := report.WriteCSV(f, doc); err != nil {
			f.Close() //nolint:errcheck
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("closing csv report: %w", err)
		}
		fmt.Printf("CSV report saved to: %s\n", *csvOut)
	}

	return nil
}

func printResult(r *classify.Report) {
	for _, rec := range r.Empty {
		fmt.Printf("empty folder: %s\n", rec.Path)
	}
	for _, rec := range r.JSONOnly {
		fmt.Printf("json-only folder: %s (json files: %d)\n", rec.Path, rec.JSONFileCount)
	}
	for _, path := range r.Inaccessible {
		fmt.Printf("inaccessible folder: %s\n", path)
	}

	fmt.Printf("\nSUMMARY\n")
	fmt.Printf("Scanned folders:      %d\n", r.Summary.TotalScannedFolders)
	fmt.Printf("Empty folders:        %d\n", r.Summary.TotalEmptyFolders)
	fmt.Printf("JSON-only folders:    %d\n", r.Summary.TotalJSONOnlyFolders)
	fmt.Printf("Valid folders:        %d\n", r.Summary.TotalValidFolders)
	fmt.Printf("Problematic folders:  %d\n", r.Summary.TotalProblematicFolders)
}
