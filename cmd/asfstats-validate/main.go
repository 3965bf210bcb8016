// SPDX-License-Identifier: MIT

// asfstats-validate checks an asfstats YAML configuration file and the
// alias CSVs it points at, for CI pipelines and pre-deploy checks.
//
// Usage:
//
//	asfstats-validate -f config.yaml
//	asfstats-validate --file config.yaml
//
// Exit codes:
//   - 0: configuration and alias files are valid
//   - 1: configuration or an alias file is invalid
//   - 2: usage error (missing required flag)
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/ManuGH/asfstats/internal/config"
	"github.com/ManuGH/asfstats/internal/normalize"
	"github.com/ManuGH/asfstats/internal/version"
)

func main() {
	var file string
	var showVersion bool

	flag.StringVar(&file, "file", "", "path to YAML configuration file")
	flag.StringVar(&file, "f", "", "path to YAML configuration file (shorthand)")
	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(version.Version)
		os.Exit(0)
	}

	if file == "" {
		fmt.Fprintln(os.Stderr, "Error: --file is required")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  asfstats-validate -f config.yaml")
		fmt.Fprintln(os.Stderr, "  asfstats-validate --file config.yaml")
		os.Exit(2)
	}

	// Load parses strictly and validates; ENV overrides apply the same
	// way they will at daemon startup.
	loader := config.NewLoader(file, version.Version)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error in %s:\n", file)
		fmt.Fprintf(os.Stderr, "  %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ %s is valid\n", file)
	fmt.Printf("  listing url: %s\n", cfg.ListingURL)
	fmt.Printf("  data dir:    %s\n", cfg.DataDir)
	schedule := cfg.RefreshSchedule
	if !cfg.ScheduleEnabled() {
		schedule = "off"
	}
	fmt.Printf("  schedule:    %s\n", schedule)

	ok := true
	aliasFiles := []struct {
		name string
		path string
	}{
		{"spellings", cfg.SpellingsPath},
		{"pen names", cfg.PenNamesPath},
	}
	for _, f := range aliasFiles {
		m, err := normalize.LoadAliasMap(f.path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// A missing alias file is not an error; bylines then pass
			// through unchanged.
			fmt.Printf("- %s: %s not found\n", f.name, f.path)
		case err != nil:
			fmt.Fprintf(os.Stderr, "Alias file error (%s):\n", f.name)
			fmt.Fprintf(os.Stderr, "  %v\n", err)
			ok = false
		default:
			fmt.Printf("✓ %s: %d names, %d aliases\n", f.name, m.Len(), m.Aliases())
		}
	}

	if !ok {
		os.Exit(1)
	}
}
