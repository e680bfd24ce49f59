package main

import (
	"fmt"
	"os"

	"counsel/internal/output"
	"counsel/internal/scanner"
	"counsel/pkg/config"
)

// getPaths returns paths from positional args, defaulting to ["."].
func getPaths(args []string) []string {
	if len(args) == 0 {
		return []string{"."}
	}
	return args
}

// loadConfig loads the config named by --config, or discovers one.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config %q: %w", cfgFile, err)
		}
		return cfg, nil
	}
	return config.LoadOrDefault(), nil
}

// collectFiles scans the argument paths for supported source files.
func collectFiles(cfg *config.Config, args []string) ([]string, error) {
	return scanner.New(cfg).ScanPaths(getPaths(args))
}

// resolveFormat picks the output format: flag first, then config.
func resolveFormat(cfg *config.Config) output.Format {
	if formatFlag != "" {
		return output.ParseFormat(formatFlag)
	}
	return output.ParseFormat(cfg.Output.Format)
}

// newFormatter builds the formatter shared by all commands.
func newFormatter(cfg *config.Config) (*output.Formatter, error) {
	colored := cfg.Output.Color && !noColor
	return output.NewFormatter(resolveFormat(cfg), outputFile, colored)
}

// reportSkipped prints skipped-file diagnostics when --verbose is set.
func reportSkipped(formatter *output.Formatter, skipped []string) {
	if len(skipped) == 0 {
		return
	}
	if verbose {
		for _, s := range skipped {
			fmt.Fprintf(os.Stderr, "skipped: %s\n", s)
		}
		return
	}
	formatter.Warning("%d files skipped (run with --verbose for details)", len(skipped))
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 4 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
