// Package analyzer defines the contract shared by the rule engines.
package analyzer

import "context"

// FileAnalyzer is implemented by every rule engine. Analyze processes a
// collection of files; per-file failures are recorded in the result, not
// returned as the error.
type FileAnalyzer[T any] interface {
	Analyze(ctx context.Context, files []string) (T, error)

	// Close releases any resources held by the analyzer.
	Close()
}
