package syncer

import "fmt"

// Stats accumulates per-run sync counters. It is created by the
// orchestrator, mutated by mappers and the reconciliation pass, and
// read-only once the run completes.
type Stats struct {
	TotalItems int      `json:"total_items"`
	Processed  int      `json:"processed"`
	Created    int      `json:"created"`
	Updated    int      `json:"updated"`
	Skipped    int      `json:"skipped"`
	Deleted    int      `json:"deleted"`
	Errors     []string `json:"errors"`
	Warnings   []string `json:"warnings"`
}

// NewStats returns an empty accumulator with non-nil slices so the
// summary artifact always carries arrays.
func NewStats() *Stats {
	return &Stats{
		Errors:   []string{},
		Warnings: []string{},
	}
}

// AddError records an item-scoped error. Errors make the run
// unsuccessful but never abort it.
func (s *Stats) AddError(format string, args ...any) {
	s.Errors = append(s.Errors, fmt.Sprintf(format, args...))
}

// AddWarning records a best-effort failure that does not affect
// success.
func (s *Stats) AddWarning(format string, args ...any) {
	s.Warnings = append(s.Warnings, fmt.Sprintf(format, args...))
}

// Success reports whether the run completed without errors.
func (s *Stats) Success() bool {
	return len(s.Errors) == 0
}
