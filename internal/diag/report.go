// Package diag aggregates the per-item diagnostics of a best-effort pass.
package diag

import (
	"errors"
	"strings"
)

// Severity of a diagnostic.
type Severity uint8

const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "warning"
}

// Entry is one diagnostic.
type Entry struct {
	Severity Severity
	Err      error
}

// Report collects diagnostics from one parse or build pass.
// The zero value is ready to use.
type Report struct {
	entries []Entry
}

// Warn records a recoverable problem.
func (r *Report) Warn(err error) {
	if err != nil {
		r.entries = append(r.entries, Entry{Severity: Warning, Err: err})
	}
}

// Fail records a failed operation. The pass may still continue.
func (r *Report) Fail(err error) {
	if err != nil {
		r.entries = append(r.entries, Entry{Severity: Error, Err: err})
	}
}

// Merge appends all entries of other.
func (r *Report) Merge(other *Report) {
	if other != nil {
		r.entries = append(r.entries, other.entries...)
	}
}

// Entries returns every diagnostic in the order recorded.
func (r *Report) Entries() []Entry {
	return r.entries
}

// Warnings returns warning-level errors.
func (r *Report) Warnings() []error {
	return r.filter(Warning)
}

// Errors returns error-level errors.
func (r *Report) Errors() []error {
	return r.filter(Error)
}

func (r *Report) filter(s Severity) []error {
	var out []error
	for _, e := range r.entries {
		if e.Severity == s {
			out = append(out, e.Err)
		}
	}
	return out
}

// Len returns the number of diagnostics.
func (r *Report) Len() int {
	return len(r.entries)
}

// Err joins the error-level diagnostics, or returns nil if there are none.
func (r *Report) Err() error {
	return errors.Join(r.Errors()...)
}

// Messages renders every diagnostic as "severity: message".
func (r *Report) Messages() []string {
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Severity.String() + ": " + e.Err.Error()
	}
	return out
}

func (r *Report) String() string {
	return strings.Join(r.Messages(), "\n")
}
