// Package evalerr defines the error kinds shared by the scoring pipeline.
//
// Data errors (FormatError, MismatchError, EntryMissingError, FileFormatError)
// describe problems with submission or gold files and carry the diagnostic
// payload needed to locate the offender. Configuration mistakes (unknown
// metric, unknown pooling method) are plain errors raised by the parsing
// helpers before any file I/O happens.
package evalerr

import (
	"fmt"
	"sort"
	"strings"
)

// maxListed caps how many items an error message enumerates before
// summarizing the remainder.
const maxListed = 10

// FormatError reports a malformed input line.
type FormatError struct {
	Line    int // 1-based
	Content string
	Reason  string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("line %d: %s (got %q)", e.Line, e.Reason, e.Content)
}

// MismatchError reports a difference between an expected and an observed set
// of keys or files. Either side may be empty.
type MismatchError struct {
	Message string
	Missing []string
	Extra   []string
}

func (e *MismatchError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, ": missing %s", formatSet(e.Missing))
	}
	if len(e.Extra) > 0 {
		sep := ":"
		if len(e.Missing) > 0 {
			sep = ","
		}
		fmt.Fprintf(&b, "%s extra %s", sep, formatSet(e.Extra))
	}
	return b.String()
}

// EntryMissingError reports a required per-item file absent from disk.
type EntryMissingError struct {
	Source   string // the item that references the file
	Expected string // the path that should exist
}

func (e *EntryMissingError) Error() string {
	return fmt.Sprintf("entry %s: expected file not found: %s", e.Source, e.Expected)
}

// FileFormatError reports a file that exists but fails shape or content checks.
type FileFormatError struct {
	Path   string
	Reason string
}

func (e *FileFormatError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// ValidationError aggregates per-item errors collected during a map phase so
// the caller sees every failure in one pass. The message lists the first
// maxListed errors and summarizes the rest.
type ValidationError struct {
	Context string
	Errs    []error
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d error(s)", e.Context, len(e.Errs))
	for i, err := range e.Errs {
		if i == maxListed {
			fmt.Fprintf(&b, "\n  ... and %d more", len(e.Errs)-maxListed)
			break
		}
		fmt.Fprintf(&b, "\n  %s", err)
	}
	return b.String()
}

func (e *ValidationError) Unwrap() []error { return e.Errs }

// Collect wraps non-nil errors into a single ValidationError, or returns nil
// when every error is nil.
func Collect(context string, errs []error) error {
	var nonNil []error
	for _, err := range errs {
		if err != nil {
			nonNil = append(nonNil, err)
		}
	}
	if len(nonNil) == 0 {
		return nil
	}
	return &ValidationError{Context: context, Errs: nonNil}
}

// formatSet renders a sorted, capped listing of set members.
func formatSet(items []string) string {
	sorted := make([]string, len(items))
	copy(sorted, items)
	sort.Strings(sorted)

	shown := sorted
	suffix := ""
	if len(sorted) > maxListed {
		shown = sorted[:maxListed]
		suffix = fmt.Sprintf(" ... and %d more", len(sorted)-maxListed)
	}
	return "[" + strings.Join(shown, " ") + "]" + suffix
}
