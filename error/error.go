package error

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

type Severity int

const (
	SeverityError Severity = iota
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	default:
		return "error"
	}
}

// Derivation is a node of an example parse tree. Expanded is set for a
// nonterminal that was produced by a reduction; its children are the
// symbols the reduction consumed.
type Derivation struct {
	Symbol   string
	Expanded bool
	Children []*Derivation
}

// String returns the bracketed form, e.g. `[E [E id] + [E id]]`.
func (d *Derivation) String() string {
	if !d.Expanded {
		return d.Symbol
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[%v", d.Symbol)
	for _, c := range d.Children {
		fmt.Fprintf(&b, " %v", c)
	}
	fmt.Fprintf(&b, "]")
	return b.String()
}

// Example shows how the parser could reach a conflict and continue with one
// of the competing actions. Roots is the parse stack from the bottom up.
// Truncated is set when no complete parse was found.
type Example struct {
	Action    string
	Roots     []*Derivation
	Truncated bool
}

func (e *Example) Derivation() string {
	var b strings.Builder
	for i, r := range e.Roots {
		if i > 0 {
			fmt.Fprintf(&b, " ")
		}
		fmt.Fprintf(&b, "%v", r)
	}
	if e.Truncated {
		if len(e.Roots) > 0 {
			fmt.Fprintf(&b, " ")
		}
		fmt.Fprintf(&b, "...")
	}
	return b.String()
}

type Diagnostic struct {
	Severity   Severity
	Cause      error
	Detail     string
	State      int
	Terminals  []string
	Examples   []*Example
	FilePath   string
	SourceName string
	Row        int
}

func (d *Diagnostic) Error() string {
	var b strings.Builder
	if d.SourceName != "" {
		fmt.Fprintf(&b, "%v: ", d.SourceName)
	}
	if d.Row != 0 {
		fmt.Fprintf(&b, "%v: ", d.Row)
	}
	fmt.Fprintf(&b, "%v: %v", d.Severity, d.Cause)
	if d.Detail != "" {
		fmt.Fprintf(&b, ": %v", d.Detail)
	}

	line := readLine(d.FilePath, d.Row)
	if line != "" {
		fmt.Fprintf(&b, "\n    %v", line)
	}

	for _, ex := range d.Examples {
		fmt.Fprintf(&b, "\n    %v: %v", ex.Action, ex.Derivation())
	}

	return b.String()
}

func (d *Diagnostic) Unwrap() error {
	return d.Cause
}

// Sink receives diagnostics as the analysis produces them.
type Sink interface {
	Report(d *Diagnostic)
}

type Diagnostics []*Diagnostic

func (ds *Diagnostics) Report(d *Diagnostic) {
	*ds = append(*ds, d)
}

// Errors returns only the error-level diagnostics.
func (ds Diagnostics) Errors() Diagnostics {
	var errs Diagnostics
	for _, d := range ds {
		if d.Severity == SeverityError {
			errs = append(errs, d)
		}
	}
	return errs
}

func (ds Diagnostics) Error() string {
	var b strings.Builder
	for i, d := range ds {
		if i > 0 {
			fmt.Fprintf(&b, "\n")
		}
		fmt.Fprintf(&b, "%v", d.Error())
	}
	return b.String()
}

func readLine(filePath string, row int) string {
	if filePath == "" || row <= 0 {
		return ""
	}

	f, err := os.Open(filePath)
	if err != nil {
		return ""
	}
	defer f.Close()

	i := 1
	s := bufio.NewScanner(f)
	for s.Scan() {
		if i == row {
			return s.Text()
		}
		i++
	}

	return ""
}
