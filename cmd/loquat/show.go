package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	spec "github.com/nihei9/loquat/spec/grammar"
)

var showFlags = struct {
	graph *bool
}{}

func init() {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print a report in a readable format",
		Example: `  loquat show grammar-report.json
  loquat show --graph grammar-report.json | dot -Tsvg > automaton.svg`,
		Args: cobra.ExactArgs(1),
		RunE: runShow,
	}
	showFlags.graph = cmd.Flags().Bool("graph", false, "print the automaton in the DOT language")
	rootCmd.AddCommand(cmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	report, err := readReport(args[0])
	if err != nil {
		return err
	}

	if *showFlags.graph {
		return writeGraph(os.Stdout, report)
	}
	return writeReport(os.Stdout, report)
}

func readReport(path string) (*spec.Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("Cannot open the report %s: %w", path, err)
	}
	defer f.Close()

	d, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	report := &spec.Report{}
	err = json.Unmarshal(d, report)
	if err != nil {
		return nil, err
	}

	return report, nil
}

type reportWriter struct {
	w      io.Writer
	report *spec.Report
	names  map[int]string
}

func newReportWriter(w io.Writer, report *spec.Report) *reportWriter {
	rw := &reportWriter{
		w:      w,
		report: report,
		names:  map[int]string{},
	}
	for _, t := range report.Terminals {
		rw.names[t.Number] = t.Name
	}
	for _, nt := range report.NonTerminals {
		rw.names[nt.Number] = nt.Name
	}
	return rw
}

func writeReport(w io.Writer, report *spec.Report) error {
	rw := newReportWriter(w, report)
	rw.writeDiagnostics()
	rw.writeTerminals()
	rw.writeRules()
	rw.writeStates()
	return nil
}

func (rw *reportWriter) newTable(header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(rw.w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	return table
}

func (rw *reportWriter) writeDiagnostics() {
	fmt.Fprintf(rw.w, "# Diagnostics\n\n")
	if len(rw.report.Diagnostics) == 0 {
		fmt.Fprintf(rw.w, "No conflict\n\n")
		return
	}
	for _, d := range rw.report.Diagnostics {
		fmt.Fprintf(rw.w, "%v: %v\n", d.Severity, d.Message)
		for _, ex := range d.Examples {
			fmt.Fprintf(rw.w, "    %v: %v\n", ex.Action, ex.Derivation)
		}
	}
	fmt.Fprintf(rw.w, "\n")
}

func (rw *reportWriter) writeTerminals() {
	fmt.Fprintf(rw.w, "# Terminals\n\n")
	table := rw.newTable("Number", "Name", "Precedence", "Associativity")
	for _, t := range rw.report.Terminals {
		prec := "-"
		if t.Precedence >= 0 {
			prec = strconv.Itoa(t.Precedence)
		}
		assoc := t.Associativity
		if assoc == "" {
			assoc = "-"
		}
		table.Append([]string{strconv.Itoa(t.Number), t.Name, prec, assoc})
	}
	table.Render()
	fmt.Fprintf(rw.w, "\n")
}

func (rw *reportWriter) writeRules() {
	fmt.Fprintf(rw.w, "# Rules\n\n")
	table := rw.newTable("Number", "Index", "Rule", "Precedence")
	for _, r := range rw.report.Rules {
		index := "unreachable"
		if r.Reachable {
			index = strconv.Itoa(r.Index)
		}
		prec := "-"
		if r.Precedence >= 0 {
			prec = strconv.Itoa(r.Precedence)
		}
		table.Append([]string{strconv.Itoa(r.Number), index, rw.ruleString(r, -1), prec})
	}
	table.Render()
	fmt.Fprintf(rw.w, "\n")
}

func (rw *reportWriter) ruleString(r *spec.Rule, dot int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v →", rw.names[r.LHS])
	for i, sym := range r.RHS {
		if i == dot {
			fmt.Fprintf(&b, " ・")
		}
		fmt.Fprintf(&b, " %v", rw.names[sym])
	}
	switch {
	case dot >= len(r.RHS):
		fmt.Fprintf(&b, " ・")
	case dot < 0 && len(r.RHS) == 0:
		fmt.Fprintf(&b, " ε")
	}
	return b.String()
}

func (rw *reportWriter) writeStates() {
	fmt.Fprintf(rw.w, "# States\n")
	for _, s := range rw.report.States {
		fmt.Fprintf(rw.w, "\n## State %v\n\n", s.Number)
		for _, item := range s.Kernel {
			fmt.Fprintf(rw.w, "    %v\n", rw.ruleString(rw.report.Rules[item.Rule], item.Dot))
		}
		fmt.Fprintf(rw.w, "\n")

		table := rw.newTable("Symbol", "Action")
		for _, tr := range s.Shift {
			table.Append([]string{rw.names[tr.Symbol], rw.stateString("shift", tr.State)})
		}
		for _, r := range s.Reduce {
			action := fmt.Sprintf("reduce %v", r.Rule)
			for _, la := range r.LookAhead {
				table.Append([]string{rw.names[la], action})
			}
		}
		for _, c := range s.Conflicts {
			var actions []string
			if c.Shift != nil {
				actions = append(actions, rw.stateString("shift", *c.Shift))
			}
			for _, r := range c.Reduces {
				actions = append(actions, fmt.Sprintf("reduce %v", r))
			}
			table.Append([]string{rw.names[c.Symbol], "conflict: " + strings.Join(actions, ", ")})
		}
		for _, tr := range s.GoTo {
			table.Append([]string{rw.names[tr.Symbol], rw.stateString("goto", tr.State)})
		}
		table.Render()
	}
}

func (rw *reportWriter) stateString(action string, state int) string {
	if state < 0 {
		return "accept"
	}
	return fmt.Sprintf("%v %v", action, state)
}
