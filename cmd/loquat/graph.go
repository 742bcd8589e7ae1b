package main

import (
	"fmt"
	"io"
	"strings"

	spec "github.com/nihei9/loquat/spec/grammar"
)

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// writeGraph writes the automaton of a report in the DOT language. Shifts
// are solid edges, gotos are dashed and shifts taking part in a conflict
// are red. Reductions are listed in the node of their state.
func writeGraph(w io.Writer, report *spec.Report) error {
	rw := newReportWriter(w, report)

	fmt.Fprintf(w, "digraph automaton {\n")
	fmt.Fprintf(w, "    rankdir=LR;\n")
	fmt.Fprintf(w, "    node [shape=box, fontname=\"monospace\"];\n")
	fmt.Fprintf(w, "    accept [shape=doublecircle, label=\"accept\"];\n")
	for _, s := range report.States {
		fmt.Fprintf(w, "    s%v [label=\"%v\"];\n", s.Number, rw.nodeLabel(s))
	}
	for _, s := range report.States {
		for _, tr := range s.Shift {
			fmt.Fprintf(w, "    s%v -> %v [label=\"%v\"];\n", s.Number, nodeName(tr.State), dotEscaper.Replace(rw.names[tr.Symbol]))
		}
		for _, c := range s.Conflicts {
			if c.Shift == nil {
				continue
			}
			fmt.Fprintf(w, "    s%v -> %v [label=\"%v\", color=red];\n", s.Number, nodeName(*c.Shift), dotEscaper.Replace(rw.names[c.Symbol]))
		}
		for _, tr := range s.GoTo {
			fmt.Fprintf(w, "    s%v -> %v [label=\"%v\", style=dashed];\n", s.Number, nodeName(tr.State), dotEscaper.Replace(rw.names[tr.Symbol]))
		}
	}
	fmt.Fprintf(w, "}\n")

	return nil
}

func nodeName(state int) string {
	if state < 0 {
		return "accept"
	}
	return fmt.Sprintf("s%v", state)
}

func (rw *reportWriter) nodeLabel(s *spec.State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v\\l", s.Number)
	for _, item := range s.Kernel {
		fmt.Fprintf(&b, "%v\\l", dotEscaper.Replace(rw.ruleString(rw.report.Rules[item.Rule], item.Dot)))
	}
	for _, r := range s.Reduce {
		var la []string
		for _, term := range r.LookAhead {
			la = append(la, rw.names[term])
		}
		fmt.Fprintf(&b, "reduce %v on %v\\l", r.Rule, dotEscaper.Replace(strings.Join(la, " ")))
	}
	return b.String()
}
