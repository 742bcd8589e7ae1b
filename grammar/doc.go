/*
Package grammar builds LALR(1) parsing tables.

A grammar is assembled with a GrammarBuilder (or read from a
spec.GrammarDescription) and handed to Compile:

	b := grammar.NewGrammarBuilder("expr")
	b.Left("+")
	b.Left("*")
	b.LHS("E").N("E").T("+").N("E").End()
	b.LHS("E").N("E").T("*").N("E").End()
	b.LHS("E").T("id").End()
	g, err := b.Build()
	...
	tab, report, err := grammar.Compile(g, grammar.EnableReporting())

Compile builds the LALR(1) automaton, resolves shift/reduce and
reduce/reduce conflicts by precedence and associativity, drops rules that
can never be reduced, and flattens the result into action and goto tables.
Conflicts that precedence cannot settle stay in the table as conflict cells
and are reported together with example derivations showing how the parser
reaches them.
*/
package grammar

import "github.com/npillmayer/schuko/tracing"

// tracer traces with key 'loquat.grammar'.
func tracer() tracing.Trace {
	return tracing.Select("loquat.grammar")
}
