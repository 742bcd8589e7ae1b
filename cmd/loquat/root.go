package main

import (
	"github.com/npillmayer/schuko/tracing"
	"github.com/spf13/cobra"
)

var rootFlags = struct {
	trace *string
}{}

var rootCmd = &cobra.Command{
	Use:   "loquat",
	Short: "Generate an LALR(1) parsing table from a grammar description",
	Long: `loquat provides three features:
- Generates a portable parsing table from a grammar description and explains
  every conflict with example derivations.
- Prints a report in a readable format.
- Parses a sequence of terminal names with a generated table.
  This feature is primarily aimed at debugging the grammar.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		tracing.Select("loquat.grammar").SetTraceLevel(tracing.TraceLevelFromString(*rootFlags.trace))
	},
}

func init() {
	rootFlags.trace = rootCmd.PersistentFlags().String("trace", "Error", "trace level of the analysis [Debug|Info|Error]")
}

func Execute() error {
	return rootCmd.Execute()
}
