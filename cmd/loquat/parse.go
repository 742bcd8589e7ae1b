package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nihei9/loquat/driver"
	spec "github.com/nihei9/loquat/spec/grammar"
)

var parseFlags = struct {
	source    *string
	onlyParse *bool
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "parse <parsing table file path>",
		Short:   "Parse a sequence of terminal names",
		Example: `  echo "id + id" | loquat parse grammar-table.json`,
		Args:    cobra.ExactArgs(1),
		RunE:    runParse,
	}
	parseFlags.source = cmd.Flags().StringP("source", "s", "", "source file path (default stdin)")
	parseFlags.onlyParse = cmd.Flags().Bool("only-parse", false, "when this option is enabled, the parser doesn't print a CST")
	rootCmd.AddCommand(cmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	tab, err := readParsingTable(args[0])
	if err != nil {
		return fmt.Errorf("Cannot read a parsing table: %w", err)
	}

	var src io.Reader = os.Stdin
	if *parseFlags.source != "" {
		f, err := os.Open(*parseFlags.source)
		if err != nil {
			return fmt.Errorf("Cannot open the source file %s: %w", *parseFlags.source, err)
		}
		defer f.Close()
		src = f
	}

	return parse(os.Stdout, os.Stderr, tab, src, !*parseFlags.onlyParse)
}

func parse(w, errW io.Writer, tab *spec.ParsingTable, src io.Reader, printCST bool) error {
	gram := driver.NewGrammar(tab)
	toks, err := driver.NewTokenStream(gram, src)
	if err != nil {
		return err
	}
	treeAct := driver.NewSyntaxTreeActionSet(gram)
	p, err := driver.NewParser(toks, gram, driver.SemanticAction(treeAct))
	if err != nil {
		return err
	}

	err = p.Parse()
	if err != nil {
		return err
	}

	synErrs := p.SyntaxErrors()
	for _, synErr := range synErrs {
		tok := synErr.Token

		var msg string
		switch {
		case tok.EOF():
			msg = "<eof>"
		default:
			msg = fmt.Sprintf("'%v'", string(tok.Lexeme()))
		}

		fmt.Fprintf(errW, "%v:%v: %v: %v", synErr.Row, synErr.Col, synErr.Message, msg)
		if len(synErr.ExpectedTerminals) > 0 {
			fmt.Fprintf(errW, "; expected: %v", strings.Join(synErr.ExpectedTerminals, ", "))
		}
		fmt.Fprintf(errW, "\n")
	}
	if len(synErrs) > 0 {
		return fmt.Errorf("%v syntax error(s)", len(synErrs))
	}

	if printCST {
		driver.PrintTree(w, treeAct.CST())
	}

	return nil
}

func readParsingTable(path string) (*spec.ParsingTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	tab := &spec.ParsingTable{}
	err = json.Unmarshal(data, tab)
	if err != nil {
		return nil, err
	}
	return tab, nil
}
