package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	verr "github.com/nihei9/loquat/error"
	"github.com/nihei9/loquat/grammar"
	spec "github.com/nihei9/loquat/spec/grammar"
)

var compileFlags = struct {
	output           *string
	compression      *int
	searchLimit      *int
	contextLimit     *int
	suppressExpected *bool
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "compile",
		Short:   "Compile a grammar description into a parsing table",
		Example: `  loquat compile grammar.json -o grammar-table.json`,
		Args:    cobra.MaximumNArgs(1),
		RunE:    runCompile,
	}
	compileFlags.output = cmd.Flags().StringP("output", "o", "", "output file path (default stdout)")
	compileFlags.compression = cmd.Flags().Int("compression", grammar.CompressionLevelMax, "compression level of the tables (0: none, 1: row displacement, 2: unique rows and row displacement)")
	compileFlags.searchLimit = cmd.Flags().Int("search-limit", 1000, "maximum number of candidate parses kept or expanded while completing an example")
	compileFlags.contextLimit = cmd.Flags().Int("context-limit", 64, "maximum number of left contexts tried per conflict")
	compileFlags.suppressExpected = cmd.Flags().Bool("suppress-expected", false, "don't print the conflicts marked as expected")
	rootCmd.AddCommand(cmd)
}

func runCompile(cmd *cobra.Command, args []string) error {
	var src io.Reader = os.Stdin
	sourceName := "stdin"
	var filePath string
	if len(args) > 0 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("Cannot open the grammar description %s: %w", args[0], err)
		}
		defer f.Close()
		src = f
		sourceName = args[0]
		filePath = args[0]
	}

	desc, err := readDescription(src)
	if err != nil {
		return err
	}

	gram, err := grammar.NewGrammarFromDescription(desc)
	if err != nil {
		return withSource(err, sourceName, filePath)
	}

	printer := &diagnosticPrinter{
		w:          os.Stderr,
		sourceName: sourceName,
		filePath:   filePath,
	}
	opts := []grammar.CompileOption{
		grammar.EnableReporting(),
		grammar.WithSink(printer),
		grammar.CompressionLevel(*compileFlags.compression),
		grammar.SearchLimit(*compileFlags.searchLimit),
		grammar.ContextLimit(*compileFlags.contextLimit),
	}
	if *compileFlags.suppressExpected {
		opts = append(opts, grammar.SuppressExpectedConflicts())
	}
	tab, report, compErr := grammar.Compile(gram, opts...)
	if report == nil {
		return compErr
	}

	err = writeParsingTableAndReport(tab, report, desc.Name, *compileFlags.output)
	if err != nil {
		return fmt.Errorf("Cannot write an output files: %w", err)
	}

	if errs, ok := compErr.(verr.Diagnostics); ok {
		return fmt.Errorf("%v error(s) found in %v", len(errs), sourceName)
	}
	return compErr
}

func readDescription(r io.Reader) (*spec.GrammarDescription, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	desc := &spec.GrammarDescription{}
	err = json.Unmarshal(data, desc)
	if err != nil {
		return nil, fmt.Errorf("Cannot parse the grammar description: %w", err)
	}
	if desc.Name == "" {
		return nil, fmt.Errorf("a grammar description must have a name")
	}
	return desc, nil
}

func withSource(err error, sourceName, filePath string) error {
	diags, ok := err.(verr.Diagnostics)
	if !ok {
		return err
	}
	for _, d := range diags {
		d.SourceName = sourceName
		d.FilePath = filePath
	}
	return diags
}

// diagnosticPrinter prints a diagnostic as soon as the analysis reports it,
// with its examples drawn as trees.
type diagnosticPrinter struct {
	w          io.Writer
	sourceName string
	filePath   string
}

func (p *diagnosticPrinter) Report(d *verr.Diagnostic) {
	d.SourceName = p.sourceName
	d.FilePath = p.filePath

	examples := d.Examples
	head := *d
	head.Examples = nil
	if d.Severity == verr.SeverityError {
		fmt.Fprint(p.w, pterm.Error.Sprintln(head.Error()))
	} else {
		fmt.Fprint(p.w, pterm.Info.Sprintln(head.Error()))
	}

	for _, ex := range examples {
		tree, err := pterm.DefaultTree.WithRoot(pterm.NewTreeFromLeveledList(exampleLeveledList(ex))).Srender()
		if err != nil {
			fmt.Fprintf(p.w, "    %v: %v\n", ex.Action, ex.Derivation())
			continue
		}
		fmt.Fprint(p.w, tree)
	}
}

// exampleLeveledList lays out an example with the action at the top level
// and the parse stack below it.
func exampleLeveledList(ex *verr.Example) pterm.LeveledList {
	text := ex.Action
	if ex.Truncated {
		text += " (incomplete)"
	}
	ll := pterm.LeveledList{
		{Level: 0, Text: text},
	}
	for _, r := range ex.Roots {
		ll = derivationLeveledList(r, ll, 1)
	}
	return ll
}

func derivationLeveledList(d *verr.Derivation, ll pterm.LeveledList, level int) pterm.LeveledList {
	ll = append(ll, pterm.LeveledListItem{
		Level: level,
		Text:  d.Symbol,
	})
	for _, c := range d.Children {
		ll = derivationLeveledList(c, ll, level+1)
	}
	return ll
}

// writeParsingTableAndReport writes a parsing table and a report to files located at a specified path.
// This function selects one of the following output methods depending on how the path is specified.
//
//  1. When the path is a directory path, this function writes the parsing table and the report to
//     <path>/<grammar-name>.json and <path>/<grammar-name>-report.json files, respectively.
//  2. When the path is a file path or a non-existent path, this function assumes that the path represents
//     a file path for the parsing table. Then it also writes the report in the same directory as the table.
//  3. When the path is an empty string, this function writes the parsing table to the stdout and writes
//     the report to a file named <current-directory>/<grammar-name>-report.json.
//
// A nil table is not written; the report is written anyway.
func writeParsingTableAndReport(tab *spec.ParsingTable, report *spec.Report, gramName string, path string) error {
	tabPath, reportPath, err := makeOutputFilePaths(gramName, path)
	if err != nil {
		return err
	}

	if tab != nil {
		var tabW io.Writer
		if tabPath != "" {
			tabFile, err := os.OpenFile(tabPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
			if err != nil {
				return err
			}
			defer tabFile.Close()
			tabW = tabFile
		} else {
			tabW = os.Stdout
		}

		b, err := json.Marshal(tab)
		if err != nil {
			return err
		}
		fmt.Fprintf(tabW, "%v\n", string(b))
	}

	{
		reportFile, err := os.OpenFile(reportPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer reportFile.Close()

		b, err := json.Marshal(report)
		if err != nil {
			return err
		}
		fmt.Fprintf(reportFile, "%v\n", string(b))
	}

	return nil
}

func makeOutputFilePaths(gramName string, path string) (string, string, error) {
	reportFileName := gramName + "-report.json"

	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", "", err
		}
		return "", filepath.Join(wd, reportFileName), nil
	}

	fi, err := os.Stat(path)
	if err != nil && !os.IsNotExist(err) {
		return "", "", err
	}
	if os.IsNotExist(err) || !fi.IsDir() {
		dir, _ := filepath.Split(path)
		return path, filepath.Join(dir, reportFileName), nil
	}

	return filepath.Join(path, gramName+".json"), filepath.Join(path, reportFileName), nil
}
