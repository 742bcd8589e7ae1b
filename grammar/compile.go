package grammar

import (
	"fmt"

	verr "github.com/nihei9/loquat/error"
	spec "github.com/nihei9/loquat/spec/grammar"
)

const (
	defaultSearchLimit  = 1000
	defaultContextLimit = 64
)

type compileConfig struct {
	isReportingEnabled bool
	sink               verr.Sink
	searchLimit        int
	contextLimit       int
	suppressExpected   bool
	compressionLevel   int
}

type CompileOption func(config *compileConfig)

func EnableReporting() CompileOption {
	return func(config *compileConfig) {
		config.isReportingEnabled = true
	}
}

// WithSink passes every diagnostic to sink as soon as it is produced.
func WithSink(sink verr.Sink) CompileOption {
	return func(config *compileConfig) {
		config.sink = sink
	}
}

// SearchLimit bounds the open set of the search that completes example
// derivations, and the number of candidate parses it expands. A search
// exceeding either gives up and the example is truncated.
func SearchLimit(limit int) CompileOption {
	return func(config *compileConfig) {
		config.searchLimit = limit
	}
}

// ContextLimit bounds the number of left contexts tried per conflict.
func ContextLimit(limit int) CompileOption {
	return func(config *compileConfig) {
		config.contextLimit = limit
	}
}

// SuppressExpectedConflicts drops the notices about conflicts every action of
// which is marked as expected.
func SuppressExpectedConflicts() CompileOption {
	return func(config *compileConfig) {
		config.suppressExpected = true
	}
}

func CompressionLevel(lv int) CompileOption {
	return func(config *compileConfig) {
		config.compressionLevel = lv
	}
}

type diagnosticCollector struct {
	diags verr.Diagnostics
	sink  verr.Sink
}

func (c *diagnosticCollector) Report(d *verr.Diagnostic) {
	c.diags = append(c.diags, d)
	if c.sink != nil {
		c.sink.Report(d)
	}
}

// Compile builds the parsing tables of a grammar. When the analysis finds
// errors (unreachable rules or unexpected conflicts), it returns no tables
// and a verr.Diagnostics holding the errors. The report is returned in both
// cases when reporting is enabled.
func Compile(gram *Grammar, opts ...CompileOption) (*spec.ParsingTable, *spec.Report, error) {
	config := &compileConfig{
		searchLimit:  defaultSearchLimit,
		contextLimit: defaultContextLimit,
	}
	for _, opt := range opts {
		opt(config)
	}
	if config.compressionLevel < CompressionLevelNone || config.compressionLevel > CompressionLevelMax {
		return nil, nil, fmt.Errorf("compression level must be %v to %v: %v", CompressionLevelNone, CompressionLevelMax, config.compressionLevel)
	}
	if config.searchLimit <= 0 || config.contextLimit <= 0 {
		return nil, nil, fmt.Errorf("search limits must be positive")
	}

	collector := &diagnosticCollector{
		sink: config.sink,
	}

	a := genLALR1Automaton(gram)
	a.buildActions()
	a.markReachable()
	ruleCount, stateCount := a.assignIndices()

	for _, r := range a.unreachableRules() {
		collector.Report(&verr.Diagnostic{
			Severity: verr.SeverityError,
			Cause:    semErrUnreachableRule,
			Detail:   gram.ruleString(r),
			State:    -1,
			Row:      r.Pos.Row,
		})
	}

	e := &conflictExplainer{
		a:                a,
		sink:             collector,
		searchLimit:      config.searchLimit,
		contextLimit:     config.contextLimit,
		suppressExpected: config.suppressExpected,
	}
	e.explain()

	b := &lrTableBuilder{
		a:                a,
		ruleCount:        ruleCount,
		stateCount:       stateCount,
		compressionLevel: config.compressionLevel,
	}

	var report *spec.Report
	if config.isReportingEnabled {
		report = b.genReport(collector.diags)
	}

	if errs := collector.diags.Errors(); len(errs) > 0 {
		return nil, report, errs
	}

	tab, err := b.build()
	if err != nil {
		return nil, report, err
	}

	return tab, report, nil
}
