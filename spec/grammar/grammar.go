package grammar

// GrammarDescription is the JSON form of a grammar handed over by a front-end.
type GrammarDescription struct {
	Name       string             `json:"name"`
	Start      string             `json:"start"`
	Terminals  []string           `json:"terminals"`
	Precedence []*PrecedenceLevel `json:"precedence,omitempty"`
	Rules      []*RuleDescription `json:"rules"`
}

// PrecedenceLevel declares terminals sharing one precedence. Later levels bind tighter.
type PrecedenceLevel struct {
	Associativity string   `json:"assoc"`
	Symbols       []string `json:"symbols"`
}

type RuleDescription struct {
	LHS        string      `json:"lhs"`
	RHS        []*RHSEntry `json:"rhs"`
	Precedence string      `json:"prec,omitempty"`
	Expect     bool        `json:"expect,omitempty"`
	Row        int         `json:"row,omitempty"`
	Col        int         `json:"col,omitempty"`
}

// RHSEntry is one right-hand side symbol. Expect marks a conflict on shifting
// this symbol as anticipated by the author.
type RHSEntry struct {
	Name   string `json:"name"`
	Expect bool   `json:"expect,omitempty"`
}

const (
	AssocNone     = ""
	AssocLeft     = "left"
	AssocRight    = "right"
	AssocNonassoc = "nonassoc"
)

type ParsingTable struct {
	Name             string       `json:"name"`
	Terminals        []string     `json:"terminals"`
	NonTerminals     []string     `json:"non_terminals"`
	StartState       int          `json:"start_state"`
	StartRule        int          `json:"start_rule"`
	EOISymbol        int          `json:"eoi_symbol"`
	CompressionLevel int          `json:"compression_level"`
	Action           *ActionTable `json:"action"`
	GoTo             *GotoTable   `json:"goto"`
}

// RuleInfo gives the driver what it needs to reduce a rule: the nonterminal
// index (relative to the first nonterminal) and the right-hand side length.
type RuleInfo struct {
	LHS    int `json:"lhs"`
	Length int `json:"length"`
}

// ActionTable cells are split into disjoint ranges:
//
//	[0, StateCount)                                    shift
//	[StateCount, StateCount+RuleCount)                 reduce
//	[StateCount+RuleCount, AcceptAction)               offset into Conflicts
//	AcceptAction, ErrorAction                          sentinels
type ActionTable struct {
	TokenCount    int              `json:"token_count"`
	StateCount    int              `json:"state_count"`
	RuleCount     int              `json:"rule_count"`
	ConflictCount int              `json:"conflict_count"`
	ErrorAction   int              `json:"error_action"`
	AcceptAction  int              `json:"accept_action"`
	Rules         []*RuleInfo      `json:"rules"`
	Conflicts     []int            `json:"conflicts"`
	Actions       []int            `json:"actions,omitempty"`
	Compressed    *CompressedTable `json:"compressed,omitempty"`
}

type GotoTable struct {
	NTermCount int              `json:"nterm_count"`
	StateCount int              `json:"state_count"`
	ErrorValue int              `json:"error_value"`
	GoTos      []int            `json:"gotos,omitempty"`
	Compressed *CompressedTable `json:"compressed,omitempty"`
}

// CompressedTable is a row-displaced table. When UniqueRows is present, a row
// is first mapped through it and the result indexes Displace.
type CompressedTable struct {
	Rows       int   `json:"rows"`
	Cols       int   `json:"cols"`
	ErrorValue int   `json:"error_value"`
	UniqueRows []int `json:"unique_rows,omitempty"`
	Displace   []int `json:"displace"`
	Compress   []int `json:"compress"`
	CompRows   []int `json:"comprows"`
}

func (t *CompressedTable) Lookup(row, col int) int {
	if t.UniqueRows != nil {
		row = t.UniqueRows[row]
	}
	i := t.Displace[row] + col
	if t.CompRows[i] != row {
		return t.ErrorValue
	}
	return t.Compress[i]
}

func (t *ActionTable) Lookup(state, terminal int) int {
	if t.Compressed != nil {
		return t.Compressed.Lookup(state, terminal)
	}
	return t.Actions[state*t.TokenCount+terminal]
}

func (t *GotoTable) Lookup(state, nterm int) int {
	if t.Compressed != nil {
		return t.Compressed.Lookup(state, nterm)
	}
	return t.GoTos[state*t.NTermCount+nterm]
}
