package grammar

type Terminal struct {
	Number        int    `json:"number"`
	Name          string `json:"name"`
	Precedence    int    `json:"prec"`
	Associativity string `json:"assoc"`
}

type NonTerminal struct {
	Number   int    `json:"number"`
	Name     string `json:"name"`
	Erasable bool   `json:"erasable"`
}

type Rule struct {
	Number     int   `json:"number"`
	Index      int   `json:"index"`
	LHS        int   `json:"lhs"`
	RHS        []int `json:"rhs"`
	Precedence int   `json:"prec"`
	Reachable  bool  `json:"reachable"`
}

type Item struct {
	Rule int `json:"rule"`
	Dot  int `json:"dot"`
}

// Transition.State is -1 when the transition enters the accept state.
type Transition struct {
	Symbol int `json:"symbol"`
	State  int `json:"state"`
}

type Reduce struct {
	LookAhead []int `json:"look_ahead"`
	Rule      int   `json:"rule"`
}

type Conflict struct {
	Symbol  int   `json:"symbol"`
	Shift   *int  `json:"shift,omitempty"`
	Reduces []int `json:"reduces"`
}

type State struct {
	Number    int           `json:"number"`
	Kernel    []*Item       `json:"kernel"`
	Shift     []*Transition `json:"shift"`
	Reduce    []*Reduce     `json:"reduce"`
	GoTo      []*Transition `json:"goto"`
	Conflicts []*Conflict   `json:"conflicts"`
}

type Example struct {
	Action     string `json:"action"`
	Derivation string `json:"derivation"`
}

type Diagnostic struct {
	Severity  string     `json:"severity"`
	Message   string     `json:"message"`
	State     int        `json:"state"`
	Terminals []string   `json:"terminals,omitempty"`
	Examples  []*Example `json:"examples,omitempty"`
	Row       int        `json:"row,omitempty"`
}

type Report struct {
	Terminals    []*Terminal    `json:"terminals"`
	NonTerminals []*NonTerminal `json:"non_terminals"`
	Rules        []*Rule        `json:"rules"`
	States       []*State       `json:"states"`
	Diagnostics  []*Diagnostic  `json:"diagnostics"`
}
