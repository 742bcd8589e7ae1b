package grammar

type SemanticError struct {
	message string
}

func newSemanticError(message string) *SemanticError {
	return &SemanticError{
		message: message,
	}
}

func (e *SemanticError) Error() string {
	return e.message
}

var (
	semErrNoStartSymbol        = newSemanticError("no start symbol defined")
	semErrUndefinedSym         = newSemanticError("undefined symbol")
	semErrDuplicateTerminal    = newSemanticError("duplicate terminal")
	semErrDuplicateName        = newSemanticError("duplicate names are not allowed between terminals and nonterminals")
	semErrReservedName         = newSemanticError("names starting with '$' are reserved")
	semErrPrecNotTerminal      = newSemanticError("a precedence symbol must be a terminal")
	semErrStartNotNonTerminal  = newSemanticError("a start symbol must be a nonterminal")
	semErrInvalidAssociativity = newSemanticError("invalid associativity")
	semErrUnreachableRule      = newSemanticError("rule is never reduced")
	semErrConflict             = newSemanticError("parsing conflict")
	semErrExpectedConflict     = newSemanticError("expected parsing conflict")
)
