// Package semantic validates that every table and column reference a
// compiled query makes actually resolves against the catalog, using a small
// pluggable rule registry in the style of a larger validator that would
// eventually carry more than one rule.
package semantic

import (
	"pactopt/internal/compiler"
	"pactopt/internal/parser"
)

// SemanticError is one validation failure, with enough context to report
// without re-walking the AST.
type SemanticError struct {
	Message string
}

func (e SemanticError) Error() string { return e.Message }

// SemanticInfo is the result of Analyze: the compiled query it validated,
// plus any errors found. A query with no errors is safe for frontend.Build
// to lower onto a contract.Plan.
type SemanticInfo struct {
	CompiledQuery *compiler.CompiledQuery
	Errors        []SemanticError
}

// IsValid reports whether analysis found no errors.
func (info *SemanticInfo) IsValid() bool { return len(info.Errors) == 0 }

// Rule validates one aspect of a compiled query, appending to ctx.Errors on
// failure rather than stopping analysis at the first problem.
type Rule interface {
	Validate(compiled *compiler.CompiledQuery, ctx *SemanticInfo)
}

// SemanticAnalyzer runs every registered Rule over a CompiledQuery.
type SemanticAnalyzer struct {
	catalog compiler.CatalogManager
	rules   []Rule
}

// NewSemanticAnalyzer creates a SemanticAnalyzer with the default rule set:
// column reference resolution is the only concern this grammar has, since it
// has no aggregates, subqueries, or schema statements to validate.
func NewSemanticAnalyzer(catalog compiler.CatalogManager) *SemanticAnalyzer {
	return &SemanticAnalyzer{
		catalog: catalog,
		rules:   []Rule{&ColumnReferenceRule{}},
	}
}

// AddRule registers an additional validation rule.
func (sa *SemanticAnalyzer) AddRule(rule Rule) {
	sa.rules = append(sa.rules, rule)
}

// Analyze runs every registered rule over compiled and returns the
// accumulated result.
func (sa *SemanticAnalyzer) Analyze(compiled *compiler.CompiledQuery) (*SemanticInfo, error) {
	info := &SemanticInfo{CompiledQuery: compiled}
	for _, rule := range sa.rules {
		rule.Validate(compiled, info)
	}
	return info, nil
}

// resolveColumn finds the table a column reference names (explicitly, or by
// checking every resolved table when unqualified) and confirms the column
// exists on it.
func resolveColumn(ref *parser.ColumnReference, refs *compiler.ResolvedReferences) error {
	if ref.Table != "" {
		table, ok := refs.GetTable(ref.Table)
		if !ok {
			return SemanticError{Message: "unknown table reference: " + ref.Table}
		}
		if _, err := table.GetColumn(ref.Column); err != nil {
			return SemanticError{Message: err.Error()}
		}
		return nil
	}

	found := 0
	for _, table := range refs.Tables() {
		if _, err := table.GetColumn(ref.Column); err == nil {
			found++
		}
	}
	switch found {
	case 0:
		return SemanticError{Message: "unresolved column reference: " + ref.Column}
	case 1:
		return nil
	default:
		return SemanticError{Message: "ambiguous column reference: " + ref.Column}
	}
}
