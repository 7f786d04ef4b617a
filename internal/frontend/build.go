// Package frontend lowers a semantically validated query onto the PACT-style
// contract chain the optimizer consumes, keeping the lexer, parser,
// compiler, and semantic packages exercised end to end.
package frontend

import (
	"fmt"

	"pactopt/internal/compiler"
	"pactopt/internal/contract"
	"pactopt/internal/parser"
	"pactopt/internal/semantic"
)

// Build maps a single validated SELECT statement onto a contract.Plan:
// one contract.Source per FROM/JOIN table, a left-deep chain of
// contract.Match for its equi-joins, an optional contract.Map for WHERE, an
// optional contract.Reduce for GROUP BY, and a single terminating
// contract.Sink.
func Build(info *semantic.SemanticInfo, catalog compiler.CatalogManager) (*contract.Plan, error) {
	if info == nil || info.CompiledQuery == nil {
		return nil, fmt.Errorf("frontend: nil semantic info")
	}
	if !info.IsValid() {
		return nil, fmt.Errorf("frontend: cannot build a plan from an invalid query: %v", info.Errors)
	}
	if info.CompiledQuery.QueryType != compiler.QueryTypeSelect {
		return nil, fmt.Errorf("frontend: unsupported statement kind %v (only SELECT lowers to a dataflow)", info.CompiledQuery.QueryType)
	}

	sel, ok := info.CompiledQuery.Statement.(*parser.SelectStatement)
	if !ok {
		return nil, fmt.Errorf("frontend: compiled SELECT statement has unexpected AST type %T", info.CompiledQuery.Statement)
	}
	if sel.From == nil {
		return nil, fmt.Errorf("frontend: SELECT has no FROM clause")
	}

	b := &builder{catalog: catalog, refs: info.CompiledQuery.ResolvedRefs, sources: make(map[string]contract.Contract)}

	current := b.source(sel.From.Table)

	for _, join := range sel.From.Joins {
		right := b.source(join.Table)
		leftKeys, rightKeys, err := b.equiJoinKeys(join.Condition)
		if err != nil {
			return nil, fmt.Errorf("frontend: JOIN condition: %w", err)
		}
		current = contract.NewMatch(fmt.Sprintf("join(%s,%s)", current.Name(), right.Name()), current, right, leftKeys, rightKeys)
	}

	if sel.Where != nil {
		current = contract.NewMap("filter", current)
	}

	if sel.GroupBy != nil && len(sel.GroupBy.Columns) > 0 {
		keys, err := b.columnPositions(sel.GroupBy.Columns)
		if err != nil {
			return nil, fmt.Errorf("frontend: GROUP BY: %w", err)
		}
		current = contract.NewReduce("group", current, keys)
	}

	sink := contract.NewSink("result", current)
	return contract.NewPlan("query", sink), nil
}

type builder struct {
	catalog compiler.CatalogManager
	refs    *compiler.ResolvedReferences
	sources map[string]contract.Contract // reference name (alias or table name) -> Source, deduplicated
}

// source builds (or reuses) the contract.Source for one FROM/JOIN table
// reference.
func (b *builder) source(ident *parser.Identifier) contract.Contract {
	refName := ident.Value
	if ident.Alias != "" {
		refName = ident.Alias
	}
	if s, ok := b.sources[refName]; ok {
		return s
	}
	s := contract.NewSource(refName, ident.Value)
	b.sources[refName] = s
	return s
}

// equiJoinKeys extracts the left/right key field positions from a JOIN's ON
// condition, which must be a (possibly AND-chained) equality between two
// column references.
func (b *builder) equiJoinKeys(cond parser.Expression) ([]int, []int, error) {
	var leftKeys, rightKeys []int

	var walk func(e parser.Expression) error
	walk = func(e parser.Expression) error {
		bin, ok := e.(*parser.BinaryExpression)
		if !ok {
			return fmt.Errorf("expected an equality or AND of equalities, got %T", e)
		}
		if bin.Operator == parser.And {
			if err := walk(bin.Left); err != nil {
				return err
			}
			return walk(bin.Right)
		}
		if bin.Operator != parser.Equal {
			return fmt.Errorf("only equi-join conditions are supported, got operator %v", bin.Operator)
		}
		lCol, lOK := bin.Left.(*parser.ColumnReference)
		rCol, rOK := bin.Right.(*parser.ColumnReference)
		if !lOK || !rOK {
			return fmt.Errorf("equi-join operands must be column references")
		}
		lPos, err := b.columnPosition(lCol)
		if err != nil {
			return err
		}
		rPos, err := b.columnPosition(rCol)
		if err != nil {
			return err
		}
		leftKeys = append(leftKeys, lPos)
		rightKeys = append(rightKeys, rPos)
		return nil
	}

	if err := walk(cond); err != nil {
		return nil, nil, err
	}
	return leftKeys, rightKeys, nil
}

func (b *builder) columnPositions(cols []parser.Expression) ([]int, error) {
	positions := make([]int, 0, len(cols))
	for _, c := range cols {
		ref, ok := c.(*parser.ColumnReference)
		if !ok {
			return nil, fmt.Errorf("expected a column reference, got %T", c)
		}
		pos, err := b.columnPosition(ref)
		if err != nil {
			return nil, err
		}
		positions = append(positions, pos)
	}
	return positions, nil
}

func (b *builder) columnPosition(ref *parser.ColumnReference) (int, error) {
	if ref.Table == "" {
		for _, t := range b.refs.Tables() {
			if col, err := t.GetColumn(ref.Column); err == nil {
				return col.Position, nil
			}
		}
		return 0, fmt.Errorf("unresolved column %q", ref.Column)
	}

	table, found := b.refs.GetTable(ref.Table)
	if !found {
		var err error
		table, err = b.catalog.GetTable(ref.Table)
		if err != nil {
			return 0, fmt.Errorf("unresolved table reference %q for column %q", ref.Table, ref.Column)
		}
	}
	col, err := table.GetColumn(ref.Column)
	if err != nil {
		return 0, err
	}
	return col.Position, nil
}
