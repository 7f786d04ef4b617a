package semantic

import (
	"pactopt/internal/compiler"
	"pactopt/internal/parser"
)

// ColumnReferenceRule confirms every column reference in a SELECT statement
// (its projection, WHERE, JOIN...ON, and GROUP BY) resolves against the
// query's FROM/JOIN tables. It is the one rule this grammar needs, since it
// has no aggregates or subqueries to validate beyond that.
type ColumnReferenceRule struct{}

// Validate implements Rule.
func (r *ColumnReferenceRule) Validate(compiled *compiler.CompiledQuery, ctx *SemanticInfo) {
	sel, ok := compiled.Statement.(*parser.SelectStatement)
	if !ok {
		return
	}
	refs := compiled.ResolvedRefs

	for _, col := range sel.Columns {
		if ref, ok := col.(*parser.ColumnReference); ok {
			r.check(ref, refs, ctx)
		}
	}

	if sel.Where != nil {
		r.walkCondition(sel.Where.Condition, refs, ctx)
	}
	for _, join := range sel.From.Joins {
		r.walkCondition(join.Condition, refs, ctx)
	}
	if sel.GroupBy != nil {
		for _, col := range sel.GroupBy.Columns {
			if ref, ok := col.(*parser.ColumnReference); ok {
				r.check(ref, refs, ctx)
			}
		}
	}
}

// walkCondition descends through an AND-chain (the only connective this
// grammar parses) to validate every comparison's column operands.
func (r *ColumnReferenceRule) walkCondition(cond parser.Expression, refs *compiler.ResolvedReferences, ctx *SemanticInfo) {
	bin, ok := cond.(*parser.BinaryExpression)
	if !ok {
		return
	}
	if bin.Operator == parser.And {
		r.walkCondition(bin.Left, refs, ctx)
		r.walkCondition(bin.Right, refs, ctx)
		return
	}
	if ref, ok := bin.Left.(*parser.ColumnReference); ok {
		r.check(ref, refs, ctx)
	}
	if ref, ok := bin.Right.(*parser.ColumnReference); ok {
		r.check(ref, refs, ctx)
	}
}

func (r *ColumnReferenceRule) check(ref *parser.ColumnReference, refs *compiler.ResolvedReferences, ctx *SemanticInfo) {
	if err := resolveColumn(ref, refs); err != nil {
		ctx.Errors = append(ctx.Errors, err.(SemanticError))
	}
}
