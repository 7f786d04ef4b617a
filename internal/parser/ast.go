// Package parser builds an AST for the read-only query language the
// optimizer's front end accepts. The grammar is deliberately small: a single
// SELECT form with FROM, equi-join JOIN...ON, WHERE, and GROUP BY, since
// frontend.Build only ever lowers that shape onto a contract.Plan.
package parser

import (
	"fmt"
	"strings"
)

// Node is the base interface every AST node implements.
type Node interface {
	String() string
}

// Statement is a top-level parsed statement.
type Statement interface {
	Node
	statementNode()
}

// Expression is anything that appears where a value or predicate is expected.
type Expression interface {
	Node
	expressionNode()
}

// SelectStatement is the only statement kind this grammar produces.
type SelectStatement struct {
	Columns []Expression // Star or ColumnReference, in projection order
	From    *FromClause
	Where   *WhereClause
	GroupBy *GroupByClause
}

func (s *SelectStatement) statementNode() {}
func (s *SelectStatement) String() string {
	var b strings.Builder
	b.WriteString("SELECT ")
	for i, c := range s.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.String())
	}
	if s.From != nil {
		b.WriteString(" ")
		b.WriteString(s.From.String())
	}
	if s.Where != nil {
		fmt.Fprintf(&b, " WHERE %s", s.Where.Condition.String())
	}
	if s.GroupBy != nil {
		b.WriteString(" GROUP BY ")
		for i, c := range s.GroupBy.Columns {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(c.String())
		}
	}
	return b.String()
}

// FromClause names the base table and any equi-joined tables a query reads.
type FromClause struct {
	Table *Identifier
	Joins []*JoinClause
}

func (f *FromClause) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "FROM %s", f.Table.String())
	for _, j := range f.Joins {
		b.WriteString(" ")
		b.WriteString(j.String())
	}
	return b.String()
}

// JoinClause is a single equi-join against one more table.
type JoinClause struct {
	Table     *Identifier
	Condition Expression
}

func (j *JoinClause) String() string {
	return fmt.Sprintf("JOIN %s ON %s", j.Table.String(), j.Condition.String())
}

// WhereClause filters rows by Condition before any GROUP BY.
type WhereClause struct {
	Condition Expression
}

func (w *WhereClause) String() string { return "WHERE " + w.Condition.String() }

// GroupByClause names the columns rows are grouped by.
type GroupByClause struct {
	Columns []Expression
}

func (g *GroupByClause) String() string {
	parts := make([]string, len(g.Columns))
	for i, c := range g.Columns {
		parts[i] = c.String()
	}
	return "GROUP BY " + strings.Join(parts, ", ")
}

// Identifier names a table, optionally aliased with AS.
type Identifier struct {
	Value string
	Alias string // empty when unaliased
}

func (i *Identifier) expressionNode() {}
func (i *Identifier) String() string {
	if i.Alias != "" {
		return i.Value + " AS " + i.Alias
	}
	return i.Value
}

// Star represents the "*" projection.
type Star struct{}

func (s *Star) expressionNode() {}
func (s *Star) String() string  { return "*" }

// ColumnReference names a column, optionally qualified by a table or alias.
type ColumnReference struct {
	Table  string // empty when unqualified
	Column string
}

func (c *ColumnReference) expressionNode() {}
func (c *ColumnReference) String() string {
	if c.Table != "" {
		return c.Table + "." + c.Column
	}
	return c.Column
}

// Literal is a number or string constant.
type Literal struct {
	Value string
	IsNum bool
}

func (l *Literal) expressionNode() {}
func (l *Literal) String() string {
	if l.IsNum {
		return l.Value
	}
	return "'" + l.Value + "'"
}

// BinaryOperator is a comparison or logical connective.
type BinaryOperator int

const (
	Equal BinaryOperator = iota
	NotEqual
	LessThan
	GreaterThan
	LessEqual
	GreaterEqual
	And
)

func (b BinaryOperator) String() string {
	switch b {
	case Equal:
		return "="
	case NotEqual:
		return "!="
	case LessThan:
		return "<"
	case GreaterThan:
		return ">"
	case LessEqual:
		return "<="
	case GreaterEqual:
		return ">="
	case And:
		return "AND"
	default:
		return "?"
	}
}

// BinaryExpression is Left Operator Right, e.g. a column compared to a
// literal, or two comparisons joined by AND.
type BinaryExpression struct {
	Left     Expression
	Operator BinaryOperator
	Right    Expression
}

func (b *BinaryExpression) expressionNode() {}
func (b *BinaryExpression) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left.String(), b.Operator.String(), b.Right.String())
}
