package parser

import (
	"fmt"

	"pactopt/internal/lexer"
)

// Parser is a recursive-descent parser over the lexer's token stream for the
// single SELECT grammar this package supports.
type Parser struct {
	lexer        *lexer.Lexer
	currentToken lexer.Token
	peekToken    lexer.Token
	errors       []string
}

// NewParser creates a Parser reading from l, primed with the first two
// tokens so currentToken and peekToken are both valid immediately.
func NewParser(l *lexer.Lexer) *Parser {
	p := &Parser{lexer: l}
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.currentToken = p.peekToken
	p.peekToken = p.lexer.NextToken()
}

// Errors returns every parse error collected so far.
func (p *Parser) Errors() []string { return p.errors }

func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, fmt.Sprintf("line %d, column %d: %s", p.currentToken.Line, p.currentToken.Column, msg))
}

func (p *Parser) expect(t lexer.TokenType) bool {
	if p.currentToken.Type != t {
		p.addError(fmt.Sprintf("expected %s, got %s", t, p.currentToken.Type))
		return false
	}
	p.nextToken()
	return true
}

// ParseStatement parses a single statement. Only SELECT is supported; any
// other statement kind the lexer recognizes (or fails to) is reported as a
// parse error rather than built, since this front end models read dataflows
// only (spec.md Non-goals exclude mutation and schema statements).
func (p *Parser) ParseStatement() Statement {
	if p.currentToken.Type != lexer.SELECT {
		p.addError(fmt.Sprintf("unsupported statement starting with %s; only SELECT is supported", p.currentToken.Type))
		return nil
	}
	return p.parseSelectStatement()
}

func (p *Parser) parseSelectStatement() *SelectStatement {
	stmt := &SelectStatement{}
	p.nextToken() // consume SELECT

	stmt.Columns = p.parseSelectColumns()
	if stmt.Columns == nil {
		return nil
	}

	if !p.expect(lexer.FROM) {
		return nil
	}
	stmt.From = p.parseFromClause()
	if stmt.From == nil {
		return nil
	}

	if p.currentToken.Type == lexer.WHERE {
		p.nextToken()
		cond := p.parseCondition()
		if cond == nil {
			return nil
		}
		stmt.Where = &WhereClause{Condition: cond}
	}

	if p.currentToken.Type == lexer.GROUP {
		p.nextToken()
		if !p.expect(lexer.BY) {
			return nil
		}
		cols := p.parseColumnRefList()
		if cols == nil {
			return nil
		}
		stmt.GroupBy = &GroupByClause{Columns: cols}
	}

	return stmt
}

// parseSelectColumns parses "*" or a comma-separated column reference list.
func (p *Parser) parseSelectColumns() []Expression {
	if p.currentToken.Type == lexer.STAR {
		p.nextToken()
		return []Expression{&Star{}}
	}
	return p.parseColumnRefList()
}

func (p *Parser) parseColumnRefList() []Expression {
	var cols []Expression
	for {
		ref := p.parseColumnReference()
		if ref == nil {
			return nil
		}
		cols = append(cols, ref)
		if p.currentToken.Type != lexer.COMMA {
			break
		}
		p.nextToken()
	}
	return cols
}

// parseColumnReference parses `column` or `table.column`.
func (p *Parser) parseColumnReference() *ColumnReference {
	if p.currentToken.Type != lexer.IDENTIFIER {
		p.addError(fmt.Sprintf("expected a column name, got %s", p.currentToken.Type))
		return nil
	}
	first := p.currentToken.Value
	p.nextToken()

	if p.currentToken.Type == lexer.DOT {
		p.nextToken()
		if p.currentToken.Type != lexer.IDENTIFIER {
			p.addError(fmt.Sprintf("expected a column name after '.', got %s", p.currentToken.Type))
			return nil
		}
		column := p.currentToken.Value
		p.nextToken()
		return &ColumnReference{Table: first, Column: column}
	}
	return &ColumnReference{Column: first}
}

// parseFromClause parses the base table and any JOIN...ON clauses.
func (p *Parser) parseFromClause() *FromClause {
	table := p.parseTableReference()
	if table == nil {
		return nil
	}
	from := &FromClause{Table: table}

	for p.currentToken.Type == lexer.JOIN {
		p.nextToken()
		joinTable := p.parseTableReference()
		if joinTable == nil {
			return nil
		}
		if !p.expect(lexer.ON) {
			return nil
		}
		cond := p.parseCondition()
		if cond == nil {
			return nil
		}
		from.Joins = append(from.Joins, &JoinClause{Table: joinTable, Condition: cond})
	}
	return from
}

// parseTableReference parses `table` or `table AS alias`.
func (p *Parser) parseTableReference() *Identifier {
	if p.currentToken.Type != lexer.IDENTIFIER {
		p.addError(fmt.Sprintf("expected a table name, got %s", p.currentToken.Type))
		return nil
	}
	ident := &Identifier{Value: p.currentToken.Value}
	p.nextToken()

	if p.currentToken.Type == lexer.AS {
		p.nextToken()
		if p.currentToken.Type != lexer.IDENTIFIER {
			p.addError(fmt.Sprintf("expected an alias after AS, got %s", p.currentToken.Type))
			return nil
		}
		ident.Alias = p.currentToken.Value
		p.nextToken()
	}
	return ident
}

// parseCondition parses an AND-chain of comparisons, which is all WHERE and
// JOIN...ON predicates ever need here (spec.md Non-goals exclude OR and
// non-equi join conditions; frontend.Build rejects anything else it finds).
func (p *Parser) parseCondition() Expression {
	left := p.parseComparison()
	if left == nil {
		return nil
	}
	for p.currentToken.Type == lexer.AND {
		p.nextToken()
		right := p.parseComparison()
		if right == nil {
			return nil
		}
		left = &BinaryExpression{Left: left, Operator: And, Right: right}
	}
	return left
}

var comparisonOperators = map[lexer.TokenType]BinaryOperator{
	lexer.EQUALS:        Equal,
	lexer.NOT_EQUALS:    NotEqual,
	lexer.LESS_THAN:     LessThan,
	lexer.GREATER_THAN:  GreaterThan,
	lexer.LESS_EQUAL:    LessEqual,
	lexer.GREATER_EQUAL: GreaterEqual,
}

// parseComparison parses `operand op operand`, where each operand is a
// column reference or a literal.
func (p *Parser) parseComparison() Expression {
	left := p.parseOperand()
	if left == nil {
		return nil
	}
	op, ok := comparisonOperators[p.currentToken.Type]
	if !ok {
		p.addError(fmt.Sprintf("expected a comparison operator, got %s", p.currentToken.Type))
		return nil
	}
	p.nextToken()
	right := p.parseOperand()
	if right == nil {
		return nil
	}
	return &BinaryExpression{Left: left, Operator: op, Right: right}
}

func (p *Parser) parseOperand() Expression {
	switch p.currentToken.Type {
	case lexer.IDENTIFIER:
		return p.parseColumnReference()
	case lexer.NUMBER:
		lit := &Literal{Value: p.currentToken.Value, IsNum: true}
		p.nextToken()
		return lit
	case lexer.STRING:
		lit := &Literal{Value: p.currentToken.Value}
		p.nextToken()
		return lit
	default:
		p.addError(fmt.Sprintf("expected a column reference or literal, got %s", p.currentToken.Type))
		return nil
	}
}

// ParseSQL is a convenience wrapper for one-shot parsing outside of a larger
// pipeline: lex, parse, and fold any collected errors into a single error.
func ParseSQL(query string) (Statement, error) {
	p := NewParser(lexer.NewLexer(query))
	stmt := p.ParseStatement()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, fmt.Errorf("parse errors: %v", errs)
	}
	return stmt, nil
}
