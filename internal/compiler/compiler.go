// Package compiler resolves a parsed SELECT statement's table and column
// references against a catalog, producing a CompiledQuery the semantic
// package validates and frontend.Build lowers onto a contract.Plan.
package compiler

import (
	"fmt"
	"strings"

	"pactopt/internal/parser"
)

// QueryType classifies a compiled statement. Only SELECT ever lowers to a
// dataflow (spec.md Non-goals exclude DML/DDL), so this enum stays small on
// purpose rather than mirroring a full SQL engine's statement catalog.
type QueryType int

const (
	QueryTypeUnknown QueryType = iota
	QueryTypeSelect
)

func (qt QueryType) String() string {
	switch qt {
	case QueryTypeSelect:
		return "SELECT"
	default:
		return "UNKNOWN"
	}
}

// CompiledQuery is a parsed statement together with its resolved table
// references.
type CompiledQuery struct {
	Statement    parser.Statement
	QueryType    QueryType
	ResolvedRefs *ResolvedReferences
}

// QueryCompiler resolves FROM/JOIN table references against a catalog.
type QueryCompiler struct {
	catalog CatalogManager
}

// NewQueryCompiler creates a QueryCompiler backed by catalog.
func NewQueryCompiler(catalog CatalogManager) *QueryCompiler {
	return &QueryCompiler{catalog: catalog}
}

// Compile resolves every table reference a SELECT statement names. It
// rejects any statement kind other than *parser.SelectStatement, since this
// compiler only ever sees what ParseStatement is willing to produce.
func (qc *QueryCompiler) Compile(stmt parser.Statement) (*CompiledQuery, error) {
	sel, ok := stmt.(*parser.SelectStatement)
	if !ok {
		return nil, fmt.Errorf("compiler: unsupported statement type %T", stmt)
	}
	if sel.From == nil {
		return nil, fmt.Errorf("compiler: SELECT has no FROM clause")
	}

	refs := NewResolvedReferences()
	if err := qc.resolveTable(sel.From.Table, refs); err != nil {
		return nil, err
	}
	for _, join := range sel.From.Joins {
		if err := qc.resolveTable(join.Table, refs); err != nil {
			return nil, err
		}
	}

	return &CompiledQuery{
		Statement:    sel,
		QueryType:    QueryTypeSelect,
		ResolvedRefs: refs,
	}, nil
}

// resolveTable looks up ident.Value in the catalog and registers it under
// its alias (or its own name, when unaliased) so later column lookups can
// find it by the name the query actually uses.
func (qc *QueryCompiler) resolveTable(ident *parser.Identifier, refs *ResolvedReferences) error {
	table, err := qc.catalog.GetTable(ident.Value)
	if err != nil {
		return fmt.Errorf("compiler: %w", err)
	}
	refName := ident.Value
	if ident.Alias != "" {
		refName = ident.Alias
	}
	refs.AddTable(refName, table)
	return nil
}

// CatalogManager is the minimal catalog surface the compiler and the
// frontend need: resolving a table name to its column metadata.
type CatalogManager interface {
	GetTable(name string) (*TableMetadata, error)
}

// ResolvedReferences maps the reference names (aliases, or bare table names)
// a query actually uses to the catalog metadata they resolved to.
type ResolvedReferences struct {
	tables map[string]*TableMetadata
}

// NewResolvedReferences creates an empty ResolvedReferences.
func NewResolvedReferences() *ResolvedReferences {
	return &ResolvedReferences{tables: make(map[string]*TableMetadata)}
}

// AddTable registers table under refName (an alias or the table's own name).
func (rr *ResolvedReferences) AddTable(refName string, table *TableMetadata) {
	rr.tables[strings.ToLower(refName)] = table
}

// GetTable looks up a previously resolved reference name.
func (rr *ResolvedReferences) GetTable(refName string) (*TableMetadata, bool) {
	t, ok := rr.tables[strings.ToLower(refName)]
	return t, ok
}

// Tables returns every resolved table, for resolving an unqualified column
// reference against whichever of them declares it.
func (rr *ResolvedReferences) Tables() []*TableMetadata {
	tables := make([]*TableMetadata, 0, len(rr.tables))
	for _, t := range rr.tables {
		tables = append(tables, t)
	}
	return tables
}

// DataType is a column's catalog type. The set is limited to what the
// optimizer's demo catalog and tests need; a front end for a richer schema
// would grow this enum without touching anything downstream of ColumnMetadata.
type DataType int

const (
	DataTypeUnknown DataType = iota
	DataTypeInteger
	DataTypeReal
	DataTypeText
)

func (dt DataType) String() string {
	switch dt {
	case DataTypeInteger:
		return "INTEGER"
	case DataTypeReal:
		return "REAL"
	case DataTypeText:
		return "TEXT"
	default:
		return "UNKNOWN"
	}
}

// TableMetadata is one catalog table: its columns, in declaration order,
// with each column's position recorded for the contract layer's key-by-
// position addressing (contract.Match/Reduce key fields are []int).
type TableMetadata struct {
	Name    string
	Columns []*ColumnMetadata

	byName map[string]*ColumnMetadata
}

// NewTableMetadata creates an empty TableMetadata named name.
func NewTableMetadata(name string) *TableMetadata {
	return &TableMetadata{Name: name, byName: make(map[string]*ColumnMetadata)}
}

// AddColumn appends col, assigning it the next column position.
func (tm *TableMetadata) AddColumn(col *ColumnMetadata) {
	col.Position = len(tm.Columns)
	tm.Columns = append(tm.Columns, col)
	tm.byName[strings.ToLower(col.Name)] = col
}

// GetColumn looks up a column by name.
func (tm *TableMetadata) GetColumn(name string) (*ColumnMetadata, error) {
	col, ok := tm.byName[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("column not found: %s.%s", tm.Name, name)
	}
	return col, nil
}

// ColumnMetadata is one catalog column.
type ColumnMetadata struct {
	Name     string
	DataType DataType
	Position int
}

// NewColumnMetadata creates a ColumnMetadata; Position is assigned once the
// column is added to a TableMetadata.
func NewColumnMetadata(name string, dataType DataType) *ColumnMetadata {
	return &ColumnMetadata{Name: name, DataType: dataType}
}
