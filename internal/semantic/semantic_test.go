package semantic

import (
	"testing"

	"pactopt/internal/compiler"
	"pactopt/internal/lexer"
	"pactopt/internal/parser"
)

func newTestCatalog() *compiler.MockCatalog {
	catalog := compiler.NewMockCatalog()

	orders := compiler.NewTableMetadata("orders")
	orders.AddColumn(compiler.NewColumnMetadata("id", compiler.DataTypeInteger))
	orders.AddColumn(compiler.NewColumnMetadata("customer_id", compiler.DataTypeInteger))
	orders.AddColumn(compiler.NewColumnMetadata("total", compiler.DataTypeReal))
	catalog.AddTable(orders)

	customers := compiler.NewTableMetadata("customers")
	customers.AddColumn(compiler.NewColumnMetadata("id", compiler.DataTypeInteger))
	customers.AddColumn(compiler.NewColumnMetadata("name", compiler.DataTypeText))
	catalog.AddTable(customers)

	return catalog
}

func compileSQL(t *testing.T, catalog compiler.CatalogManager, sql string) *compiler.CompiledQuery {
	t.Helper()
	p := parser.NewParser(lexer.NewLexer(sql))
	stmt := p.ParseStatement()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	compiled, err := compiler.NewQueryCompiler(catalog).Compile(stmt)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return compiled
}

// TestNewSemanticAnalyzer tests creating a semantic analyzer
func TestNewSemanticAnalyzer(t *testing.T) {
	analyzer := NewSemanticAnalyzer(newTestCatalog())
	if analyzer == nil {
		t.Fatal("Expected analyzer to be created")
	}
	if len(analyzer.rules) == 0 {
		t.Error("Expected default rules to be registered")
	}
}

// TestAnalyzeValidQuery tests that a query whose columns all resolve is valid.
func TestAnalyzeValidQuery(t *testing.T) {
	catalog := newTestCatalog()
	compiled := compileSQL(t, catalog, "SELECT id, total FROM orders WHERE total > 100")

	info, err := NewSemanticAnalyzer(catalog).Analyze(compiled)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !info.IsValid() {
		t.Fatalf("expected a valid query, got errors: %v", info.Errors)
	}
}

// TestAnalyzeUnknownColumnIsInvalid tests that referencing a nonexistent
// column is reported.
func TestAnalyzeUnknownColumnIsInvalid(t *testing.T) {
	catalog := newTestCatalog()
	compiled := compileSQL(t, catalog, "SELECT nonexistent FROM orders")

	info, err := NewSemanticAnalyzer(catalog).Analyze(compiled)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if info.IsValid() {
		t.Fatal("expected an error for an unknown column")
	}
}

// TestAnalyzeAmbiguousColumnIsInvalid tests that an unqualified column shared
// by two joined tables is reported as ambiguous.
func TestAnalyzeAmbiguousColumnIsInvalid(t *testing.T) {
	catalog := newTestCatalog()
	customers, _ := catalog.GetTable("customers")
	customers.AddColumn(compiler.NewColumnMetadata("total", compiler.DataTypeReal))

	sql := "SELECT total FROM orders JOIN customers ON orders.customer_id = customers.id"
	compiled := compileSQL(t, catalog, sql)

	info, err := NewSemanticAnalyzer(catalog).Analyze(compiled)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if info.IsValid() {
		t.Fatal("expected an ambiguous column error")
	}
}

// TestAnalyzeUnqualifiedColumnResolves tests that an unqualified column
// present on exactly one joined table resolves without error.
func TestAnalyzeUnqualifiedColumnResolves(t *testing.T) {
	catalog := newTestCatalog()
	sql := "SELECT name FROM orders JOIN customers ON orders.customer_id = customers.id"
	compiled := compileSQL(t, catalog, sql)

	info, err := NewSemanticAnalyzer(catalog).Analyze(compiled)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !info.IsValid() {
		t.Fatalf("expected a valid query, got errors: %v", info.Errors)
	}
}

// TestAnalyzeUnknownTableQualifierIsInvalid tests that a column qualified by
// a table not named in FROM/JOIN is reported.
func TestAnalyzeUnknownTableQualifierIsInvalid(t *testing.T) {
	catalog := newTestCatalog()
	compiled := compileSQL(t, catalog, "SELECT widgets.id FROM orders")

	info, err := NewSemanticAnalyzer(catalog).Analyze(compiled)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if info.IsValid() {
		t.Fatal("expected an error for an unknown table qualifier")
	}
}

// TestAddRuleRegistersAdditionalRule tests that AddRule extends the analyzer's
// rule set.
func TestAddRuleRegistersAdditionalRule(t *testing.T) {
	analyzer := NewSemanticAnalyzer(newTestCatalog())
	before := len(analyzer.rules)
	analyzer.AddRule(&ColumnReferenceRule{})
	if len(analyzer.rules) != before+1 {
		t.Errorf("expected %d rules, got %d", before+1, len(analyzer.rules))
	}
}
