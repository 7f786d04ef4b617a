package frontend

import (
	"testing"

	"pactopt/internal/compiler"
	"pactopt/internal/contract"
	"pactopt/internal/lexer"
	"pactopt/internal/parser"
	"pactopt/internal/semantic"
)

func testCatalog(t *testing.T) *compiler.MockCatalog {
	t.Helper()
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

func buildPlan(t *testing.T, query string) (*contract.Plan, error) {
	t.Helper()
	catalog := testCatalog(t)

	l := lexer.NewLexer(query)
	p := parser.NewParser(l)
	stmt := p.ParseStatement()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}

	qc := compiler.NewQueryCompiler(catalog)
	compiled, err := qc.Compile(stmt)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	analyzer := semantic.NewSemanticAnalyzer(catalog)
	info, err := analyzer.Analyze(compiled)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !info.IsValid() {
		t.Fatalf("expected a valid query, got errors: %v", info.Errors)
	}

	return Build(info, catalog)
}

func TestBuildSimpleSelectProducesSourceMapSink(t *testing.T) {
	plan, err := buildPlan(t, "SELECT id, total FROM orders WHERE total > 100")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(plan.Sinks) != 1 {
		t.Fatalf("expected exactly one sink, got %d", len(plan.Sinks))
	}
	sink := plan.Sinks[0]
	if sink.Kind() != contract.KindSink {
		t.Fatalf("expected the plan's terminal node to be a Sink, got %v", sink.Kind())
	}
	mapNode, ok := sink.Inputs()[0].(*contract.Map)
	if !ok {
		t.Fatalf("a WHERE clause should lower to a Map, got %T", sink.Inputs()[0])
	}
	if _, ok := mapNode.Inputs()[0].(*contract.Source); !ok {
		t.Fatalf("the filter's input should be the FROM table's Source, got %T", mapNode.Inputs()[0])
	}
}

func TestBuildJoinProducesMatchWithResolvedKeys(t *testing.T) {
	plan, err := buildPlan(t, "SELECT orders.id, customers.name FROM orders JOIN customers ON orders.customer_id = customers.id")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	match, ok := plan.Sinks[0].Inputs()[0].(*contract.Match)
	if !ok {
		t.Fatalf("an equi-join ON clause should lower to a Match, got %T", plan.Sinks[0].Inputs()[0])
	}
	if len(match.Keys()) != 1 || match.Keys()[0] != 1 {
		t.Errorf("expected orders.customer_id (position 1) as the left key, got %v", match.Keys())
	}
	if len(match.RightKeys()) != 1 || match.RightKeys()[0] != 0 {
		t.Errorf("expected customers.id (position 0) as the right key, got %v", match.RightKeys())
	}
}

func TestBuildGroupByProducesReduce(t *testing.T) {
	plan, err := buildPlan(t, "SELECT customer_id FROM orders GROUP BY customer_id")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	reduce, ok := plan.Sinks[0].Inputs()[0].(*contract.Reduce)
	if !ok {
		t.Fatalf("a GROUP BY clause should lower to a Reduce, got %T", plan.Sinks[0].Inputs()[0])
	}
	if len(reduce.Keys()) != 1 || reduce.Keys()[0] != 1 {
		t.Errorf("expected orders.customer_id (position 1) as the group key, got %v", reduce.Keys())
	}
}

func TestBuildRejectsNonEquiJoin(t *testing.T) {
	_, err := buildPlan(t, "SELECT orders.id FROM orders JOIN customers ON orders.customer_id = customers.id")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	catalog := testCatalog(t)
	l := lexer.NewLexer("SELECT orders.id FROM orders JOIN customers ON orders.total > customers.id")
	p := parser.NewParser(l)
	stmt := p.ParseStatement()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	qc := compiler.NewQueryCompiler(catalog)
	compiled, err := qc.Compile(stmt)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	analyzer := semantic.NewSemanticAnalyzer(catalog)
	info, _ := analyzer.Analyze(compiled)

	if _, err := Build(info, catalog); err == nil {
		t.Fatal("expected Build to reject a non-equi join condition")
	}
}

func TestParseRejectsNonSelectStatements(t *testing.T) {
	l := lexer.NewLexer("DELETE FROM orders")
	p := parser.NewParser(l)
	stmt := p.ParseStatement()

	if stmt != nil {
		t.Fatalf("expected a nil statement for an unsupported statement kind, got %v", stmt)
	}
	if errs := p.Errors(); len(errs) == 0 {
		t.Fatal("expected a parse error naming the unsupported statement kind")
	}
}
