package compiler

import (
	"fmt"
	"strings"
)

// MockCatalog is a simple in-memory CatalogManager for tests and the CLI's
// built-in demo catalog.
type MockCatalog struct {
	tables map[string]*TableMetadata
}

// NewMockCatalog creates an empty MockCatalog.
func NewMockCatalog() *MockCatalog {
	return &MockCatalog{tables: make(map[string]*TableMetadata)}
}

// AddTable registers table under its own name.
func (mc *MockCatalog) AddTable(table *TableMetadata) {
	mc.tables[strings.ToLower(table.Name)] = table
}

// GetTable implements CatalogManager.
func (mc *MockCatalog) GetTable(name string) (*TableMetadata, error) {
	table, found := mc.tables[strings.ToLower(name)]
	if !found {
		return nil, fmt.Errorf("table not found: %s", name)
	}
	return table, nil
}
