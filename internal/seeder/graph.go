package seeder

import (
	"fmt"

	"github.com/Lumos-Labs-HQ/dentseed/internal/types"
)

// DependencyGraph orders tables so every parent precedes its children.
// Ties are broken by registration order, never by map iteration.
type DependencyGraph struct {
	tables map[string]*types.TableInfo
	names  []string
	order  []string
}

func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		tables: make(map[string]*types.TableInfo),
	}
}

func (g *DependencyGraph) AddTable(table *types.TableInfo) {
	if _, exists := g.tables[table.Name]; !exists {
		g.names = append(g.names, table.Name)
	}
	g.tables[table.Name] = table
}

func (g *DependencyGraph) BuildInsertionOrder() ([]string, error) {
	visited := make(map[string]bool)
	temp := make(map[string]bool)
	var order []string

	var visit func(string) error
	visit = func(tableName string) error {
		if temp[tableName] {
			return fmt.Errorf("circular dependency detected involving table: %s", tableName)
		}
		if visited[tableName] {
			return nil
		}

		table, ok := g.tables[tableName]
		if !ok {
			return fmt.Errorf("unknown parent table: %s", tableName)
		}

		temp[tableName] = true
		for _, dep := range table.Parents {
			if dep == tableName {
				continue
			}
			if err := visit(dep); err != nil {
				return err
			}
		}
		temp[tableName] = false
		visited[tableName] = true
		order = append(order, tableName)
		return nil
	}

	for _, name := range g.names {
		if err := visit(name); err != nil {
			return nil, err
		}
	}

	g.order = order
	return order, nil
}

func (g *DependencyGraph) GetOrder() []string {
	return g.order
}

// TruncationOrder is the insertion order reversed, children first.
func (g *DependencyGraph) TruncationOrder() ([]string, error) {
	order, err := g.BuildInsertionOrder()
	if err != nil {
		return nil, err
	}
	rev := make([]string, len(order))
	for i, name := range order {
		rev[len(order)-1-i] = name
	}
	return rev, nil
}

// TableGraph returns the graph of every seeded table.
func TableGraph() *DependencyGraph {
	g := NewDependencyGraph()
	for i := range types.Tables {
		g.AddTable(&types.Tables[i])
	}
	return g
}

// InsertionOrder is the pipeline order of the seeded tables.
func InsertionOrder() []string {
	order, err := TableGraph().BuildInsertionOrder()
	if err != nil {
		panic(err)
	}
	return order
}

// TruncationOrder is InsertionOrder reversed.
func TruncationOrder() []string {
	order, err := TableGraph().TruncationOrder()
	if err != nil {
		panic(err)
	}
	return order
}
