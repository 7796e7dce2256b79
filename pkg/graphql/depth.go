package graphql

import (
	"fmt"
	"strings"

	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
)

// DefaultMaxDepth bounds nested selections. The deepest query the schema
// allows, nearby { location { spiralPosition { strand } } }, has depth 4.
const DefaultMaxDepth = 6

// QueryDepth returns the deepest selection nesting of any operation in
// query. Fragment spreads are followed.
func QueryDepth(query string) (int, error) {
	doc, err := parser.Parse(parser.ParseParams{Source: query})
	if err != nil {
		return 0, fmt.Errorf("failed to parse query: %w", err)
	}

	fragments := make(map[string]*ast.FragmentDefinition)
	for _, def := range doc.Definitions {
		if frag, ok := def.(*ast.FragmentDefinition); ok {
			fragments[frag.Name.Value] = frag
		}
	}

	maxDepth := 0
	for _, def := range doc.Definitions {
		if op, ok := def.(*ast.OperationDefinition); ok {
			d := selectionDepth(op.SelectionSet, 0, fragments, map[string]bool{})
			if d > maxDepth {
				maxDepth = d
			}
		}
	}
	return maxDepth, nil
}

func selectionDepth(set *ast.SelectionSet, depth int, fragments map[string]*ast.FragmentDefinition, seen map[string]bool) int {
	if set == nil || len(set.Selections) == 0 {
		return depth
	}
	maxDepth := depth + 1
	for _, selection := range set.Selections {
		var d int
		switch sel := selection.(type) {
		case *ast.Field:
			if strings.HasPrefix(sel.Name.Value, "__") {
				continue
			}
			d = selectionDepth(sel.SelectionSet, depth+1, fragments, seen)
		case *ast.InlineFragment:
			d = selectionDepth(sel.SelectionSet, depth, fragments, seen)
		case *ast.FragmentSpread:
			name := sel.Name.Value
			frag, ok := fragments[name]
			if !ok || seen[name] {
				continue
			}
			seen[name] = true
			d = selectionDepth(frag.SelectionSet, depth, fragments, seen)
			delete(seen, name)
		}
		if d > maxDepth {
			maxDepth = d
		}
	}
	return maxDepth
}

// ValidateQueryDepth rejects queries nested deeper than maxDepth
func ValidateQueryDepth(query string, maxDepth int) error {
	depth, err := QueryDepth(query)
	if err != nil {
		return err
	}
	if depth > maxDepth {
		return fmt.Errorf("query depth %d exceeds maximum allowed depth %d", depth, maxDepth)
	}
	return nil
}
