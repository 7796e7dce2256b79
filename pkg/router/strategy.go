package router

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/dd0wney/cyberdna/pkg/workflow"
)

// InferenceStrategy decides which addresses a process depends on.
// Implementations return dependencies in the order they should be stored;
// BuildGraph drops self references and duplicates.
type InferenceStrategy interface {
	Name() string
	Infer(addr workflow.Address, details workflow.ProcessDetails, cmap *workflow.CategorizedMap) []workflow.Address
}

// SubstringStrategy records B as a dependency of A when B's lowercased
// address occurs anywhere in A's lowercased command. Overlapping
// addresses collide: a command mentioning "A12" also depends on "A1".
type SubstringStrategy struct{}

func (SubstringStrategy) Name() string { return "substring" }

func (SubstringStrategy) Infer(addr workflow.Address, details workflow.ProcessDetails, cmap *workflow.CategorizedMap) []workflow.Address {
	command := strings.ToLower(details.Command)
	var deps []workflow.Address
	for other := range cmap.All() {
		if other == addr || other == "" {
			continue
		}
		if strings.Contains(command, strings.ToLower(string(other))) {
			deps = append(deps, other)
		}
	}
	return deps
}

// TokenStrategy only matches whole tokens of the command, so "A12" no
// longer implies "A1". Tokens are runs of letters, digits, '_' and '.'.
type TokenStrategy struct{}

func (TokenStrategy) Name() string { return "token" }

func (TokenStrategy) Infer(addr workflow.Address, details workflow.ProcessDetails, cmap *workflow.CategorizedMap) []workflow.Address {
	tokens := tokenize(details.Command)
	var deps []workflow.Address
	for other := range cmap.All() {
		if other == addr || other == "" {
			continue
		}
		if _, ok := tokens[strings.ToLower(string(other))]; ok {
			deps = append(deps, other)
		}
	}
	return deps
}

func tokenize(command string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(command), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.')
	})
	tokens := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		tokens[f] = struct{}{}
		if trimmed := strings.Trim(f, "."); trimmed != "" {
			tokens[trimmed] = struct{}{}
		}
	}
	return tokens
}

// StrategyByName resolves a configured strategy name
func StrategyByName(name string) (InferenceStrategy, error) {
	switch strings.ToLower(name) {
	case "", "substring":
		return SubstringStrategy{}, nil
	case "token":
		return TokenStrategy{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}
