// Package categorize assigns workflow categories to processes by keyword.
package categorize

import (
	"sort"
	"strings"
	"unicode"

	"github.com/dd0wney/cyberdna/pkg/workflow"
)

// Rule maps command words to a category. Keywords match whole words only;
// Stems match any word they prefix ("encrypt" covers "encrypted").
type Rule struct {
	Category string
	Keywords []string
	Stems    []string
}

func (r Rule) matches(word string) bool {
	for _, kw := range r.Keywords {
		if word == kw {
			return true
		}
	}
	for _, stem := range r.Stems {
		if strings.HasPrefix(word, stem) {
			return true
		}
	}
	return false
}

// DefaultRules are checked in order; the first match wins
var DefaultRules = []Rule{
	{
		Category: workflow.CategoryError,
		Keywords: []string{"catch", "recover", "panic", "raise", "retry", "fail", "fails", "failed", "failure", "abort"},
		Stems:    []string{"error", "except"},
	},
	{
		Category: workflow.CategoryCrypto,
		Keywords: []string{"hash", "sign", "signed", "signs", "signing", "signature", "cipher", "digest", "secret", "hmac"},
		Stems:    []string{"encrypt", "decrypt", "verif"},
	},
	{
		Category: workflow.CategoryNetwork,
		Keywords: []string{"http", "https", "fetch", "request", "requests", "send", "sends", "receive", "api", "url"},
		Stems:    []string{"socket", "download", "upload", "connect"},
	},
	{
		Category: workflow.CategoryIO,
		Keywords: []string{"read", "reads", "reading", "write", "writes", "written", "open", "file", "files", "save", "load", "loads", "input", "output", "log"},
		Stems:    []string{"print"},
	},
	{
		Category: workflow.CategoryData,
		Keywords: []string{"parse", "parsed", "parser", "parsing", "store", "query", "data", "json", "yaml", "record", "records", "map"},
		Stems:    []string{"transform", "filter"},
	},
	{
		Category: workflow.CategoryComputation,
		Keywords: []string{"sum", "sort", "sorted", "count", "score", "math", "add", "multiply", "divide", "totals"},
		Stems:    []string{"comput", "calculat"},
	},
	{
		Category: workflow.CategoryControl,
		Keywords: []string{"if", "else", "loop", "while", "for", "call", "calls", "return", "switch", "spawn", "fork", "then", "def"},
	},
	{
		Category: workflow.CategoryUI,
		Keywords: []string{"show", "click", "button", "view", "draw", "prompt"},
		Stems:    []string{"render", "display"},
	},
}

// Categorizer assigns categories and remembers the resulting workflows
type Categorizer struct {
	rules []Rule
}

// New creates a categorizer. No rules means DefaultRules.
func New(rules ...Rule) *Categorizer {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Categorizer{rules: rules}
}

// Classify returns the category for a single command
func (c *Categorizer) Classify(command string) string {
	words := Words(command)
	for _, rule := range c.rules {
		for _, w := range words {
			if rule.matches(w) {
				return rule.Category
			}
		}
	}
	return workflow.CategoryGeneral
}

// Categorize returns a copy of cmap with every category filled in, plus
// the workflow grouping. Categories already set on a process are kept.
func (c *Categorizer) Categorize(cmap *workflow.CategorizedMap) (*workflow.CategorizedMap, *Workflows) {
	out := workflow.NewCategorizedMap()
	wf := newWorkflows()

	for addr, d := range cmap.All() {
		d = d.Clone()
		if d.Category == "" {
			d.Category = c.Classify(d.Command)
		}
		out.Set(addr, d)
		wf.add(addr, d)
	}
	return out, wf
}

// Words lowercases command and splits it into letter runs
func Words(command string) []string {
	return strings.FieldsFunc(strings.ToLower(command), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}

// Workflows groups addresses by category. It satisfies legend.Catalog.
type Workflows struct {
	order   []string
	members map[string][]workflow.Address
	verbs   map[string]map[string]struct{}
}

func newWorkflows() *Workflows {
	w := &Workflows{
		members: make(map[string][]workflow.Address),
		verbs:   make(map[string]map[string]struct{}),
	}
	for _, cat := range workflow.KnownCategories {
		w.order = append(w.order, cat)
		w.members[cat] = []workflow.Address{}
	}
	return w
}

func (w *Workflows) add(addr workflow.Address, d workflow.ProcessDetails) {
	if _, ok := w.members[d.Category]; !ok {
		w.order = append(w.order, d.Category)
	}
	w.members[d.Category] = append(w.members[d.Category], addr)

	if words := Words(d.Command); len(words) > 0 {
		if w.verbs[d.Category] == nil {
			w.verbs[d.Category] = make(map[string]struct{})
		}
		w.verbs[d.Category][words[0]] = struct{}{}
	}
}

// Categories returns the known categories followed by any custom ones
func (w *Workflows) Categories() []string {
	return append([]string(nil), w.order...)
}

// Processes returns the members of category in map order
func (w *Workflows) Processes(category string) []workflow.Address {
	return append([]workflow.Address{}, w.members[category]...)
}

// Subcategories returns the sorted distinct first words of the member
// commands of category
func (w *Workflows) Subcategories(category string) []string {
	subs := make([]string, 0, len(w.verbs[category]))
	for v := range w.verbs[category] {
		subs = append(subs, v)
	}
	sort.Strings(subs)
	return subs
}
