// Package parser reads workflow maps written in the two codemap
// notations: addressed lines ("A1^: command") and arrow steps ("↑ command").
package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/dd0wney/cyberdna/pkg/logging"
	"github.com/dd0wney/cyberdna/pkg/validation"
	"github.com/dd0wney/cyberdna/pkg/workflow"
)

// The address is matched greedily; splitMarker decides whether a trailing
// "v" belongs to it or to the direction marker.
var linePattern = regexp.MustCompile(`^([A-Za-z0-9]+)([\^v<>\\/]*):\s*(.+)$`)

// Directions maps direction markers to their names
var Directions = map[string]string{
	"^":  "up",
	"v":  "down",
	"<":  "left",
	">":  "right",
	"^/": "up-forward",
	"v/": "down-forward",
	`v\`: "down-backward",
	`^\`: "up-backward",
}

// Options configures a Parser
type Options struct {
	// Strict rejects unrecognised lines and invalid records instead of
	// skipping them
	Strict bool
	Logger logging.Logger
}

// Parser reads the addressed codemap notation
type Parser struct {
	opts   Options
	logger logging.Logger
}

// New creates a parser
func New(opts Options) *Parser {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Parser{opts: opts, logger: logger.With(logging.Component("parser"))}
}

// Parse reads a workflow map. Blank lines and lines starting with '#' are
// ignored. A line indented by four spaces or a tab that follows an
// addressed line becomes its next subprocess ADDR.1, ADDR.2, ...
func (p *Parser) Parse(r io.Reader) (*workflow.CategorizedMap, error) {
	cmap := workflow.NewCategorizedMap()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var current workflow.Address
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		raw := strings.TrimRight(scanner.Text(), " \t\r")
		text := strings.TrimSpace(raw)
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		if current != "" && isIndented(raw) {
			if err := p.addSubprocess(cmap, current, text, lineNo); err != nil {
				return nil, err
			}
			continue
		}

		m := linePattern.FindStringSubmatch(text)
		if m == nil {
			if p.opts.Strict {
				return nil, &SyntaxError{Line: lineNo, Text: text, Reason: "expected ADDRESS[direction]: command"}
			}
			p.logger.Debug("skipping unrecognised line", logging.Int("line", lineNo))
			continue
		}

		addr, direction, ok := splitMarker(m[1], m[2])
		if !ok {
			if p.opts.Strict {
				return nil, &SyntaxError{Line: lineNo, Text: text, Reason: fmt.Sprintf("unknown direction %q", m[2])}
			}
			p.logger.Debug("skipping line with unknown direction", logging.Int("line", lineNo))
			continue
		}
		details := workflow.ProcessDetails{
			Command:      strings.TrimSpace(m[3]),
			Subprocesses: []workflow.Address{},
			Direction:    direction,
		}
		if err := p.check(addr, details, lineNo, text); err != nil {
			return nil, err
		}

		cmap.Set(addr, details)
		current = addr
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read workflow map: %w", err)
	}

	p.logger.Debug("workflow map parsed", logging.Count(cmap.Len()))
	return cmap, nil
}

// splitMarker separates the address from its direction marker. A marker
// that is not a known direction may reclaim a trailing "v" from the
// address ("B1v/" is B1 down-forward). With no marker, a "v" right after
// a digit is read as down ("A1v" is A1), while words keep theirs ("Env").
// It reports false when no split yields a known direction.
func splitMarker(addr, marker string) (workflow.Address, string, bool) {
	n := len(addr)
	if marker == "" {
		if n > 1 && addr[n-1] == 'v' && addr[n-2] >= '0' && addr[n-2] <= '9' {
			return workflow.Address(addr[:n-1]), Directions["v"], true
		}
		return workflow.Address(addr), "", true
	}
	if name, ok := Directions[marker]; ok {
		return workflow.Address(addr), name, true
	}
	if n > 1 && addr[n-1] == 'v' {
		if name, ok := Directions["v"+marker]; ok {
			return workflow.Address(addr[:n-1]), name, true
		}
	}
	return "", "", false
}

func (p *Parser) addSubprocess(cmap *workflow.CategorizedMap, parent workflow.Address, command string, lineNo int) error {
	pd, _ := cmap.Get(parent)
	sub := workflow.Address(fmt.Sprintf("%s.%d", parent, len(pd.Subprocesses)+1))
	details := workflow.ProcessDetails{
		Command:      command,
		Parent:       parent,
		Depth:        pd.Depth + 1,
		Subprocesses: []workflow.Address{},
	}
	if err := p.check(sub, details, lineNo, command); err != nil {
		return err
	}

	pd = pd.Clone()
	pd.Subprocesses = append(pd.Subprocesses, sub)
	cmap.Set(parent, pd)
	cmap.Set(sub, details)
	return nil
}

// check validates a record in strict mode
func (p *Parser) check(addr workflow.Address, d workflow.ProcessDetails, lineNo int, text string) error {
	if !p.opts.Strict {
		return nil
	}
	rec := &validation.ProcessRecord{
		Address:   string(addr),
		Command:   d.Command,
		Category:  d.Category,
		Parent:    string(d.Parent),
		Depth:     d.Depth,
		Direction: d.Direction,
	}
	if err := validation.ValidateProcessRecord(rec); err != nil {
		return &SyntaxError{Line: lineNo, Text: text, Reason: err.Error()}
	}
	return nil
}

func isIndented(line string) bool {
	return strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t")
}

// Parse reads a workflow map with default options
func Parse(r io.Reader) (*workflow.CategorizedMap, error) {
	return New(Options{}).Parse(r)
}

// ParseFile reads a workflow map from path
func ParseFile(path string, opts Options) (*workflow.CategorizedMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workflow map: %w", err)
	}
	defer f.Close()
	return New(opts).Parse(f)
}

// Clone copies the process at src to dst without its subprocesses.
// It reports false when src does not exist.
func Clone(cmap *workflow.CategorizedMap, src, dst workflow.Address) bool {
	d, ok := cmap.Get(src)
	if !ok {
		return false
	}
	d = d.Clone()
	d.Subprocesses = []workflow.Address{}
	cmap.Set(dst, d)
	return true
}
