package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/dd0wney/cyberdna/pkg/registry"
)

// shell is the interactive front end of the function registry
type shell struct {
	reg     *registry.Registry
	scanner *bufio.Scanner
	out     io.Writer
}

func cmdSummon(e *env, fs *flag.FlagSet, args []string) error {
	path := fs.String("registry", "", "registry file (default registry.path)")
	if err := e.parse(fs, args); err != nil {
		return err
	}
	if *path == "" {
		*path = e.cfg.Registry.Path
	}

	reg, err := registry.Open(*path, e.logger)
	if err != nil {
		return err
	}

	sh := &shell{reg: reg, scanner: bufio.NewScanner(e.stdin), out: e.stdout}
	fmt.Fprintf(sh.out, "cyberdna summoning shell (%d functions in %s)\n", reg.Len(), *path)
	fmt.Fprintln(sh.out, "Type 'help' for available commands, 'exit' to quit")
	sh.run()
	return nil
}

func (sh *shell) run() {
	for {
		fmt.Fprint(sh.out, ">> ")
		if !sh.scanner.Scan() {
			fmt.Fprintln(sh.out)
			return
		}

		input := strings.TrimSpace(sh.scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Fprintln(sh.out, "Invocation complete.")
			return
		}
		sh.execute(input)
	}
}

func (sh *shell) execute(input string) {
	command, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(command) {
	case "help":
		sh.help()

	case "list", "ls":
		summaries := sh.reg.List()
		if len(summaries) == 0 {
			fmt.Fprintln(sh.out, "(registry is empty)")
		}
		for _, s := range summaries {
			fmt.Fprintf(sh.out, "%s: %s\n", s.SegmentID, s.Title)
		}

	case "summon", "s":
		if arg == "" {
			fmt.Fprintln(sh.out, "Usage: summon <segment-id>")
			return
		}
		fn, err := sh.reg.Summon(arg)
		if err != nil {
			sh.report(err)
			return
		}
		fmt.Fprintf(sh.out, "Summoning %s: %s\n", arg, fn.Title)
		fmt.Fprintf(sh.out, "Traits: %s\n", strings.Join(fn.Traits, ", "))
		fmt.Fprintf(sh.out, "Code:\n%s\n", fn.Code)

	case "add":
		if arg == "" {
			fmt.Fprintln(sh.out, "Usage: add <title>")
			return
		}
		id := sh.prompt("Segment ID (blank to generate): ")
		traits := splitTraits(sh.prompt("Traits (comma separated): "))
		code := sh.readCode()
		id, err := sh.reg.Add(id, arg, code, traits)
		if err != nil {
			sh.report(err)
			return
		}
		fmt.Fprintf(sh.out, "Added %s\n", id)

	case "edit":
		if arg == "" {
			fmt.Fprintln(sh.out, "Usage: edit <segment-id>")
			return
		}
		fn, err := sh.reg.Summon(arg)
		if err != nil {
			sh.report(err)
			return
		}
		if !fn.Editable {
			sh.report(registry.ErrNotEditable)
			return
		}
		fmt.Fprintf(sh.out, "Editing %s: %s\n", arg, fn.Title)
		if err := sh.reg.Edit(arg, sh.readCode()); err != nil {
			sh.report(err)
			return
		}
		fmt.Fprintln(sh.out, "Function updated.")

	case "lock":
		if arg == "" {
			fmt.Fprintln(sh.out, "Usage: lock <segment-id>")
			return
		}
		if err := sh.reg.Lock(arg); err != nil {
			sh.report(err)
			return
		}
		fmt.Fprintf(sh.out, "%s is now read-only\n", arg)

	default:
		fmt.Fprintf(sh.out, "Unknown command: %s (type 'help')\n", command)
	}
}

func (sh *shell) help() {
	fmt.Fprint(sh.out, `Commands:
  list                 list registered functions
  summon <id>          show a function
  add <title>          register a function (code ends with a line containing '.')
  edit <id>            replace the code of an editable function
  lock <id>            make a function read-only
  exit                 leave the shell
`)
}

func (sh *shell) prompt(label string) string {
	fmt.Fprint(sh.out, label)
	if !sh.scanner.Scan() {
		return ""
	}
	return strings.TrimSpace(sh.scanner.Text())
}

// readCode reads lines until a lone "." or end of input
func (sh *shell) readCode() string {
	fmt.Fprintln(sh.out, "Enter code, end with a line containing only '.':")
	var lines []string
	for sh.scanner.Scan() {
		line := sh.scanner.Text()
		if strings.TrimSpace(line) == "." {
			break
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (sh *shell) report(err error) {
	switch {
	case errors.Is(err, registry.ErrFunctionNotFound):
		fmt.Fprintln(sh.out, "Function not found.")
	case errors.Is(err, registry.ErrNotEditable):
		fmt.Fprintln(sh.out, "This function is locked and cannot be edited.")
	default:
		fmt.Fprintf(sh.out, "Error: %v\n", err)
	}
}

func splitTraits(s string) []string {
	var traits []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			traits = append(traits, t)
		}
	}
	return traits
}
