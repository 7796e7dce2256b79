package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/dd0wney/cyberdna/pkg/config"
	"github.com/dd0wney/cyberdna/pkg/events"
	"github.com/dd0wney/cyberdna/pkg/legend"
	"github.com/dd0wney/cyberdna/pkg/logging"
	"github.com/dd0wney/cyberdna/pkg/router"
	"github.com/dd0wney/cyberdna/pkg/store"
	"github.com/dd0wney/cyberdna/pkg/workflow"
	"github.com/dd0wney/cyberdna/pkg/workspace"
)

const usage = `usage: cyberdna <command> [flags] [args]

commands:
  legend  -map FILE [-out FILE] [-save NAME]  build and print the legend
  lookup  -map FILE                           compact address table
  route   -map FILE TARGET                    route to one address
  path    -map FILE START TARGET              forward path between addresses
  nearby  -map FILE [-radius R] ADDRESS       addresses near ADDRESS
  locate  -map FILE [-tolerance T] X Y Z      address at a coordinate
  order   -map FILE [TARGET]                  execution or topological order
  saved                                       list legends in the store
  summon  [-registry FILE]                    interactive function registry
  watch   -url URL [-topic T]                 print events from a server

every command accepts -config FILE`

// env carries the shared state of one invocation
type env struct {
	cfg    *config.Config
	logger logging.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

type command func(e *env, fs *flag.FlagSet, args []string) error

var commands = map[string]command{
	"legend": cmdLegend,
	"lookup": cmdLookup,
	"route":  cmdRoute,
	"path":   cmdPath,
	"nearby": cmdNearby,
	"locate": cmdLocate,
	"order":  cmdOrder,
	"saved":  cmdSaved,
	"summon": cmdSummon,
	"watch":  cmdWatch,
}

var errUsage = errors.New("bad usage")

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(stderr, usage)
		if len(args) == 0 {
			return 2
		}
		return 0
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n%s\n", args[0], usage)
		return 2
	}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.String("config", "", "YAML config file")

	e := &env{stdin: stdin, stdout: stdout, stderr: stderr}
	err := cmd(e, fs, args[1:])
	if err == nil {
		return 0
	}
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if errors.Is(err, errUsage) {
		fmt.Fprintf(stderr, "%v\n\n%s\n", err, usage)
		return 2
	}
	fmt.Fprintf(stderr, "cyberdna %s: %v\n", args[0], err)
	return 1
}

// parse parses flags and loads the configuration named by -config
func (e *env) parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	path := ""
	if f := fs.Lookup("config"); f != nil {
		path = f.Value.String()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	e.cfg = cfg
	e.logger = logging.NewJSONLogger(e.stderr, logging.ParseLevel(cfg.Log.Level))
	return nil
}

// load builds a workspace from the -map file
func (e *env) load(mapPath string, st store.Store) (*workspace.Workspace, *workspace.Snapshot, error) {
	if mapPath == "" {
		return nil, nil, fmt.Errorf("%w: -map is required", errUsage)
	}
	ws := workspace.New(e.cfg, workspace.Options{Logger: e.logger, Store: st})
	snap, err := ws.LoadFile(context.Background(), mapPath)
	if err != nil {
		return nil, nil, err
	}
	return ws, snap, nil
}

func writeDocument(path string, doc *legend.Document) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := doc.WriteJSON(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (e *env) printJSON(v any) error {
	enc := json.NewEncoder(e.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func cmdLegend(e *env, fs *flag.FlagSet, args []string) error {
	mapPath := fs.String("map", "", "workflow map file")
	out := fs.String("out", "", "write the legend here instead of stdout")
	save := fs.String("save", "", "also persist the legend to the configured store under this name")
	if err := e.parse(fs, args); err != nil {
		return err
	}

	ctx := context.Background()
	var st store.Store
	if *save != "" {
		var err error
		st, err = store.Open(ctx, e.cfg.Store, nil, e.logger)
		if err != nil {
			return err
		}
		defer st.Close()
	}

	ws, snap, err := e.load(*mapPath, st)
	if err != nil {
		return err
	}

	doc := snap.Legend.Document()
	if *out != "" {
		if err := writeDocument(*out, doc); err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "legend written to %s (%d locations)\n", *out, snap.Legend.Len())
	} else if err := doc.WriteJSON(e.stdout); err != nil {
		return err
	}

	if *save != "" {
		if err := ws.Save(ctx, *save); err != nil {
			return err
		}
		fmt.Fprintf(e.stderr, "saved as %q in %s store\n", *save, st.Backend())
	}
	return nil
}

func cmdLookup(e *env, fs *flag.FlagSet, args []string) error {
	mapPath := fs.String("map", "", "workflow map file")
	if err := e.parse(fs, args); err != nil {
		return err
	}
	_, snap, err := e.load(*mapPath, nil)
	if err != nil {
		return err
	}
	return e.printJSON(snap.Legend.AddressLookup())
}

func cmdRoute(e *env, fs *flag.FlagSet, args []string) error {
	mapPath := fs.String("map", "", "workflow map file")
	if err := e.parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: route takes one TARGET", errUsage)
	}
	_, snap, err := e.load(*mapPath, nil)
	if err != nil {
		return err
	}
	route, err := snap.Router.DirectRoute(workflow.Address(fs.Arg(0)))
	if err != nil {
		return err
	}
	return e.printJSON(route)
}

func cmdPath(e *env, fs *flag.FlagSet, args []string) error {
	mapPath := fs.String("map", "", "workflow map file")
	if err := e.parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("%w: path takes START and TARGET", errUsage)
	}
	_, snap, err := e.load(*mapPath, nil)
	if err != nil {
		return err
	}
	path, ok := snap.Router.FindOptimalPath(workflow.Address(fs.Arg(0)), workflow.Address(fs.Arg(1)))
	if !ok {
		return fmt.Errorf("no forward path from %s to %s", fs.Arg(0), fs.Arg(1))
	}
	return e.printJSON(path)
}

func cmdNearby(e *env, fs *flag.FlagSet, args []string) error {
	mapPath := fs.String("map", "", "workflow map file")
	radius := fs.Float64("radius", -1, "search radius (default legend.radius)")
	if err := e.parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: nearby takes one ADDRESS", errUsage)
	}
	if *radius < 0 {
		*radius = e.cfg.Legend.Radius
	}
	_, snap, err := e.load(*mapPath, nil)
	if err != nil {
		return err
	}
	return e.printJSON(snap.Legend.Nearby(workflow.Address(fs.Arg(0)), *radius))
}

func cmdLocate(e *env, fs *flag.FlagSet, args []string) error {
	mapPath := fs.String("map", "", "workflow map file")
	tolerance := fs.Float64("tolerance", -1, "match tolerance (default legend.tolerance)")
	if err := e.parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 3 {
		return fmt.Errorf("%w: locate takes X Y Z", errUsage)
	}
	var coord workflow.Coordinate
	for i := range coord {
		v, err := strconv.ParseFloat(fs.Arg(i), 64)
		if err != nil {
			return fmt.Errorf("%w: coordinate %q: %v", errUsage, fs.Arg(i), err)
		}
		coord[i] = v
	}
	if *tolerance < 0 {
		*tolerance = e.cfg.Legend.Tolerance
	}
	_, snap, err := e.load(*mapPath, nil)
	if err != nil {
		return err
	}
	_, loc, ok := snap.Legend.FindByLocation(coord, *tolerance)
	if !ok {
		return fmt.Errorf("no address within %g of %v", *tolerance, coord)
	}
	return e.printJSON(loc)
}

func cmdOrder(e *env, fs *flag.FlagSet, args []string) error {
	mapPath := fs.String("map", "", "workflow map file")
	if err := e.parse(fs, args); err != nil {
		return err
	}
	_, snap, err := e.load(*mapPath, nil)
	if err != nil {
		return err
	}

	var order []workflow.Address
	switch fs.NArg() {
	case 0:
		order, err = snap.Graph.TopologicalOrder()
	case 1:
		order, err = snap.Router.ExecutionOrder(workflow.Address(fs.Arg(0)))
	default:
		return fmt.Errorf("%w: order takes at most one TARGET", errUsage)
	}
	if err != nil {
		var cycle *router.CycleError
		if errors.As(err, &cycle) {
			fmt.Fprintf(e.stderr, "cycle: %v\n", cycle.Cycle)
		}
		return err
	}
	return e.printJSON(order)
}

func cmdSaved(e *env, fs *flag.FlagSet, args []string) error {
	if err := e.parse(fs, args); err != nil {
		return err
	}
	ctx := context.Background()
	st, err := store.Open(ctx, e.cfg.Store, nil, e.logger)
	if err != nil {
		return err
	}
	defer st.Close()

	names, err := st.List(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(e.stdout, name)
	}
	return nil
}

func cmdWatch(e *env, fs *flag.FlagSet, args []string) error {
	url := fs.String("url", "", "event publisher URL, e.g. tcp://127.0.0.1:5560")
	topic := fs.String("topic", "", "only this topic (default all)")
	count := fs.Int("n", 0, "exit after n events (0 = forever)")
	if err := e.parse(fs, args); err != nil {
		return err
	}
	if *url == "" {
		*url = e.cfg.Events.URL
	}
	if *url == "" {
		return fmt.Errorf("%w: -url is required", errUsage)
	}

	sub, err := events.Dial(*url)
	if err != nil {
		return err
	}
	defer sub.Close()
	if err := sub.Subscribe(*topic); err != nil {
		return err
	}

	for seen := 0; *count == 0 || seen < *count; seen++ {
		ev, err := sub.Recv(0)
		if err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "%s %s %s %v\n", ev.Time.Format(time.RFC3339), ev.Topic, ev.SnapshotID, ev.Data)
	}
	return nil
}
