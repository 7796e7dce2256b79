package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dd0wney/cyberdna/pkg/router"
	"github.com/dd0wney/cyberdna/pkg/workflow"
	"github.com/dd0wney/cyberdna/pkg/workspace"
)

var errQueryUsage = errors.New(`try: route A1 | path B1 A1 | order [A1] | nearby A1 [r] | locate x y z | deps A1`)

// evaluate runs one console query against snap and renders the answer
func evaluate(snap *workspace.Snapshot, input string, radius, tolerance float64) (string, error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return "", errQueryUsage
	}
	args := fields[1:]

	switch strings.ToLower(fields[0]) {
	case "route":
		if len(args) != 1 {
			return "", errQueryUsage
		}
		route, err := snap.Router.DirectRoute(workflow.Address(args[0]))
		if err != nil {
			return "", err
		}
		var s strings.Builder
		fmt.Fprintf(&s, "Target:      %s (%s)\n", route.Target, route.Category)
		fmt.Fprintf(&s, "Coordinates: %s\n", formatCoord(route.Coordinates))
		fmt.Fprintf(&s, "Navigation:  %s\n", route.NavigationPath)
		fmt.Fprintf(&s, "Requires:    %s\n", joinAddresses(route.RequiredDependencies, ", "))
		fmt.Fprintf(&s, "Order:       %s", joinAddresses(route.ExecutionOrder, arrow))
		return s.String(), nil

	case "path":
		if len(args) != 2 {
			return "", errQueryUsage
		}
		path, ok := snap.Router.FindOptimalPath(workflow.Address(args[0]), workflow.Address(args[1]))
		if !ok {
			return "", fmt.Errorf("no forward path from %s to %s", args[0], args[1])
		}
		var s strings.Builder
		fmt.Fprintf(&s, "%d step(s)\n", path.Length)
		for i, addr := range path.Addresses {
			fmt.Fprintf(&s, "  %s  %s\n", addr, formatCoord(path.Coordinates[i]))
		}
		return strings.TrimRight(s.String(), "\n"), nil

	case "order":
		var (
			order []workflow.Address
			err   error
		)
		switch len(args) {
		case 0:
			order, err = snap.Graph.TopologicalOrder()
		case 1:
			order, err = snap.Router.ExecutionOrder(workflow.Address(args[0]))
		default:
			return "", errQueryUsage
		}
		if err != nil {
			return "", err
		}
		return joinAddresses(order, arrow), nil

	case "nearby":
		if len(args) < 1 || len(args) > 2 {
			return "", errQueryUsage
		}
		if len(args) == 2 {
			r, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return "", fmt.Errorf("radius %q: %w", args[1], err)
			}
			radius = r
		}
		nearby := snap.Legend.Nearby(workflow.Address(args[0]), radius)
		if len(nearby) == 0 {
			return fmt.Sprintf("nothing within %g of %s", radius, args[0]), nil
		}
		var s strings.Builder
		for _, n := range nearby {
			fmt.Fprintf(&s, "%-8s %6.3f  %s\n", n.Address, n.Distance, n.Location.Command)
		}
		return strings.TrimRight(s.String(), "\n"), nil

	case "locate":
		if len(args) != 3 {
			return "", errQueryUsage
		}
		var coord workflow.Coordinate
		for i, a := range args {
			v, err := strconv.ParseFloat(a, 64)
			if err != nil {
				return "", fmt.Errorf("coordinate %q: %w", a, err)
			}
			coord[i] = v
		}
		addr, loc, ok := snap.Legend.FindByLocation(coord, tolerance)
		if !ok {
			return "", fmt.Errorf("no address within %g of %s", tolerance, formatCoord(coord))
		}
		return fmt.Sprintf("%s  %s  %s", addr, loc.Category, loc.Command), nil

	case "deps":
		if len(args) != 1 {
			return "", errQueryUsage
		}
		addr := workflow.Address(args[0])
		if !snap.Graph.Has(addr) {
			return "", fmt.Errorf("%w: %s", router.ErrNotFound, addr)
		}
		return fmt.Sprintf("depends on:  %s\nrequired by: %s",
			joinAddresses(snap.Graph.DependsOn(addr), ", "),
			joinAddresses(snap.Graph.RequiredBy(addr), ", ")), nil
	}
	return "", errQueryUsage
}

const arrow = " → "

func joinAddresses(addrs []workflow.Address, sep string) string {
	if len(addrs) == 0 {
		return "-"
	}
	parts := make([]string, len(addrs))
	for i, a := range addrs {
		parts[i] = string(a)
	}
	return strings.Join(parts, sep)
}

func formatCoord(c workflow.Coordinate) string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", c[0], c[1], c[2])
}
