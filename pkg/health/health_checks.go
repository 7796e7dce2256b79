package health

// LegendCheck is unhealthy until a legend has been built. current returns
// the snapshot ID and located address count.
func LegendCheck(current func() (snapshotID string, located int, err error)) CheckFunc {
	return func() Check {
		id, located, err := current()
		if err != nil {
			return Check{Status: StatusUnhealthy, Message: err.Error()}
		}
		return Check{
			Status:  StatusHealthy,
			Message: "Legend loaded",
			Details: map[string]any{"snapshot_id": id, "located": located},
		}
	}
}

// StoreCheck pings the legend store
func StoreCheck(backend string, ping func() error) CheckFunc {
	return func() Check {
		check := Check{Details: map[string]any{"backend": backend}}
		if err := ping(); err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
		} else {
			check.Status = StatusHealthy
			check.Message = "Reachable"
		}
		return check
	}
}

// GraphCheck is degraded while the dependency graph has cycles, since
// execution order fails for every address on one
func GraphCheck(cycles func() (int, error)) CheckFunc {
	return func() Check {
		n, err := cycles()
		switch {
		case err != nil:
			return Check{Status: StatusUnhealthy, Message: err.Error()}
		case n > 0:
			return Check{Status: StatusDegraded, Message: "Dependency cycles present", Details: map[string]any{"cycles": n}}
		default:
			return Check{Status: StatusHealthy, Message: "Acyclic"}
		}
	}
}
