// Package graphql exposes the workspace's legend and router over a
// GraphQL schema.
package graphql

import (
	"errors"
	"fmt"

	"github.com/graphql-go/graphql"

	"github.com/dd0wney/cyberdna/pkg/audit"
	"github.com/dd0wney/cyberdna/pkg/auth"
	"github.com/dd0wney/cyberdna/pkg/workflow"
	"github.com/dd0wney/cyberdna/pkg/workspace"
)

// ErrForbidden is returned by mutations when the caller is not an operator
var ErrForbidden = errors.New("operator role required")

// SchemaOptions configures the schema
type SchemaOptions struct {
	// RequireOperator makes mutations check the request's token claims
	RequireOperator bool
	// Audit records every mutation attempt when set
	Audit *audit.Trail
}

type resolver struct {
	ws   *workspace.Workspace
	opts SchemaOptions
}

// NewSchema builds the query and mutation schema over ws
func NewSchema(ws *workspace.Workspace, opts SchemaOptions) (graphql.Schema, error) {
	r := &resolver{ws: ws, opts: opts}

	addressArg := &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)}

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"health": &graphql.Field{
				Type:    graphql.String,
				Resolve: func(graphql.ResolveParams) (any, error) { return "ok", nil },
			},
			"legend": &graphql.Field{
				Type:    metadataType,
				Resolve: r.legend,
			},
			"location": &graphql.Field{
				Type:    locationType,
				Args:    graphql.FieldConfigArgument{"address": addressArg},
				Resolve: r.location,
			},
			"locations": &graphql.Field{
				Type: graphql.NewList(locationType),
				Args: graphql.FieldConfigArgument{
					"category": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: r.locations,
			},
			"findByLocation": &graphql.Field{
				Type: locationType,
				Args: graphql.FieldConfigArgument{
					"x":         &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"y":         &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"z":         &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"tolerance": &graphql.ArgumentConfig{Type: graphql.Float},
				},
				Resolve: r.findByLocation,
			},
			"nearby": &graphql.Field{
				Type: graphql.NewList(nearbyType),
				Args: graphql.FieldConfigArgument{
					"address": addressArg,
					"radius":  &graphql.ArgumentConfig{Type: graphql.Float},
				},
				Resolve: r.nearby,
			},
			"categories": &graphql.Field{
				Type:    graphql.NewList(categoryType),
				Resolve: r.categories,
			},
			"navigation": &graphql.Field{
				Type:    navigationType,
				Resolve: r.navigation,
			},
			"path": &graphql.Field{
				Type: pathType,
				Args: graphql.FieldConfigArgument{
					"start":  addressArg,
					"target": addressArg,
				},
				Resolve: r.path,
			},
			"route": &graphql.Field{
				Type:    routeType,
				Args:    graphql.FieldConfigArgument{"target": addressArg},
				Resolve: r.route,
			},
			"executionOrder": &graphql.Field{
				Type:    graphql.NewList(graphql.String),
				Args:    graphql.FieldConfigArgument{"target": addressArg},
				Resolve: r.executionOrder,
			},
			"topologicalOrder": &graphql.Field{
				Type:    graphql.NewList(graphql.String),
				Resolve: r.topologicalOrder,
			},
			"cycles": &graphql.Field{
				Type:    graphql.NewList(graphql.NewList(graphql.String)),
				Resolve: r.cycles,
			},
			"dependency": &graphql.Field{
				Type:    nodeType,
				Args:    graphql.FieldConfigArgument{"address": addressArg},
				Resolve: r.dependency,
			},
			"cached": &graphql.Field{
				Type:    cacheEntryType,
				Args:    graphql.FieldConfigArgument{"address": addressArg},
				Resolve: r.cached,
			},
			"auditLog": &graphql.Field{
				Type:        graphql.NewList(auditEventType),
				Description: "Most recent mutation attempts, newest first",
				Args: graphql.FieldConfigArgument{
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 50},
				},
				Resolve: r.auditLog,
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"reload": &graphql.Field{
				Type:    metadataType,
				Resolve: r.mutation(audit.ActionReload, "", r.reload),
			},
			"cacheResult": &graphql.Field{
				Type: cacheEntryType,
				Args: graphql.FieldConfigArgument{
					"address": addressArg,
					"result":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.mutation(audit.ActionCacheResult, "address", r.cacheResult),
			},
			"clearCache": &graphql.Field{
				Type: graphql.Int,
				Args: graphql.FieldConfigArgument{
					"category": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.mutation(audit.ActionClearCache, "category", r.clearCache),
			},
			"save": &graphql.Field{
				Type: graphql.Boolean,
				Args: graphql.FieldConfigArgument{
					"name": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.mutation(audit.ActionSave, "name", r.save),
			},
		},
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query:    query,
		Mutation: mutation,
	})
	if err != nil {
		return graphql.Schema{}, fmt.Errorf("failed to create schema: %w", err)
	}
	return schema, nil
}

// authorize fails with ErrForbidden when operators are required and the
// caller is not one
func (r *resolver) authorize(p graphql.ResolveParams) (*auth.Claims, error) {
	claims, ok := auth.ClaimsFromContext(p.Context)
	if !r.opts.RequireOperator {
		return claims, nil
	}
	if !ok || !claims.CanWrite() {
		return claims, ErrForbidden
	}
	return claims, nil
}

// mutation guards next with authorize and records the attempt in the
// audit trail. resourceArg names the argument identifying the target.
func (r *resolver) mutation(action audit.Action, resourceArg string, next graphql.FieldResolveFn) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		claims, err := r.authorize(p)
		if err != nil {
			r.record(action, resourceArg, p, claims, audit.StatusDenied, err)
			return nil, err
		}
		out, err := next(p)
		status := audit.StatusSuccess
		if err != nil {
			status = audit.StatusFailure
		}
		r.record(action, resourceArg, p, claims, status, err)
		return out, err
	}
}

func (r *resolver) record(action audit.Action, resourceArg string, p graphql.ResolveParams, claims *auth.Claims, status audit.Status, err error) {
	if r.opts.Audit == nil {
		return
	}
	ev := &audit.Event{Action: action, Status: status}
	if resourceArg != "" {
		ev.Resource, _ = p.Args[resourceArg].(string)
	}
	if claims != nil {
		ev.Subject = claims.Subject
		ev.Role = claims.Role
	}
	if err != nil {
		ev.ErrorMessage = err.Error()
	}
	if snap, serr := r.ws.Snapshot(); serr == nil {
		ev.SnapshotID = snap.Legend.Metadata().SnapshotID
	}
	_ = r.opts.Audit.Log(ev)
}

func addressArgument(p graphql.ResolveParams, name string) workflow.Address {
	s, _ := p.Args[name].(string)
	return workflow.Address(s)
}

func floatArgument(p graphql.ResolveParams, name string, fallback float64) float64 {
	if f, ok := p.Args[name].(float64); ok {
		return f
	}
	return fallback
}
