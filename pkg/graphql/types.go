package graphql

import (
	"github.com/graphql-go/graphql"
)

var coordinateType = graphql.NewList(graphql.Float)

var metadataType = graphql.NewObject(graphql.ObjectConfig{
	Name: "LegendMetadata",
	Fields: graphql.Fields{
		"totalProcesses": &graphql.Field{Type: graphql.Int},
		"located":        &graphql.Field{Type: graphql.Int},
		"spiralBase":     &graphql.Field{Type: graphql.Int},
		"categories":     &graphql.Field{Type: graphql.NewList(graphql.String)},
		"snapshotId":     &graphql.Field{Type: graphql.String},
		"fingerprint":    &graphql.Field{Type: graphql.String},
		"generatedAt":    &graphql.Field{Type: graphql.DateTime},
		"strategy":       &graphql.Field{Type: graphql.String},
		"edges":          &graphql.Field{Type: graphql.Int},
	},
})

var spiralPositionType = graphql.NewObject(graphql.ObjectConfig{
	Name: "SpiralPosition",
	Fields: graphql.Fields{
		"strand":   &graphql.Field{Type: graphql.Int},
		"basePair": &graphql.Field{Type: graphql.Int},
		"angle":    &graphql.Field{Type: graphql.Float},
		"index":    &graphql.Field{Type: graphql.Int},
	},
})

var locationType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Location",
	Fields: graphql.Fields{
		"address":        &graphql.Field{Type: graphql.String},
		"command":        &graphql.Field{Type: graphql.String},
		"category":       &graphql.Field{Type: graphql.String},
		"coordinates":    &graphql.Field{Type: coordinateType},
		"spiralPosition": &graphql.Field{Type: spiralPositionType},
		"parent":         &graphql.Field{Type: graphql.String},
		"depth":          &graphql.Field{Type: graphql.Int},
		"subprocesses":   &graphql.Field{Type: graphql.NewList(graphql.String)},
		"navigationPath": &graphql.Field{Type: graphql.String},
	},
})

var nearbyType = graphql.NewObject(graphql.ObjectConfig{
	Name: "NearbyProcess",
	Fields: graphql.Fields{
		"address":  &graphql.Field{Type: graphql.String},
		"distance": &graphql.Field{Type: graphql.Float},
		"location": &graphql.Field{Type: locationType},
	},
})

var categoryType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Category",
	Fields: graphql.Fields{
		"name":          &graphql.Field{Type: graphql.String},
		"processes":     &graphql.Field{Type: graphql.NewList(graphql.String)},
		"subcategories": &graphql.Field{Type: graphql.NewList(graphql.String)},
		"color":         &graphql.Field{Type: graphql.String},
	},
})

var shortcutType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Shortcut",
	Fields: graphql.Fields{
		"address":  &graphql.Field{Type: graphql.String},
		"category": &graphql.Field{Type: graphql.String},
		"path":     &graphql.Field{Type: graphql.String},
	},
})

var navigationType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Navigation",
	Fields: graphql.Fields{
		"entryPoints":   &graphql.Field{Type: graphql.NewList(shortcutType)},
		"criticalPaths": &graphql.Field{Type: graphql.NewList(shortcutType)},
		"errorHandlers": &graphql.Field{Type: graphql.NewList(shortcutType)},
		"dataFlows":     &graphql.Field{Type: graphql.NewList(shortcutType)},
	},
})

var pathType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Path",
	Fields: graphql.Fields{
		"addresses":   &graphql.Field{Type: graphql.NewList(graphql.String)},
		"length":      &graphql.Field{Type: graphql.Int},
		"coordinates": &graphql.Field{Type: graphql.NewList(coordinateType)},
	},
})

var routeType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Route",
	Fields: graphql.Fields{
		"target":               &graphql.Field{Type: graphql.String},
		"coordinates":          &graphql.Field{Type: coordinateType},
		"navigationPath":       &graphql.Field{Type: graphql.String},
		"requiredDependencies": &graphql.Field{Type: graphql.NewList(graphql.String)},
		"category":             &graphql.Field{Type: graphql.String},
		"executionOrder":       &graphql.Field{Type: graphql.NewList(graphql.String)},
	},
})

var nodeType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Dependency",
	Fields: graphql.Fields{
		"address":    &graphql.Field{Type: graphql.String},
		"category":   &graphql.Field{Type: graphql.String},
		"dependsOn":  &graphql.Field{Type: graphql.NewList(graphql.String)},
		"requiredBy": &graphql.Field{Type: graphql.NewList(graphql.String)},
		"inferred":   &graphql.Field{Type: graphql.Boolean},
	},
})

var cacheEntryType = graphql.NewObject(graphql.ObjectConfig{
	Name: "CacheEntry",
	Fields: graphql.Fields{
		"address":     &graphql.Field{Type: graphql.String},
		"result":      &graphql.Field{Type: graphql.String},
		"timestamp":   &graphql.Field{Type: graphql.DateTime},
		"coordinates": &graphql.Field{Type: coordinateType},
	},
})

var auditEventType = graphql.NewObject(graphql.ObjectConfig{
	Name: "AuditEvent",
	Fields: graphql.Fields{
		"id":         &graphql.Field{Type: graphql.String},
		"timestamp":  &graphql.Field{Type: graphql.DateTime},
		"subject":    &graphql.Field{Type: graphql.String},
		"role":       &graphql.Field{Type: graphql.String},
		"action":     &graphql.Field{Type: graphql.String},
		"resource":   &graphql.Field{Type: graphql.String},
		"status":     &graphql.Field{Type: graphql.String},
		"error":      &graphql.Field{Type: graphql.String},
		"snapshotId": &graphql.Field{Type: graphql.String},
	},
})
