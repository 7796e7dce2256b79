package legend

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dd0wney/cyberdna/pkg/workflow"
)

// Document is the persisted form of a legend
type Document struct {
	Metadata   Metadata                           `json:"metadata"`
	Locations  map[workflow.Address]LocationEntry `json:"locations"`
	Categories map[string]CategoryGroup           `json:"categories"`
	Navigation Navigation                         `json:"navigation"`
}

// Document exports the legend for persistence
func (l *Legend) Document() *Document {
	if l == nil {
		return nil
	}
	doc := &Document{
		Metadata:   l.Metadata(),
		Locations:  make(map[workflow.Address]LocationEntry, len(l.locations)),
		Categories: make(map[string]CategoryGroup, len(l.categories)),
		Navigation: l.Navigation(),
	}
	for addr, loc := range l.locations {
		doc.Locations[addr] = loc.clone()
	}
	for name, g := range l.categories {
		doc.Categories[name] = cloneGroup(g)
	}
	return doc
}

// FromDocument restores a legend snapshot from its persisted form.
// Address order is taken from metadata.address_order; locations missing
// from that list are rejected.
func FromDocument(doc *Document) (*Legend, error) {
	if doc == nil {
		return nil, ErrNoLegend
	}
	if len(doc.Metadata.AddressOrder) != len(doc.Locations) {
		return nil, fmt.Errorf("legend document: address_order has %d entries, locations has %d",
			len(doc.Metadata.AddressOrder), len(doc.Locations))
	}

	l := &Legend{
		metadata:   doc.Metadata,
		locations:  make(map[workflow.Address]LocationEntry, len(doc.Locations)),
		coords:     make(map[workflow.Address]workflow.Coordinate, len(doc.Locations)),
		order:      make([]workflow.Address, 0, len(doc.Locations)),
		categories: make(map[string]CategoryGroup, len(doc.Categories)),
		navigation: doc.Navigation,
	}

	for _, addr := range doc.Metadata.AddressOrder {
		loc, ok := doc.Locations[addr]
		if !ok {
			return nil, fmt.Errorf("legend document: address %s listed in order but has no location", addr)
		}
		l.locations[addr] = loc.clone()
		l.coords[addr] = loc.Coordinates3D
		l.order = append(l.order, addr)
	}

	l.categoryOrder = append([]string(nil), doc.Metadata.Categories...)
	for name, g := range doc.Categories {
		l.categories[name] = cloneGroup(g)
	}
	for name := range doc.Categories {
		if !contains(l.categoryOrder, name) {
			l.categoryOrder = append(l.categoryOrder, name)
		}
	}

	return l, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// WriteJSON writes the document as indented JSON
func (d *Document) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

// ReadDocument decodes a JSON legend document
func ReadDocument(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode legend document: %w", err)
	}
	return &doc, nil
}
