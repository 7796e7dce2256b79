package workflow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
)

// Entry is one address/details pair of a CategorizedMap
type Entry struct {
	Address Address
	Details ProcessDetails
}

// CategorizedMap maps addresses to process details while remembering
// insertion order. Iteration order is significant: the legend pairs the
// i-th entry with the i-th spiral coordinate.
type CategorizedMap struct {
	entries []Entry
	index   map[Address]int
}

// NewCategorizedMap creates an empty map
func NewCategorizedMap() *CategorizedMap {
	return &CategorizedMap{
		entries: make([]Entry, 0),
		index:   make(map[Address]int),
	}
}

// Set stores details for addr. Re-setting an existing address replaces
// its details but keeps its original position.
func (m *CategorizedMap) Set(addr Address, details ProcessDetails) {
	if m.index == nil {
		m.index = make(map[Address]int)
	}
	if i, ok := m.index[addr]; ok {
		m.entries[i].Details = details
		return
	}
	m.index[addr] = len(m.entries)
	m.entries = append(m.entries, Entry{Address: addr, Details: details})
}

// Get returns the details for addr
func (m *CategorizedMap) Get(addr Address) (ProcessDetails, bool) {
	if m == nil {
		return ProcessDetails{}, false
	}
	i, ok := m.index[addr]
	if !ok {
		return ProcessDetails{}, false
	}
	return m.entries[i].Details, true
}

// Has reports whether addr is present
func (m *CategorizedMap) Has(addr Address) bool {
	if m == nil {
		return false
	}
	_, ok := m.index[addr]
	return ok
}

// Position returns the iteration index of addr, or -1
func (m *CategorizedMap) Position(addr Address) int {
	if m == nil {
		return -1
	}
	if i, ok := m.index[addr]; ok {
		return i
	}
	return -1
}

// Len returns the number of addresses
func (m *CategorizedMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Addresses returns the addresses in iteration order
func (m *CategorizedMap) Addresses() []Address {
	if m == nil {
		return nil
	}
	out := make([]Address, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Address
	}
	return out
}

// Entries returns a copy of the entries in iteration order
func (m *CategorizedMap) Entries() []Entry {
	if m == nil {
		return nil
	}
	return append([]Entry(nil), m.entries...)
}

// All iterates the map in insertion order
func (m *CategorizedMap) All() iter.Seq2[Address, ProcessDetails] {
	return func(yield func(Address, ProcessDetails) bool) {
		if m == nil {
			return
		}
		for _, e := range m.entries {
			if !yield(e.Address, e.Details) {
				return
			}
		}
	}
}

// MarshalJSON encodes the map as a JSON object with keys in iteration order
func (m *CategorizedMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(e.Address))
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.Details)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s: %w", e.Address, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping the document's key order
func (m *CategorizedMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("categorized map: expected object, got %v", tok)
	}

	m.entries = make([]Entry, 0)
	m.index = make(map[Address]int)

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("categorized map: expected string key, got %v", tok)
		}
		var details ProcessDetails
		if err := dec.Decode(&details); err != nil {
			return fmt.Errorf("categorized map: entry %s: %w", key, err)
		}
		m.Set(Address(key), details)
	}

	_, err = dec.Token()
	return err
}
