// Package registry persists summonable function snippets keyed by segment
// ID in a JSON file.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cyberdna/pkg/logging"
	"github.com/dd0wney/cyberdna/pkg/validation"
)

var (
	ErrFunctionNotFound = errors.New("function not found")
	ErrNotEditable      = errors.New("function is not editable")
)

// Function is one registry entry
type Function struct {
	Title     string    `json:"title"`
	Code      string    `json:"code"`
	Traits    []string  `json:"traits"`
	CreatedAt Timestamp `json:"createdAt"`
	Editable  bool      `json:"editable"`
}

// naiveLayout is an ISO 8601 timestamp without a zone, as written by
// registries that record UTC without an offset
const naiveLayout = "2006-01-02T15:04:05.999999999"

// Timestamp is a creation time. It decodes RFC 3339 as well as the naive
// ISO form, which is read as UTC, and always encodes RFC 3339.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON accepts RFC 3339, naive ISO 8601 and null
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		ts.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("createdAt: %w", err)
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		ts.Time = t
		return nil
	}
	t, err := time.ParseInLocation(naiveLayout, s, time.UTC)
	if err != nil {
		return fmt.Errorf("createdAt: unrecognised timestamp %q", s)
	}
	ts.Time = t
	return nil
}

// Summary is the list view of a function
type Summary struct {
	SegmentID string `json:"segment_id"`
	Title     string `json:"title"`
}

// Registry is a file-backed function registry. Every mutation rewrites
// the file.
type Registry struct {
	mu        sync.RWMutex
	path      string
	functions map[string]Function
	logger    logging.Logger
}

// Open loads the registry at path. A missing file yields an empty
// registry; the file is created on the first mutation.
func Open(path string, logger logging.Logger) (*Registry, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	r := &Registry{
		path:      path,
		functions: make(map[string]Function),
		logger:    logger.With(logging.Component("registry")),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &r.functions); err != nil {
			return nil, fmt.Errorf("failed to decode registry %s: %w", path, err)
		}
	}
	r.logger.Debug("registry loaded", logging.Path(path), logging.Count(len(r.functions)))
	return r, nil
}

// Add registers a function, replacing any existing entry with the same
// ID. An empty id is replaced by a generated one, which is returned.
func (r *Registry) Add(id, title, code string, traits []string) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if traits == nil {
		traits = []string{}
	}
	rec := &validation.FunctionRecord{SegmentID: id, Title: title, Code: code, Traits: traits}
	if err := validation.ValidateFunctionRecord(rec); err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	fn := Function{
		Title:     title,
		Code:      code,
		Traits:    append([]string{}, traits...),
		CreatedAt: Timestamp{time.Now().UTC()},
		Editable:  true,
	}
	if err := r.commit(id, fn); err != nil {
		return "", err
	}
	r.logger.Info("function added", logging.String("segment_id", id))
	return id, nil
}

// Summon returns the function registered under id
func (r *Registry) Summon(id string) (Function, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.functions[id]
	if !ok {
		return Function{}, fmt.Errorf("%w: %s", ErrFunctionNotFound, id)
	}
	fn.Traits = append([]string{}, fn.Traits...)
	return fn, nil
}

// Edit replaces the code of an editable function
func (r *Registry) Edit(id, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	fn, ok := r.functions[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrFunctionNotFound, id)
	}
	if !fn.Editable {
		return fmt.Errorf("%w: %s", ErrNotEditable, id)
	}
	fn.Code = code
	return r.commit(id, fn)
}

// Lock marks a function read-only
func (r *Registry) Lock(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	fn, ok := r.functions[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrFunctionNotFound, id)
	}
	fn.Editable = false
	return r.commit(id, fn)
}

// List returns every function's ID and title, sorted by ID
func (r *Registry) List() []Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Summary, 0, len(r.functions))
	for id, fn := range r.functions {
		out = append(out, Summary{SegmentID: id, Title: fn.Title})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SegmentID < out[j].SegmentID })
	return out
}

// Len returns the number of functions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.functions)
}

// commit writes the registry with fn stored under id and only then
// updates memory, so a failed write leaves both unchanged. Caller holds
// the write lock.
func (r *Registry) commit(id string, fn Function) error {
	next := make(map[string]Function, len(r.functions)+1)
	for k, v := range r.functions {
		next[k] = v
	}
	next[id] = fn
	if err := r.save(next); err != nil {
		return err
	}
	r.functions = next
	return nil
}

// save writes functions to the registry file atomically
func (r *Registry) save(functions map[string]Function) error {
	data, err := json.MarshalIndent(functions, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode registry: %w", err)
	}

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, ".registry-*.json")
	if err != nil {
		return fmt.Errorf("failed to write registry: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write registry: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write registry: %w", err)
	}
	return nil
}
