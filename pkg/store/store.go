// Package store persists legend documents to local files, object storage
// or PostgreSQL.
package store

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/golang/snappy"

	"github.com/dd0wney/cyberdna/pkg/config"
	"github.com/dd0wney/cyberdna/pkg/legend"
	"github.com/dd0wney/cyberdna/pkg/logging"
	"github.com/dd0wney/cyberdna/pkg/metrics"
)

// Store saves and loads named legend documents
type Store interface {
	Backend() string
	Save(ctx context.Context, name string, doc *legend.Document) error
	Load(ctx context.Context, name string) (*legend.Document, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) error
	Close() error
}

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,127}$`)

// ValidateName rejects names that are unsafe as file or object keys
func ValidateName(name string) error {
	if !namePattern.MatchString(name) || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Open builds the backend selected by cfg and wraps it with metrics and
// logging
func Open(ctx context.Context, cfg config.StoreConfig, reg *metrics.Registry, logger logging.Logger) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Backend {
	case "", "file":
		s, err = NewFileStore(cfg.Path)
	case "snappy":
		s, err = NewSnappyStore(cfg.Path)
	case "s3":
		s, err = NewS3Store(ctx, S3Options{
			Bucket:   cfg.S3.Bucket,
			Region:   cfg.S3.Region,
			Prefix:   cfg.S3.Prefix,
			Endpoint: cfg.S3.Endpoint,
		})
	case "postgres":
		s, err = NewPGStore(ctx, cfg.Postgres.URL, cfg.Postgres.Table)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return Instrument(s, reg, logger), nil
}

// encodeDocument renders doc as indented JSON, optionally snappy-compressed
func encodeDocument(doc *legend.Document, compress bool) ([]byte, error) {
	var buf bytes.Buffer
	if err := doc.WriteJSON(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode legend: %w", err)
	}
	if compress {
		return snappy.Encode(nil, buf.Bytes()), nil
	}
	return buf.Bytes(), nil
}

func decodeDocument(data []byte, compressed bool) (*legend.Document, error) {
	if compressed {
		raw, err := snappy.Decode(nil, data)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress legend: %w", err)
		}
		data = raw
	}
	return legend.ReadDocument(bytes.NewReader(data))
}

// instrumented records metrics and debug logs around another store
type instrumented struct {
	Store
	metrics *metrics.Registry
	logger  logging.Logger
}

// Instrument wraps s so every operation is timed and counted
func Instrument(s Store, reg *metrics.Registry, logger logging.Logger) Store {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &instrumented{
		Store:   s,
		metrics: reg,
		logger:  logger.With(logging.Component("store"), logging.Backend(s.Backend())),
	}
}

// sizedSaver is implemented by backends that report the encoded size
type sizedSaver interface {
	saveSized(ctx context.Context, name string, doc *legend.Document) (int, error)
}

func (i *instrumented) observe(op, name string, began time.Time, n int, err error) {
	d := time.Since(began)
	i.metrics.RecordStoreOperation(i.Backend(), op, err, d, n)
	if err != nil && !IsNotFound(err) {
		i.logger.Warn("store operation failed",
			logging.Operation(op), logging.String("name", name), logging.Error(err))
		return
	}
	i.logger.Debug("store operation", logging.Operation(op), logging.String("name", name), logging.Latency(d))
}

func (i *instrumented) Save(ctx context.Context, name string, doc *legend.Document) error {
	began := time.Now()
	var (
		n   int
		err error
	)
	if sized, ok := i.Store.(sizedSaver); ok {
		n, err = sized.saveSized(ctx, name, doc)
	} else {
		err = i.Store.Save(ctx, name, doc)
	}
	i.observe("save", name, began, n, err)
	return err
}

func (i *instrumented) Load(ctx context.Context, name string) (*legend.Document, error) {
	began := time.Now()
	doc, err := i.Store.Load(ctx, name)
	i.observe("load", name, began, 0, err)
	return doc, err
}

func (i *instrumented) List(ctx context.Context) ([]string, error) {
	began := time.Now()
	names, err := i.Store.List(ctx)
	i.observe("list", "", began, 0, err)
	return names, err
}

func (i *instrumented) Delete(ctx context.Context, name string) error {
	began := time.Now()
	err := i.Store.Delete(ctx, name)
	i.observe("delete", name, began, 0, err)
	return err
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Ping checks that the backend behind s is reachable. Backends without a
// native ping are probed with List.
func Ping(ctx context.Context, s Store) error {
	if i, ok := s.(*instrumented); ok {
		s = i.Store
	}
	if p, ok := s.(pinger); ok {
		return p.Ping(ctx)
	}
	_, err := s.List(ctx)
	return err
}
