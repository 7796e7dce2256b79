package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/exp/mmap"

	"github.com/dd0wney/cyberdna/pkg/legend"
)

// FileStore keeps one file per legend in a directory. Reads go through a
// read-only memory map.
type FileStore struct {
	dir      string
	ext      string
	compress bool
	backend  string
}

// NewFileStore stores indented JSON documents under dir
func NewFileStore(dir string) (*FileStore, error) {
	return newFileStore(dir, ".json", false, "file")
}

// NewSnappyStore stores snappy-compressed JSON documents under dir
func NewSnappyStore(dir string) (*FileStore, error) {
	return newFileStore(dir, ".json.sz", true, "snappy")
}

func newFileStore(dir, ext string, compress bool, backend string) (*FileStore, error) {
	if dir == "" {
		return nil, opError(backend, "open", "", errors.New("directory is required"))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, opError(backend, "open", "", err)
	}
	return &FileStore{dir: dir, ext: ext, compress: compress, backend: backend}, nil
}

func (s *FileStore) Backend() string { return s.backend }

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+s.ext)
}

// Save writes doc atomically, replacing any previous version
func (s *FileStore) Save(ctx context.Context, name string, doc *legend.Document) error {
	_, err := s.saveSized(ctx, name, doc)
	return err
}

func (s *FileStore) saveSized(ctx context.Context, name string, doc *legend.Document) (int, error) {
	fail := func(err error) (int, error) { return 0, opError(s.backend, "save", name, err) }

	if err := ValidateName(name); err != nil {
		return fail(err)
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	data, err := encodeDocument(doc, s.compress)
	if err != nil {
		return fail(err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+"-*")
	if err != nil {
		return fail(err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		return fail(err)
	}
	if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
		return fail(err)
	}
	return len(data), nil
}

// Load maps the file for name and decodes it
func (s *FileStore) Load(ctx context.Context, name string) (*legend.Document, error) {
	if err := ValidateName(name); err != nil {
		return nil, opError(s.backend, "load", name, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, opError(s.backend, "load", name, err)
	}

	reader, err := mmap.Open(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, opError(s.backend, "load", name, ErrNotFound)
	}
	if err != nil {
		return nil, opError(s.backend, "load", name, err)
	}
	defer reader.Close()

	data := make([]byte, reader.Len())
	if _, err := reader.ReadAt(data, 0); err != nil && len(data) > 0 {
		return nil, opError(s.backend, "load", name, fmt.Errorf("read mapped file: %w", err))
	}

	doc, err := decodeDocument(data, s.compress)
	if err != nil {
		return nil, opError(s.backend, "load", name, err)
	}
	return doc, nil
}

// List returns the stored legend names in lexical order
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, opError(s.backend, "list", "", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || !strings.HasSuffix(e.Name(), s.ext) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), s.ext))
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes the file for name
func (s *FileStore) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return opError(s.backend, "delete", name, err)
	}
	err := os.Remove(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return opError(s.backend, "delete", name, ErrNotFound)
	}
	return opError(s.backend, "delete", name, err)
}

func (s *FileStore) Close() error { return nil }
