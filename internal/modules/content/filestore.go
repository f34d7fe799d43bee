package content

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/sitelangsirat/deswita-backend/pkg/logger"
)

// document is the on-disk layout of the data file. Top-level keys other
// than the collections and schemaVersion are kept in extra and written
// back untouched.
type document struct {
	SchemaVersion int
	Products      []Record
	Articles      []Record
	Events        []Record
	extra         map[string]json.RawMessage
}

func (d *document) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := unmarshalNumbers(data, &raw); err != nil {
		return err
	}
	*d = document{extra: map[string]json.RawMessage{}}
	for key, value := range raw {
		var err error
		switch key {
		case "schemaVersion":
			err = json.Unmarshal(value, &d.SchemaVersion)
		case string(Products):
			err = unmarshalNumbers(value, &d.Products)
		case string(Articles):
			err = unmarshalNumbers(value, &d.Articles)
		case string(Events):
			err = unmarshalNumbers(value, &d.Events)
		default:
			d.extra[key] = value
		}
		if err != nil {
			return fmt.Errorf("decode %q: %w", key, err)
		}
	}
	return nil
}

// MarshalJSON writes schemaVersion and the collections first, then any
// extra keys in sorted order.
func (d document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	field := func(key string, value any) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, _ := json.Marshal(key)
		v, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode %q: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
		return nil
	}

	if d.SchemaVersion != 0 {
		if err := field("schemaVersion", d.SchemaVersion); err != nil {
			return nil, err
		}
	}
	for _, c := range Collections {
		if err := field(string(c), *d.collection(c)); err != nil {
			return nil, err
		}
	}
	for _, key := range slices.Sorted(maps.Keys(d.extra)) {
		if err := field(key, d.extra[key]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// unmarshalNumbers decodes data keeping numbers as json.Number, so values
// outside float64 range or precision survive a read-write cycle.
func unmarshalNumbers(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

func emptyDocument() *document {
	return &document{
		SchemaVersion: SchemaVersion,
		Products:      []Record{},
		Articles:      []Record{},
		Events:        []Record{},
	}
}

func (d *document) collection(c Collection) *[]Record {
	var list *[]Record
	switch c {
	case Products:
		list = &d.Products
	case Articles:
		list = &d.Articles
	case Events:
		list = &d.Events
	default:
		return nil
	}
	if *list == nil {
		*list = []Record{}
	}
	return list
}

// FileStore keeps all collections in a single JSON file. Every operation
// reads the whole file and mutations write it back in full.
type FileStore struct {
	path string
	log  *logger.Logger
	mu   sync.Mutex
}

// NewFileStore opens the data file at path, creating it with three empty
// collections when absent and migrating older layouts in place.
func NewFileStore(path string, log *logger.Logger) (*FileStore, error) {
	s := &FileStore{path: path, log: log}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		if err := s.write(emptyDocument()); err != nil {
			return nil, fmt.Errorf("initialise data file: %w", err)
		}
		log.Info("initialised data file", "path", path)
		return s, nil
	}

	doc := s.read()
	if from := doc.SchemaVersion; migrate(doc) {
		if err := s.write(doc); err != nil {
			return nil, fmt.Errorf("write migrated data file: %w", err)
		}
		log.Info("migrated data file", "path", path, "from", from, "to", doc.SchemaVersion)
	}
	return s, nil
}

// read never fails: an unreadable or corrupt file yields empty collections.
func (s *FileStore) read() *document {
	data, err := os.ReadFile(s.path)
	if err != nil {
		s.log.Warn("read data file, using empty collections", "path", s.path, "error", err)
		return emptyDocument()
	}
	doc := &document{}
	if err := unmarshalNumbers(data, doc); err != nil {
		s.log.Warn("parse data file, using empty collections", "path", s.path, "error", err)
		return emptyDocument()
	}
	for _, c := range Collections {
		doc.collection(c)
	}
	return doc
}

func (s *FileStore) write(doc *document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}

func (s *FileStore) List(_ context.Context, c Collection) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.read().collection(c)
	if list == nil {
		return nil, fmt.Errorf("unknown collection %q", c)
	}
	return *list, nil
}

func (s *FileStore) Add(_ context.Context, c Collection, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.read()
	list := doc.collection(c)
	if list == nil {
		return fmt.Errorf("unknown collection %q", c)
	}
	*list = append(*list, rec)
	return s.write(doc)
}

func (s *FileStore) Replace(_ context.Context, c Collection, rec Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.read()
	list := doc.collection(c)
	if list == nil {
		return nil, fmt.Errorf("unknown collection %q", c)
	}
	i := indexOf(*list, rec.ID())
	if i < 0 {
		return nil, ErrNotFound
	}
	old := (*list)[i]
	(*list)[i] = rec
	if err := s.write(doc); err != nil {
		return nil, err
	}
	return old, nil
}

func (s *FileStore) Remove(_ context.Context, c Collection, id string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.read()
	list := doc.collection(c)
	if list == nil {
		return nil, fmt.Errorf("unknown collection %q", c)
	}
	i := indexOf(*list, id)
	if i < 0 {
		return nil, ErrNotFound
	}
	old := (*list)[i]
	*list = append((*list)[:i], (*list)[i+1:]...)
	if err := s.write(doc); err != nil {
		return nil, err
	}
	return old, nil
}

func indexOf(list []Record, id string) int {
	if id == "" {
		return -1
	}
	for i, r := range list {
		if r.ID() == id {
			return i
		}
	}
	return -1
}
