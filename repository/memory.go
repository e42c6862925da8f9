package repository

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// MemoryStore keeps documents in process. Find returns matches in insertion
// order unless a sort field is given, and sorting is stable. It backs tests
// and local runs without a database.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
}

type memCollection struct {
	docs  map[string]bson.M
	order []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memCollection)}
}

func (s *MemoryStore) collection(name string) *memCollection {
	c, ok := s.collections[name]
	if !ok {
		c = &memCollection{docs: make(map[string]bson.M)}
		s.collections[name] = c
	}
	return c
}

func (s *MemoryStore) Get(_ context.Context, collection, id string, out any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[collection]
	if !ok {
		return ErrNotFound
	}
	doc, ok := c.docs[id]
	if !ok {
		return ErrNotFound
	}
	return decodeInto(doc, out)
}

func (s *MemoryStore) Find(_ context.Context, collection string, filter Filter, opts FindOptions, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("find %s: out must be a pointer to a slice", collection)
	}
	norm, err := normalizeFilter(filter)
	if err != nil {
		return err
	}

	// Matches are copied under the lock; Update and Upsert modify stored
	// documents in place.
	s.mu.RLock()
	var matches []bson.M
	if c, ok := s.collections[collection]; ok {
		for _, id := range c.order {
			doc := c.docs[id]
			if !matchesFilter(doc, norm) {
				continue
			}
			cp, err := toDocument(doc)
			if err != nil {
				s.mu.RUnlock()
				return err
			}
			matches = append(matches, cp)
		}
	}
	s.mu.RUnlock()

	if opts.SortField != "" {
		sort.SliceStable(matches, func(i, j int) bool {
			cmp := compareValues(matches[i][opts.SortField], matches[j][opts.SortField])
			if opts.SortDesc {
				return cmp > 0
			}
			return cmp < 0
		})
	}
	if opts.Limit > 0 && len(matches) > opts.Limit {
		matches = matches[:opts.Limit]
	}

	slice := rv.Elem()
	result := reflect.MakeSlice(slice.Type(), 0, len(matches))
	for _, doc := range matches {
		elem := reflect.New(slice.Type().Elem())
		if err := decodeInto(doc, elem.Interface()); err != nil {
			return err
		}
		result = reflect.Append(result, elem.Elem())
	}
	slice.Set(result)
	return nil
}

func (s *MemoryStore) Upsert(_ context.Context, collection, id string, doc any) error {
	fields, err := toDocument(doc)
	if err != nil {
		return err
	}
	delete(fields, "_id")

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collection(collection)
	existing, ok := c.docs[id]
	if !ok {
		existing = bson.M{"_id": id}
		c.docs[id] = existing
		c.order = append(c.order, id)
	}
	for k, v := range fields {
		existing[k] = v
	}
	return nil
}

func (s *MemoryStore) Update(_ context.Context, collection, id string, fields map[string]any) error {
	norm, err := toDocument(bson.M(fields))
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[collection]
	if !ok {
		return ErrNotFound
	}
	existing, ok := c.docs[id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range norm {
		existing[k] = v
	}
	return nil
}

func (s *MemoryStore) Create(_ context.Context, collection, id string, doc any) error {
	fields, err := toDocument(doc)
	if err != nil {
		return err
	}
	fields["_id"] = id

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collection(collection)
	if _, ok := c.docs[id]; ok {
		return ErrAlreadyExists
	}
	c.docs[id] = fields
	c.order = append(c.order, id)
	return nil
}

// Count returns the number of documents in a collection.
func (s *MemoryStore) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.collections[collection]; ok {
		return len(c.docs)
	}
	return 0
}

func decodeInto(doc bson.M, out any) error {
	data, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	if err := bson.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

type normalizedFilter map[string][]any

func normalizeFilter(f Filter) (normalizedFilter, error) {
	out := make(normalizedFilter, len(f))
	for k, v := range f {
		values := []any{v}
		if in, ok := v.(In); ok {
			values = []any(in)
		}
		wrapped := bson.M{}
		for i, val := range values {
			wrapped[fmt.Sprint(i)] = val
		}
		norm, err := toDocument(wrapped)
		if err != nil {
			return nil, err
		}
		list := make([]any, 0, len(values))
		for i := range values {
			list = append(list, norm[fmt.Sprint(i)])
		}
		out[k] = list
	}
	return out, nil
}

func matchesFilter(doc bson.M, f normalizedFilter) bool {
	for field, wanted := range f {
		got := doc[field]
		ok := false
		for _, w := range wanted {
			if valueMatches(got, w) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

func valueMatches(got, want any) bool {
	if arr, ok := got.(bson.A); ok {
		if _, wantArr := want.(bson.A); !wantArr {
			for _, el := range arr {
				if compareValues(el, want) == 0 && sameKind(el, want) {
					return true
				}
			}
			return false
		}
	}
	if sameKind(got, want) {
		return compareValues(got, want) == 0
	}
	return false
}

func sameKind(a, b any) bool {
	_, an := toNumber(a)
	_, bn := toNumber(b)
	if an && bn {
		return true
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.TypeOf(a) == reflect.TypeOf(b)
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// compareValues orders nil first, then numbers, strings, dates and booleans
// within their own kind. Values of unrelated kinds compare by kind rank.
func compareValues(a, b any) int {
	ra, rb := kindRank(a), kindRank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch x := a.(type) {
	case nil:
		return 0
	case string:
		y := b.(string)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case bson.DateTime:
		y := b.(bson.DateTime)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case bool:
		y := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	}
	if fa, ok := toNumber(a); ok {
		fb, _ := toNumber(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	if reflect.DeepEqual(a, b) {
		return 0
	}
	return 1
}

func kindRank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case int32, int64, float64:
		return 1
	case string:
		return 2
	case bson.DateTime:
		return 3
	case bool:
		return 4
	}
	return 5
}
