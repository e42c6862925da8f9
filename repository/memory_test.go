package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type testDoc struct {
	ID     string    `bson:"_id"`
	Name   string    `bson:"name"`
	Status string    `bson:"status"`
	Tags   []string  `bson:"tags"`
	Score  int       `bson:"score"`
	At     time.Time `bson:"at"`
	Note   string    `bson:"note,omitempty"`
}

func TestMemoryStoreCreateIsConditional(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.Create(ctx, "docs", "a", testDoc{Name: "first"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := s.Create(ctx, "docs", "a", testDoc{Name: "second"})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	var got testDoc
	if err := s.Get(ctx, "docs", "a", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != "a" || got.Name != "first" {
		t.Fatalf("unexpected doc: %+v", got)
	}
}

func TestMemoryStoreGetMissing(t *testing.T) {
	var got testDoc
	err := NewMemoryStore().Get(context.Background(), "docs", "nope", &got)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreUpsertMerges(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.Upsert(ctx, "docs", "a", testDoc{Name: "one", Note: "keep"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Upsert(ctx, "docs", "a", testDoc{Name: "two"}); err != nil {
		t.Fatal(err)
	}
	var got testDoc
	if err := s.Get(ctx, "docs", "a", &got); err != nil {
		t.Fatal(err)
	}
	if got.Name != "two" || got.Note != "keep" {
		t.Fatalf("merge lost fields: %+v", got)
	}
	if s.Count("docs") != 1 {
		t.Fatalf("expected one document, got %d", s.Count("docs"))
	}
}

func TestMemoryStoreUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	err := s.Update(ctx, "docs", "a", map[string]any{"status": "x"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	_ = s.Create(ctx, "docs", "a", testDoc{Status: "requested"})
	if err := s.Update(ctx, "docs", "a", map[string]any{"status": "inProgress"}); err != nil {
		t.Fatal(err)
	}
	var got testDoc
	_ = s.Get(ctx, "docs", "a", &got)
	if got.Status != "inProgress" {
		t.Fatalf("status = %q", got.Status)
	}
}

func TestMemoryStoreFind(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	docs := []testDoc{
		{Name: "a", Status: "requested", Tags: []string{"x"}, Score: 3, At: base.Add(1 * time.Hour)},
		{Name: "b", Status: "completed", Tags: []string{"y"}, Score: 1, At: base.Add(3 * time.Hour)},
		{Name: "c", Status: "inProgress", Tags: []string{"x", "y"}, Score: 2, At: base.Add(2 * time.Hour)},
		{Name: "d", Status: "requested", Score: 2, At: base},
	}
	for _, d := range docs {
		if err := s.Create(ctx, "docs", d.Name, d); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("membership sorted desc", func(t *testing.T) {
		var out []testDoc
		err := s.Find(ctx, "docs", Filter{"status": In{"requested", "inProgress"}},
			FindOptions{SortField: "at", SortDesc: true}, &out)
		if err != nil {
			t.Fatal(err)
		}
		if names(out) != "cad" {
			t.Fatalf("order = %s", names(out))
		}
	})

	t.Run("array containment", func(t *testing.T) {
		var out []testDoc
		if err := s.Find(ctx, "docs", Filter{"tags": "y"}, FindOptions{}, &out); err != nil {
			t.Fatal(err)
		}
		if names(out) != "bc" {
			t.Fatalf("order = %s", names(out))
		}
	})

	t.Run("stable ties and limit", func(t *testing.T) {
		var out []testDoc
		if err := s.Find(ctx, "docs", nil, FindOptions{SortField: "score", Limit: 3}, &out); err != nil {
			t.Fatal(err)
		}
		if names(out) != "bcd" {
			t.Fatalf("order = %s", names(out))
		}
	})

	t.Run("numeric equality", func(t *testing.T) {
		var out []testDoc
		if err := s.Find(ctx, "docs", Filter{"score": 2, "status": "requested"}, FindOptions{}, &out); err != nil {
			t.Fatal(err)
		}
		if names(out) != "d" {
			t.Fatalf("order = %s", names(out))
		}
	})
}

func TestMemoryStoreFindDuringUpdates(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, id := range []string{"a", "b", "c"} {
		if err := s.Create(ctx, "docs", id, testDoc{Name: id, Status: "requested"}); err != nil {
			t.Fatal(err)
		}
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = s.Update(ctx, "docs", "b", map[string]any{"score": i, "note": "n"})
			_ = s.Upsert(ctx, "docs", "c", testDoc{Name: "c", Status: "requested", Score: i})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			var out []testDoc
			if err := s.Find(ctx, "docs", Filter{"status": "requested"}, FindOptions{SortField: "score", SortDesc: true}, &out); err != nil {
				t.Error(err)
				return
			}
			if len(out) != 3 {
				t.Errorf("expected 3 docs, got %d", len(out))
				return
			}
		}
	}()
	wg.Wait()
}

func names(docs []testDoc) string {
	s := ""
	for _, d := range docs {
		s += d.Name
	}
	return s
}
