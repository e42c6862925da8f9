package services

import (
	"context"
	"testing"
	"time"

	"github.com/Digitallaureate/kabirFirstBackend/models"
	"github.com/Digitallaureate/kabirFirstBackend/repository"

	"go.uber.org/zap"
)

func TestMatchTriggers(t *testing.T) {
	catalog := []Trigger{
		{ID: "w1", Title: "Guide"},
		{ID: "w2", Title: "photographer"},
		{ID: "w3", Title: "  "},
		{ID: "w4", Title: "souvenir"},
	}
	got := MatchTriggers("I need a GUIDE and a Photographer tomorrow", catalog)
	if len(got) != 2 || got[0].ID != "w1" || got[1].ID != "w2" {
		t.Fatalf("unexpected matches: %+v", got)
	}
	if n := len(MatchTriggers("hello there", catalog)); n != 0 {
		t.Fatalf("expected no matches, got %d", n)
	}
}

func TestMatchIsIdempotent(t *testing.T) {
	store := repository.NewMemoryStore()
	m := NewMagicWordMatcher(store, zap.NewNop())
	m.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	in := MatchInput{
		ChatID:           "c1",
		UserID:           "u1",
		UserMessage:      models.Message{ID: "m0", Content: "Can you book a guide?"},
		AssistantMessage: "Sure",
		Location:         "Taj Mahal",
	}
	catalog := []Trigger{{ID: "w1", Title: "Guide"}}

	first, err := m.Match(context.Background(), in, catalog)
	if err != nil {
		t.Fatalf("first match: %v", err)
	}
	if len(first.Created) != 1 || first.Created[0] != "m0_w1" {
		t.Fatalf("expected m0_w1 to be created, got %+v", first)
	}

	second, err := m.Match(context.Background(), in, catalog)
	if err != nil {
		t.Fatalf("second match: %v", err)
	}
	if len(second.Created) != 0 || len(second.Duplicates) != 1 {
		t.Fatalf("expected a duplicate on replay, got %+v", second)
	}
	if n := store.Count(models.CollectionMagicWordRequests); n != 1 {
		t.Fatalf("expected exactly one record, got %d", n)
	}

	var rec models.MagicWordRequest
	if err := store.Get(context.Background(), models.CollectionMagicWordRequests, "m0_w1", &rec); err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Status != models.StatusRequested || rec.MagicWord != "guide" || !rec.IsActive {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.ChatID != "c1" || rec.UserID != "u1" || rec.Location != "Taj Mahal" {
		t.Fatalf("unexpected record context: %+v", rec)
	}
}

func TestMatchRequiresUserMessageID(t *testing.T) {
	m := NewMagicWordMatcher(repository.NewMemoryStore(), zap.NewNop())
	_, err := m.Match(context.Background(), MatchInput{UserMessage: models.Message{Content: "guide"}}, []Trigger{{ID: "w1", Title: "guide"}})
	if err == nil {
		t.Fatal("expected an error without a user message id")
	}
}
