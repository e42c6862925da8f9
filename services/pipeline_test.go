package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Digitallaureate/kabirFirstBackend/models"
	"github.com/Digitallaureate/kabirFirstBackend/repository"

	"go.uber.org/zap"
)

var pipelineCollections = []string{
	models.CollectionLocationContext,
	models.CollectionMessageLogs,
	models.CollectionMagicWordRequests,
}

func seedPipeline(t *testing.T) *repository.MemoryStore {
	t.Helper()
	store := repository.NewMemoryStore()
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	mustCreate(t, store, models.CollectionChats, "c1", models.Chat{
		ChatType: "explore", Participants: []string{"System", "u1"}, Location: "Taj Mahal",
	})
	mustCreate(t, store, models.CollectionUserLocations, "l1", models.UserLocation{
		UserID: "u1", Latitude: fptr(0), Longitude: fptr(0), Location: "Old", CreatedAt: base,
	})
	mustCreate(t, store, models.CollectionUserLocations, "l2", models.UserLocation{
		UserID: "u1", Latitude: fptr(tajLat), Longitude: fptr(tajLon), Location: "Agra", CreatedAt: base.Add(time.Hour),
	})
	for id, off := range map[string]float64{"s1": 0.03, "s2": 0.01, "s3": 0.02, "s4": 0.04} {
		mustCreate(t, store, models.CollectionHistoricalSites, id, models.HistoricalSite{
			SiteName: id, Latitude: fptr(tajLat + off), Longitude: fptr(tajLon), IsActive: true,
		})
	}
	mustCreate(t, store, models.CollectionKnowledgeBase, "kb1", models.KnowledgeBase{
		ChatType: "explore", Param: "Taj Mahal", ChapterID: "ch1",
	})
	mustCreate(t, store, models.CollectionMagicWords, "w1", models.MagicWord{Title: "Guide", IsActive: true})
	mustCreate(t, store, models.CollectionMagicWords, "w2", models.MagicWord{Title: "photo", IsActive: false})
	mustCreate(t, store, models.CollectionMessages, "m0", models.Message{
		ChatID: "c1", Role: models.RoleUser, Content: "old question about photo and guide", CreatedAt: base,
	})
	mustCreate(t, store, models.CollectionMessages, "m1", models.Message{
		ChatID: "c1", Role: models.RoleUser, Content: "Please find me a guide", Location: "Taj Mahal", CreatedAt: base.Add(time.Minute),
	})
	return store
}

func assistantEvent(id string) models.MessageEvent {
	return models.MessageEvent{
		ChatID:    "c1",
		MessageID: id,
		Message: models.Message{
			ID: id, ChatID: "c1", Role: models.RoleAssistant, Content: "I can arrange a guide for you.",
			CreatedAt: time.Date(2026, 4, 1, 9, 2, 0, 0, time.UTC),
		},
	}
}

type fakeIntent struct {
	calls int
	req   IntentRequest
}

func (f *fakeIntent) ProcessText(_ context.Context, req IntentRequest) (any, error) {
	f.calls++
	f.req = req
	return map[string]any{"intent": "book_guide"}, nil
}

func TestPipelineProcessesAssistantMessage(t *testing.T) {
	store := seedPipeline(t)

	var suggestionCalls int32
	var gotReq SuggestionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&suggestionCalls, 1)
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"type":"text","id":"x1"}]}`))
	}))
	defer srv.Close()

	intent := &fakeIntent{}
	p := NewPipeline(store, NewCatalog(store, 0), NewSuggestionClient(srv.URL, 5*time.Second), intent, zap.NewNop())

	outcome, err := p.Handle(context.Background(), assistantEvent("a1"))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if outcome != OutcomeProcessed {
		t.Fatalf("expected processed, got %s", outcome)
	}

	var lc models.LocationContext
	if err := store.Get(context.Background(), models.CollectionLocationContext, "a1", &lc); err != nil {
		t.Fatalf("location context: %v", err)
	}
	if lc.UserLocation != "Agra" || len(lc.NearbySites) != 3 || lc.NearbySites[0].SiteID != "s2" {
		t.Fatalf("unexpected context: location=%q sites=%+v", lc.UserLocation, lc.NearbySites)
	}

	if n := store.Count(models.CollectionMagicWordRequests); n != 1 {
		t.Fatalf("expected one tracking record, got %d", n)
	}
	rec := getRecord(t, store, "m1_w1")
	if rec.AssistantMessage != "I can arrange a guide for you." || rec.UserID != "u1" {
		t.Fatalf("unexpected record: %+v", rec)
	}

	var entry models.MessageLog
	if err := store.Get(context.Background(), models.CollectionMessageLogs, "a1", &entry); err != nil {
		t.Fatalf("message log: %v", err)
	}
	if entry.ChapterID != "ch1" || entry.UserID != "u1" || len(entry.MagicWords) != 1 {
		t.Fatalf("unexpected log: %+v", entry)
	}
	if entry.Suggestions == nil || entry.SuggestionsFetchedAt == nil {
		t.Fatal("suggestions should be merged into the log")
	}
	if entry.Process == nil || entry.ProcessFetchedAt == nil {
		t.Fatal("intent result should be merged into the log")
	}

	if n := atomic.LoadInt32(&suggestionCalls); n != 1 {
		t.Fatalf("expected one suggestion call, got %d", n)
	}
	if gotReq.ChapterID != "ch1"|| gotReq.Location != "Taj Mahal" || gotReq.ChatID != "c1" {
		t.Fatalf("unexpected suggestion request: %+v", gotReq)
	}
	if intent.calls != 1 || intent.req.Content != "Please find me a guide" || intent.req.Lat != tajLat {
		t.Fatalf("unexpected intent request: %+v", intent.req)
	}

	// Redelivery must not add records.
	if _, err := p.Handle(context.Background(), assistantEvent("a1")); err != nil {
		t.Fatalf("replay: %v", err)
	}
	for _, c := range pipelineCollections {
		if n := store.Count(c); n != 1 {
			t.Fatalf("%s: expected 1 document after replay, got %d", c, n)
		}
	}
}

func TestPipelineSkipsWithoutWrites(t *testing.T) {
	cases := []struct {
		name    string
		msg     models.Message
		outcome Outcome
	}{
		{"user message", models.Message{Role: models.RoleUser, Content: "guide"}, OutcomeSkippedUser},
		{"image bot", models.Message{Role: models.RoleAssistant, SenderID: models.SenderImageBot, Content: "guide"}, OutcomeSkippedAutomated},
		{"support desk", models.Message{Role: models.RoleAssistant, SenderID: " CustomerService ", Content: "guide"}, OutcomeSkippedAutomated},
		{"system role", models.Message{Role: "system", Content: "guide"}, OutcomeSkippedRole},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := seedPipeline(t)
			p := NewPipeline(store, NewCatalog(store, 0), nil, nil, zap.NewNop())

			outcome, err := p.Handle(context.Background(), models.MessageEvent{ChatID: "c1", MessageID: "x", Message: tc.msg})
			if err != nil {
				t.Fatalf("handle: %v", err)
			}
			if outcome != tc.outcome {
				t.Fatalf("expected %s, got %s", tc.outcome, outcome)
			}
			for _, c := range pipelineCollections {
				if n := store.Count(c); n != 0 {
					t.Fatalf("%s: expected no writes, got %d", c, n)
				}
			}
		})
	}
}

func TestPipelineUnknownChat(t *testing.T) {
	store := seedPipeline(t)
	p := NewPipeline(store, NewCatalog(store, 0), nil, nil, zap.NewNop())

	ev := assistantEvent("a1")
	ev.ChatID = "missing"
	outcome, err := p.Handle(context.Background(), ev)
	if err != nil || outcome != OutcomeChatNotFound {
		t.Fatalf("expected chat_not_found, got %s / %v", outcome, err)
	}
	if n := store.Count(models.CollectionMessageLogs); n != 0 {
		t.Fatalf("expected no log, got %d", n)
	}
}

func TestPipelineDownstreamFailuresAreNotFatal(t *testing.T) {
	store := seedPipeline(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewPipeline(store, NewCatalog(store, 0),
		NewSuggestionClient(srv.URL, time.Second), NewIntentClient(srv.URL, time.Second), zap.NewNop())

	outcome, err := p.Handle(context.Background(), assistantEvent("a1"))
	if err != nil || outcome != OutcomeProcessed {
		t.Fatalf("expected processed, got %s / %v", outcome, err)
	}
	var entry models.MessageLog
	if err := store.Get(context.Background(), models.CollectionMessageLogs, "a1", &entry); err != nil {
		t.Fatalf("message log: %v", err)
	}
	if entry.Suggestions != nil || entry.Process != nil {
		t.Fatalf("failed calls should leave the log untouched: %+v", entry)
	}
	if n := store.Count(models.CollectionMagicWordRequests); n != 1 {
		t.Fatalf("matcher should still run, got %d records", n)
	}
}

func TestPipelineWithoutChapterSkipsDownstream(t *testing.T) {
	store := seedPipeline(t)
	mustCreate(t, store, models.CollectionChats, "c2", models.Chat{
		ChatType: "journey", Participants: []string{"u2"}, Location: "Unmapped",
	})
	intent := &fakeIntent{}
	p := NewPipeline(store, NewCatalog(store, 0), nil, intent, zap.NewNop())

	ev := assistantEvent("a2")
	ev.ChatID = "c2"
	outcome, err := p.Handle(context.Background(), ev)
	if err != nil || outcome != OutcomeProcessed {
		t.Fatalf("expected processed, got %s / %v", outcome, err)
	}
	if intent.calls != 0 {
		t.Fatal("intent service should not be called without a chapter")
	}
	var entry models.MessageLog
	if err := store.Get(context.Background(), models.CollectionMessageLogs, "a2", &entry); err != nil {
		t.Fatalf("message log: %v", err)
	}
	if entry.UserID != "u2" || entry.Location != "Unmapped" || entry.UserLatitude != nil {
		t.Fatalf("unexpected log: %+v", entry)
	}
}

// flakyStore fails the first conditional create in one collection.
type flakyStore struct {
	*repository.MemoryStore
	collection string
	failed     bool
}

func (f *flakyStore) Create(ctx context.Context, collection, id string, doc any) error {
	if collection == f.collection && !f.failed {
		f.failed = true
		return errors.New("write concern timeout")
	}
	return f.MemoryStore.Create(ctx, collection, id, doc)
}

func TestPipelineTrackingWriteFailureIsRetried(t *testing.T) {
	mem := seedPipeline(t)
	store := &flakyStore{MemoryStore: mem, collection: models.CollectionMagicWordRequests}
	p := NewPipeline(store, NewCatalog(store, 0), nil, nil, zap.NewNop())

	if _, err := p.Handle(context.Background(), assistantEvent("a1")); err == nil {
		t.Fatal("expected an error so the event is delivered again")
	}
	if n := mem.Count(models.CollectionMagicWordRequests); n != 0 {
		t.Fatalf("expected no tracking record yet, got %d", n)
	}

	outcome, err := p.Handle(context.Background(), assistantEvent("a1"))
	if err != nil || outcome != OutcomeProcessed {
		t.Fatalf("expected processed on redelivery, got %s / %v", outcome, err)
	}
	rec := getRecord(t, mem, "m1_w1")
	if rec.Status != models.StatusRequested {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if n := mem.Count(models.CollectionMessageLogs); n != 1 {
		t.Fatalf("expected one log after redelivery, got %d", n)
	}
}

func TestPipelineWithoutUserMessageSkipsMatcher(t *testing.T) {
	store := seedPipeline(t)
	mustCreate(t, store, models.CollectionChats, "c3", models.Chat{
		ChatType: "explore", Participants: []string{"System", "u1"}, Location: "Taj Mahal",
	})
	mustCreate(t, store, models.CollectionMessages, "g1", models.Message{
		ChatID: "c3", Role: models.RoleAssistant, Content: "Welcome, ask me for a guide anytime.",
		CreatedAt: time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC),
	})
	p := NewPipeline(store, NewCatalog(store, 0), nil, nil, zap.NewNop())

	ev := assistantEvent("a3")
	ev.ChatID = "c3"
	outcome, err := p.Handle(context.Background(), ev)
	if err != nil || outcome != OutcomeProcessed {
		t.Fatalf("expected processed, got %s / %v", outcome, err)
	}

	var lc models.LocationContext
	if err := store.Get(context.Background(), models.CollectionLocationContext, "a3", &lc); err != nil {
		t.Fatalf("location context: %v", err)
	}
	var entry models.MessageLog
	if err := store.Get(context.Background(), models.CollectionMessageLogs, "a3", &entry); err != nil {
		t.Fatalf("message log: %v", err)
	}
	if len(entry.MagicWords) != 0 {
		t.Fatalf("expected no magic words, got %v", entry.MagicWords)
	}
	if n := store.Count(models.CollectionMagicWordRequests); n != 0 {
		t.Fatalf("matcher should be skipped, got %d records", n)
	}
}
