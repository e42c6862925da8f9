package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Digitallaureate/kabirFirstBackend/models"
	"github.com/Digitallaureate/kabirFirstBackend/repository"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var pipelineTracer = otel.Tracer("services/pipeline")

type Outcome string

const (
	OutcomeProcessed        Outcome = "processed"
	OutcomeSkippedUser      Outcome = "skipped_user_message"
	OutcomeSkippedAutomated Outcome = "skipped_automated_sender"
	OutcomeSkippedRole      Outcome = "skipped_role"
	OutcomeChatNotFound     Outcome = "chat_not_found"
)

// Pipeline reacts to new chat messages. Every write it makes is keyed by the
// message id or a composite of ids, so replaying an event is safe.
type Pipeline struct {
	store       repository.Store
	catalog     *Catalog
	contexts    *LocationContextBuilder
	matcher     *MagicWordMatcher
	suggestions SuggestionFetcher
	intents     IntentProcessor
	log         *zap.Logger
	now         func() time.Time
}

func NewPipeline(store repository.Store, catalog *Catalog, suggestions SuggestionFetcher, intents IntentProcessor, log *zap.Logger) *Pipeline {
	return &Pipeline{
		store:       store,
		catalog:     catalog,
		contexts:    NewLocationContextBuilder(store, log),
		matcher:     NewMagicWordMatcher(store, log),
		suggestions: suggestions,
		intents:     intents,
		log:         log,
		now:         time.Now,
	}
}

// Handle processes one message event. A returned error means a primary write
// failed and the event should be delivered again.
func (p *Pipeline) Handle(ctx context.Context, ev models.MessageEvent) (outcome Outcome, err error) {
	start := time.Now()
	ctx, span := pipelineTracer.Start(ctx, "Pipeline.Handle", trace.WithAttributes(
		attribute.String("chat.id", ev.ChatID),
		attribute.String("message.id", ev.MessageID),
	))
	defer func() {
		pipelineDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			pipelineEvents.WithLabelValues("error").Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, "pipeline failed")
		} else {
			pipelineEvents.WithLabelValues(string(outcome)).Inc()
			span.SetAttributes(attribute.String("pipeline.outcome", string(outcome)))
		}
		span.End()
	}()

	log := p.log.With(zap.String("chat_id", ev.ChatID), zap.String("message_id", ev.MessageID))
	msg := ev.Message
	sender := strings.TrimSpace(msg.SenderID)

	switch {
	case msg.Role == models.RoleUser:
		log.Debug("user message, nothing to do")
		return OutcomeSkippedUser, nil
	case models.IsAutomatedSender(sender):
		log.Info("message from automated sender skipped", zap.String("sender", sender))
		return OutcomeSkippedAutomated, nil
	case msg.Role != models.RoleAssistant:
		log.Info("unsupported role skipped", zap.String("role", msg.Role))
		return OutcomeSkippedRole, nil
	}

	var chat models.Chat
	if err := p.store.Get(ctx, models.CollectionChats, ev.ChatID, &chat); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Warn("chat not found")
			return OutcomeChatNotFound, nil
		}
		return "", fmt.Errorf("load chat: %w", err)
	}

	location := msg.Location
	if location == "" {
		location = chat.Location
	}
	userID := chat.ActiveUser()
	position := p.lastUserLocation(ctx, log, userID)

	lc := p.contexts.Build(ctx, LocationInput{
		ChatID:    ev.ChatID,
		MessageID: ev.MessageID,
		ChatType:  chat.ChatType,
		Location:  location,
		UserID:    userID,
		Position:  position,
	})
	if err := p.contexts.Save(ctx, lc); err != nil {
		return "", fmt.Errorf("store location context: %w", err)
	}

	chapterID := p.chapterID(ctx, log, chat.ChatType, location)

	lastUser := p.lastUserMessage(ctx, log, ev.ChatID)
	matched, matchErr := p.matchTriggers(ctx, log, ev, userID, location, lc, lastUser)

	now := p.now().UTC()
	createdAt := msg.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	entry := models.MessageLog{
		ChatID:        ev.ChatID,
		MessageID:     ev.MessageID,
		Role:          msg.Role,
		Content:       msg.Content,
		Location:      location,
		ChatType:      chat.ChatType,
		ChapterID:     chapterID,
		UserID:        userID,
		UserLatitude:  lc.UserLatitude,
		UserLongitude: lc.UserLongitude,
		UserLocation:  lc.UserLocation,
		NearbySites:   lc.NearbySites,
		NearbyTrivia:  lc.NearbyTrivia,
		MagicWords:    matched,
		CreatedAt:     createdAt,
		LoggedAt:      now,
		OriginalPath:  fmt.Sprintf("chats/%s/messages/%s", ev.ChatID, ev.MessageID),
	}
	if err := p.store.Upsert(ctx, models.CollectionMessageLogs, ev.MessageID, entry); err != nil {
		return "", fmt.Errorf("store message log: %w", err)
	}
	if matchErr != nil {
		return "", fmt.Errorf("create magic word request: %w", matchErr)
	}

	if chapterID == "" {
		log.Info("no chapter for chat type and location, downstream calls skipped",
			zap.String("chat_type", chat.ChatType), zap.String("location", location))
		return OutcomeProcessed, nil
	}
	p.fetchSuggestions(ctx, log, SuggestionRequest{
		ChapterID: chapterID,
		Content:   msg.Content,
		Location:  location,
		ChatID:    ev.ChatID,
	}, ev.MessageID)

	if !lc.HasCoordinates() {
		log.Info("no user coordinates, intent call skipped")
		return OutcomeProcessed, nil
	}
	content := msg.Content
	if lastUser != nil && lastUser.Content != "" {
		content = lastUser.Content
	}
	intentLocation := location
	if intentLocation == "" {
		intentLocation = lc.UserLocation
	}
	p.processIntent(ctx, log, IntentRequest{
		Content:   content,
		ChapterID: chapterID,
		ChatID:    ev.ChatID,
		Lat:       *lc.UserLatitude,
		Long:      *lc.UserLongitude,
		Location:  intentLocation,
	}, ev.MessageID)

	return OutcomeProcessed, nil
}

func (p *Pipeline) lastUserLocation(ctx context.Context, log *zap.Logger, userID string) *models.UserLocation {
	if userID == "" {
		log.Warn("chat has no end user")
		return nil
	}
	var locs []models.UserLocation
	err := p.store.Find(ctx, models.CollectionUserLocations,
		repository.Filter{"user_id": userID},
		repository.FindOptions{SortField: "created_at", SortDesc: true, Limit: 1}, &locs)
	if err != nil {
		log.Error("user location lookup failed", zap.String("user_id", userID), zap.Error(err))
		return nil
	}
	if len(locs) == 0 {
		log.Info("no location reported by user", zap.String("user_id", userID))
		return nil
	}
	return &locs[0]
}

func (p *Pipeline) chapterID(ctx context.Context, log *zap.Logger, chatType, location string) string {
	if chatType == "" || location == "" {
		return ""
	}
	var kb []models.KnowledgeBase
	err := p.store.Find(ctx, models.CollectionKnowledgeBase,
		repository.Filter{"chat_type": chatType, "param": location},
		repository.FindOptions{Limit: 1}, &kb)
	if err != nil {
		log.Error("knowledge base lookup failed", zap.Error(err))
		return ""
	}
	if len(kb) == 0 {
		return ""
	}
	return kb[0].ChapterID
}

func (p *Pipeline) lastUserMessage(ctx context.Context, log *zap.Logger, chatID string) *models.Message {
	var msgs []models.Message
	err := p.store.Find(ctx, models.CollectionMessages,
		repository.Filter{"chat_id": chatID, "role": models.RoleUser},
		repository.FindOptions{SortField: "created_at", SortDesc: true, Limit: 1}, &msgs)
	if err != nil {
		log.Error("last user message lookup failed", zap.Error(err))
		return nil
	}
	if len(msgs) == 0 {
		return nil
	}
	return &msgs[0]
}

// matchTriggers returns the ids of the tracking records the user message maps
// to. Only a failed tracking record write is returned as an error.
func (p *Pipeline) matchTriggers(ctx context.Context, log *zap.Logger, ev models.MessageEvent, userID, location string, lc *models.LocationContext, lastUser *models.Message) ([]string, error) {
	matched := []string{}
	if lastUser == nil || lastUser.ID == "" {
		log.Info("no prior user message, magic word check skipped")
		return matched, nil
	}
	if lastUser.Content == "" {
		return matched, nil
	}
	catalog, err := p.catalog.ActiveTriggers(ctx)
	if err != nil {
		log.Error("magic word catalog unavailable", zap.Error(err))
		return matched, nil
	}

	recordLocation := lastUser.Location
	if recordLocation == "" {
		recordLocation = location
	}
	if recordLocation == "" {
		recordLocation = lc.UserLocation
	}
	res, err := p.matcher.Match(ctx, MatchInput{
		ChatID:           ev.ChatID,
		UserID:           userID,
		UserMessage:      *lastUser,
		AssistantMessage: ev.Message.Content,
		Location:         recordLocation,
	}, catalog)
	matched = append(matched, res.Created...)
	matched = append(matched, res.Duplicates...)
	if err != nil {
		log.Error("magic word match failed", zap.String("user_message_id", lastUser.ID), zap.Error(err))
		return matched, err
	}
	if res.Total() == 0 {
		log.Debug("no magic word in user message", zap.String("user_message_id", lastUser.ID))
	}
	return matched, nil
}

func (p *Pipeline) fetchSuggestions(ctx context.Context, log *zap.Logger, req SuggestionRequest, messageID string) {
	if p.suggestions == nil {
		return
	}
	data, err := p.suggestions.FetchSuggestions(ctx, req)
	if err != nil {
		downstreamCalls.WithLabelValues("suggestion", "error").Inc()
		log.Warn("suggestion service call failed", zap.String("chapter_id", req.ChapterID), zap.Error(err))
		return
	}
	downstreamCalls.WithLabelValues("suggestion", "ok").Inc()
	err = p.store.Update(ctx, models.CollectionMessageLogs, messageID, map[string]any{
		"suggestions":            data,
		"suggestions_fetched_at": p.now().UTC(),
	})
	if err != nil {
		log.Error("storing suggestions failed", zap.Error(err))
	}
}

func (p *Pipeline) processIntent(ctx context.Context, log *zap.Logger, req IntentRequest, messageID string) {
	if p.intents == nil {
		return
	}
	data, err := p.intents.ProcessText(ctx, req)
	if err != nil {
		downstreamCalls.WithLabelValues("intent", "error").Inc()
		log.Warn("intent service call failed", zap.String("chapter_id", req.ChapterID), zap.Error(err))
		return
	}
	downstreamCalls.WithLabelValues("intent", "ok").Inc()
	err = p.store.Update(ctx, models.CollectionMessageLogs, messageID, map[string]any{
		"process":            data,
		"process_fetched_at": p.now().UTC(),
	})
	if err != nil {
		log.Error("storing intent result failed", zap.Error(err))
	}
}
