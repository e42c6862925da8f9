package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Digitallaureate/kabirFirstBackend/models"
	"github.com/Digitallaureate/kabirFirstBackend/repository"

	"go.uber.org/zap"
)

// Trigger is one entry of the catalog snapshot handed to the matcher.
type Trigger struct {
	ID    string
	Title string
}

// MatchTriggers returns the triggers whose title occurs in text, ignoring
// case. Every match is returned in catalog order.
func MatchTriggers(text string, catalog []Trigger) []Trigger {
	lower := strings.ToLower(text)
	var out []Trigger
	for _, t := range catalog {
		title := strings.ToLower(strings.TrimSpace(t.Title))
		if title == "" {
			continue
		}
		if strings.Contains(lower, title) {
			out = append(out, t)
		}
	}
	return out
}

// MatchInput carries the user utterance and its surroundings.
type MatchInput struct {
	ChatID           string
	UserID           string
	UserMessage      models.Message
	AssistantMessage string
	Location         string
}

type MatchResult struct {
	Created    []string
	Duplicates []string
}

// Total counts matches whether or not they were new.
func (r MatchResult) Total() int {
	return len(r.Created) + len(r.Duplicates)
}

type MagicWordMatcher struct {
	store repository.Store
	log   *zap.Logger
	now   func() time.Time
}

func NewMagicWordMatcher(store repository.Store, log *zap.Logger) *MagicWordMatcher {
	return &MagicWordMatcher{store: store, log: log, now: time.Now}
}

// Match creates one tracking record per matched trigger. Records that already
// exist are left untouched, so repeated deliveries of the same message are
// no-ops.
func (m *MagicWordMatcher) Match(ctx context.Context, in MatchInput, catalog []Trigger) (MatchResult, error) {
	var res MatchResult
	if in.UserMessage.ID == "" {
		return res, errors.New("user message id is required")
	}
	log := m.log.With(zap.String("chat_id", in.ChatID), zap.String("user_message_id", in.UserMessage.ID))

	for _, t := range MatchTriggers(in.UserMessage.Content, catalog) {
		id := models.MagicWordRequestID(in.UserMessage.ID, t.ID)
		record := models.MagicWordRequest{
			ChatID:           in.ChatID,
			MessageID:        in.UserMessage.ID,
			UserID:           in.UserID,
			MagicWordID:      t.ID,
			MagicWord:        strings.ToLower(t.Title),
			UserMessage:      in.UserMessage.Content,
			AssistantMessage: in.AssistantMessage,
			Location:         in.Location,
			MatchedAt:        m.now().UTC(),
			IsActive:         true,
			Status:           models.StatusRequested,
		}
		err := m.store.Create(ctx, models.CollectionMagicWordRequests, id, record)
		switch {
		case errors.Is(err, repository.ErrAlreadyExists):
			log.Info("magic word request already exists", zap.String("magic_word_user_id", id))
			magicWordMatches.WithLabelValues("duplicate").Inc()
			res.Duplicates = append(res.Duplicates, id)
		case err != nil:
			return res, err
		default:
			log.Info("magic word request created", zap.String("magic_word_user_id", id), zap.String("magic_word", record.MagicWord))
			magicWordMatches.WithLabelValues("created").Inc()
			res.Created = append(res.Created, id)
		}
	}
	return res, nil
}
