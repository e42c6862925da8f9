package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Digitallaureate/kabirFirstBackend/models"
	"github.com/Digitallaureate/kabirFirstBackend/repository"

	"go.uber.org/zap"
)

const (
	DefaultListLimit = 100
	UserListLimit    = 50
	ChatHistoryLimit = 10
	paymentSucceeded = "Success"
)

var ErrIncompleteRecord = errors.New("tracking record has no chat")

// RequestDetail is everything an operator sees for one tracking record.
type RequestDetail struct {
	ID           string                  `json:"id"`
	Request      models.MagicWordRequest `json:"magic_word_request"`
	Chat         *models.Chat            `json:"chat"`
	User         *models.User            `json:"user"`
	UserLocation *models.UserLocation    `json:"user_location"`
	ChatHistory  []models.Message        `json:"chat_history"`
}

// SupportDesk answers the read side of the admin dashboard.
type SupportDesk struct {
	store repository.Store
	log   *zap.Logger
	now   func() time.Time
}

func NewSupportDesk(store repository.Store, log *zap.Logger) *SupportDesk {
	return &SupportDesk{store: store, log: log, now: time.Now}
}

// OpenRequests lists requested and inProgress records, newest first.
// userID narrows the list to one traveler when set.
func (d *SupportDesk) OpenRequests(ctx context.Context, userID string, limit int) ([]models.MagicWordRequest, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	open := make(repository.In, 0, len(models.OpenStatuses))
	for _, s := range models.OpenStatuses {
		open = append(open, string(s))
	}
	filter := repository.Filter{"status": open}
	if userID != "" {
		filter["userId"] = userID
	}
	out := []models.MagicWordRequest{}
	err := d.store.Find(ctx, models.CollectionMagicWordRequests, filter,
		repository.FindOptions{SortField: "matchedAt", SortDesc: true, Limit: limit}, &out)
	if err != nil {
		return nil, fmt.Errorf("list open requests: %w", err)
	}
	return out, nil
}

// Detail resolves a tracking record with its chat, traveler and the last
// ten chat messages in chronological order. Missing chat-side data is
// logged and left empty.
func (d *SupportDesk) Detail(ctx context.Context, id string) (*RequestDetail, error) {
	var rec models.MagicWordRequest
	if err := d.store.Get(ctx, models.CollectionMagicWordRequests, id, &rec); err != nil {
		return nil, err
	}
	rec.ID = id
	if rec.ChatID == "" {
		return nil, ErrIncompleteRecord
	}
	log := d.log.With(zap.String("magic_word_user_id", id), zap.String("chat_id", rec.ChatID))

	var chat models.Chat
	if err := d.store.Get(ctx, models.CollectionChats, rec.ChatID, &chat); err != nil {
		return nil, fmt.Errorf("load chat %s: %w", rec.ChatID, err)
	}
	chat.ID = rec.ChatID

	detail := &RequestDetail{ID: id, Request: rec, Chat: &chat, ChatHistory: []models.Message{}}

	if userID := chat.ActiveUser(); userID != "" {
		var user models.User
		switch err := d.store.Get(ctx, models.CollectionUsers, userID, &user); {
		case err == nil:
			user.ID = userID
			detail.User = &user
		case errors.Is(err, repository.ErrNotFound):
			log.Warn("user profile missing", zap.String("user_id", userID))
		default:
			log.Error("user lookup failed", zap.String("user_id", userID), zap.Error(err))
		}

		var locs []models.UserLocation
		err := d.store.Find(ctx, models.CollectionUserLocations, repository.Filter{"user_id": userID},
			repository.FindOptions{SortField: "created_at", SortDesc: true, Limit: 1}, &locs)
		if err != nil {
			log.Warn("user location lookup failed", zap.Error(err))
		} else if len(locs) > 0 {
			detail.UserLocation = &locs[0]
		}
	}

	history, err := d.ChatHistory(ctx, rec.ChatID, ChatHistoryLimit)
	if err != nil {
		log.Warn("chat history lookup failed", zap.Error(err))
	} else {
		detail.ChatHistory = history
	}
	return detail, nil
}

// ChatHistory returns the newest limit messages, oldest first.
func (d *SupportDesk) ChatHistory(ctx context.Context, chatID string, limit int) ([]models.Message, error) {
	var msgs []models.Message
	err := d.store.Find(ctx, models.CollectionMessages, repository.Filter{"chat_id": chatID},
		repository.FindOptions{SortField: "created_at", SortDesc: true, Limit: limit}, &msgs)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	return msgs, nil
}

// UserOrders lists a traveler's service orders, most recently updated first.
func (d *SupportDesk) UserOrders(ctx context.Context, userID string) ([]models.ServiceOrder, error) {
	out := []models.ServiceOrder{}
	err := d.store.Find(ctx, models.CollectionServiceOrders, repository.Filter{"user_id": userID},
		repository.FindOptions{SortField: "updated_at", SortDesc: true, Limit: UserListLimit}, &out)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return out, nil
}

// UserPayments lists successful app payments. The payment documents are
// written by the mobile checkout and have no fixed shape here.
func (d *SupportDesk) UserPayments(ctx context.Context, userID string) ([]map[string]any, error) {
	out := []map[string]any{}
	err := d.store.Find(ctx, models.CollectionPayments,
		repository.Filter{"uid": userID, "paymentStatus": paymentSucceeded},
		repository.FindOptions{SortField: "createdAt", SortDesc: true, Limit: UserListLimit}, &out)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return out, nil
}

// SetHumanInteraction hands a chat to an operator or back to the assistant.
func (d *SupportDesk) SetHumanInteraction(ctx context.Context, chatID string, on bool) error {
	err := d.store.Update(ctx, models.CollectionChats, chatID, map[string]any{
		"isHumanInteraction": on,
		"updated_at":         d.now().UTC(),
	})
	if err != nil {
		return err
	}
	d.log.Info("chat interaction mode changed", zap.String("chat_id", chatID), zap.Bool("human", on))
	return nil
}
