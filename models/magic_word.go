package models

import "time"

// MagicWord is an admin-managed trigger phrase.
type MagicWord struct {
	ID       string `bson:"_id" json:"id"`
	Title    string `bson:"title" json:"title"`
	IsActive bool   `bson:"isActive" json:"isActive"`
}

// MagicWordStatus is the lifecycle state of a tracking record.
type MagicWordStatus string

const (
	StatusRequested  MagicWordStatus = "requested"
	StatusInProgress MagicWordStatus = "inProgress"
	StatusCompleted  MagicWordStatus = "completed"
)

// OpenStatuses are the states shown on the dashboard queue.
var OpenStatuses = []MagicWordStatus{StatusRequested, StatusInProgress}

// ParseMagicWordStatus accepts the stored string form. An empty value is
// treated as requested, matching records written before the field existed.
func ParseMagicWordStatus(s string) (MagicWordStatus, bool) {
	switch MagicWordStatus(s) {
	case "", StatusRequested:
		return StatusRequested, true
	case StatusInProgress:
		return StatusInProgress, true
	case StatusCompleted:
		return StatusCompleted, true
	}
	return "", false
}

// Rank orders the states along the linear workflow.
func (s MagicWordStatus) Rank() int {
	switch s {
	case StatusRequested:
		return 0
	case StatusInProgress:
		return 1
	case StatusCompleted:
		return 2
	}
	return -1
}

// Next returns the following state. Completed is terminal.
func (s MagicWordStatus) Next() (MagicWordStatus, bool) {
	switch s {
	case StatusRequested:
		return StatusInProgress, true
	case StatusInProgress:
		return StatusCompleted, true
	}
	return "", false
}

// MagicWordRequest tracks one trigger detected in one user message.
// The id is <userMessageId>_<magicWordId>.
type MagicWordRequest struct {
	ID               string          `bson:"_id" json:"id"`
	ChatID           string          `bson:"chatId" json:"chatId"`
	MessageID        string          `bson:"messageId" json:"messageId"`
	UserID           string          `bson:"userId" json:"userId"`
	MagicWordID      string          `bson:"magicWordId" json:"magicWordId"`
	MagicWord        string          `bson:"magicWord" json:"magicWord"`
	UserMessage      string          `bson:"userMessage" json:"userMessage"`
	AssistantMessage string          `bson:"assistantMessage" json:"assistantMessage"`
	Location         string          `bson:"location" json:"location"`
	MatchedAt        time.Time       `bson:"matchedAt" json:"matchedAt"`
	IsActive         bool            `bson:"isActive" json:"isActive"`
	Status           MagicWordStatus `bson:"status" json:"status"`
	ServiceRequestID string          `bson:"serviceRequestId,omitempty" json:"serviceRequestId,omitempty"`
	OrderID          string          `bson:"orderId,omitempty" json:"orderId,omitempty"`
	PaymentStatus    string          `bson:"paymentStatus,omitempty" json:"paymentStatus,omitempty"`
	OrderStatus      string          `bson:"orderStatus,omitempty" json:"orderStatus,omitempty"`
	UpdatedAt        *time.Time      `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// MagicWordRequestID builds the composite key that makes creation idempotent.
func MagicWordRequestID(userMessageID, magicWordID string) string {
	return userMessageID + "_" + magicWordID
}
