package models

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Sender ids used by automated writers. Messages from these senders never
// re-enter the pipeline.
const (
	SenderImageBot        = "ImageG"
	SenderAudioBot        = "AudioG"
	SenderVideoBot        = "VideoG"
	SenderErrorBot        = "ErrorG"
	SenderCustomerService = "CustomerService"
)

var automatedSenders = map[string]struct{}{
	SenderImageBot:        {},
	SenderAudioBot:        {},
	SenderVideoBot:        {},
	SenderErrorBot:        {},
	SenderCustomerService: {},
}

// IsAutomatedSender reports whether id belongs to a bot or the support desk.
func IsAutomatedSender(id string) bool {
	_, ok := automatedSenders[id]
	return ok
}

// Message is one chat line. SenderID is stored as user_id.
type Message struct {
	ID        string    `bson:"_id" json:"id"`
	ChatID    string    `bson:"chat_id" json:"chat_id"`
	Role      string    `bson:"role" json:"role"`
	Content   string    `bson:"content" json:"content"`
	Location  string    `bson:"location,omitempty" json:"location,omitempty"`
	SenderID  string    `bson:"user_id,omitempty" json:"user_id,omitempty"`
	ImageURL  string    `bson:"image_url,omitempty" json:"image_url,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// MessageEvent is the unit of work for the message pipeline.
type MessageEvent struct {
	ChatID    string  `json:"chatId" validate:"required"`
	MessageID string  `json:"messageId" validate:"required"`
	Message   Message `json:"message"`
}

// Chat is a conversation between a traveler and the guide assistant.
type Chat struct {
	ID                 string    `bson:"_id" json:"id"`
	ChatType           string    `bson:"chat_type" json:"chat_type"`
	Participants       []string  `bson:"participants" json:"participants"`
	Location           string    `bson:"location,omitempty" json:"location,omitempty"`
	IsHumanInteraction bool      `bson:"isHumanInteraction" json:"isHumanInteraction"`
	CreatedAt          time.Time `bson:"created_at" json:"created_at"`
}

// ChatTypeJourney switches the location context to target-site mode.
const ChatTypeJourney = "journey"

var systemParticipants = map[string]struct{}{
	"System":              {},
	"system":              {},
	SenderCustomerService: {},
}

// ActiveUser returns the first participant that is not a system account.
func (c *Chat) ActiveUser() string {
	for _, p := range c.Participants {
		if _, skip := systemParticipants[p]; skip || p == "" {
			continue
		}
		return p
	}
	return ""
}

// UserLocation is an append-only position report from the app.
type UserLocation struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	Latitude  *float64  `bson:"latitude" json:"latitude"`
	Longitude *float64  `bson:"longitude" json:"longitude"`
	Location  string    `bson:"location,omitempty" json:"location,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
