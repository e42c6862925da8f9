package models

import "time"

// MessageLog is the audit record for one processed assistant message.
// Suggestions and Process arrive later and may never be set.
type MessageLog struct {
	ID            string         `bson:"_id" json:"id"`
	ChatID        string         `bson:"chat_id" json:"chat_id"`
	MessageID     string         `bson:"message_id" json:"message_id"`
	Role          string         `bson:"role" json:"role"`
	Content       string         `bson:"content" json:"content"`
	Location      string         `bson:"location" json:"location"`
	ChatType      string         `bson:"chat_type" json:"chat_type"`
	ChapterID     string         `bson:"chapter_id" json:"chapter_id"`
	UserID        string         `bson:"user_id" json:"user_id"`
	UserLatitude  *float64       `bson:"user_latitude" json:"user_latitude"`
	UserLongitude *float64       `bson:"user_longitude" json:"user_longitude"`
	UserLocation  string         `bson:"user_location" json:"user_location"`
	NearbySites   []NearbySite   `bson:"nearby_sites" json:"nearby_sites"`
	NearbyTrivia  []NearbyTrivia `bson:"nearby_trivia" json:"nearby_trivia"`
	MagicWords    []string       `bson:"magic_words" json:"magic_words"`
	CreatedAt     time.Time      `bson:"created_at" json:"created_at"`
	LoggedAt      time.Time      `bson:"logged_at" json:"logged_at"`
	OriginalPath  string         `bson:"original_path" json:"original_path"`

	Suggestions          interface{} `bson:"suggestions,omitempty" json:"suggestions,omitempty"`
	SuggestionsFetchedAt *time.Time  `bson:"suggestions_fetched_at,omitempty" json:"suggestions_fetched_at,omitempty"`
	Process              interface{} `bson:"process,omitempty" json:"process,omitempty"`
	ProcessFetchedAt     *time.Time  `bson:"process_fetched_at,omitempty" json:"process_fetched_at,omitempty"`
}
